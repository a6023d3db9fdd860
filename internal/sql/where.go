/*
 * Copyright (c) 2026 The FinchDB Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package sql: WHERE-clause condition parsing.

WHERE Parser Overview:
======================

The WHERE clause grammar mixes several predicate shapes (comparisons,
IS [NOT] NULL, [NOT] IN lists and subqueries) under AND/OR combinators
with parenthesized grouping. Instead of one recursive-descent function
per precedence level, FinchDB resolves AND/OR precedence with the
shunting-yard technique, generalized to whole predicates:

  - An operator stack holds AND/OR operators and open-paren markers.
  - An output stack holds completed Condition nodes.
  - Atomic predicates are parsed in one piece and pushed to the output
    stack; AND/OR and parentheses are resolved through the operator
    stack.

AND binds tighter than OR, both left-associative, so

	a = 1 OR b = 2 AND c = 3

parses as

	a = 1 OR (b = 2 AND c = 3)

and explicit parentheses override the default binding. Both stacks are
local to a single call: concurrent parses over separate token slices
never interfere.

Error Classification:
=====================

  - ErrCodeUnexpectedToken: a token no grammar rule admits here
  - ErrCodeIncompleteExpression: a predicate opened but not completed
  - ErrCodeUnmatchedParen: unbalanced parenthesis nesting
  - ErrCodeMalformedExpression: conditions not joined by AND/OR
  - ErrCodeEmptyExpression: no tokens supplied

Every error carries the offending token's line and column and aborts
the parse immediately.
*/
package sql

import (
	"fmt"
	"strconv"

	"finchdb/internal/errors"
)

// whereStackItem is one entry on the operator stack: either a logical
// operator or an open-paren marker. The source token is retained for
// error positions.
type whereStackItem struct {
	op    LogicalOp
	paren bool
	tok   Token
}

// ParseWhere parses the token sequence of a WHERE clause (the tokens
// after the WHERE keyword, up to the end of the clause) into a single
// Condition tree.
//
// The parse is pure: all state is local to the call and the token
// slice is never mutated, so independent parses may run concurrently.
//
// Returns the root Condition, or a structured syntax error carrying
// the offending token's position.
func ParseWhere(tokens []Token) (Condition, error) {
	p := newParserAt(tokens, 0)
	cond, err := p.parseWhereExpr(len(tokens))
	if err != nil {
		return nil, err
	}
	return cond, nil
}

// parseWhereExpr runs the shunting-yard loop over p.tokens[p.pos:limit]
// and leaves p.pos at limit on success.
func (p *Parser) parseWhereExpr(limit int) (Condition, error) {
	if p.pos >= limit {
		return nil, errors.EmptyExpression()
	}

	var operators []whereStackItem
	var output []Condition

	// combine pops two conditions and joins them under op. The first
	// pop is the right operand so source order is preserved.
	combine := func(item whereStackItem) error {
		if len(output) < 2 {
			return errors.IncompleteExpression(
				fmt.Sprintf("%s is missing a condition", item.op)).
				At(item.tok.Line, item.tok.Column)
		}
		right := output[len(output)-1]
		left := output[len(output)-2]
		output = output[:len(output)-2]
		output = append(output, LogicalCondition{Left: left, Op: item.op, Right: right})
		return nil
	}

	// haveOperand tracks whether the previous significant token closed
	// an operand position (a predicate or a group). AND/OR and ')' are
	// only legal right after one.
	haveOperand := false

	for p.pos < limit {
		tok := p.tokens[p.pos]
		switch {
		case isOperandStart(tok):
			cond, err := p.parsePredicate(limit)
			if err != nil {
				return nil, err
			}
			output = append(output, cond)
			haveOperand = true

		case tok.Type == TokenLParen:
			operators = append(operators, whereStackItem{paren: true, tok: tok})
			p.pos++
			haveOperand = false

		case tok.Type == TokenRParen:
			if !haveOperand {
				return nil, errors.UnexpectedToken("a condition", tok.Value).
					At(tok.Line, tok.Column)
			}
			p.pos++
			matched := false
			for len(operators) > 0 {
				item := operators[len(operators)-1]
				operators = operators[:len(operators)-1]
				if item.paren {
					matched = true
					break
				}
				if err := combine(item); err != nil {
					return nil, err
				}
			}
			if !matched {
				return nil, errors.UnmatchedParen("')' has no matching '('").
					At(tok.Line, tok.Column)
			}
			output[len(output)-1] = GroupCondition{Inner: output[len(output)-1]}

		case tok.IsKeyword("AND") || tok.IsKeyword("OR"):
			if !haveOperand {
				return nil, errors.UnexpectedToken("a condition before "+tok.Value, tok.Value).
					At(tok.Line, tok.Column)
			}
			incoming := LogicalAnd
			if tok.IsKeyword("OR") {
				incoming = LogicalOr
			}
			// Resolve any stacked operator of greater or equal
			// precedence before pushing; equal precedence resolves
			// first, which keeps AND/OR left-associative.
			for len(operators) > 0 {
				top := operators[len(operators)-1]
				if top.paren || top.op.Precedence() < incoming.Precedence() {
					break
				}
				operators = operators[:len(operators)-1]
				if err := combine(top); err != nil {
					return nil, err
				}
			}
			operators = append(operators, whereStackItem{op: incoming, tok: tok})
			p.pos++
			haveOperand = false

		default:
			return nil, errors.UnexpectedToken("a condition or AND/OR", tok.Value).
				At(tok.Line, tok.Column)
		}
	}

	if !haveOperand {
		last := p.tokens[limit-1]
		return nil, errors.IncompleteExpression("expression ends with "+last.Value).
			At(last.Line, last.Column)
	}

	// End of stream: drain the operator stack. Any paren marker left
	// here was never closed.
	for len(operators) > 0 {
		item := operators[len(operators)-1]
		operators = operators[:len(operators)-1]
		if item.paren {
			return nil, errors.UnmatchedParen("'(' is never closed").
				At(item.tok.Line, item.tok.Column)
		}
		if err := combine(item); err != nil {
			return nil, err
		}
	}

	switch len(output) {
	case 0:
		return nil, errors.EmptyExpression()
	case 1:
		return output[0], nil
	default:
		last := p.tokens[limit-1]
		return nil, errors.MalformedExpression().At(last.Line, last.Column)
	}
}

// isOperandStart reports whether tok can begin an operand: an
// identifier or a literal (string, number, TRUE, FALSE, NULL).
func isOperandStart(tok Token) bool {
	switch tok.Type {
	case TokenIdent, TokenString, TokenNumber:
		return true
	case TokenKeyword:
		return tok.Value == "TRUE" || tok.Value == "FALSE" || tok.Value == "NULL"
	}
	return false
}

// parsePredicate parses one complete atomic predicate starting at an
// operand token: a comparison, an IS [NOT] NULL check, or a [NOT] IN
// membership test. A bare identifier followed by a combinator or the
// end of the clause is shorthand for ident = TRUE.
func (p *Parser) parsePredicate(limit int) (Condition, error) {
	left, err := p.parseOperand(limit)
	if err != nil {
		return nil, err
	}

	if p.pos >= limit {
		return p.booleanShorthand(left)
	}

	tok := p.tokens[p.pos]
	switch {
	case tok.IsKeyword("IS"):
		p.pos++
		negated := false
		if p.pos < limit && p.tokens[p.pos].IsKeyword("NOT") {
			negated = true
			p.pos++
		}
		if p.pos >= limit || !p.tokens[p.pos].IsKeyword("NULL") {
			return nil, errors.IncompleteExpression("IS must be followed by [NOT] NULL").
				At(tok.Line, tok.Column)
		}
		p.pos++
		return NullCheckCondition{Operand: left, Negated: negated}, nil

	case tok.IsKeyword("NOT"):
		p.pos++
		if p.pos >= limit || !p.tokens[p.pos].IsKeyword("IN") {
			got := "end of expression"
			if p.pos < limit {
				got = p.tokens[p.pos].Value
			}
			return nil, errors.UnexpectedToken("IN after NOT", got).
				At(tok.Line, tok.Column)
		}
		p.pos++
		return p.parseInList(left, true, limit)

	case tok.IsKeyword("IN"):
		p.pos++
		return p.parseInList(left, false, limit)

	case tok.IsKeyword("AND") || tok.IsKeyword("OR") || tok.Type == TokenRParen:
		return p.booleanShorthand(left)

	default:
		if op, ok := compareOpFor(tok.Type); ok {
			p.pos++
			if p.pos >= limit || !isOperandStartOrSubquery(p.tokens, p.pos, limit) {
				return nil, errors.IncompleteExpression(
					fmt.Sprintf("comparison %q is missing its right operand", tok.Value)).
					At(tok.Line, tok.Column)
			}
			right, err := p.parseOperand(limit)
			if err != nil {
				return nil, err
			}
			return ComparisonCondition{Left: left, Op: op, Right: right}, nil
		}
		return nil, errors.UnexpectedToken("a comparison operator, IS, or IN", tok.Value).
			At(tok.Line, tok.Column)
	}
}

// booleanShorthand turns a bare identifier into ident = TRUE, matching
// the behavior of boolean flag columns in WHERE (e.g. "WHERE is_active").
func (p *Parser) booleanShorthand(left Operand) (Condition, error) {
	ident, ok := left.(IdentifierOperand)
	if !ok {
		last := p.tokens[p.pos-1]
		return nil, errors.IncompleteExpression("literal requires a comparison").
			At(last.Line, last.Column)
	}
	return ComparisonCondition{
		Left:  ident,
		Op:    CompareEq,
		Right: LiteralOperand{Value: Literal{Kind: LiteralBool, Bool: true}},
	}, nil
}

// parseInList parses the parenthesized tail of a [NOT] IN predicate:
// either a non-empty comma-separated operand list or a SELECT subquery
// carried opaquely.
func (p *Parser) parseInList(left Operand, negated bool, limit int) (Condition, error) {
	if p.pos >= limit || p.tokens[p.pos].Type != TokenLParen {
		got := "end of expression"
		var line, col int
		if p.pos < limit {
			got = p.tokens[p.pos].Value
			line, col = p.tokens[p.pos].Line, p.tokens[p.pos].Column
		} else {
			line, col = p.tokens[limit-1].Line, p.tokens[limit-1].Column
		}
		return nil, errors.UnexpectedToken("( after IN", got).At(line, col)
	}
	open := p.tokens[p.pos]
	p.pos++

	// A SELECT right after the paren is a subquery standing in for the
	// whole list. Its internals are not inspected here.
	if p.pos < limit && p.tokens[p.pos].IsKeyword("SELECT") {
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if p.pos >= limit || p.tokens[p.pos].Type != TokenRParen {
			return nil, errors.UnmatchedParen("IN subquery is missing ')'").
				At(open.Line, open.Column)
		}
		p.pos++
		return InCondition{Operand: left, Subquery: sub, Negated: negated}, nil
	}

	var values []Operand
	for {
		if p.pos >= limit {
			return nil, errors.UnmatchedParen("IN list is missing ')'").
				At(open.Line, open.Column)
		}
		if !isOperandStart(p.tokens[p.pos]) {
			return nil, errors.UnexpectedToken("a value in IN list", p.tokens[p.pos].Value).
				At(p.tokens[p.pos].Line, p.tokens[p.pos].Column)
		}
		v, err := p.parseOperand(limit)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.pos < limit && p.tokens[p.pos].Type == TokenComma {
			p.pos++
			continue
		}
		break
	}
	if p.pos >= limit {
		return nil, errors.UnmatchedParen("IN list is missing ')'").
			At(open.Line, open.Column)
	}
	if p.tokens[p.pos].Type != TokenRParen {
		return nil, errors.UnexpectedToken(", or ) in IN list", p.tokens[p.pos].Value).
			At(p.tokens[p.pos].Line, p.tokens[p.pos].Column)
	}
	p.pos++
	return InCondition{Operand: left, Values: values, Negated: negated}, nil
}

// parseOperand consumes one operand: an identifier, a literal, or a
// parenthesized SELECT subquery.
func (p *Parser) parseOperand(limit int) (Operand, error) {
	if p.pos >= limit {
		last := p.tokens[limit-1]
		return nil, errors.IncompleteExpression("expected a value").
			At(last.Line, last.Column)
	}
	tok := p.tokens[p.pos]
	switch tok.Type {
	case TokenIdent:
		p.pos++
		return IdentifierOperand{Name: tok.Value}, nil
	case TokenString:
		p.pos++
		return LiteralOperand{Value: Literal{Kind: LiteralText, Text: tok.Value}}, nil
	case TokenNumber:
		p.pos++
		return numberOperand(tok)
	case TokenKeyword:
		switch tok.Value {
		case "TRUE", "FALSE":
			p.pos++
			return LiteralOperand{Value: Literal{Kind: LiteralBool, Bool: tok.Value == "TRUE"}}, nil
		case "NULL":
			p.pos++
			return LiteralOperand{Value: Literal{Kind: LiteralNull}}, nil
		}
	case TokenLParen:
		if p.pos+1 < limit && p.tokens[p.pos+1].IsKeyword("SELECT") {
			p.pos++
			sub, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			if p.pos >= limit || p.tokens[p.pos].Type != TokenRParen {
				return nil, errors.UnmatchedParen("subquery is missing ')'").
					At(tok.Line, tok.Column)
			}
			p.pos++
			return SubqueryOperand{Select: sub}, nil
		}
	}
	return nil, errors.UnexpectedToken("a value", tok.Value).At(tok.Line, tok.Column)
}

// isOperandStartOrSubquery reports whether position pos can begin an
// operand, counting "(SELECT" as a subquery operand.
func isOperandStartOrSubquery(tokens []Token, pos, limit int) bool {
	if isOperandStart(tokens[pos]) {
		return true
	}
	return tokens[pos].Type == TokenLParen && pos+1 < limit && tokens[pos+1].IsKeyword("SELECT")
}

// numberOperand converts a TokenNumber into a typed literal operand.
func numberOperand(tok Token) (Operand, error) {
	if i, err := strconv.ParseInt(tok.Value, 10, 64); err == nil {
		return LiteralOperand{Value: Literal{Kind: LiteralInt, Int: i}}, nil
	}
	f, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		return nil, errors.InvalidLiteral(tok.Value).At(tok.Line, tok.Column)
	}
	return LiteralOperand{Value: Literal{Kind: LiteralDecimal, Decimal: f}}, nil
}

// compareOpFor maps a comparison token type to its CompareOp.
func compareOpFor(t TokenType) (CompareOp, bool) {
	switch t {
	case TokenEqual:
		return CompareEq, true
	case TokenNotEqual:
		return CompareNe, true
	case TokenLessThan:
		return CompareLt, true
	case TokenLessEqual:
		return CompareLe, true
	case TokenGreaterThan:
		return CompareGt, true
	case TokenGreaterEqual:
		return CompareGe, true
	}
	return 0, false
}
