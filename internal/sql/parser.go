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
Package sql contains the Parser component for SQL syntax analysis.

Parser Overview:
================

The Parser is the second stage of the SQL processing pipeline. It takes
the token sequence produced by the Lexer and builds an Abstract Syntax
Tree (AST) that represents the structure of the SQL statement.

Statements are parsed by recursive descent over the token slice, with
one function per grammar rule. WHERE clauses are the exception: their
AND/OR precedence is resolved by the shunting-yard parser in where.go,
which the statement parser hands the clause's token run.

Grammar (Simplified BNF):
=========================

	statement     := select | insert | update | delete
	              | create_table | drop_table

	select        := SELECT columns FROM ident [where_clause]
	                 [order_clause] [LIMIT number] [OFFSET number]
	columns       := * | ident (, ident)*
	order_clause  := ORDER BY ident [ASC|DESC] (, ident [ASC|DESC])*

	insert        := INSERT INTO ident [( idents )] VALUES ( operands )
	update        := UPDATE ident SET assignments [where_clause]
	assignments   := ident = operand (, ident = operand)*
	delete        := DELETE FROM ident [where_clause]

	create_table  := CREATE TABLE ident ( column_defs )
	column_defs   := column_def (, column_def)*
	column_def    := ident type [PRIMARY KEY] [NOT NULL] [UNIQUE]
	drop_table    := DROP TABLE ident

	where_clause  := WHERE condition  (see where.go)

Error Handling:
===============

The parser returns structured errors from the errors package, each
carrying the offending token's line and column. No error is recovered
internally; the first failure aborts the parse.

Usage Example:
==============

	parser := sql.NewParser(sql.NewLexer("SELECT name FROM users WHERE id = 1"))
	stmt, err := parser.Parse()
	if err != nil {
	    log.Fatal(err)
	}
	// stmt is now a *SelectStmt
*/
package sql

import (
	"strconv"

	"finchdb/internal/errors"
)

// Parser transforms a token sequence into an Abstract Syntax Tree.
// It works over the fully tokenized statement with positional
// lookahead; the WHERE shunting-yard parser shares the same slice.
type Parser struct {
	tokens []Token // The token sequence being parsed
	pos    int     // Index of the current token
	lexErr error   // Deferred tokenization error, surfaced by Parse
}

// NewParser creates a new Parser reading the whole token stream from
// the given Lexer. A tokenization error is reported by Parse.
func NewParser(lexer *Lexer) *Parser {
	tokens, err := lexer.Tokenize()
	return &Parser{tokens: tokens, lexErr: err}
}

// newParserAt creates a Parser positioned inside an existing token
// slice. Used by ParseWhere and subquery parsing.
func newParserAt(tokens []Token, pos int) *Parser {
	return &Parser{tokens: tokens, pos: pos}
}

// cur returns the current token, or a synthetic EOF token positioned
// after the last input token.
func (p *Parser) cur() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return p.eofToken()
}

// eofToken builds the synthetic end-of-input token used for error
// positions when the input ends early.
func (p *Parser) eofToken() Token {
	if len(p.tokens) == 0 {
		return Token{Type: TokenEOF, Value: "EOF", Line: 1, Column: 1}
	}
	last := p.tokens[len(p.tokens)-1]
	return Token{
		Type:   TokenEOF,
		Value:  "EOF",
		Line:   last.Line,
		Column: last.Column + len(last.Value),
	}
}

// atEnd reports whether all tokens have been consumed.
func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.cur()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

// check reports whether the current token has the given type.
func (p *Parser) check(t TokenType) bool {
	return !p.atEnd() && p.tokens[p.pos].Type == t
}

// checkKeyword reports whether the current token is the given keyword.
func (p *Parser) checkKeyword(kw string) bool {
	return !p.atEnd() && p.tokens[p.pos].IsKeyword(kw)
}

// expect consumes a token of the given type or fails with an
// unexpected-token error naming what was required.
func (p *Parser) expect(t TokenType, what string) (Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	tok := p.cur()
	return Token{}, errors.UnexpectedToken(what, tok.Value).At(tok.Line, tok.Column)
}

// expectKeyword consumes the given keyword or fails.
func (p *Parser) expectKeyword(kw string) (Token, error) {
	if p.checkKeyword(kw) {
		return p.advance(), nil
	}
	tok := p.cur()
	return Token{}, errors.UnexpectedToken(kw, tok.Value).At(tok.Line, tok.Column)
}

// expectInt consumes a non-negative integer literal or fails.
func (p *Parser) expectInt(what string) (int64, error) {
	tok, err := p.expect(TokenNumber, what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		return 0, errors.InvalidLiteral(tok.Value).At(tok.Line, tok.Column)
	}
	return n, nil
}

// Parse parses the input and returns the corresponding Statement AST.
// This is the main entry point for parsing SQL statements.
//
// The parser examines the first keyword to determine the statement type,
// then delegates to the appropriate parsing function. A trailing
// semicolon is accepted; any other trailing input is an error.
func (p *Parser) Parse() (Statement, error) {
	if p.lexErr != nil {
		return nil, p.lexErr
	}
	if len(p.tokens) == 0 {
		return nil, errors.NewSyntaxError("empty statement")
	}

	var stmt Statement
	var err error
	switch {
	case p.checkKeyword("SELECT"):
		stmt, err = p.parseSelect()
	case p.checkKeyword("INSERT"):
		stmt, err = p.parseInsert()
	case p.checkKeyword("UPDATE"):
		stmt, err = p.parseUpdate()
	case p.checkKeyword("DELETE"):
		stmt, err = p.parseDelete()
	case p.checkKeyword("CREATE"):
		stmt, err = p.parseCreateTable()
	case p.checkKeyword("DROP"):
		stmt, err = p.parseDropTable()
	default:
		tok := p.cur()
		return nil, errors.UnexpectedToken("a SQL statement", tok.Value).
			At(tok.Line, tok.Column)
	}
	if err != nil {
		return nil, err
	}

	if p.check(TokenSemicolon) {
		p.advance()
	}
	if !p.atEnd() {
		tok := p.cur()
		return nil, errors.UnexpectedToken("end of statement", tok.Value).
			At(tok.Line, tok.Column)
	}
	return stmt, nil
}

// parseSelect parses a SELECT statement. The SELECT keyword is the
// current token. Inside a subquery the parse stops at the enclosing
// right parenthesis.
func (p *Parser) parseSelect() (*SelectStmt, error) {
	if _, err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	stmt := &SelectStmt{Limit: -1, Offset: -1}

	if p.check(TokenStar) {
		p.advance()
		stmt.Columns = []string{"*"}
	} else {
		for {
			tok, err := p.expect(TokenIdent, "column name or *")
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, tok.Value)
			if !p.check(TokenComma) {
				break
			}
			p.advance()
		}
	}

	if _, err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	tok, err := p.expect(TokenIdent, "table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = tok.Value

	if p.checkKeyword("WHERE") {
		stmt.Where, err = p.parseWhereClause()
		if err != nil {
			return nil, err
		}
	}

	if p.checkKeyword("ORDER") {
		p.advance()
		if _, err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			col, err := p.expect(TokenIdent, "column name")
			if err != nil {
				return nil, err
			}
			ob := OrderByClause{Column: col.Value}
			if p.checkKeyword("ASC") {
				p.advance()
			} else if p.checkKeyword("DESC") {
				p.advance()
				ob.Desc = true
			}
			stmt.OrderBy = append(stmt.OrderBy, ob)
			if !p.check(TokenComma) {
				break
			}
			p.advance()
		}
	}

	if p.checkKeyword("LIMIT") {
		p.advance()
		if stmt.Limit, err = p.expectInt("LIMIT value"); err != nil {
			return nil, err
		}
	}
	if p.checkKeyword("OFFSET") {
		p.advance()
		if stmt.Offset, err = p.expectInt("OFFSET value"); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseWhereClause consumes the WHERE keyword, delimits the clause's
// token run, and hands it to the shunting-yard condition parser.
//
// The clause ends at the first ORDER/LIMIT/OFFSET keyword, semicolon,
// or unbalanced right parenthesis at nesting depth zero. Parentheses
// inside the clause (groups, IN lists, subqueries) are skipped over by
// depth counting, so a subquery's ORDER BY does not end the outer
// clause.
func (p *Parser) parseWhereClause() (Condition, error) {
	whereTok, err := p.expectKeyword("WHERE")
	if err != nil {
		return nil, err
	}
	end := p.scanClauseEnd()
	cond, err := p.parseWhereExpr(end)
	if err != nil {
		if fe, ok := err.(*errors.FinchError); ok && fe.Line == 0 {
			fe.At(whereTok.Line, whereTok.Column)
		}
		return nil, err
	}
	return cond, nil
}

// scanClauseEnd returns the index of the first token after the current
// position that terminates a WHERE clause at parenthesis depth zero.
func (p *Parser) scanClauseEnd() int {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		tok := p.tokens[i]
		switch tok.Type {
		case TokenLParen:
			depth++
		case TokenRParen:
			if depth == 0 {
				return i
			}
			depth--
		case TokenSemicolon:
			if depth == 0 {
				return i
			}
		case TokenKeyword:
			if depth == 0 && (tok.Value == "ORDER" || tok.Value == "LIMIT" || tok.Value == "OFFSET") {
				return i
			}
		}
	}
	return len(p.tokens)
}

// parseInsert parses an INSERT statement.
func (p *Parser) parseInsert() (*InsertStmt, error) {
	if _, err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	tok, err := p.expect(TokenIdent, "table name")
	if err != nil {
		return nil, err
	}
	stmt := &InsertStmt{Table: tok.Value}

	if p.check(TokenLParen) {
		p.advance()
		for {
			col, err := p.expect(TokenIdent, "column name")
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col.Value)
			if !p.check(TokenComma) {
				break
			}
			p.advance()
		}
		if _, err := p.expect(TokenRParen, ") after column list"); err != nil {
			return nil, err
		}
	}

	if _, err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLParen, "( after VALUES"); err != nil {
		return nil, err
	}
	for {
		v, err := p.parseOperand(len(p.tokens))
		if err != nil {
			return nil, err
		}
		stmt.Values = append(stmt.Values, v)
		if !p.check(TokenComma) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRParen, ") after values"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseUpdate parses an UPDATE statement.
func (p *Parser) parseUpdate() (*UpdateStmt, error) {
	if _, err := p.expectKeyword("UPDATE"); err != nil {
		return nil, err
	}
	tok, err := p.expect(TokenIdent, "table name")
	if err != nil {
		return nil, err
	}
	stmt := &UpdateStmt{Table: tok.Value}

	if _, err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	for {
		col, err := p.expect(TokenIdent, "column name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenEqual, "= after column name"); err != nil {
			return nil, err
		}
		val, err := p.parseOperand(len(p.tokens))
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col.Value, Value: val})
		if !p.check(TokenComma) {
			break
		}
		p.advance()
	}

	if p.checkKeyword("WHERE") {
		stmt.Where, err = p.parseWhereClause()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseDelete parses a DELETE statement.
func (p *Parser) parseDelete() (*DeleteStmt, error) {
	if _, err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	tok, err := p.expect(TokenIdent, "table name")
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStmt{Table: tok.Value}

	if p.checkKeyword("WHERE") {
		stmt.Where, err = p.parseWhereClause()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseCreateTable parses a CREATE TABLE statement with column
// definitions and per-column constraints.
func (p *Parser) parseCreateTable() (*CreateTableStmt, error) {
	if _, err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	tok, err := p.expect(TokenIdent, "table name")
	if err != nil {
		return nil, err
	}
	stmt := &CreateTableStmt{Table: tok.Value}

	if _, err := p.expect(TokenLParen, "( after table name"); err != nil {
		return nil, err
	}
	for {
		name, err := p.expect(TokenIdent, "column name")
		if err != nil {
			return nil, err
		}
		typ, err := p.parseColumnType()
		if err != nil {
			return nil, err
		}
		def := ColumnDef{Name: name.Value, Type: typ}
		if err := p.parseColumnConstraints(&def); err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, def)
		if !p.check(TokenComma) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokenRParen, ") after column definitions"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseColumnType consumes one column type keyword.
func (p *Parser) parseColumnType() (string, error) {
	tok := p.cur()
	if tok.Type == TokenKeyword {
		switch tok.Value {
		case "INT", "INTEGER", "TEXT", "BOOLEAN", "FLOAT", "DECIMAL":
			p.advance()
			return tok.Value, nil
		}
	}
	return "", errors.UnexpectedToken("column type", tok.Value).At(tok.Line, tok.Column)
}

// parseColumnConstraints consumes PRIMARY KEY, NOT NULL, and UNIQUE in
// any order and count.
func (p *Parser) parseColumnConstraints(def *ColumnDef) error {
	for {
		switch {
		case p.checkKeyword("PRIMARY"):
			p.advance()
			if _, err := p.expectKeyword("KEY"); err != nil {
				return err
			}
			def.PrimaryKey = true
		case p.checkKeyword("NOT"):
			p.advance()
			if _, err := p.expectKeyword("NULL"); err != nil {
				return err
			}
			def.NotNull = true
		case p.checkKeyword("UNIQUE"):
			p.advance()
			def.Unique = true
		default:
			return nil
		}
	}
}

// parseDropTable parses a DROP TABLE statement.
func (p *Parser) parseDropTable() (*DropTableStmt, error) {
	if _, err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	tok, err := p.expect(TokenIdent, "table name")
	if err != nil {
		return nil, err
	}
	return &DropTableStmt{Table: tok.Value}, nil
}
