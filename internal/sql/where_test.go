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

package sql

import (
	"reflect"
	"testing"

	"finchdb/internal/errors"
)

// whereTokens lexes a WHERE clause body for ParseWhere.
func whereTokens(t *testing.T, clause string) []Token {
	t.Helper()
	tokens, err := NewLexer(clause).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q) failed: %v", clause, err)
	}
	return tokens
}

func ident(name string) IdentifierOperand {
	return IdentifierOperand{Name: name}
}

func intLit(v int64) LiteralOperand {
	return LiteralOperand{Value: Literal{Kind: LiteralInt, Int: v}}
}

func textLit(s string) LiteralOperand {
	return LiteralOperand{Value: Literal{Kind: LiteralText, Text: s}}
}

func boolLit(b bool) LiteralOperand {
	return LiteralOperand{Value: Literal{Kind: LiteralBool, Bool: b}}
}

func cmp(left string, op CompareOp, right Operand) ComparisonCondition {
	return ComparisonCondition{Left: ident(left), Op: op, Right: right}
}

func TestParseWhereSingleComparison(t *testing.T) {
	tests := []struct {
		clause string
		want   Condition
	}{
		{"x = 1", cmp("x", CompareEq, intLit(1))},
		{"x != 1", cmp("x", CompareNe, intLit(1))},
		{"x <> 1", cmp("x", CompareNe, intLit(1))},
		{"x < 1", cmp("x", CompareLt, intLit(1))},
		{"x <= 1", cmp("x", CompareLe, intLit(1))},
		{"x > 1", cmp("x", CompareGt, intLit(1))},
		{"x >= 1", cmp("x", CompareGe, intLit(1))},
		{"name = 'alice'", cmp("name", CompareEq, textLit("alice"))},
		{"price = 3.14", cmp("price", CompareEq,
			LiteralOperand{Value: Literal{Kind: LiteralDecimal, Decimal: 3.14}})},
		{"a = b", ComparisonCondition{Left: ident("a"), Op: CompareEq, Right: ident("b")}},
		{"active = TRUE", cmp("active", CompareEq, boolLit(true))},
	}

	for _, tt := range tests {
		got, err := ParseWhere(whereTokens(t, tt.clause))
		if err != nil {
			t.Fatalf("ParseWhere(%q) failed: %v", tt.clause, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseWhere(%q) = %#v, want %#v", tt.clause, got, tt.want)
		}
	}
}

func TestParseWherePrecedence(t *testing.T) {
	// AND binds tighter than OR.
	got, err := ParseWhere(whereTokens(t, "a = 1 OR b = 2 AND c = 3"))
	if err != nil {
		t.Fatalf("ParseWhere failed: %v", err)
	}
	want := LogicalCondition{
		Left: cmp("a", CompareEq, intLit(1)),
		Op:   LogicalOr,
		Right: LogicalCondition{
			Left:  cmp("b", CompareEq, intLit(2)),
			Op:    LogicalAnd,
			Right: cmp("c", CompareEq, intLit(3)),
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseWhereLeftAssociativity(t *testing.T) {
	got, err := ParseWhere(whereTokens(t, "a = 1 AND b = 2 AND c = 3"))
	if err != nil {
		t.Fatalf("ParseWhere failed: %v", err)
	}
	want := LogicalCondition{
		Left: LogicalCondition{
			Left:  cmp("a", CompareEq, intLit(1)),
			Op:    LogicalAnd,
			Right: cmp("b", CompareEq, intLit(2)),
		},
		Op:    LogicalAnd,
		Right: cmp("c", CompareEq, intLit(3)),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseWhereGroupingOverridesPrecedence(t *testing.T) {
	got, err := ParseWhere(whereTokens(t, "(a = 1 OR b = 2) AND c = 3"))
	if err != nil {
		t.Fatalf("ParseWhere failed: %v", err)
	}
	want := LogicalCondition{
		Left: GroupCondition{Inner: LogicalCondition{
			Left:  cmp("a", CompareEq, intLit(1)),
			Op:    LogicalOr,
			Right: cmp("b", CompareEq, intLit(2)),
		}},
		Op:    LogicalAnd,
		Right: cmp("c", CompareEq, intLit(3)),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseWhereNestedGroups(t *testing.T) {
	clause := "((a = 1 AND b = 2) OR (c = 3 AND d = 4)) AND e = 5"
	got, err := ParseWhere(whereTokens(t, clause))
	if err != nil {
		t.Fatalf("ParseWhere(%q) failed: %v", clause, err)
	}
	root, ok := got.(LogicalCondition)
	if !ok {
		t.Fatalf("expected LogicalCondition root, got %T", got)
	}
	if root.Op != LogicalAnd {
		t.Errorf("expected AND at root, got %v", root.Op)
	}
	outer, ok := root.Left.(GroupCondition)
	if !ok {
		t.Fatalf("expected GroupCondition on the left, got %T", root.Left)
	}
	inner, ok := outer.Inner.(LogicalCondition)
	if !ok {
		t.Fatalf("expected LogicalCondition inside group, got %T", outer.Inner)
	}
	if inner.Op != LogicalOr {
		t.Errorf("expected OR inside group, got %v", inner.Op)
	}
}

func TestParseWhereNullCheck(t *testing.T) {
	tests := []struct {
		clause  string
		negated bool
	}{
		{"a IS NULL", false},
		{"a IS NOT NULL", true},
	}

	for _, tt := range tests {
		got, err := ParseWhere(whereTokens(t, tt.clause))
		if err != nil {
			t.Fatalf("ParseWhere(%q) failed: %v", tt.clause, err)
		}
		want := NullCheckCondition{Operand: ident("a"), Negated: tt.negated}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ParseWhere(%q) = %#v, want %#v", tt.clause, got, want)
		}
	}
}

func TestParseWhereInList(t *testing.T) {
	got, err := ParseWhere(whereTokens(t, "a IN (1, 2, 3)"))
	if err != nil {
		t.Fatalf("ParseWhere failed: %v", err)
	}
	want := InCondition{
		Operand: ident("a"),
		Values:  []Operand{intLit(1), intLit(2), intLit(3)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseWhereNotIn(t *testing.T) {
	got, err := ParseWhere(whereTokens(t, "status NOT IN ('a', 'b')"))
	if err != nil {
		t.Fatalf("ParseWhere failed: %v", err)
	}
	want := InCondition{
		Operand: ident("status"),
		Values:  []Operand{textLit("a"), textLit("b")},
		Negated: true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseWhereInSubquery(t *testing.T) {
	got, err := ParseWhere(whereTokens(t, "category IN (SELECT name FROM categories)"))
	if err != nil {
		t.Fatalf("ParseWhere failed: %v", err)
	}
	in, ok := got.(InCondition)
	if !ok {
		t.Fatalf("expected InCondition, got %T", got)
	}
	if in.Subquery == nil {
		t.Fatal("expected subquery to be set")
	}
	if in.Subquery.Table != "categories" {
		t.Errorf("expected subquery table categories, got %s", in.Subquery.Table)
	}
	if len(in.Values) != 0 {
		t.Errorf("expected no inline values, got %v", in.Values)
	}
}

func TestParseWhereSubqueryOperand(t *testing.T) {
	got, err := ParseWhere(whereTokens(t, "price > (SELECT avg_price FROM stats)"))
	if err != nil {
		t.Fatalf("ParseWhere failed: %v", err)
	}
	comparison, ok := got.(ComparisonCondition)
	if !ok {
		t.Fatalf("expected ComparisonCondition, got %T", got)
	}
	sub, ok := comparison.Right.(SubqueryOperand)
	if !ok {
		t.Fatalf("expected SubqueryOperand on the right, got %T", comparison.Right)
	}
	if sub.Select.Table != "stats" {
		t.Errorf("expected subquery table stats, got %s", sub.Select.Table)
	}
}

func TestParseWhereBooleanShorthand(t *testing.T) {
	// A bare flag column reads as flag = TRUE.
	got, err := ParseWhere(whereTokens(t, "is_active AND verified"))
	if err != nil {
		t.Fatalf("ParseWhere failed: %v", err)
	}
	want := LogicalCondition{
		Left:  cmp("is_active", CompareEq, boolLit(true)),
		Op:    LogicalAnd,
		Right: cmp("verified", CompareEq, boolLit(true)),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseWhereErrors(t *testing.T) {
	tests := []struct {
		name   string
		clause string
		code   errors.ErrorCode
	}{
		{"unclosed paren", "(a = 1", errors.ErrCodeUnmatchedParen},
		{"deeply unclosed paren", "((a = 1 OR b = 2) AND c = 3", errors.ErrCodeUnmatchedParen},
		{"close without open", "a = 1)", errors.ErrCodeUnmatchedParen},
		{"missing IN close", "a IN (1, 2", errors.ErrCodeUnmatchedParen},
		{"missing connector", "a = 1 b = 2", errors.ErrCodeMalformedExpression},
		{"missing connector groups", "(a = 1) (b = 2)", errors.ErrCodeMalformedExpression},
		{"empty input", "", errors.ErrCodeEmptyExpression},
		{"comparison without operand", "a =", errors.ErrCodeIncompleteExpression},
		{"comparison operand is operator", "a = AND b = 2", errors.ErrCodeIncompleteExpression},
		{"IS without NULL", "a IS", errors.ErrCodeIncompleteExpression},
		{"IS followed by junk", "a IS b", errors.ErrCodeIncompleteExpression},
		{"IS NOT without NULL", "a IS NOT", errors.ErrCodeIncompleteExpression},
		{"trailing AND", "a = 1 AND", errors.ErrCodeIncompleteExpression},
		{"bare literal", "42", errors.ErrCodeIncompleteExpression},
		{"leading AND", "AND a = 1", errors.ErrCodeUnexpectedToken},
		{"doubled AND", "a = 1 AND AND b = 2", errors.ErrCodeUnexpectedToken},
		{"IN without paren", "a IN 1, 2", errors.ErrCodeUnexpectedToken},
		{"empty IN list", "a IN ()", errors.ErrCodeUnexpectedToken},
		{"NOT without IN", "a NOT b", errors.ErrCodeUnexpectedToken},
		{"empty group", "() AND a = 1", errors.ErrCodeUnexpectedToken},
		{"comparison of nothing", "= 1", errors.ErrCodeUnexpectedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWhere(whereTokens(t, tt.clause))
			if err == nil {
				t.Fatalf("ParseWhere(%q) expected error, got nil", tt.clause)
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("ParseWhere(%q) error code = %d (%v), want %d",
					tt.clause, got, err, tt.code)
			}
		})
	}
}

func TestParseWhereErrorPositions(t *testing.T) {
	_, err := ParseWhere(whereTokens(t, "a = 1 AND (b = 2"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	fe, ok := err.(*errors.FinchError)
	if !ok {
		t.Fatalf("expected *errors.FinchError, got %T", err)
	}
	// The unclosed paren is at column 11.
	if fe.Line != 1 || fe.Column != 11 {
		t.Errorf("expected position 1:11, got %d:%d", fe.Line, fe.Column)
	}
}

func TestParseWhereRoundTrip(t *testing.T) {
	// Printing a parsed condition and re-parsing the output must yield
	// a structurally equal tree.
	clauses := []string{
		"a = 1",
		"a = 1 OR b = 2 AND c = 3",
		"(a = 1 OR b = 2) AND c = 3",
		"a IS NOT NULL",
		"a IS NULL OR b IS NOT NULL",
		"a IN (1, 2, 3)",
		"status NOT IN ('new', 'open')",
		"name = 'it\\'s'",
		"((a = 1 AND b = 2) OR c = 3) AND d >= 4.5",
		"is_active AND verified = FALSE",
		"category IN (SELECT name FROM categories WHERE active = TRUE)",
	}

	for _, clause := range clauses {
		first, err := ParseWhere(whereTokens(t, clause))
		if err != nil {
			t.Fatalf("ParseWhere(%q) failed: %v", clause, err)
		}
		printed := first.String()
		second, err := ParseWhere(whereTokens(t, printed))
		if err != nil {
			t.Fatalf("re-parsing %q (printed from %q) failed: %v", printed, clause, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("round trip of %q changed the tree:\n first: %#v\nsecond: %#v",
				clause, first, second)
		}
	}
}

func TestParseWhereDoesNotMutateTokens(t *testing.T) {
	tokens := whereTokens(t, "a = 1 AND (b = 2 OR c = 3)")
	snapshot := make([]Token, len(tokens))
	copy(snapshot, tokens)

	if _, err := ParseWhere(tokens); err != nil {
		t.Fatalf("ParseWhere failed: %v", err)
	}
	if !reflect.DeepEqual(tokens, snapshot) {
		t.Error("ParseWhere mutated the token slice")
	}

	// A second parse over the same tokens must produce the same tree:
	// no state survives a call.
	first, err := ParseWhere(tokens)
	if err != nil {
		t.Fatalf("ParseWhere failed: %v", err)
	}
	second, err := ParseWhere(tokens)
	if err != nil {
		t.Fatalf("ParseWhere failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated parses disagree")
	}
}
