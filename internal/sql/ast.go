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
Package sql provides the SQL processing pipeline for FinchDB.

Abstract Syntax Tree (AST) Overview:
====================================

The AST is the intermediate representation of SQL statements after parsing.
It represents the structure of a SQL statement as a tree of nodes, where
each node type corresponds to a specific SQL construct.

AST Design Pattern:
===================

FinchDB uses closed tagged unions modeled with marker interfaces:

 1. All statement types implement the Statement interface
 2. All boolean conditions implement the Condition interface
 3. All value-producing terms implement the Operand interface
 4. Consumers use type switches to handle each variant

Each union is a fixed set of variants; the marker methods keep foreign
types out and enable compile-time checking. This pattern is common in
Go AST implementations (see go/ast package).

AST Node Hierarchy:
===================

	Statement (interface)
	├── CreateTableStmt
	├── DropTableStmt
	├── InsertStmt
	├── UpdateStmt
	├── DeleteStmt
	└── SelectStmt

	Condition (interface)
	├── ComparisonCondition   a = 1, a <= b
	├── NullCheckCondition    a IS [NOT] NULL
	├── InCondition           a [NOT] IN (1, 2, 3) | a IN (SELECT ...)
	├── LogicalCondition      cond AND cond, cond OR cond
	└── GroupCondition        ( cond )

	Operand (interface)
	├── IdentifierOperand     column, users.id
	├── LiteralOperand        'text', 42, 3.14, TRUE, NULL
	└── SubqueryOperand       (SELECT ...)

The condition tree is strictly tree-shaped: every child is exclusively
owned by its parent, there are no back references and no cycles.

Example AST:
============

For the SQL: SELECT name FROM users WHERE a = 1 OR b = 2 AND c = 3

	SelectStmt{
	    Table:   "users",
	    Columns: []string{"name"},
	    Where: LogicalCondition{
	        Left:  ComparisonCondition{a = 1},
	        Op:    LogicalOr,
	        Right: LogicalCondition{
	            Left:  ComparisonCondition{b = 2},
	            Op:    LogicalAnd,
	            Right: ComparisonCondition{c = 3},
	        },
	    },
	}

Every Condition and Operand also implements String(), reconstructing
SQL text. GroupCondition preserves explicit source parentheses, so
printing a parsed tree and re-parsing the output yields a structurally
equal tree.
*/
package sql

import (
	"fmt"
	"strconv"
	"strings"
)

// Statement represents a SQL statement node in the Abstract Syntax Tree.
// All concrete statement types must implement this interface.
type Statement interface {
	statementNode()
}

// ============================================================================
// Operands
// ============================================================================

// Operand represents a single value-producing term consumed by a
// predicate: an identifier, a literal, or an opaque subquery.
type Operand interface {
	operandNode()
	String() string
}

// IdentifierOperand names a column, optionally table-qualified.
type IdentifierOperand struct {
	Name string
}

func (o IdentifierOperand) operandNode() {}

func (o IdentifierOperand) String() string { return o.Name }

// LiteralKind discriminates the typed value held by a Literal.
type LiteralKind int

const (
	LiteralText LiteralKind = iota
	LiteralInt
	LiteralDecimal
	LiteralBool
	LiteralNull
)

// Literal is a typed literal value. Only the field matching Kind is
// meaningful.
type Literal struct {
	Kind    LiteralKind
	Text    string
	Int     int64
	Decimal float64
	Bool    bool
}

// String renders the literal as SQL source text. Text literals are
// quoted and re-escaped so the output lexes back to the same value.
func (l Literal) String() string {
	switch l.Kind {
	case LiteralText:
		return "'" + escapeText(l.Text) + "'"
	case LiteralInt:
		return strconv.FormatInt(l.Int, 10)
	case LiteralDecimal:
		return strconv.FormatFloat(l.Decimal, 'f', -1, 64)
	case LiteralBool:
		if l.Bool {
			return "TRUE"
		}
		return "FALSE"
	case LiteralNull:
		return "NULL"
	default:
		return ""
	}
}

func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\t", `\t`)
	return r.Replace(s)
}

// LiteralOperand wraps a Literal as a predicate operand.
type LiteralOperand struct {
	Value Literal
}

func (o LiteralOperand) operandNode() {}

func (o LiteralOperand) String() string { return o.Value.String() }

// SubqueryOperand carries a scalar subquery as an opaque handle.
// The parser does not inspect or validate the inner statement.
type SubqueryOperand struct {
	Select *SelectStmt
}

func (o SubqueryOperand) operandNode() {}

func (o SubqueryOperand) String() string { return "(" + o.Select.String() + ")" }

// ============================================================================
// Operators
// ============================================================================

// CompareOp identifies a comparison operator.
type CompareOp int

const (
	CompareEq CompareOp = iota // =
	CompareNe                  // != or <>
	CompareLt                  // <
	CompareLe                  // <=
	CompareGt                  // >
	CompareGe                  // >=
)

// String returns the SQL spelling of the operator.
func (op CompareOp) String() string {
	switch op {
	case CompareEq:
		return "="
	case CompareNe:
		return "!="
	case CompareLt:
		return "<"
	case CompareLe:
		return "<="
	case CompareGt:
		return ">"
	case CompareGe:
		return ">="
	default:
		return "?"
	}
}

// LogicalOp identifies a logical combinator.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
)

// String returns the SQL spelling of the operator.
func (op LogicalOp) String() string {
	if op == LogicalAnd {
		return "AND"
	}
	return "OR"
}

// Precedence returns the binding strength of the operator.
// AND binds tighter than OR; both are left-associative.
func (op LogicalOp) Precedence() int {
	if op == LogicalAnd {
		return 2
	}
	return 1
}

// ============================================================================
// Conditions
// ============================================================================

// Condition represents one node of a boolean WHERE-clause expression.
// The variant set is closed: comparison, null check, IN membership,
// logical combination, and explicit grouping.
type Condition interface {
	conditionNode()
	String() string
}

// ComparisonCondition is a binary comparison between two operands.
type ComparisonCondition struct {
	Left  Operand
	Op    CompareOp
	Right Operand
}

func (c ComparisonCondition) conditionNode() {}

func (c ComparisonCondition) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

// NullCheckCondition is an IS [NOT] NULL test.
type NullCheckCondition struct {
	Operand Operand
	Negated bool
}

func (c NullCheckCondition) conditionNode() {}

func (c NullCheckCondition) String() string {
	if c.Negated {
		return fmt.Sprintf("%s IS NOT NULL", c.Operand)
	}
	return fmt.Sprintf("%s IS NULL", c.Operand)
}

// InCondition is a [NOT] IN membership test. Exactly one of Values and
// Subquery is set: an explicit ordered value list, or an opaque
// subquery standing in for the whole list.
type InCondition struct {
	Operand  Operand
	Values   []Operand
	Subquery *SelectStmt
	Negated  bool
}

func (c InCondition) conditionNode() {}

func (c InCondition) String() string {
	var sb strings.Builder
	sb.WriteString(c.Operand.String())
	if c.Negated {
		sb.WriteString(" NOT")
	}
	sb.WriteString(" IN (")
	if c.Subquery != nil {
		sb.WriteString(c.Subquery.String())
	} else {
		for i, v := range c.Values {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(v.String())
		}
	}
	sb.WriteString(")")
	return sb.String()
}

// LogicalCondition combines two conditions with AND or OR.
// Left and Right are exclusively owned by this node.
type LogicalCondition struct {
	Left  Condition
	Op    LogicalOp
	Right Condition
}

func (c LogicalCondition) conditionNode() {}

func (c LogicalCondition) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

// GroupCondition marks explicit parenthesization in the source.
// It carries no semantics beyond preserving the written shape, so
// printing a parsed tree round-trips structurally.
type GroupCondition struct {
	Inner Condition
}

func (c GroupCondition) conditionNode() {}

func (c GroupCondition) String() string {
	return "(" + c.Inner.String() + ")"
}

// ============================================================================
// Statements
// ============================================================================

// SelectStmt represents a SELECT statement.
//
// SQL Syntax:
//
//	SELECT <columns|*> FROM <table>
//	    [WHERE <condition>]
//	    [ORDER BY <column> [ASC|DESC], ...]
//	    [LIMIT <n>] [OFFSET <n>]
type SelectStmt struct {
	Columns []string        // Column names; a single "*" selects all
	Table   string          // The table to read from
	Where   Condition       // Optional filter condition (nil = no WHERE)
	OrderBy []OrderByClause // Optional ordering
	Limit   int64           // Row limit, -1 when absent
	Offset  int64           // Row offset, -1 when absent
}

func (s *SelectStmt) statementNode() {}

// String reconstructs the statement as SQL source text.
func (s *SelectStmt) String() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(s.Columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(s.Table)
	if s.Where != nil {
		sb.WriteString(" WHERE ")
		sb.WriteString(s.Where.String())
	}
	for i, ob := range s.OrderBy {
		if i == 0 {
			sb.WriteString(" ORDER BY ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(ob.Column)
		if ob.Desc {
			sb.WriteString(" DESC")
		}
	}
	if s.Limit >= 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatInt(s.Limit, 10))
	}
	if s.Offset >= 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.FormatInt(s.Offset, 10))
	}
	return sb.String()
}

// OrderByClause is one ORDER BY term.
type OrderByClause struct {
	Column string
	Desc   bool
}

// InsertStmt represents an INSERT statement.
//
// SQL Syntax:
//
//	INSERT INTO <table> [(<columns>)] VALUES (<values>)
type InsertStmt struct {
	Table   string
	Columns []string  // Optional explicit column list
	Values  []Operand // One operand per column, in order
}

func (s *InsertStmt) statementNode() {}

// UpdateStmt represents an UPDATE statement.
//
// SQL Syntax:
//
//	UPDATE <table> SET <col> = <value>, ... [WHERE <condition>]
type UpdateStmt struct {
	Table       string
	Assignments []Assignment
	Where       Condition // nil = update all rows
}

func (s *UpdateStmt) statementNode() {}

// Assignment is one SET column = value pair.
type Assignment struct {
	Column string
	Value  Operand
}

// DeleteStmt represents a DELETE statement.
//
// SQL Syntax:
//
//	DELETE FROM <table> [WHERE <condition>]
type DeleteStmt struct {
	Table string
	Where Condition // nil = delete all rows
}

func (s *DeleteStmt) statementNode() {}

// CreateTableStmt represents a CREATE TABLE statement.
//
// SQL Syntax:
//
//	CREATE TABLE <table> (<col> <type> [constraints], ...)
type CreateTableStmt struct {
	Table   string
	Columns []ColumnDef
}

func (s *CreateTableStmt) statementNode() {}

// ColumnDef is one column definition in CREATE TABLE.
type ColumnDef struct {
	Name       string
	Type       string // Uppercased type keyword (INT, TEXT, ...)
	PrimaryKey bool
	NotNull    bool
	Unique     bool
}

// DropTableStmt represents a DROP TABLE statement.
type DropTableStmt struct {
	Table string
}

func (s *DropTableStmt) statementNode() {}
