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
Package sql contains the Lexer component for SQL tokenization.

Lexer Overview:
===============

The Lexer (also called Scanner or Tokenizer) is the first stage of the
SQL processing pipeline. It transforms a raw SQL string into a stream
of tokens that the Parser can understand.

Lexical Analysis Process:
=========================

	Input: "SELECT name FROM users WHERE id = 1"

	Output Tokens:
	  1. {TokenKeyword, "SELECT", 1:1}
	  2. {TokenIdent, "name", 1:8}
	  3. {TokenKeyword, "FROM", 1:13}
	  4. {TokenIdent, "users", 1:18}
	  5. {TokenKeyword, "WHERE", 1:24}
	  6. {TokenIdent, "id", 1:30}
	  7. {TokenEqual, "=", 1:33}
	  8. {TokenNumber, "1", 1:35}
	  9. {TokenEOF, "", 1:36}

Every token carries the 1-based line and column of its first character,
so parse errors can point at the offending source position.

Keywords:
=========

The following words are recognized as keywords (case-insensitive):

	DDL: CREATE, DROP, TABLE, INT, INTEGER, TEXT, BOOLEAN, FLOAT, DECIMAL
	DML: SELECT, INSERT, INTO, VALUES, UPDATE, SET, DELETE
	Clauses: FROM, WHERE, ORDER, BY, ASC, DESC, LIMIT, OFFSET
	Predicates: AND, OR, NOT, IS, NULL, IN
	Literals: TRUE, FALSE
	Constraints: PRIMARY, KEY, UNIQUE

String Literals:
================

String literals are enclosed in single quotes and support the escape
sequences \' \\ \n \t:

	'hello world'
	'it\'s here'

An unterminated string or an unknown escape sequence produces a
TokenIllegal token; the error is available from Err().

Usage Example:
==============

	lexer := sql.NewLexer("SELECT * FROM users")
	tokens, err := lexer.Tokenize()
	if err != nil {
	    log.Fatal(err)
	}
*/
package sql

import (
	"strings"
	"unicode"

	"finchdb/internal/errors"
)

// TokenType represents the type of a lexical token.
// Each token type corresponds to a category of SQL syntax elements.
type TokenType int

// Token type constants.
// These are used to identify what kind of token was recognized.
const (
	TokenEOF          TokenType = iota // End of input
	TokenIllegal                       // Unscannable input (see Lexer.Err)
	TokenIdent                         // Identifier (table name, column name)
	TokenString                        // String literal ('hello')
	TokenNumber                        // Numeric literal (123, 3.14)
	TokenKeyword                       // SQL keyword (SELECT, FROM, etc.)
	TokenComma                         // Comma (,)
	TokenLParen                        // Left parenthesis (()
	TokenRParen                        // Right parenthesis ())
	TokenSemicolon                     // Semicolon (;)
	TokenStar                          // Asterisk (*)
	TokenEqual                         // Equals sign (=)
	TokenNotEqual                      // Not equal (!= or <>)
	TokenLessThan                      // Less than (<)
	TokenGreaterThan                   // Greater than (>)
	TokenLessEqual                     // Less than or equal (<=)
	TokenGreaterEqual                  // Greater than or equal (>=)
)

// Token represents a single lexical unit from the input.
// It contains the token type, the literal value, and the source position
// of the token's first character.
type Token struct {
	Type   TokenType // The category of this token
	Value  string    // The literal value (keywords are uppercased)
	Line   int       // 1-based source line
	Column int       // 1-based source column
}

// IsKeyword reports whether the token is the given keyword.
// The comparison value must be uppercase.
func (t Token) IsKeyword(kw string) bool {
	return t.Type == TokenKeyword && t.Value == kw
}

// Lexer transforms an input string into a stream of tokens.
// It maintains the current position in the input and provides
// the NextToken() method to retrieve tokens one at a time.
//
// The Lexer is stateful - each call to NextToken() advances
// the position in the input string.
type Lexer struct {
	input     string // The SQL input string
	pos       int    // Current byte position in the input
	line      int    // Current 1-based line
	lineStart int    // Byte position where the current line starts
	err       error  // First scan error, if any
}

// NewLexer creates a new Lexer for the given input string.
// The lexer starts at position 0, ready to tokenize from the beginning.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

// Err returns the first scan error encountered, or nil.
// It is set when NextToken returns a TokenIllegal token.
func (l *Lexer) Err() error {
	return l.err
}

// Tokenize scans the whole input and returns the token sequence,
// excluding the trailing TokenEOF. It returns the first scan error,
// if any.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			return tokens, nil
		}
		if tok.Type == TokenIllegal {
			return nil, l.err
		}
		tokens = append(tokens, tok)
	}
}

// column returns the 1-based column for a byte position on the current line.
func (l *Lexer) column(pos int) int {
	return pos - l.lineStart + 1
}

// tokenAt builds a token whose position is the given start offset.
func (l *Lexer) tokenAt(t TokenType, value string, start int) Token {
	return Token{Type: t, Value: value, Line: l.line, Column: l.column(start)}
}

// NextToken advances the lexer and returns the next token.
// It skips whitespace, then identifies the next token based on
// the current character.
//
// Token recognition order:
//  1. Check for end of input (return TokenEOF)
//  2. Check for identifier/keyword (starts with letter or underscore)
//  3. Check for number (starts with digit)
//  4. Check for string literal (starts with ')
//  5. Check for multi-character operators (<=, >=, <>, !=)
//  6. Check for single-character tokens
//
// Returns the next Token, or TokenEOF if at end of input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return l.tokenAt(TokenEOF, "", l.pos)
	}

	ch := l.input[l.pos]
	start := l.pos

	// Identifier or keyword: starts with letter or underscore.
	// Identifiers can contain letters, digits, underscores, and dots
	// for qualified names like "users.id".
	if unicode.IsLetter(rune(ch)) || ch == '_' {
		for l.pos < len(l.input) && (unicode.IsLetter(rune(l.input[l.pos])) ||
			unicode.IsDigit(rune(l.input[l.pos])) ||
			l.input[l.pos] == '_' ||
			l.input[l.pos] == '.') {
			l.pos++
		}

		lit := l.input[start:l.pos]
		upper := strings.ToUpper(lit)

		// Check if this identifier is a reserved keyword.
		// Keywords are case-insensitive, so we compare uppercase.
		switch upper {
		case "CREATE", "DROP", "TABLE",
			"SELECT", "INSERT", "INTO", "VALUES",
			"UPDATE", "SET", "DELETE",
			"FROM", "WHERE", "ORDER", "BY", "ASC", "DESC", "LIMIT", "OFFSET",
			"AND", "OR", "NOT", "IS", "NULL", "IN",
			"TRUE", "FALSE",
			"INT", "INTEGER", "TEXT", "BOOLEAN", "FLOAT", "DECIMAL",
			"PRIMARY", "KEY", "UNIQUE":
			return l.tokenAt(TokenKeyword, upper, start)
		}

		// Not a keyword - return as identifier.
		return l.tokenAt(TokenIdent, lit, start)
	}

	// Number: starts with digit.
	// Supports integers and decimal numbers (e.g., 123, 3.14).
	// A decimal point must be followed by at least one digit.
	if unicode.IsDigit(rune(ch)) {
		for l.pos < len(l.input) && unicode.IsDigit(rune(l.input[l.pos])) {
			l.pos++
		}

		if l.pos < len(l.input) && l.input[l.pos] == '.' {
			if l.pos+1 >= len(l.input) || !unicode.IsDigit(rune(l.input[l.pos+1])) {
				l.pos++
				lit := l.input[start:l.pos]
				l.err = errors.InvalidLiteral(lit).At(l.line, l.column(start))
				return l.tokenAt(TokenIllegal, lit, start)
			}
			l.pos++ // Consume the decimal point.
			for l.pos < len(l.input) && unicode.IsDigit(rune(l.input[l.pos])) {
				l.pos++
			}
		}

		return l.tokenAt(TokenNumber, l.input[start:l.pos], start)
	}

	// String literal: enclosed in single quotes.
	// Supports the escape sequences \' \\ \n \t.
	if ch == '\'' {
		l.pos++ // Skip opening quote
		var sb strings.Builder

		for l.pos < len(l.input) {
			c := l.input[l.pos]
			if c == '\'' {
				l.pos++
				return l.tokenAt(TokenString, sb.String(), start)
			}
			if c == '\\' {
				if l.pos+1 >= len(l.input) {
					break
				}
				esc := l.input[l.pos+1]
				switch esc {
				case '\'':
					sb.WriteByte('\'')
				case '\\':
					sb.WriteByte('\\')
				case 'n':
					sb.WriteByte('\n')
				case 't':
					sb.WriteByte('\t')
				default:
					l.err = errors.InvalidLiteral("\\"+string(esc)).
						WithDetail("unknown escape sequence").
						At(l.line, l.column(l.pos))
					return l.tokenAt(TokenIllegal, "\\"+string(esc), start)
				}
				l.pos += 2
				continue
			}
			if c == '\n' {
				l.pos++
				sb.WriteByte(c)
				l.line++
				l.lineStart = l.pos
				continue
			}
			l.pos++
			sb.WriteByte(c)
		}

		l.err = errors.UnclosedString().At(l.line, l.column(start))
		return l.tokenAt(TokenIllegal, l.input[start:], start)
	}

	// Multi-character operators (check before single-character).
	if ch == '<' {
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
			return l.tokenAt(TokenLessEqual, "<=", start)
		}
		if l.pos < len(l.input) && l.input[l.pos] == '>' {
			l.pos++
			return l.tokenAt(TokenNotEqual, "<>", start)
		}
		return l.tokenAt(TokenLessThan, "<", start)
	}
	if ch == '>' {
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
			return l.tokenAt(TokenGreaterEqual, ">=", start)
		}
		return l.tokenAt(TokenGreaterThan, ">", start)
	}
	if ch == '!' {
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
			return l.tokenAt(TokenNotEqual, "!=", start)
		}
		l.err = errors.NewSyntaxError("unexpected character: '!'").At(l.line, l.column(start))
		return l.tokenAt(TokenIllegal, "!", start)
	}

	// Single-character tokens.
	l.pos++
	switch ch {
	case ',':
		return l.tokenAt(TokenComma, ",", start)
	case '(':
		return l.tokenAt(TokenLParen, "(", start)
	case ')':
		return l.tokenAt(TokenRParen, ")", start)
	case ';':
		return l.tokenAt(TokenSemicolon, ";", start)
	case '*':
		return l.tokenAt(TokenStar, "*", start)
	case '=':
		return l.tokenAt(TokenEqual, "=", start)
	}

	l.err = errors.NewSyntaxError("unexpected character: "+string(ch)).
		At(l.line, l.column(start))
	return l.tokenAt(TokenIllegal, string(ch), start)
}

// skipWhitespace advances the position past any whitespace characters,
// updating line accounting on newlines.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.lineStart = l.pos + 1
		}
		l.pos++
	}
}
