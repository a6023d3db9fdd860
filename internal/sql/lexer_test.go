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
	"strings"
	"testing"

	"finchdb/internal/errors"
)

func TestLexerBasicTokens(t *testing.T) {
	input := "SELECT name FROM users WHERE id = 1"
	want := []Token{
		{TokenKeyword, "SELECT", 1, 1},
		{TokenIdent, "name", 1, 8},
		{TokenKeyword, "FROM", 1, 13},
		{TokenIdent, "users", 1, 18},
		{TokenKeyword, "WHERE", 1, 24},
		{TokenIdent, "id", 1, 30},
		{TokenEqual, "=", 1, 33},
		{TokenNumber, "1", 1, 35},
	}

	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(want), tokens)
	}
	for i, w := range want {
		if tokens[i] != w {
			t.Errorf("token %d = %+v, want %+v", i, tokens[i], w)
		}
	}
}

func TestLexerOperators(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"=", TokenEqual},
		{"!=", TokenNotEqual},
		{"<>", TokenNotEqual},
		{"<", TokenLessThan},
		{"<=", TokenLessEqual},
		{">", TokenGreaterThan},
		{">=", TokenGreaterEqual},
		{",", TokenComma},
		{"(", TokenLParen},
		{")", TokenRParen},
		{";", TokenSemicolon},
		{"*", TokenStar},
	}

	for _, tt := range tests {
		tok := NewLexer(tt.input).NextToken()
		if tok.Type != tt.typ {
			t.Errorf("NextToken(%q).Type = %d, want %d", tt.input, tok.Type, tt.typ)
		}
	}
}

func TestLexerKeywordsCaseInsensitive(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{"select", "SELECT"},
		{"Select", "SELECT"},
		{"WHERE", "WHERE"},
		{"and", "AND"},
		{"Or", "OR"},
		{"is", "IS"},
		{"not", "NOT"},
		{"null", "NULL"},
		{"in", "IN"},
		{"true", "TRUE"},
		{"false", "FALSE"},
	}

	for _, tt := range tests {
		tok := NewLexer(tt.input).NextToken()
		if tok.Type != TokenKeyword || tok.Value != tt.value {
			t.Errorf("NextToken(%q) = {%d %q}, want keyword %q",
				tt.input, tok.Type, tok.Value, tt.value)
		}
	}
}

func TestLexerIdentifiers(t *testing.T) {
	tests := []string{"name", "_private", "user_id", "users.id", "col2"}
	for _, input := range tests {
		tok := NewLexer(input).NextToken()
		if tok.Type != TokenIdent || tok.Value != input {
			t.Errorf("NextToken(%q) = {%d %q}, want identifier", input, tok.Type, tok.Value)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []string{"0", "42", "3.14", "100.001"}
	for _, input := range tests {
		tok := NewLexer(input).NextToken()
		if tok.Type != TokenNumber || tok.Value != input {
			t.Errorf("NextToken(%q) = {%d %q}, want number", input, tok.Type, tok.Value)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`'hello'`, "hello"},
		{`'it\'s'`, "it's"},
		{`'a\\b'`, `a\b`},
		{`'line\nbreak'`, "line\nbreak"},
		{`'tab\there'`, "tab\there"},
		{`''`, ""},
	}

	for _, tt := range tests {
		tok := NewLexer(tt.input).NextToken()
		if tok.Type != TokenString || tok.Value != tt.want {
			t.Errorf("NextToken(%s) = {%d %q}, want string %q",
				tt.input, tok.Type, tok.Value, tt.want)
		}
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.ErrorCode
	}{
		{"unclosed string", "'never ends", errors.ErrCodeUnclosedString},
		{"unknown escape", `'bad \x escape'`, errors.ErrCodeInvalidLiteral},
		{"trailing decimal point", "12.", errors.ErrCodeInvalidLiteral},
		{"decimal point without digit", "12.x", errors.ErrCodeInvalidLiteral},
		{"bare bang", "a ! b", errors.ErrCodeSyntax},
		{"unknown character", "a @ b", errors.ErrCodeSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.input).Tokenize()
			if err == nil {
				t.Fatalf("Tokenize(%q) expected error, got nil", tt.input)
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("Tokenize(%q) error code = %d (%v), want %d",
					tt.input, got, err, tt.code)
			}
		})
	}
}

func TestLexerLineTracking(t *testing.T) {
	input := "SELECT *\nFROM users\nWHERE id = 1"
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	// FROM starts line 2, WHERE starts line 3.
	var from, where Token
	for _, tok := range tokens {
		switch {
		case tok.IsKeyword("FROM"):
			from = tok
		case tok.IsKeyword("WHERE"):
			where = tok
		}
	}
	if from.Line != 2 || from.Column != 1 {
		t.Errorf("FROM at %d:%d, want 2:1", from.Line, from.Column)
	}
	if where.Line != 3 || where.Column != 1 {
		t.Errorf("WHERE at %d:%d, want 3:1", where.Line, where.Column)
	}
}

func TestLexerErrorPosition(t *testing.T) {
	_, err := NewLexer("SELECT * FROM t WHERE a @ 1").Tokenize()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "at line 1, col 25") {
		t.Errorf("error %q does not carry position 1:25", err.Error())
	}
}

func TestLexerEmptyInput(t *testing.T) {
	tokens, err := NewLexer("   \n\t ").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", tokens)
	}
}
