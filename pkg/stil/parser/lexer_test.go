// Copyright the patconv authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package parser

import (
	"slices"
	"testing"

	"github.com/htol-tools/patconv/pkg/util/source"
	"github.com/htol-tools/patconv/pkg/util/source/lex"
)

func TestStilLexer_00(t *testing.T) {
	var tokens = []lex.Token{
		{Kind: END_OF, Span: source.NewSpan(0, 0)},
	}

	checkLexer(t, "", 0, tokens...)
}

func TestStilLexer_01(t *testing.T) {
	var tokens = []lex.Token{
		{Kind: IDENTIFIER, Span: source.NewSpan(0, 7)},
		{Kind: WHITESPACE, Span: source.NewSpan(7, 8)},
		{Kind: LCURLY, Span: source.NewSpan(8, 9)},
		{Kind: WHITESPACE, Span: source.NewSpan(9, 10)},
		{Kind: RCURLY, Span: source.NewSpan(10, 11)},
		{Kind: END_OF, Span: source.NewSpan(11, 11)},
	}

	checkLexer(t, "Signals { }", 0, tokens...)
}

func TestStilLexer_02(t *testing.T) {
	var tokens = []lex.Token{
		{Kind: COMMENT, Span: source.NewSpan(0, 4)},
		{Kind: WHITESPACE, Span: source.NewSpan(4, 5)},
		{Kind: IDENTIFIER, Span: source.NewSpan(5, 6)},
		{Kind: END_OF, Span: source.NewSpan(6, 6)},
	}

	checkLexer(t, "// c\nV", 0, tokens...)
}

func TestStilLexer_03(t *testing.T) {
	var tokens = []lex.Token{
		{Kind: COMMENT, Span: source.NewSpan(0, 7)},
		{Kind: END_OF, Span: source.NewSpan(7, 7)},
	}

	checkLexer(t, "/* a */", 0, tokens...)
}

func TestStilLexer_04(t *testing.T) {
	var tokens = []lex.Token{
		{Kind: TIME, Span: source.NewSpan(0, 7)},
		{Kind: END_OF, Span: source.NewSpan(7, 7)},
	}

	checkLexer(t, "'100ns'", 0, tokens...)
}

func TestStilLexer_05(t *testing.T) {
	var tokens = []lex.Token{
		{Kind: STRING, Span: source.NewSpan(0, 5)},
		{Kind: END_OF, Span: source.NewSpan(5, 5)},
	}

	checkLexer(t, "\"abc\"", 0, tokens...)
}

func TestStilLexer_06(t *testing.T) {
	var tokens = []lex.Token{
		{Kind: REPEAT, Span: source.NewSpan(0, 4)},
		{Kind: WHITESPACE, Span: source.NewSpan(4, 5)},
		{Kind: IDENTIFIER, Span: source.NewSpan(5, 7)},
		{Kind: END_OF, Span: source.NewSpan(7, 7)},
	}

	checkLexer(t, "\\r12 LH", 0, tokens...)
}

func TestStilLexer_07(t *testing.T) {
	var tokens = []lex.Token{
		{Kind: NUMBER, Span: source.NewSpan(0, 4)},
		{Kind: END_OF, Span: source.NewSpan(4, 4)},
	}

	checkLexer(t, "0x1F", 0, tokens...)
}

func TestStilLexer_08(t *testing.T) {
	var tokens = []lex.Token{
		{Kind: ANNOTATION, Span: source.NewSpan(0, 15)},
		{Kind: END_OF, Span: source.NewSpan(15, 15)},
	}

	checkLexer(t, "{* free text *}", 0, tokens...)
}

func TestStilLexer_09(t *testing.T) {
	// Character runs with a leading digit split into NUMBER then IDENTIFIER;
	// the parser reassembles them.
	var tokens = []lex.Token{
		{Kind: NUMBER, Span: source.NewSpan(0, 2)},
		{Kind: IDENTIFIER, Span: source.NewSpan(2, 4)},
		{Kind: END_OF, Span: source.NewSpan(4, 4)},
	}

	checkLexer(t, "01LH", 0, tokens...)
}

func TestStilLexer_10(t *testing.T) {
	// An unterminated block comment falls back to a bare slash, then sticks.
	var tokens = []lex.Token{
		{Kind: SLASH, Span: source.NewSpan(0, 1)},
	}

	checkLexer(t, "/* a", 3, tokens...)
}

func TestStilLexer_11(t *testing.T) {
	// Unterminated string matches nothing.
	checkLexer(t, "\"abc", 4)
}

func TestStilLexer_12(t *testing.T) {
	// A backslash without a repeat count matches nothing.
	checkLexer(t, "\\x", 2)
}

func TestStilLexer_13(t *testing.T) {
	// Dotted version numbers are one token.
	var tokens = []lex.Token{
		{Kind: NUMBER, Span: source.NewSpan(0, 3)},
		{Kind: SEMICOLON, Span: source.NewSpan(3, 4)},
		{Kind: END_OF, Span: source.NewSpan(4, 4)},
	}

	checkLexer(t, "1.0;", 0, tokens...)
}

func TestStilLexer_14(t *testing.T) {
	var tokens = []lex.Token{
		{Kind: IDENTIFIER, Span: source.NewSpan(0, 4)},
		{Kind: EQUALS, Span: source.NewSpan(4, 5)},
		{Kind: TIME, Span: source.NewSpan(5, 15)},
		{Kind: SEMICOLON, Span: source.NewSpan(15, 16)},
		{Kind: END_OF, Span: source.NewSpan(16, 16)},
	}

	checkLexer(t, "grp1='clk + d1';", 0, tokens...)
}

func checkLexer(t *testing.T, input string, remainder uint, expected ...lex.Token) {
	items := []rune(input)
	// Construct text lexer
	lexer := lex.NewLexer[rune](items, rules...)
	// Apply lexer
	tokens := lexer.Collect()
	//
	if !slices.Equal(tokens, expected) {
		t.Errorf("got %v, expected %v", tokens, expected)
	} else if lexer.Remaining() != remainder {
		n := len(items) - int(lexer.Remaining())
		t.Errorf("unmatched items: %v", items[n:])
	}
}
