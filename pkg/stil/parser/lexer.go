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
	"github.com/htol-tools/patconv/pkg/util/source/lex"
)

// END_OF signals "end of file"
const END_OF uint = 0

// WHITESPACE signals whitespace
const WHITESPACE uint = 1

// COMMENT signals "// ... \n" or "/* ... */"
const COMMENT uint = 2

// LCURLY signals "{"
const LCURLY uint = 3

// RCURLY signals "}"
const RCURLY uint = 4

// LPAREN signals "("
const LPAREN uint = 5

// RPAREN signals ")"
const RPAREN uint = 6

// SEMICOLON signals ";"
const SEMICOLON uint = 7

// COMMA signals ","
const COMMA uint = 8

// EQUALS signals "="
const EQUALS uint = 9

// COLON signals ":"
const COLON uint = 10

// SLASH signals "/" (event separators in waveform declarations)
const SLASH uint = 11

// NUMBER signals an unsigned integer (decimal or hexadecimal)
const NUMBER uint = 12

// TIME signals a single-quoted literal, e.g. '100ns' or 'a + b'
const TIME uint = 13

// STRING signals a double-quoted string
const STRING uint = 14

// REPEAT signals a backslash repeat prefix "\rN"
const REPEAT uint = 15

// IDENTIFIER signals an identifier or waveform character run
const IDENTIFIER uint = 16

// ANNOTATION signals a "{* ... *}" annotation body
const ANNOTATION uint = 17

// Rule for describing whitespace.  Carriage returns are whitespace; the
// backslash-r repeat below is the two-character sequence "\" "r".
var whitespace lex.Scanner[rune] = lex.Many(lex.Or(
	lex.Unit(' '),
	lex.Unit('\t'),
	lex.Unit('\n'),
	lex.Unit('\r')))

var digit lex.Scanner[rune] = lex.Within('0', '9')

var hexDigit lex.Scanner[rune] = lex.Or(
	lex.Within('0', '9'),
	lex.Within('A', 'F'),
	lex.Within('a', 'f'),
)

// Rule for describing numbers.  Dotted numbers ("STIL 1.0;") lex as one
// token.
var number lex.Scanner[rune] = lex.Or(
	lex.SequenceNullableLast(lex.Sequence(lex.String("0x"), hexDigit), lex.Many(hexDigit)),
	lex.SequenceNullableLast(digit, lex.Many(lex.Or(digit, lex.Unit('.')))),
)

var identifierStart lex.Scanner[rune] = lex.Or(
	lex.Unit('_'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z'))

var identifierRest lex.Scanner[rune] = lex.Many(lex.Or(
	lex.Unit('_'),
	lex.Unit('.'),
	lex.Unit('['),
	lex.Unit(']'),
	lex.Within('0', '9'),
	lex.Within('a', 'z'),
	lex.Within('A', 'Z')))

// Rule for describing identifiers.  Waveform character runs with a leading
// letter (e.g. "LH01") lex as identifiers; runs with a leading digit lex as
// a number followed by an identifier and are reassembled by the parser.
var identifier lex.Scanner[rune] = lex.SequenceNullableLast(identifierStart, identifierRest)

// Rule for single-quoted literals (time expressions and sigref expressions).
var quoted lex.Scanner[rune] = lex.Sequence(lex.Unit('\''), lex.Many(lex.Not('\'')), lex.Unit('\''))

// Rule for double-quoted strings.
var strung lex.Scanner[rune] = lex.Sequence(lex.Unit('"'), lex.Many(lex.Not('"')), lex.Unit('"'))

// Rule for backslash repeats "\rN".  A backslash not matching this rule is
// unknown text, which surfaces as a LexError.
var repeat lex.Scanner[rune] = lex.SequenceNullableLast(
	lex.String("\\r"), digit, lex.Many(digit))

// Rule for line comments.
var lineComment lex.Scanner[rune] = func(items []rune) uint {
	if len(items) < 2 || items[0] != '/' || items[1] != '/' {
		return 0
	}
	//
	n := uint(2)
	for n < uint(len(items)) && items[n] != '\n' {
		n++
	}
	//
	return n
}

// Rule for block comments.  An unterminated block comment fails to match and
// surfaces as a LexError.
var blockComment lex.Scanner[rune] = func(items []rune) uint {
	if len(items) < 2 || items[0] != '/' || items[1] != '*' {
		return 0
	}
	//
	for i := 2; i+1 < len(items); i++ {
		if items[i] == '*' && items[i+1] == '/' {
			return uint(i + 2)
		}
	}
	//
	return 0
}

// Rule for annotation bodies "{* ... *}".  The body is free text and cannot
// be tokenised, so the whole thing is one token.
var annotation lex.Scanner[rune] = func(items []rune) uint {
	if len(items) < 2 || items[0] != '{' || items[1] != '*' {
		return 0
	}
	//
	for i := 2; i+1 < len(items); i++ {
		if items[i] == '*' && items[i+1] == '}' {
			return uint(i + 2)
		}
	}
	//
	return 0
}

// lexing rules
var rules []lex.LexRule[rune] = []lex.LexRule[rune]{
	lex.Rule(lineComment, COMMENT),
	lex.Rule(blockComment, COMMENT),
	lex.Rule(annotation, ANNOTATION),
	lex.Rule(lex.Unit('{'), LCURLY),
	lex.Rule(lex.Unit('}'), RCURLY),
	lex.Rule(lex.Unit('('), LPAREN),
	lex.Rule(lex.Unit(')'), RPAREN),
	lex.Rule(lex.Unit(';'), SEMICOLON),
	lex.Rule(lex.Unit(','), COMMA),
	lex.Rule(lex.Unit('='), EQUALS),
	lex.Rule(lex.Unit(':'), COLON),
	lex.Rule(lex.Unit('/'), SLASH),
	lex.Rule(whitespace, WHITESPACE),
	lex.Rule(repeat, REPEAT),
	lex.Rule(number, NUMBER),
	lex.Rule(quoted, TIME),
	lex.Rule(strung, STRING),
	lex.Rule(identifier, IDENTIFIER),
	lex.Rule(lex.Eof[rune](), END_OF),
}
