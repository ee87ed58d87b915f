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
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/htol-tools/patconv/pkg/util/source"
)

func TestFormatSyntaxError(t *testing.T) {
	srcfile := source.NewSourceFile("t.stil", []byte("Signals {\n  clk In\n}\n"))
	serr := srcfile.SyntaxError(source.NewSpan(12, 15), "ParseError: expected \";\"")
	//
	expected := "t.stil:2:3-6 ParseError: expected \";\"\n" +
		"  clk In\n" +
		"  ^^^\n"
	//
	assert.Equal(t, expected, formatSyntaxError(serr))
}

func TestFormatSyntaxError_EndOfFile(t *testing.T) {
	// A span at the very end of the file still renders a caret.
	srcfile := source.NewSourceFile("t.stil", []byte("Pattern p {\n"))
	serr := srcfile.SyntaxError(source.NewSpan(12, 12), "ParseError: unexpected end of file")
	//
	expected := "t.stil:2:1-1 ParseError: unexpected end of file\n" +
		"\n" +
		"^\n"
	//
	assert.Equal(t, expected, formatSyntaxError(serr))
}
