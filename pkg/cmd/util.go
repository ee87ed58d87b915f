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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/htol-tools/patconv/pkg/stil"
	"github.com/htol-tools/patconv/pkg/util/source"
)

// GetFlag gets an expected flag, or exit if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string flag, or exit if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetStringArray gets an expected string array flag, or exit if an error
// arises.
func GetStringArray(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// reportError prints a conversion error, rendering the enclosing source line
// with highlighting when the error carries a byte offset.
func reportError(srcpath string, err error) {
	if serr, ok := err.(*stil.Error); ok && serr.Offset >= 0 {
		if srcfile, ioerr := source.ReadFile(srcpath); ioerr == nil {
			start := min(serr.Offset, len(srcfile.Contents()))
			end := min(start+1, len(srcfile.Contents()))
			msg := fmt.Sprintf("%s: %s", serr.Kind, serr.Message)
			//
			fmt.Print(formatSyntaxError(srcfile.SyntaxError(source.NewSpan(start, end), msg)))
			//
			return
		}
	}
	//
	fmt.Println(err)
}

// formatSyntaxError renders a syntax error against its enclosing source line,
// with the offending span highlighted.
func formatSyntaxError(err *source.SyntaxError) string {
	var builder strings.Builder
	//
	span := err.Span()
	line := err.SourceFile().EnclosingLine(span)
	lineOffset := span.Start() - line.Start()
	// Calculate length (ensures don't overflow line)
	length := min(line.Length()-lineOffset, span.Length())
	// Error + position
	fmt.Fprintf(&builder, "%s:%d:%d-%d %s\n", err.SourceFile().Filename(),
		line.Number(), 1+lineOffset, 1+lineOffset+length, err.Message())
	// Offending line
	fmt.Fprintln(&builder, line.String())
	// Highlight
	fmt.Fprintln(&builder, strings.Repeat(" ", lineOffset)+strings.Repeat("^", max(1, length)))
	//
	return builder.String()
}
