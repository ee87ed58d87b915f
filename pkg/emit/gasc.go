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
package emit

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/htol-tools/patconv/pkg/lower"
	"github.com/htol-tools/patconv/pkg/stil"
)

// gascWrap is the column at which the HEADER signal list wraps.
const gascWrap = 75

// GASC renders lowered vectors as a GASC/SPM pattern file.  The preamble
// echoes the signal, group and timing declarations in STIL syntax, so a GASC
// file's declarations can be re-read by the same parser; the pattern body is
// one starred character line per vector:
//
//	*<chars>*[#<micro>][;<wft>][:<label>]...
//
// where the micro-instruction is omitted for a plain advance and the
// waveform table name appears only on the line at which it changes.
type GASC struct {
	out    *bufio.Writer
	symtab *stil.SymbolTable
	// Waveform table named on the previous line.
	wft string
}

// NewGASC constructs a GASC emitter over a writer.
func NewGASC(w io.Writer, symtab *stil.SymbolTable) *GASC {
	return &GASC{
		out:    bufio.NewWriter(w),
		symtab: symtab,
	}
}

// Begin writes the HEADER block, the STIL declaration echo and the pattern
// opener.
func (e *GASC) Begin() *stil.Error {
	e.header()
	e.declarations()
	//
	fmt.Fprintf(e.out, "SPM_PATTERN (SCAN) {\n")
	//
	return e.Flush()
}

// Emit writes one starred vector line.
func (e *GASC) Emit(v *lower.Vector) *stil.Error {
	var line strings.Builder
	//
	line.WriteString("       *")
	line.WriteString(string(v.Chars))
	line.WriteString("*")
	//
	if v.Micro.Op != lower.Adv {
		line.WriteString("#")
		line.WriteString(v.Micro.String())
	}
	//
	if v.WFT != e.wft {
		e.wft = v.WFT
		line.WriteString(";")
		line.WriteString(v.WFT)
	}
	//
	for _, label := range v.Labels {
		line.WriteString(":")
		line.WriteString(label)
	}
	//
	if _, err := fmt.Fprintf(e.out, "%s\n", line.String()); err != nil {
		return stil.Errorf(stil.IOError, -1, "%v", err)
	}
	//
	return nil
}

// End writes the closing brace.
func (e *GASC) End(cancelled bool) *stil.Error {
	if cancelled {
		fmt.Fprintf(e.out, "// translation cancelled\n")
	}
	//
	fmt.Fprintf(e.out, "}\n")
	//
	return e.Flush()
}

// Flush implements the Emitter interface.
func (e *GASC) Flush() *stil.Error {
	if err := e.out.Flush(); err != nil {
		return stil.Errorf(stil.IOError, -1, "%v", err)
	}
	//
	return nil
}

// header writes the HEADER block: the declared signal names, comma
// separated, wrapped and terminated by a semicolon.
func (e *GASC) header() {
	fmt.Fprintf(e.out, "HEADER\n")
	//
	signals := e.symtab.Signals()
	width := 0
	//
	fmt.Fprintf(e.out, "     ")
	width = 5
	//
	for i, sig := range signals {
		text := sig.Name
		//
		if i+1 < len(signals) {
			text += ","
		} else {
			text += ";"
		}
		//
		if width+len(text) > gascWrap && i > 0 {
			fmt.Fprintf(e.out, "\n     ")
			width = 5
		}
		//
		fmt.Fprintf(e.out, "%s", text)
		width += len(text)
	}
	//
	fmt.Fprintf(e.out, "\n\n")
}

// declarations echoes Signals, SignalGroups and Timing in STIL syntax.
func (e *GASC) declarations() {
	fmt.Fprintf(e.out, "Signals {\n")
	//
	for _, sig := range e.symtab.Signals() {
		fmt.Fprintf(e.out, "   %s %s;\n", sig.Name, sig.Dir)
	}
	//
	fmt.Fprintf(e.out, "}\n")
	//
	if groups := e.symtab.Groups(); len(groups) > 0 {
		fmt.Fprintf(e.out, "SignalGroups {\n")
		//
		for _, group := range groups {
			members, _ := e.symtab.GroupMembers(group)
			fmt.Fprintf(e.out, "   %s = '%s';\n", group, strings.Join(members, " + "))
		}
		//
		fmt.Fprintf(e.out, "}\n")
	}
	//
	if tables := e.symtab.WaveformTables(); len(tables) > 0 {
		fmt.Fprintf(e.out, "Timing {\n")
		//
		for _, name := range tables {
			e.waveformTable(name)
		}
		//
		fmt.Fprintf(e.out, "}\n")
	}
	//
	fmt.Fprintf(e.out, "\n")
}

// waveformTable echoes one waveform table declaration.
func (e *GASC) waveformTable(name string) {
	wft, _ := e.symtab.WaveformTable(name)
	//
	fmt.Fprintf(e.out, "   WaveformTable %s {\n", name)
	//
	if wft.Period != "" {
		fmt.Fprintf(e.out, "      Period '%s';\n", wft.Period)
	}
	//
	fmt.Fprintf(e.out, "      Waveforms {\n")
	//
	for _, entry := range wft.Entries {
		fmt.Fprintf(e.out, "         %s { %s {", entry.SigRef, entry.WFCs)
		//
		for _, edge := range entry.Edges {
			fmt.Fprintf(e.out, " '%s' %s;", edge.Time, strings.Join(edge.Events, "/"))
		}
		//
		fmt.Fprintf(e.out, " } }\n")
	}
	//
	fmt.Fprintf(e.out, "      }\n")
	fmt.Fprintf(e.out, "   }\n")
}
