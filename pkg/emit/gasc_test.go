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
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htol-tools/patconv/pkg/lower"
	"github.com/htol-tools/patconv/pkg/stil"
	"github.com/htol-tools/patconv/pkg/stil/parser"
	"github.com/htol-tools/patconv/pkg/util/source"
)

func TestGASC_Begin(t *testing.T) {
	symtab := gascSymbols()
	//
	var buf bytes.Buffer
	//
	e := NewGASC(&buf, symtab)
	require.Nil(t, e.Begin())
	//
	out := buf.String()
	assert.Contains(t, out, "HEADER\n     clk,d1;\n")
	assert.Contains(t, out, "Signals {\n   clk In;\n   d1 InOut;\n}\n")
	assert.Contains(t, out, "SignalGroups {\n   all = 'clk + d1';\n}\n")
	assert.Contains(t, out, "   WaveformTable wft1 {\n")
	assert.Contains(t, out, "      Period '100ns';\n")
	assert.Contains(t, out, "         clk { 01 { '10ns' D/U; } }\n")
	assert.True(t, strings.HasSuffix(out, "SPM_PATTERN (SCAN) {\n"))
}

func TestGASC_HeaderWrap(t *testing.T) {
	symtab := stil.NewSymbolTable()
	//
	for i := 0; i < 40; i++ {
		symtab.AddSignal(stil.Signal{Name: fmt.Sprintf("signal_%02d", i), Dir: stil.In})
	}
	//
	var buf bytes.Buffer
	//
	e := NewGASC(&buf, symtab)
	require.Nil(t, e.Begin())
	//
	header := strings.Split(buf.String(), "\n\n")[0]
	lines := strings.Split(header, "\n")
	// The signal list wraps across several indented lines.
	assert.Greater(t, len(lines), 3)
	//
	for _, line := range lines[1:] {
		assert.True(t, strings.HasPrefix(line, "     "), "line %q lacks indent", line)
		assert.LessOrEqual(t, len(line), gascWrap+len("signal_00,"))
	}
	// Every signal appears exactly once and the list ends with a semicolon.
	assert.Equal(t, 39, strings.Count(header, ","))
	assert.True(t, strings.HasSuffix(header, ";"))
}

func TestGASC_DeclarationsRoundTrip(t *testing.T) {
	symtab := gascSymbols()
	//
	var buf bytes.Buffer
	//
	e := NewGASC(&buf, symtab)
	require.Nil(t, e.Begin())
	require.Nil(t, e.End(false))
	// The echoed declarations parse back to the same symbol table.
	srcfile := source.NewSourceFile("echo.gasc", buf.Bytes())
	p := parser.NewParser(srcfile, nil, nil)
	//
	read, err := p.ParseHeader()
	require.Nil(t, err)
	require.Nil(t, read.Finalize())
	//
	assert.Equal(t, symtab.Signals(), read.Signals())
	assert.Equal(t, symtab.Groups(), read.Groups())
	//
	members, ok := read.GroupMembers("all")
	require.True(t, ok)
	assert.Equal(t, []string{"clk", "d1"}, members)
	//
	wft, ok := read.WaveformTable("wft1")
	require.True(t, ok)
	assert.Equal(t, "100ns", wft.Period)
	//
	original, _ := symtab.WaveformTable("wft1")
	assert.Equal(t, original.Entries, wft.Entries)
}

func TestGASC_Emit(t *testing.T) {
	var buf bytes.Buffer
	//
	e := NewGASC(&buf, gascSymbols())
	//
	require.Nil(t, e.Emit(&lower.Vector{
		Address: 0,
		Micro:   lower.Micro{Op: lower.Mssa},
		WFT:     "wft1",
		Chars:   []rune("UD"),
		Labels:  []string{"start"},
	}))
	require.Nil(t, e.Emit(&lower.Vector{
		Address: 1,
		Micro:   lower.Micro{Op: lower.Adv},
		WFT:     "wft1",
		Chars:   []rune("DU"),
	}))
	require.Nil(t, e.Emit(&lower.Vector{
		Address: 2,
		Micro:   lower.Micro{Op: lower.Halt},
		WFT:     "wft2",
		Chars:   []rune("DD"),
	}))
	require.Nil(t, e.Flush())
	//
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	// Waveform table named on first use, label appended.
	assert.Equal(t, "       *UD*#MSSA;wft1:start", lines[0])
	// A plain advance carries no micro-instruction; the table is unchanged.
	assert.Equal(t, "       *DU*", lines[1])
	// The table is named again only when it changes.
	assert.Equal(t, "       *DD*#HALT;wft2", lines[2])
}

func TestGASC_End(t *testing.T) {
	var buf bytes.Buffer
	//
	e := NewGASC(&buf, gascSymbols())
	require.Nil(t, e.End(false))
	assert.Equal(t, "}\n", buf.String())
	//
	buf.Reset()
	//
	e = NewGASC(&buf, gascSymbols())
	require.Nil(t, e.End(true))
	assert.Equal(t, "// translation cancelled\n}\n", buf.String())
}

// gascSymbols builds a two-signal symbol table with a group and one populated
// waveform table.
func gascSymbols() *stil.SymbolTable {
	symtab := stil.NewSymbolTable()
	symtab.AddSignal(stil.Signal{Name: "clk", Dir: stil.In})
	symtab.AddSignal(stil.Signal{Name: "d1", Dir: stil.InOut})
	symtab.AddGroup("all", []string{"clk", "d1"})
	//
	wft := stil.NewWaveformTable("wft1")
	wft.Period = "100ns"
	wft.Entries = []stil.WaveformEntry{
		{SigRef: "clk", WFCs: "01", Edges: []stil.Edge{
			{Time: "10ns", Events: []string{"D", "U"}},
		}},
	}
	symtab.AddWaveformTable(wft)
	symtab.AddWaveformTable(stil.NewWaveformTable("wft2"))
	//
	return symtab
}
