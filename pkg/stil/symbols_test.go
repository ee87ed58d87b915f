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
package stil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolTable_FirstSignalWins(t *testing.T) {
	symtab := NewSymbolTable()
	symtab.AddSignal(Signal{Name: "clk", Dir: In})
	symtab.AddSignal(Signal{Name: "clk", Dir: Out})
	//
	require.Len(t, symtab.Signals(), 1)
	//
	sig, ok := symtab.Signal("clk")
	require.True(t, ok)
	assert.Equal(t, In, sig.Dir)
}

func TestSymbolTable_ResolveGroup(t *testing.T) {
	symtab := NewSymbolTable()
	symtab.AddSignal(Signal{Name: "clk"})
	symtab.AddSignal(Signal{Name: "d1"})
	symtab.AddSignal(Signal{Name: "d2"})
	symtab.AddGroup("data", []string{"d1", "d2"})
	symtab.AddGroup("all", []string{"clk", "data"})
	//
	flat, err := symtab.ResolveGroup("all")
	require.Nil(t, err)
	assert.Equal(t, []string{"clk", "d1", "d2"}, flat)
	// Memoized resolution returns the same answer.
	flat, err = symtab.ResolveGroup("all")
	require.Nil(t, err)
	assert.Equal(t, []string{"clk", "d1", "d2"}, flat)
}

func TestSymbolTable_CyclicGroup(t *testing.T) {
	symtab := NewSymbolTable()
	symtab.AddGroup("g1", []string{"g2"})
	symtab.AddGroup("g2", []string{"g1"})
	//
	err := symtab.Finalize()
	require.NotNil(t, err)
	assert.Equal(t, MalformedSymbolTable, err.Kind)
}

func TestSymbolTable_ResolveTarget(t *testing.T) {
	symtab := NewSymbolTable()
	symtab.AddSignal(Signal{Name: "clk"})
	symtab.AddGroup("g", []string{"clk"})
	//
	flat, ok := symtab.ResolveTarget("g")
	require.True(t, ok)
	assert.Equal(t, []string{"clk"}, flat)
	//
	flat, ok = symtab.ResolveTarget("clk")
	require.True(t, ok)
	assert.Equal(t, []string{"clk"}, flat)
	//
	_, ok = symtab.ResolveTarget("nope")
	assert.False(t, ok)
}

func TestSymbolTable_WaveformTableOrder(t *testing.T) {
	symtab := NewSymbolTable()
	symtab.AddWaveformTable(NewWaveformTable("wft2"))
	symtab.AddWaveformTable(NewWaveformTable("wft1"))
	//
	assert.Equal(t, []string{"wft2", "wft1"}, symtab.WaveformTables())
	assert.Equal(t, 0, symtab.WaveformTableID("wft2"))
	assert.Equal(t, 1, symtab.WaveformTableID("wft1"))
}

func TestSymbolTable_DeriveMappings(t *testing.T) {
	symtab := NewSymbolTable()
	symtab.AddSignal(Signal{Name: "clk", Dir: In})
	symtab.AddSignal(Signal{Name: "d1", Dir: In})
	//
	wft := NewWaveformTable("wft1")
	wft.Entries = []WaveformEntry{
		// Down-up-down pulse collapses to P.
		{SigRef: "clk", WFCs: "P", Edges: []Edge{
			{Time: "0ns", Events: []string{"D"}},
			{Time: "50ns", Events: []string{"U"}},
			{Time: "90ns", Events: []string{"D"}},
		}},
		// Positional events map each waveform character separately.
		{SigRef: "d1", WFCs: "01", Edges: []Edge{
			{Time: "10ns", Events: []string{"D", "U"}},
		}},
	}
	symtab.AddWaveformTable(wft)
	//
	require.Nil(t, symtab.Finalize())
	//
	assert.Equal(t, 'P', wft.Map("clk", 'P'))
	assert.Equal(t, 'D', wft.Map("d1", '0'))
	assert.Equal(t, 'U', wft.Map("d1", '1'))
	// Unbound characters pass through.
	assert.Equal(t, 'Z', wft.Map("d1", 'Z'))
	assert.Equal(t, 'X', wft.Map("unknown", 'X'))
}

func TestSymbolTable_RecursiveProcedure(t *testing.T) {
	symtab := NewSymbolTable()
	symtab.AddProcedure(&Procedure{Name: "a", Body: []Statement{
		&Call{Name: "b"},
	}})
	symtab.AddProcedure(&Procedure{Name: "b", Body: []Statement{
		&Loop{Count: 2, Body: []Statement{&Call{Name: "a"}}},
	}})
	//
	err := symtab.Finalize()
	require.NotNil(t, err)
	assert.Equal(t, MalformedSymbolTable, err.Kind)
}

func TestSymbolTable_UnknownCalleeAccepted(t *testing.T) {
	symtab := NewSymbolTable()
	symtab.AddProcedure(&Procedure{Name: "a", Body: []Statement{
		&Call{Name: "never_declared"},
	}})
	//
	assert.Nil(t, symtab.Finalize())
}

func TestDeriveDriven(t *testing.T) {
	assert.Equal(t, rune(0), DeriveDriven(nil))
	assert.Equal(t, 'D', DeriveDriven([]rune("DDD")))
	assert.Equal(t, 'P', DeriveDriven([]rune("DUD")))
	assert.Equal(t, 'N', DeriveDriven([]rune("UDU")))
	assert.Equal(t, 'D', DeriveDriven([]rune("DZ")))
}

func TestSignal_DefaultWFC(t *testing.T) {
	sig := Signal{Name: "clk"}
	assert.Equal(t, 'X', sig.DefaultWFC())
	//
	sig.Default = '0'
	assert.Equal(t, '0', sig.DefaultWFC())
}
