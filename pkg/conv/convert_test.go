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
package conv

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htol-tools/patconv/pkg/chanmap"
	"github.com/htol-tools/patconv/pkg/stil"
)

const sampleSTIL = `
STIL 1.0;
Header {
	Title "sample";
}
Signals { clk In; d1 In; }
SignalGroups { all = 'clk + d1'; }
Timing {
	WaveformTable wft1 {
		Period '100ns';
		Waveforms {
			all { 01 { '10ns' D/U; } }
		}
	}
}
Pattern burn_in {
	W wft1;
	V { all=10; }
	V { all=01; }
	Stop;
}
`

func TestConvert_VCT(t *testing.T) {
	dir := t.TempDir()
	input := writeSample(t, dir, sampleSTIL)
	output := filepath.Join(dir, "sample.vct")
	//
	var events []Event
	//
	result, err := Convert(Config{
		SourcePath: input,
		OutputPath: output,
		Target:     VCT,
		ChannelMap: testChannels(t),
		Sink:       SinkFunc(func(e Event) { events = append(events, e) }),
	})
	//
	require.Nil(t, err)
	assert.Equal(t, uint64(3), result.Vectors)
	assert.Equal(t, "burn_in", result.Pattern)
	assert.False(t, result.Cancelled)
	//
	out := readFile(t, output)
	assert.Contains(t, out, "#VECTOR\n")
	assert.Contains(t, out, "  MSSA")
	assert.Contains(t, out, "  HALT")
	assert.True(t, strings.HasSuffix(out, "#VECTOREND\n"))
	// The final event reports the vector total.
	require.NotEmpty(t, events)
	assert.Equal(t, Done{TotalVectors: 3}, events[len(events)-1])
	// The parse summary is logged at info level.
	var logged []Log
	//
	for _, e := range events {
		if l, ok := e.(Log); ok {
			logged = append(logged, l)
		}
	}
	//
	require.NotEmpty(t, logged)
	assert.Equal(t, log.InfoLevel, logged[0].Level)
	assert.Contains(t, logged[0].Message, "2 signals")
}

func TestConvert_GASC(t *testing.T) {
	dir := t.TempDir()
	input := writeSample(t, dir, sampleSTIL)
	output := filepath.Join(dir, "sample.gasc")
	//
	result, err := Convert(Config{
		SourcePath: input,
		OutputPath: output,
		Target:     GASC,
	})
	//
	require.Nil(t, err)
	assert.Equal(t, uint64(3), result.Vectors)
	//
	out := readFile(t, output)
	assert.Contains(t, out, "SPM_PATTERN (SCAN) {\n")
	assert.Contains(t, out, "       *UD*#MSSA;wft1\n")
	assert.Contains(t, out, "       *DU*\n")
	assert.Contains(t, out, "       *DU*#HALT\n")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestConvert_Cancelled(t *testing.T) {
	dir := t.TempDir()
	input := writeSample(t, dir, sampleSTIL)
	output := filepath.Join(dir, "sample.vct")
	//
	var cancel atomic.Bool
	cancel.Store(true)
	//
	var events []Event
	//
	result, err := Convert(Config{
		SourcePath: input,
		OutputPath: output,
		Target:     VCT,
		ChannelMap: testChannels(t),
		Cancel:     &cancel,
		Sink:       SinkFunc(func(e Event) { events = append(events, e) }),
	})
	//
	require.Nil(t, err)
	assert.True(t, result.Cancelled)
	assert.Zero(t, result.Vectors)
	// A cancelled translation still carries its closing marker.
	out := readFile(t, output)
	assert.Contains(t, out, "; translation cancelled\n#VECTOREND\n")
	//
	require.NotEmpty(t, events)
	assert.IsType(t, Cancelled{}, events[len(events)-1])
}

func TestConvert_DenyList(t *testing.T) {
	dir := t.TempDir()
	input := writeSample(t, dir, strings.Replace(sampleSTIL,
		"W wft1;", "W wft1;\n\tScanChain chain1;", 1))
	output := filepath.Join(dir, "sample.vct")
	//
	result, err := Convert(Config{
		SourcePath: input,
		OutputPath: output,
		Target:     VCT,
		ChannelMap: testChannels(t),
		DenyList:   []string{"ScanChain"},
	})
	//
	require.Nil(t, err)
	assert.Equal(t, uint64(3), result.Vectors)
	assert.Equal(t, uint(1), result.Warnings)
}

func TestConvert_FatalLeavesNoMarker(t *testing.T) {
	dir := t.TempDir()
	// No waveform table is ever selected.
	input := writeSample(t, dir, strings.Replace(sampleSTIL, "W wft1;", "", 1))
	output := filepath.Join(dir, "sample.vct")
	//
	_, err := Convert(Config{
		SourcePath: input,
		OutputPath: output,
		Target:     VCT,
		ChannelMap: testChannels(t),
	})
	//
	require.NotNil(t, err)
	assert.True(t, stil.IsKind(err, stil.MissingWaveformContext))
	// A truncated file must not look complete.
	assert.NotContains(t, readFile(t, output), "#VECTOREND")
}

func TestConvert_MissingInput(t *testing.T) {
	dir := t.TempDir()
	//
	_, err := Convert(Config{
		SourcePath: filepath.Join(dir, "missing.stil"),
		OutputPath: filepath.Join(dir, "out.vct"),
	})
	//
	require.NotNil(t, err)
	assert.True(t, stil.IsKind(err, stil.IOError))
}

func TestReadSymbols(t *testing.T) {
	dir := t.TempDir()
	input := writeSample(t, dir, sampleSTIL)
	//
	symtab, err := ReadSymbols(input, nil)
	require.Nil(t, err)
	//
	assert.Len(t, symtab.Signals(), 2)
	assert.Equal(t, []string{"all"}, symtab.Groups())
	assert.Equal(t, []string{"wft1"}, symtab.WaveformTables())
	assert.Equal(t, "sample", symtab.Header.Title)
}

func TestParseTarget(t *testing.T) {
	target, ok := ParseTarget("vct")
	assert.True(t, ok)
	assert.Equal(t, VCT, target)
	//
	target, ok = ParseTarget("gasc")
	assert.True(t, ok)
	assert.Equal(t, GASC, target)
	//
	_, ok = ParseTarget("wav")
	assert.False(t, ok)
	//
	assert.Equal(t, "vct", VCT.String())
	assert.Equal(t, "gasc", GASC.String())
}

// ==================================================================
// Framework
// ==================================================================

func writeSample(t *testing.T, dir string, contents string) string {
	path := filepath.Join(dir, "sample.stil")
	//
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	//
	return path
}

func readFile(t *testing.T, path string) string {
	bytes, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	//
	return string(bytes)
}

func testChannels(t *testing.T) *chanmap.Map {
	m := chanmap.New()
	//
	if err := m.Bind("clk", 0); err != nil {
		t.Fatal(err)
	}
	//
	if err := m.Bind("d1", 1); err != nil {
		t.Fatal(err)
	}
	//
	return m
}
