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

// Package conv drives whole-file conversions: it wires the parser, the
// lowering engine and an emitter together and owns the file handles.
package conv

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/htol-tools/patconv/pkg/chanmap"
	"github.com/htol-tools/patconv/pkg/emit"
	"github.com/htol-tools/patconv/pkg/lower"
	"github.com/htol-tools/patconv/pkg/stil"
	"github.com/htol-tools/patconv/pkg/stil/parser"
	"github.com/htol-tools/patconv/pkg/util/source"
)

// Target selects the output format.
type Target uint8

// Enumeration of output formats.
const (
	// VCT is the HTOL 256-channel vector format.
	VCT Target = iota
	// GASC is the starred-line SPM pattern format.
	GASC
)

// ParseTarget maps a format name to its Target.
func ParseTarget(name string) (Target, bool) {
	switch name {
	case "vct":
		return VCT, true
	case "gasc":
		return GASC, true
	}
	//
	return VCT, false
}

// String returns the canonical name of this target.
func (t Target) String() string {
	if t == GASC {
		return "gasc"
	}
	//
	return "vct"
}

// Config carries the parameters of one conversion.
type Config struct {
	// SourcePath names the STIL input file.
	SourcePath string
	// OutputPath names the file to write.
	OutputPath string
	// Target selects the output format.
	Target Target
	// ChannelMap assigns signals to tester channels (VCT only; may be nil).
	ChannelMap *chanmap.Map
	// DenyList names statements to skip with a warning instead of rejecting.
	DenyList []string
	// Sink receives events (may be nil).
	Sink Sink
	// Cancel is polled cooperatively (may be nil).
	Cancel *atomic.Bool
	// MaxAddress overrides the address ceiling when non-zero.
	MaxAddress uint32
}

// Result summarises a finished conversion.
type Result struct {
	// Vectors written.
	Vectors uint64
	// Warnings raised.
	Warnings uint
	// Cancelled is set when the conversion stopped on the cancellation flag.
	Cancelled bool
	// Pattern is the name of the converted Pattern block.
	Pattern string
}

// Convert runs one whole-file conversion.  The output file is created up
// front and always closed; its closing marker is written on success and on
// cancellation, but never after a fatal error.
func Convert(cfg Config) (Result, error) {
	var (
		result   Result
		sink     Sink = cfg.Sink
		warnings uint
	)
	//
	if sink == nil {
		sink = discard{}
	}
	//
	warn := func(offset int, message string) {
		warnings++
		sink.Notify(Warning{Offset: offset, Message: message})
	}
	//
	srcfile, ioerr := source.ReadFile(cfg.SourcePath)
	if ioerr != nil {
		return result, stil.Errorf(stil.IOError, -1, "%v", ioerr)
	}
	//
	out, ioerr := os.Create(cfg.OutputPath)
	if ioerr != nil {
		return result, stil.Errorf(stil.IOError, -1, "%v", ioerr)
	}
	//
	defer out.Close()
	//
	p := parser.NewParser(srcfile, cfg.DenyList, warn)
	//
	symtab, err := p.ParseHeader()
	if err != nil {
		return result, err
	}
	//
	if err := symtab.Finalize(); err != nil {
		return result, err
	}
	//
	result.Pattern = p.PatternName()
	//
	sink.Notify(Log{Level: log.InfoLevel,
		Message: fmt.Sprintf("parsed %d signals, %d groups, %d waveform tables",
			len(symtab.Signals()), len(symtab.Groups()), len(symtab.WaveformTables()))})
	//
	mapped := cfg.ChannelMap
	if mapped == nil {
		mapped = chanmap.New()
	}
	//
	var emitter emit.Emitter
	//
	switch cfg.Target {
	case GASC:
		emitter = emit.NewGASC(out, symtab)
	default:
		emitter = emit.NewVCT(out, symtab, mapped, filepath.Base(cfg.SourcePath), warn)
	}
	//
	if err := emitter.Begin(); err != nil {
		return result, err
	}
	//
	total := p.Size()
	//
	progress := func(offset int) {
		percent := 100
		//
		if total > 0 {
			percent = min(100, offset*100/total)
		}
		//
		sink.Notify(Progress{Percent: percent})
	}
	//
	engine := lower.NewEngine(lower.Config{
		Symbols:    symtab,
		Source:     p.PatternCursor(),
		Sink:       emitter,
		Warn:       warn,
		Progress:   progress,
		Cancel:     cfg.Cancel,
		MaxAddress: cfg.MaxAddress,
	})
	//
	cancelled, err := engine.Run()
	if err != nil {
		// Fatal: flush what was written, but leave the file unclosed by a
		// marker so it cannot be mistaken for a complete translation.
		if ferr := emitter.Flush(); ferr != nil {
			log.Debugf("flush after fatal error failed: %v", ferr)
		}
		//
		result.Warnings = warnings
		//
		return result, err
	}
	//
	if err := emitter.End(cancelled); err != nil {
		return result, err
	}
	//
	result.Vectors = engine.Vectors()
	result.Warnings = warnings
	result.Cancelled = cancelled
	//
	if cancelled {
		sink.Notify(Cancelled{LastAddress: engine.LastAddress()})
	} else {
		sink.Notify(Done{TotalVectors: engine.Vectors()})
	}
	//
	return result, nil
}

// ReadSymbols parses only the declarations of a STIL file, for callers which
// need the signal inventory without converting anything (e.g. seeding a
// channel-mapping dialog).
func ReadSymbols(path string, sink Sink) (*stil.SymbolTable, error) {
	if sink == nil {
		sink = discard{}
	}
	//
	warn := func(offset int, message string) {
		sink.Notify(Warning{Offset: offset, Message: message})
	}
	//
	srcfile, ioerr := source.ReadFile(path)
	if ioerr != nil {
		return nil, stil.Errorf(stil.IOError, -1, "%v", ioerr)
	}
	//
	p := parser.NewParser(srcfile, nil, warn)
	//
	symtab, err := p.ParseHeader()
	if err != nil {
		return nil, err
	}
	//
	if err := symtab.Finalize(); err != nil {
		return nil, err
	}
	//
	return symtab, nil
}
