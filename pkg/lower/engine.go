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
package lower

import (
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/htol-tools/patconv/pkg/stil"
)

// DefaultMaxAddress is the largest representable tester address (six hex
// digits).
const DefaultMaxAddress uint32 = 0xFFFFFF

// MaxLoopDepth bounds loop nesting; the tester has four loop index
// registers.
const MaxLoopDepth = 4

// progressStride is how much consumed input may pass between progress
// reports.
const progressStride = 64 * 1024

// Stream supplies pattern statements one at a time.  Push splices a
// statement sequence (an inlined procedure body) in front of the stream.
// The parser's pattern cursor implements this.
type Stream interface {
	// Next returns the next statement, or (nil, nil) at the end.
	Next() (stil.Statement, *stil.Error)
	// Push splices a statement sequence in front of the stream.
	Push(body []stil.Statement)
	// Offset returns the byte offset of the next unconsumed input.
	Offset() int
}

// Config carries the construction parameters of an Engine.
type Config struct {
	// Symbols is the finalised symbol table.
	Symbols *stil.SymbolTable
	// Source holds the pattern statements to lower.
	Source Stream
	// Sink receives the lowered vectors.
	Sink Sink
	// Warn receives non-fatal diagnostics (may be nil).
	Warn func(offset int, message string)
	// Progress receives consumed-input offsets (may be nil).
	Progress func(offset int)
	// Cancel is polled at statement boundaries (may be nil).
	Cancel *atomic.Bool
	// MaxAddress overrides DefaultMaxAddress when non-zero.
	MaxAddress uint32
}

// Engine lowers a stream of pattern statements into addressed vectors.  It
// is single-threaded; cancellation is cooperative via the configured flag.
type Engine struct {
	symtab   *stil.SymbolTable
	source   Stream
	sink     Sink
	warn     func(offset int, message string)
	progress func(offset int)
	cancel   *atomic.Bool
	maxAddr  uint32
	// Active waveform table (nil before the first W statement).
	wft   *stil.WaveformTable
	wftID int
	// Raw (unmapped) waveform character of each signal, in declaration
	// order.  Vectors update it; everything else inherits it.
	sticky []rune
	// Address of the next event.
	nextAddr uint32
	// One-event buffer: the most recent event, not yet handed to the sink,
	// so a later statement may still claim its micro-instruction slot.
	pending *Vector
	// Labels awaiting the next event.
	labels []string
	// Current loop nesting depth.
	depth int
	// Set once the first event has been flushed.
	started bool
	// Number of events flushed.
	emitted uint64
	// Address of the most recently flushed event.
	lastAddr uint32
	// Offset at which progress was last reported.
	lastProgress int
}

// NewEngine constructs a lowering engine over a finalised symbol table.
func NewEngine(cfg Config) *Engine {
	signals := cfg.Symbols.Signals()
	sticky := make([]rune, len(signals))
	//
	for i := range signals {
		sticky[i] = signals[i].DefaultWFC()
	}
	//
	warn := cfg.Warn
	if warn == nil {
		warn = func(int, string) {}
	}
	//
	maxAddr := cfg.MaxAddress
	if maxAddr == 0 {
		maxAddr = DefaultMaxAddress
	}
	//
	return &Engine{
		symtab:   cfg.Symbols,
		source:   cfg.Source,
		sink:     cfg.Sink,
		warn:     warn,
		progress: cfg.Progress,
		cancel:   cfg.Cancel,
		maxAddr:  maxAddr,
		sticky:   sticky,
	}
}

// Run lowers the whole stream, returning true when it stopped early because
// the cancellation flag was raised.  The pending event is flushed on both
// outcomes, so the output always ends at a consistent address.
func (e *Engine) Run() (bool, *stil.Error) {
	for {
		if e.cancelRequested() {
			return true, e.flush()
		}
		//
		e.reportProgress()
		//
		stmt, err := e.source.Next()
		if err != nil {
			return false, err
		}
		//
		if stmt == nil {
			break
		}
		//
		if err := e.lower(stmt, false); err != nil {
			return false, err
		}
	}
	//
	if err := e.flush(); err != nil {
		return false, err
	}
	//
	if e.progress != nil {
		e.progress(e.source.Offset())
	}
	//
	return false, nil
}

// Vectors returns the number of events handed to the sink so far.
func (e *Engine) Vectors() uint64 {
	return e.emitted
}

// LastAddress returns the address of the most recently flushed event.
func (e *Engine) LastAddress() uint32 {
	return e.lastAddr
}

// lower dispatches one statement.  Inline is true when the statement came
// from a loop or procedure body being lowered recursively, in which case
// nested calls inline directly rather than splicing through the stream.
func (e *Engine) lower(stmt stil.Statement, inline bool) *stil.Error {
	switch s := stmt.(type) {
	case *stil.Vector:
		ev, err := e.expandVector(s)
		if err != nil {
			return err
		}
		//
		return e.push(ev)
	case *stil.WaveformSwitch:
		wft, ok := e.symtab.WaveformTable(s.Table)
		if !ok {
			return stil.Errorf(stil.MissingWaveformContext, s.At,
				"unknown waveform table %q", s.Table)
		}
		//
		log.Debugf("waveform table %q selected at offset %d", s.Table, s.At)
		//
		e.wft = wft
		e.wftID = e.symtab.WaveformTableID(s.Table)
		//
		return nil
	case *stil.Loop:
		return e.lowerLoop(s.At, s.Count, s.Body, false)
	case *stil.MatchLoop:
		return e.lowerLoop(s.At, s.Count, s.Body, true)
	case *stil.Call:
		return e.lowerCall(s.At, s.Name, false, inline)
	case *stil.MacroCall:
		return e.lowerCall(s.At, s.Name, true, inline)
	case *stil.Stop:
		return e.microEvent(s.At, Micro{Op: Halt})
	case *stil.Goto:
		return e.microEvent(s.At, Micro{Op: Jump, Target: s.Target})
	case *stil.IddqTestPoint:
		return e.microEvent(s.At, Micro{Op: Iddq})
	case *stil.Return:
		return e.microEvent(s.At, Micro{Op: Ret})
	case *stil.Label:
		e.labels = append(e.labels, s.Name)
		return nil
	}
	// Unreachable: the statement sum is closed.
	return stil.Errorf(stil.UnsupportedConstruct, stmt.Pos(), "unknown statement")
}

// lowerCall handles procedure and macro invocations.  Top-level calls
// splice the body through the stream (keeping memory proportional to call
// depth); calls inside loop bodies recurse directly.  Unknown callees lower
// to a CALL event, leaving resolution to the tester.
func (e *Engine) lowerCall(at int, name string, macro bool, inline bool) *stil.Error {
	var (
		proc *stil.Procedure
		ok   bool
	)
	//
	if macro {
		proc, ok = e.symtab.Macro(name)
	} else {
		proc, ok = e.symtab.Procedure(name)
	}
	//
	if !ok {
		kind := "procedure"
		if macro {
			kind = "macro"
		}
		//
		e.warnf(at, "unknown %s %q lowered to CALL", kind, name)
		//
		return e.microEvent(at, Micro{Op: CallOp, Target: name})
	}
	//
	if inline {
		for _, stmt := range proc.Body {
			if err := e.lower(stmt, true); err != nil {
				return err
			}
		}
		//
		return nil
	}
	//
	e.source.Push(proc.Body)
	//
	return nil
}

// lowerLoop lowers a Loop or MatchLoop statement.
func (e *Engine) lowerLoop(at int, count uint, body []stil.Statement, match bool) *stil.Error {
	if len(body) == 0 {
		return stil.Errorf(stil.UnsupportedConstruct, at, "empty loop body")
	} else if count == 0 {
		return stil.Errorf(stil.UnsupportedConstruct, at, "loop count must be positive")
	}
	//
	vectorsOnly := true
	//
	for _, stmt := range body {
		if _, ok := stmt.(*stil.Vector); !ok {
			vectorsOnly = false
			break
		}
	}
	// A single repeated vector has a one-event encoding.
	if vectorsOnly && len(body) == 1 {
		ev, err := e.expandVector(body[0].(*stil.Vector))
		if err != nil {
			return err
		}
		//
		if match {
			ev.Micro = Micro{Op: Imatch, Count: count}
		} else {
			ev.Micro = Micro{Op: Rpt, Count: count}
		}
		//
		return e.push(ev)
	}
	// Plain two-vector loops use an index register; longer flat loops have
	// no encoding.
	if !match && vectorsOnly && len(body) > 2 {
		return stil.Errorf(stil.UnsupportedConstruct, at,
			"flat loop of %d vectors has no register encoding", len(body))
	}
	//
	if e.depth >= MaxLoopDepth {
		return stil.Errorf(stil.UnsupportedConstruct, at,
			"loop nesting exceeds %d levels", MaxLoopDepth)
	}
	//
	register := uint8(e.depth)
	e.depth++
	//
	open := Micro{Op: Li, Depth: register, Count: count}
	finish := Micro{Op: Jni, Depth: register}
	//
	if match {
		open = Micro{Op: Mbgn, Count: count}
		finish = Micro{Op: Mend}
	}
	// The open occupies its own event.
	ev, err := e.newEvent(at)
	if err != nil {
		return err
	}
	//
	ev.Micro = open
	//
	if err := e.push(ev); err != nil {
		return err
	}
	//
	for _, stmt := range body {
		if err := e.lower(stmt, true); err != nil {
			return err
		}
	}
	// The close rides on the last body event when its slot is free.
	if e.pending != nil && e.pending.Micro.Op == Adv {
		e.pending.Micro = finish
	} else {
		ev, err := e.newEvent(at)
		if err != nil {
			return err
		}
		//
		ev.Micro = finish
		//
		if err := e.push(ev); err != nil {
			return err
		}
	}
	//
	e.depth--
	//
	return nil
}

// expandVector updates the sticky state from a vector's assignments and
// materialises the resulting event.
func (e *Engine) expandVector(v *stil.Vector) (*Vector, *stil.Error) {
	for _, assign := range v.Assigns {
		signals, ok := e.symtab.ResolveTarget(assign.Target)
		if !ok {
			e.warnf(v.At, "skipping assignment to unknown signal or group %q", assign.Target)
			continue
		}
		//
		wfcs := []rune(assign.WFCs)
		//
		if len(wfcs) != len(signals) {
			return nil, stil.Errorf(stil.VectorWidthError, v.At,
				"assignment to %q has %d characters for %d signals",
				assign.Target, len(wfcs), len(signals))
		}
		//
		for i, name := range signals {
			index, ok := e.symtab.SignalIndex(name)
			if !ok {
				e.warnf(v.At, "group %q member %q is not a declared signal", assign.Target, name)
				continue
			}
			//
			e.sticky[index] = wfcs[i]
		}
	}
	//
	return e.newEvent(v.At)
}

// microEvent materialises an event which exists only to carry a
// micro-instruction.  Its channel state is the inherited sticky state.
func (e *Engine) microEvent(at int, m Micro) *stil.Error {
	ev, err := e.newEvent(at)
	if err != nil {
		return err
	}
	//
	ev.Micro = m
	//
	return e.push(ev)
}

// newEvent allocates the next address and snapshots the sticky state through
// the active waveform table.
func (e *Engine) newEvent(at int) (*Vector, *stil.Error) {
	if e.wft == nil {
		return nil, stil.Errorf(stil.MissingWaveformContext, at,
			"vector before any waveform table selection")
	}
	//
	if e.nextAddr > e.maxAddr {
		return nil, stil.Errorf(stil.AddressOverflow, at,
			"address 0x%06X exceeds 0x%06X", e.nextAddr, e.maxAddr)
	}
	//
	signals := e.symtab.Signals()
	chars := make([]rune, len(signals))
	//
	for i := range signals {
		chars[i] = e.wft.Map(signals[i].Name, e.sticky[i])
	}
	//
	ev := &Vector{
		Address: e.nextAddr,
		Micro:   Micro{Op: Adv},
		WFT:     e.wft.Name,
		WFTID:   e.wftID,
		Chars:   chars,
		Labels:  e.labels,
	}
	//
	e.labels = nil
	e.nextAddr++
	//
	return ev, nil
}

// push flushes the pending event and installs a new one in its place.
func (e *Engine) push(ev *Vector) *stil.Error {
	if err := e.flush(); err != nil {
		return err
	}
	//
	e.pending = ev
	//
	return nil
}

// flush hands the pending event (if any) to the sink.  The first flushed
// event of a run takes MSSA when its micro-instruction slot is still free.
func (e *Engine) flush() *stil.Error {
	if e.pending == nil {
		return nil
	}
	//
	if !e.started {
		e.started = true
		//
		if e.pending.Micro.Op == Adv {
			e.pending.Micro = Micro{Op: Mssa}
		}
	}
	//
	ev := e.pending
	e.pending = nil
	//
	if err := e.sink.Emit(ev); err != nil {
		return err
	}
	//
	e.emitted++
	e.lastAddr = ev.Address
	//
	return nil
}

// cancelRequested polls the cancellation flag.
func (e *Engine) cancelRequested() bool {
	return e.cancel != nil && e.cancel.Load()
}

// reportProgress reports consumed input once enough has passed since the
// last report.
func (e *Engine) reportProgress() {
	if e.progress == nil {
		return
	}
	//
	if offset := e.source.Offset(); offset-e.lastProgress >= progressStride {
		e.lastProgress = offset
		e.progress(offset)
	}
}

// warnf reports a formatted non-fatal diagnostic.
func (e *Engine) warnf(offset int, format string, args ...any) {
	e.warn(offset, fmt.Sprintf(format, args...))
}
