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

// Procedure is a named, pre-parsed sequence of pattern statements, inlined
// at call sites.  Macro definitions share the same structure.
type Procedure struct {
	// Name of this procedure.
	Name string
	// Ordered statement body.
	Body []Statement
}

// Header holds the free-text entries of a STIL Header block.  They are
// echoed into output comments only.
type Header struct {
	Title   string
	Date    string
	Source  string
	History []string
}

// SymbolTable holds everything declared before the Pattern block.  It is
// fully built in phase one and read-only thereafter, so it may be shared
// across goroutines without locking.
type SymbolTable struct {
	// Declared signals, in declaration order.
	signals []Signal
	// Index from signal name to position in signals.
	signalIndex map[string]int
	// Raw group member lists (members may themselves be groups).
	groups map[string][]string
	// Group declaration order.
	groupOrder []string
	// Memoized flat resolutions.
	resolved map[string][]string
	// Waveform tables by name.
	wfts map[string]*WaveformTable
	// Waveform table declaration order.
	wftOrder []string
	// Procedures by name.
	procedures map[string]*Procedure
	// Macros by name.
	macros map[string]*Procedure
	// Header entries.
	Header Header
}

// NewSymbolTable constructs an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		signalIndex: make(map[string]int),
		groups:      make(map[string][]string),
		resolved:    make(map[string][]string),
		wfts:        make(map[string]*WaveformTable),
		procedures:  make(map[string]*Procedure),
		macros:      make(map[string]*Procedure),
	}
}

// AddSignal declares a new signal.  Redeclaration keeps the first entry.
func (t *SymbolTable) AddSignal(sig Signal) {
	if _, ok := t.signalIndex[sig.Name]; ok {
		return
	}
	//
	t.signalIndex[sig.Name] = len(t.signals)
	t.signals = append(t.signals, sig)
}

// Signals returns the declared signals in declaration order.
func (t *SymbolTable) Signals() []Signal {
	return t.signals
}

// Signal looks up a declared signal by name.
func (t *SymbolTable) Signal(name string) (*Signal, bool) {
	if i, ok := t.signalIndex[name]; ok {
		return &t.signals[i], true
	}
	//
	return nil, false
}

// SignalIndex returns the declaration index of a given signal.
func (t *SymbolTable) SignalIndex(name string) (int, bool) {
	i, ok := t.signalIndex[name]
	return i, ok
}

// AddGroup declares a signal group with its raw member list.
func (t *SymbolTable) AddGroup(name string, members []string) {
	if _, ok := t.groups[name]; !ok {
		t.groupOrder = append(t.groupOrder, name)
	}
	//
	t.groups[name] = members
}

// Groups returns the declared group names in declaration order.
func (t *SymbolTable) Groups() []string {
	return t.groupOrder
}

// GroupMembers returns the raw (unresolved) member list of a group.
func (t *SymbolTable) GroupMembers(name string) ([]string, bool) {
	m, ok := t.groups[name]
	return m, ok
}

// ResolveGroup resolves a group to its flat, ordered signal list.  The
// resolution is memoized; cycles among groups are rejected.
func (t *SymbolTable) ResolveGroup(name string) ([]string, *Error) {
	return t.resolve(name, make(map[string]bool))
}

func (t *SymbolTable) resolve(name string, visiting map[string]bool) ([]string, *Error) {
	if flat, ok := t.resolved[name]; ok {
		return flat, nil
	}
	//
	if visiting[name] {
		return nil, Errorf(MalformedSymbolTable, -1, "cyclic signal group %q", name)
	}
	//
	members, ok := t.groups[name]
	if !ok {
		return nil, Errorf(MalformedSymbolTable, -1, "unknown signal group %q", name)
	}
	//
	visiting[name] = true
	//
	var flat []string
	//
	for _, m := range members {
		if _, isGroup := t.groups[m]; isGroup {
			sub, err := t.resolve(m, visiting)
			if err != nil {
				return nil, err
			}
			//
			flat = append(flat, sub...)
		} else {
			flat = append(flat, m)
		}
	}
	//
	delete(visiting, name)
	t.resolved[name] = flat
	//
	return flat, nil
}

// ResolveTarget resolves a vector assignment target to a flat signal list.
// A group name resolves through SignalGroups; a signal name resolves to
// itself.  Unknown names return false.
func (t *SymbolTable) ResolveTarget(name string) ([]string, bool) {
	if _, isGroup := t.groups[name]; isGroup {
		flat, err := t.ResolveGroup(name)
		if err != nil {
			return nil, false
		}
		//
		return flat, true
	}
	//
	if _, isSignal := t.signalIndex[name]; isSignal {
		return []string{name}, true
	}
	//
	return nil, false
}

// AddWaveformTable declares a waveform table.
func (t *SymbolTable) AddWaveformTable(wft *WaveformTable) {
	if _, ok := t.wfts[wft.Name]; !ok {
		t.wftOrder = append(t.wftOrder, wft.Name)
	}
	//
	t.wfts[wft.Name] = wft
}

// WaveformTable looks up a waveform table by name.
func (t *SymbolTable) WaveformTable(name string) (*WaveformTable, bool) {
	w, ok := t.wfts[name]
	return w, ok
}

// WaveformTables returns the declared waveform table names in declaration
// order.  The position of a name in this list is its table id.
func (t *SymbolTable) WaveformTables() []string {
	return t.wftOrder
}

// WaveformTableID returns the declaration-order id of a waveform table.
func (t *SymbolTable) WaveformTableID(name string) int {
	for i, n := range t.wftOrder {
		if n == name {
			return i
		}
	}
	//
	return 0
}

// AddProcedure declares a procedure.
func (t *SymbolTable) AddProcedure(p *Procedure) {
	t.procedures[p.Name] = p
}

// AddMacro declares a macro.
func (t *SymbolTable) AddMacro(p *Procedure) {
	t.macros[p.Name] = p
}

// Procedure looks up a procedure by name.
func (t *SymbolTable) Procedure(name string) (*Procedure, bool) {
	p, ok := t.procedures[name]
	return p, ok
}

// Macro looks up a macro by name.
func (t *SymbolTable) Macro(name string) (*Procedure, bool) {
	p, ok := t.macros[name]
	return p, ok
}

// Finalize completes the symbol table once all header blocks are parsed: it
// resolves every declared group, derives the per-signal waveform mappings,
// and rejects recursive procedures or macros.  After a successful Finalize
// the table is read-only.
func (t *SymbolTable) Finalize() *Error {
	// Force resolution of all groups (detects cycles up front).
	for _, g := range t.groupOrder {
		if _, err := t.ResolveGroup(g); err != nil {
			return err
		}
	}
	// Derive waveform mappings.
	for _, name := range t.wftOrder {
		if err := t.deriveMappings(t.wfts[name]); err != nil {
			return err
		}
	}
	// Reject recursive procedures and macros.
	for name := range t.procedures {
		if err := t.checkRecursion(name, false, make(map[string]bool)); err != nil {
			return err
		}
	}
	//
	for name := range t.macros {
		if err := t.checkRecursion(name, true, make(map[string]bool)); err != nil {
			return err
		}
	}
	//
	return nil
}

// deriveMappings turns the declared waveform rows of a table into its
// per-signal raw -> driven character mapping.
func (t *SymbolTable) deriveMappings(wft *WaveformTable) *Error {
	for _, entry := range wft.Entries {
		signals, ok := t.ResolveTarget(entry.SigRef)
		if !ok {
			// Reference to something never declared; keep it addressable by
			// its literal name so the mapping stays total.
			signals = []string{entry.SigRef}
		}
		//
		for j, raw := range entry.WFCs {
			var events []rune
			//
			for _, edge := range entry.Edges {
				ev := eventFor(edge.Events, j)
				events = append(events, []rune(ev)...)
			}
			//
			driven := DeriveDriven(events)
			if driven == 0 {
				driven = raw
			}
			//
			for _, sig := range signals {
				wft.Bind(sig, raw, driven)
			}
		}
	}
	//
	return nil
}

// eventFor selects the event string applying to waveform character position
// j.  A single event applies to every position.
func eventFor(events []string, j int) string {
	if len(events) == 0 {
		return ""
	}
	//
	if j < len(events) {
		return events[j]
	}
	//
	return events[0]
}

// checkRecursion walks the call graph rooted at a procedure or macro,
// failing on any cycle.
func (t *SymbolTable) checkRecursion(name string, macro bool, visiting map[string]bool) *Error {
	if visiting[name] {
		kind := "procedure"
		if macro {
			kind = "macro"
		}
		//
		return Errorf(MalformedSymbolTable, -1, "recursive %s %q", kind, name)
	}
	//
	var (
		proc *Procedure
		ok   bool
	)
	//
	if macro {
		proc, ok = t.macros[name]
	} else {
		proc, ok = t.procedures[name]
	}
	//
	if !ok {
		// Unknown callee; reported as a warning at lowering time.
		return nil
	}
	//
	visiting[name] = true
	defer delete(visiting, name)
	//
	return t.checkBody(proc.Body, visiting)
}

func (t *SymbolTable) checkBody(body []Statement, visiting map[string]bool) *Error {
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *Call:
			if err := t.checkRecursion(s.Name, false, visiting); err != nil {
				return err
			}
		case *MacroCall:
			if err := t.checkRecursion(s.Name, true, visiting); err != nil {
				return err
			}
		case *Loop:
			if err := t.checkBody(s.Body, visiting); err != nil {
				return err
			}
		case *MatchLoop:
			if err := t.checkBody(s.Body, visiting); err != nil {
				return err
			}
		}
	}
	//
	return nil
}
