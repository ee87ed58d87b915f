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
	"strconv"
	"strings"

	"github.com/htol-tools/patconv/pkg/stil"
	"github.com/htol-tools/patconv/pkg/util/source"
	"github.com/htol-tools/patconv/pkg/util/source/lex"
)

// WarnFunc receives non-fatal diagnostics (skipped constructs, unknown
// blocks) together with the byte offset at which they arose.
type WarnFunc func(offset int, message string)

// Parser is a two-phase STIL parser.  Phase one (ParseHeader) consumes every
// block up to and including the opening brace of the Pattern block, building
// the symbol table.  Phase two streams pattern statements one at a time via
// the Cursor, so arbitrarily large pattern bodies never reside in memory at
// once.
type Parser struct {
	srcfile *source.File
	lexer   *lex.Lexer[rune]
	// Pending (non-trivia) tokens, supporting arbitrary lookahead.
	tokens []lex.Token
	// Statement names which are skipped (with a warning) rather than
	// rejected.
	denied map[string]bool
	warn   WarnFunc
	symtab *stil.SymbolTable
	// Name of the Pattern block found by ParseHeader.
	pattern string
	// Set once ParseHeader stops at the Pattern body.
	inPattern bool
}

// NewParser constructs a parser for the given source file.  Statement names
// in deny are skipped with a warning when encountered in a pattern body.
func NewParser(srcfile *source.File, deny []string, warn WarnFunc) *Parser {
	denied := make(map[string]bool)
	//
	for _, d := range deny {
		denied[d] = true
	}
	//
	if warn == nil {
		warn = func(int, string) {}
	}
	//
	return &Parser{
		srcfile: srcfile,
		lexer:   lex.NewLexer(srcfile.Contents(), rules...),
		denied:  denied,
		warn:    warn,
		symtab:  stil.NewSymbolTable(),
	}
}

// SymbolTable returns the symbol table built by ParseHeader.
func (p *Parser) SymbolTable() *stil.SymbolTable {
	return p.symtab
}

// PatternName returns the name of the Pattern block, once ParseHeader has
// found it.
func (p *Parser) PatternName() string {
	return p.pattern
}

// Offset returns the byte offset of the next unconsumed token, for progress
// reporting.
func (p *Parser) Offset() int {
	if len(p.tokens) > 0 {
		return p.tokens[0].Span.Start()
	}
	//
	return int(p.lexer.Index())
}

// Size returns the total size of the source being parsed.
func (p *Parser) Size() int {
	return len(p.srcfile.Contents())
}

// ParseHeader runs phase one: all blocks preceding the Pattern body are
// parsed into the symbol table, and the parser stops just inside the Pattern
// block.  Unknown top-level blocks are skipped with a warning.  The returned
// symbol table is not yet finalised.
func (p *Parser) ParseHeader() (*stil.SymbolTable, *stil.Error) {
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		//
		switch tok.Kind {
		case END_OF:
			// No Pattern block at all.  Legal, if unusual; the cursor will
			// simply yield nothing.
			return p.symtab, nil
		case IDENTIFIER:
			name := p.text(tok)
			//
			done, err := p.parseTopLevel(tok, name)
			if err != nil {
				return nil, err
			}
			//
			if done {
				return p.symtab, nil
			}
		default:
			return nil, p.unexpected(tok)
		}
	}
}

// parseTopLevel dispatches one top-level block, returning true once the
// Pattern block has been entered.
func (p *Parser) parseTopLevel(tok lex.Token, name string) (bool, *stil.Error) {
	switch name {
	case "STIL":
		// Version statement, e.g. "STIL 1.0;".
		return false, p.skipStatement()
	case "Header":
		return false, p.parseHeaderBlock()
	case "Signals":
		return false, p.parseSignals()
	case "SignalGroups":
		return false, p.parseSignalGroups()
	case "Timing":
		return false, p.parseTiming()
	case "Procedures":
		return false, p.parseProcedures(false)
	case "MacroDefs":
		return false, p.parseProcedures(true)
	case "Ann":
		return false, p.parseAnnotation()
	case "Pattern":
		if _, err := p.next(); err != nil {
			return false, err
		}
		//
		pname, _, err := p.expectName()
		if err != nil {
			return false, err
		}
		//
		if _, err := p.expect(LCURLY); err != nil {
			return false, err
		}
		//
		p.pattern = pname
		p.inPattern = true
		//
		return true, nil
	default:
		p.warn(tok.Span.Start(), "skipping unknown block \""+name+"\"")
		return false, p.skipStatement()
	}
}

// parseAnnotation consumes an "Ann {* ... *}" statement.
func (p *Parser) parseAnnotation() *stil.Error {
	if _, err := p.next(); err != nil {
		return err
	}
	//
	if _, err := p.expect(ANNOTATION); err != nil {
		return err
	}
	//
	return nil
}

// parseHeaderBlock parses "Header { Title "..."; Date "..."; ... }".
func (p *Parser) parseHeaderBlock() *stil.Error {
	if _, err := p.next(); err != nil {
		return err
	}
	//
	if _, err := p.expect(LCURLY); err != nil {
		return err
	}
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		//
		if tok.Kind == RCURLY {
			_, err = p.next()
			return err
		}
		//
		key, _, err := p.expectName()
		if err != nil {
			return err
		}
		//
		switch key {
		case "Title":
			p.symtab.Header.Title, err = p.parseHeaderValue()
		case "Date":
			p.symtab.Header.Date, err = p.parseHeaderValue()
		case "Source":
			p.symtab.Header.Source, err = p.parseHeaderValue()
		case "History":
			err = p.parseHistory()
		default:
			err = p.skipStatement()
		}
		//
		if err != nil {
			return err
		}
	}
}

// parseHeaderValue parses a quoted header entry value up to its semicolon.
func (p *Parser) parseHeaderValue() (string, *stil.Error) {
	tok, err := p.next()
	if err != nil {
		return "", err
	}
	//
	if tok.Kind != STRING {
		return "", p.unexpected(tok)
	}
	//
	value := stripQuotes(p.text(tok))
	//
	_, err = p.expect(SEMICOLON)
	//
	return value, err
}

// parseHistory parses "History { Ann {* ... *} ... }" into free-text entries.
func (p *Parser) parseHistory() *stil.Error {
	if _, err := p.expect(LCURLY); err != nil {
		return err
	}
	//
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		//
		switch tok.Kind {
		case RCURLY:
			return nil
		case IDENTIFIER:
			// "Ann" keyword; its body follows.
			continue
		case ANNOTATION:
			text := p.text(tok)
			text = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "{*"), "*}"))
			p.symtab.Header.History = append(p.symtab.Header.History, text)
		default:
			return p.unexpected(tok)
		}
	}
}

// parseSignals parses "Signals { name Direction; ... }".
func (p *Parser) parseSignals() *stil.Error {
	if _, err := p.next(); err != nil {
		return err
	}
	//
	if _, err := p.expect(LCURLY); err != nil {
		return err
	}
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		//
		if tok.Kind == RCURLY {
			_, err = p.next()
			return err
		}
		//
		name, offset, err := p.expectName()
		if err != nil {
			return err
		}
		//
		dirName, _, err := p.expectName()
		if err != nil {
			return err
		}
		//
		dir, ok := stil.ParseDirection(dirName)
		if !ok {
			return stil.Errorf(stil.ParseError, offset,
				"unknown signal direction %q for signal %q", dirName, name)
		}
		//
		sig := stil.Signal{Name: name, Dir: dir}
		//
		if err := p.parseSignalAttributes(&sig); err != nil {
			return err
		}
		//
		p.symtab.AddSignal(sig)
	}
}

// parseSignalAttributes parses the optional attribute block (or terminating
// semicolon) following a signal declaration.  Only DefaultState is acted
// upon; other attributes are ignored.
func (p *Parser) parseSignalAttributes(sig *stil.Signal) *stil.Error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	//
	if tok.Kind == SEMICOLON {
		return nil
	} else if tok.Kind != LCURLY {
		return p.unexpected(tok)
	}
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		//
		if tok.Kind == RCURLY {
			_, err = p.next()
			return err
		}
		//
		key, _, err := p.expectName()
		if err != nil {
			return err
		}
		//
		if key != "DefaultState" {
			if err := p.skipStatement(); err != nil {
				return err
			}
			//
			continue
		}
		//
		// State values are waveform characters, so digits are legal here.
		value, err := p.next()
		if err != nil {
			return err
		}
		//
		if value.Kind != IDENTIFIER && value.Kind != NUMBER {
			return p.unexpected(value)
		}
		//
		if r := []rune(p.text(value)); len(r) == 1 {
			sig.Default = r[0]
		}
		//
		if _, err := p.expect(SEMICOLON); err != nil {
			return err
		}
	}
}

// parseSignalGroups parses "SignalGroups [domain] { name = 'a + b'; ... }".
func (p *Parser) parseSignalGroups() *stil.Error {
	if _, err := p.next(); err != nil {
		return err
	}
	//
	if err := p.skipOptionalName(); err != nil {
		return err
	}
	//
	if _, err := p.expect(LCURLY); err != nil {
		return err
	}
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		//
		if tok.Kind == RCURLY {
			_, err = p.next()
			return err
		}
		//
		name, _, err := p.expectName()
		if err != nil {
			return err
		}
		//
		if _, err := p.expect(EQUALS); err != nil {
			return err
		}
		//
		members, err := p.parseGroupMembers()
		if err != nil {
			return err
		}
		//
		if _, err := p.expect(SEMICOLON); err != nil {
			return err
		}
		//
		p.symtab.AddGroup(name, members)
	}
}

// parseGroupMembers parses the right-hand side of a group definition, either
// a quoted sum expression ('a + b + c') or a single name.
func (p *Parser) parseGroupMembers() ([]string, *stil.Error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	//
	switch tok.Kind {
	case TIME:
		return splitSigRef(stripQuotes(p.text(tok))), nil
	case IDENTIFIER, STRING:
		return []string{stripQuotes(p.text(tok))}, nil
	}
	//
	return nil, p.unexpected(tok)
}

// parseTiming parses "Timing [name] { WaveformTable name { ... } ... }".
func (p *Parser) parseTiming() *stil.Error {
	if _, err := p.next(); err != nil {
		return err
	}
	//
	if err := p.skipOptionalName(); err != nil {
		return err
	}
	//
	if _, err := p.expect(LCURLY); err != nil {
		return err
	}
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		//
		if tok.Kind == RCURLY {
			_, err = p.next()
			return err
		}
		//
		kw, offset, err := p.expectName()
		if err != nil {
			return err
		}
		//
		if kw != "WaveformTable" {
			p.warn(offset, "skipping unknown timing entry \""+kw+"\"")
			//
			if err := p.skipStatement(); err != nil {
				return err
			}
			//
			continue
		}
		//
		if err := p.parseWaveformTable(); err != nil {
			return err
		}
	}
}

// parseWaveformTable parses one "WaveformTable name { Period '..'; Waveforms
// { ... } }" block.
func (p *Parser) parseWaveformTable() *stil.Error {
	name, _, err := p.expectName()
	if err != nil {
		return err
	}
	//
	wft := stil.NewWaveformTable(name)
	//
	if _, err := p.expect(LCURLY); err != nil {
		return err
	}
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		//
		if tok.Kind == RCURLY {
			if _, err := p.next(); err != nil {
				return err
			}
			//
			p.symtab.AddWaveformTable(wft)
			//
			return nil
		}
		//
		kw, _, err := p.expectName()
		if err != nil {
			return err
		}
		//
		switch kw {
		case "Period":
			tok, err := p.next()
			if err != nil {
				return err
			}
			//
			if tok.Kind != TIME {
				return p.unexpected(tok)
			}
			//
			wft.Period = stripQuotes(p.text(tok))
			//
			if _, err := p.expect(SEMICOLON); err != nil {
				return err
			}
		case "Waveforms":
			if err := p.parseWaveforms(wft); err != nil {
				return err
			}
		default:
			if err := p.skipStatement(); err != nil {
				return err
			}
		}
	}
}

// parseWaveforms parses "Waveforms { sigref { wfcs { 'time' ev; ... } } }".
func (p *Parser) parseWaveforms(wft *stil.WaveformTable) *stil.Error {
	if _, err := p.expect(LCURLY); err != nil {
		return err
	}
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		//
		if tok.Kind == RCURLY {
			_, err = p.next()
			return err
		}
		//
		sigref, _, err := p.expectName()
		if err != nil {
			return err
		}
		//
		if _, err := p.expect(LCURLY); err != nil {
			return err
		}
		//
		for {
			tok, err := p.peek()
			if err != nil {
				return err
			}
			//
			if tok.Kind == RCURLY {
				if _, err := p.next(); err != nil {
					return err
				}
				//
				break
			}
			//
			entry, err := p.parseWaveformEntry(sigref)
			if err != nil {
				return err
			}
			//
			wft.Entries = append(wft.Entries, entry)
		}
	}
}

// parseWaveformEntry parses one "wfcs { 'time' ev[/ev...]; ... }" row.
func (p *Parser) parseWaveformEntry(sigref string) (stil.WaveformEntry, *stil.Error) {
	var entry = stil.WaveformEntry{SigRef: sigref}
	//
	wfcs, err := p.parseCharRun()
	if err != nil {
		return entry, err
	}
	//
	entry.WFCs = wfcs
	//
	if _, err := p.expect(LCURLY); err != nil {
		return entry, err
	}
	//
	for {
		tok, err := p.next()
		if err != nil {
			return entry, err
		}
		//
		if tok.Kind == RCURLY {
			return entry, nil
		} else if tok.Kind != TIME {
			return entry, p.unexpected(tok)
		}
		//
		edge := stil.Edge{Time: stripQuotes(p.text(tok))}
		//
		if err := p.parseEdgeEvents(&edge); err != nil {
			return entry, err
		}
		//
		entry.Edges = append(entry.Edges, edge)
	}
}

// parseEdgeEvents parses the slash-separated event list terminating in a
// semicolon.
func (p *Parser) parseEdgeEvents(edge *stil.Edge) *stil.Error {
	var current strings.Builder
	//
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		//
		switch tok.Kind {
		case SEMICOLON:
			edge.Events = append(edge.Events, current.String())
			return nil
		case SLASH:
			edge.Events = append(edge.Events, current.String())
			current.Reset()
		case IDENTIFIER, NUMBER:
			current.WriteString(p.text(tok))
		default:
			return p.unexpected(tok)
		}
	}
}

// parseProcedures parses "Procedures [domain] { name { body } ... }", or the
// MacroDefs equivalent.
func (p *Parser) parseProcedures(macros bool) *stil.Error {
	if _, err := p.next(); err != nil {
		return err
	}
	//
	if err := p.skipOptionalName(); err != nil {
		return err
	}
	//
	if _, err := p.expect(LCURLY); err != nil {
		return err
	}
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		//
		if tok.Kind == RCURLY {
			_, err = p.next()
			return err
		}
		//
		name, _, err := p.expectName()
		if err != nil {
			return err
		}
		//
		if _, err := p.expect(LCURLY); err != nil {
			return err
		}
		//
		body, err := p.parseStatements()
		if err != nil {
			return err
		}
		//
		proc := &stil.Procedure{Name: name, Body: body}
		//
		if macros {
			p.symtab.AddMacro(proc)
		} else {
			p.symtab.AddProcedure(proc)
		}
	}
}

// parseStatements parses statements up to (and including) the closing brace
// of the enclosing block.
func (p *Parser) parseStatements() ([]stil.Statement, *stil.Error) {
	var body []stil.Statement
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		//
		if tok.Kind == RCURLY {
			_, err = p.next()
			return body, err
		}
		//
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		//
		if stmt != nil {
			body = append(body, stmt)
		}
	}
}

// parseStatement parses one pattern statement.  A nil statement with a nil
// error means the statement was skipped (deny-listed or annotation).
func (p *Parser) parseStatement() (stil.Statement, *stil.Error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	//
	if tok.Kind != IDENTIFIER {
		return nil, p.unexpected(tok)
	}
	//
	name := p.text(tok)
	offset := tok.Span.Start()
	// Label?
	la, err := p.peekAt(1)
	if err != nil {
		return nil, err
	}
	//
	if la.Kind == COLON {
		p.drop(2)
		return &stil.Label{At: offset, Name: name}, nil
	}
	//
	switch name {
	case "V", "Vector":
		return p.parseVector()
	case "W", "WaveformTable":
		p.drop(1)
		//
		table, _, err := p.expectName()
		if err != nil {
			return nil, err
		}
		//
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		//
		return &stil.WaveformSwitch{At: offset, Table: table}, nil
	case "Loop":
		return p.parseLoop(false)
	case "MatchLoop":
		return p.parseLoop(true)
	case "Call":
		return p.parseCall(false)
	case "Macro":
		return p.parseCall(true)
	case "Stop":
		p.drop(1)
		//
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		//
		return &stil.Stop{At: offset}, nil
	case "Goto":
		p.drop(1)
		//
		target, _, err := p.expectName()
		if err != nil {
			return nil, err
		}
		//
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		//
		return &stil.Goto{At: offset, Target: target}, nil
	case "IddqTestPoint":
		p.drop(1)
		//
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		//
		return &stil.IddqTestPoint{At: offset}, nil
	case "Return":
		p.drop(1)
		//
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		//
		return &stil.Return{At: offset}, nil
	case "Ann":
		if err := p.parseAnnotation(); err != nil {
			return nil, err
		}
		//
		return nil, nil
	}
	//
	if p.denied[name] {
		p.warn(offset, "skipping denied statement \""+name+"\"")
		return nil, p.skipStatement()
	}
	//
	return nil, stil.Errorf(stil.UnsupportedConstruct, offset, "unsupported statement %q", name)
}

// parseVector parses "V { target=wfcs; ... }".
func (p *Parser) parseVector() (stil.Statement, *stil.Error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	//
	vec := &stil.Vector{At: tok.Span.Start()}
	//
	if _, err := p.expect(LCURLY); err != nil {
		return nil, err
	}
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		//
		if tok.Kind == RCURLY {
			if _, err := p.next(); err != nil {
				return nil, err
			}
			//
			return vec, p.matchSemicolon()
		}
		//
		target, _, err := p.expectName()
		if err != nil {
			return nil, err
		}
		//
		if _, err := p.expect(EQUALS); err != nil {
			return nil, err
		}
		//
		wfcs, err := p.parseWFCString()
		if err != nil {
			return nil, err
		}
		//
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		//
		vec.Assigns = append(vec.Assigns, stil.Assignment{Target: target, WFCs: wfcs})
	}
}

// parseLoop parses "Loop n { body }" (or MatchLoop).
func (p *Parser) parseLoop(match bool) (stil.Statement, *stil.Error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	//
	offset := tok.Span.Start()
	//
	count, err := p.expectCount()
	if err != nil {
		return nil, err
	}
	//
	if _, err := p.expect(LCURLY); err != nil {
		return nil, err
	}
	//
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	//
	if match {
		return &stil.MatchLoop{At: offset, Count: count, Body: body}, nil
	}
	//
	return &stil.Loop{At: offset, Count: count, Body: body}, nil
}

// parseCall parses "Call name;" (or Macro).  Argument blocks are not
// supported and are skipped with a warning.
func (p *Parser) parseCall(macro bool) (stil.Statement, *stil.Error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	//
	offset := tok.Span.Start()
	//
	name, _, err := p.expectName()
	if err != nil {
		return nil, err
	}
	//
	la, err := p.peek()
	if err != nil {
		return nil, err
	}
	//
	if la.Kind == LCURLY {
		p.warn(la.Span.Start(), "ignoring arguments of call to \""+name+"\"")
		//
		if err := p.skipBalanced(); err != nil {
			return nil, err
		}
	} else if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	//
	if macro {
		return &stil.MacroCall{At: offset, Name: name}, nil
	}
	//
	return &stil.Call{At: offset, Name: name}, nil
}

// parseWFCString assembles a waveform character string, expanding backslash
// repeats as it goes.
func (p *Parser) parseWFCString() (string, *stil.Error) {
	var sb strings.Builder
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return "", err
		}
		//
		switch tok.Kind {
		case NUMBER, IDENTIFIER:
			sb.WriteString(p.text(tok))
			p.drop(1)
		case REPEAT:
			if err := p.parseRepeat(&sb, tok); err != nil {
				return "", err
			}
		default:
			return sb.String(), nil
		}
	}
}

// parseRepeat expands one "\rN C" repeat: the first character of the
// following run repeats N times, and the rest of the run follows verbatim.
func (p *Parser) parseRepeat(sb *strings.Builder, tok lex.Token) *stil.Error {
	offset := tok.Span.Start()
	//
	count, perr := strconv.ParseUint(p.text(tok)[2:], 10, 32)
	if perr != nil || count == 0 {
		return stil.Errorf(stil.LexError, offset, "malformed repeat %q", p.text(tok))
	}
	//
	p.drop(1)
	//
	chunk, err := p.next()
	if err != nil {
		return err
	}
	//
	if chunk.Kind != NUMBER && chunk.Kind != IDENTIFIER {
		return stil.Errorf(stil.LexError, offset, "repeat %q lacks a waveform character", p.text(tok))
	}
	//
	runes := []rune(p.text(chunk))
	//
	for i := uint64(0); i < count; i++ {
		sb.WriteRune(runes[0])
	}
	//
	sb.WriteString(string(runes[1:]))
	//
	return nil
}

// parseCharRun assembles adjacent NUMBER and IDENTIFIER tokens into one
// waveform character run (e.g. "01LH").
func (p *Parser) parseCharRun() (string, *stil.Error) {
	var sb strings.Builder
	//
	for {
		tok, err := p.peek()
		if err != nil {
			return "", err
		}
		//
		if tok.Kind != NUMBER && tok.Kind != IDENTIFIER {
			if sb.Len() == 0 {
				return "", p.unexpected(tok)
			}
			//
			return sb.String(), nil
		}
		//
		sb.WriteString(p.text(tok))
		p.drop(1)
	}
}

// expectCount parses a decimal or hexadecimal repetition count.
func (p *Parser) expectCount() (uint, *stil.Error) {
	tok, err := p.expect(NUMBER)
	if err != nil {
		return 0, err
	}
	//
	n, perr := strconv.ParseUint(p.text(tok), 0, 32)
	if perr != nil {
		return 0, stil.Errorf(stil.ParseError, tok.Span.Start(), "invalid count %q", p.text(tok))
	}
	//
	return uint(n), nil
}

// expectName parses an identifier or quoted string, returning its (unquoted)
// text and offset.
func (p *Parser) expectName() (string, int, *stil.Error) {
	tok, err := p.next()
	if err != nil {
		return "", 0, err
	}
	//
	switch tok.Kind {
	case IDENTIFIER:
		return p.text(tok), tok.Span.Start(), nil
	case STRING:
		return stripQuotes(p.text(tok)), tok.Span.Start(), nil
	}
	//
	return "", 0, p.unexpected(tok)
}

// skipOptionalName consumes a domain name when one precedes a block body.
func (p *Parser) skipOptionalName() *stil.Error {
	tok, err := p.peek()
	if err != nil {
		return err
	}
	//
	if tok.Kind == IDENTIFIER || tok.Kind == STRING {
		_, err = p.next()
	}
	//
	return err
}

// skipStatement discards tokens until a terminating semicolon, or the
// balanced close of a brace block when one opens first.
func (p *Parser) skipStatement() *stil.Error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		//
		switch tok.Kind {
		case SEMICOLON:
			return p.matchSemicolon()
		case LCURLY:
			if err := p.skipToClose(1); err != nil {
				return err
			}
			//
			return p.matchSemicolon()
		case END_OF:
			return p.unexpected(tok)
		}
	}
}

// skipBalanced discards a brace block (the opening brace is the next token).
func (p *Parser) skipBalanced() *stil.Error {
	if _, err := p.expect(LCURLY); err != nil {
		return err
	}
	//
	if err := p.skipToClose(1); err != nil {
		return err
	}
	//
	return p.matchSemicolon()
}

// skipToClose discards tokens until the brace depth returns to zero.
func (p *Parser) skipToClose(depth int) *stil.Error {
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return err
		}
		//
		switch tok.Kind {
		case LCURLY:
			depth++
		case RCURLY:
			depth--
		case END_OF:
			return p.unexpected(tok)
		}
	}
	//
	return nil
}

// matchSemicolon consumes a semicolon when one is next.
func (p *Parser) matchSemicolon() *stil.Error {
	tok, err := p.peek()
	if err != nil {
		return err
	}
	//
	if tok.Kind == SEMICOLON {
		_, err = p.next()
	}
	//
	return err
}

// ==================================================================
// Token plumbing
// ==================================================================

// scan pulls the next non-trivia token off the lexer.
func (p *Parser) scan() (lex.Token, *stil.Error) {
	for p.lexer.HasNext() {
		tok := p.lexer.Next()
		//
		if tok.Kind == WHITESPACE || tok.Kind == COMMENT {
			continue
		}
		//
		return tok, nil
	}
	// Lexer exhausted: either clean EOF, or text no rule accepts.
	if n := p.lexer.Remaining(); n > 0 {
		offset := int(p.lexer.Index())
		contents := p.srcfile.Contents()
		end := min(offset+8, len(contents))
		//
		return lex.Token{}, stil.Errorf(stil.LexError, offset,
			"unrecognised text %q", string(contents[offset:end]))
	}
	//
	eof := len(p.srcfile.Contents())
	//
	return lex.Token{Kind: END_OF, Span: source.NewSpan(eof, eof)}, nil
}

// peekAt returns the i'th token of lookahead without consuming anything.
func (p *Parser) peekAt(i int) (lex.Token, *stil.Error) {
	for len(p.tokens) <= i {
		tok, err := p.scan()
		if err != nil {
			return lex.Token{}, err
		}
		//
		p.tokens = append(p.tokens, tok)
	}
	//
	return p.tokens[i], nil
}

// peek returns the next token without consuming it.
func (p *Parser) peek() (lex.Token, *stil.Error) {
	return p.peekAt(0)
}

// next consumes and returns the next token.
func (p *Parser) next() (lex.Token, *stil.Error) {
	tok, err := p.peek()
	if err != nil {
		return tok, err
	}
	//
	p.tokens = p.tokens[1:]
	//
	return tok, nil
}

// drop consumes n already-peeked tokens.
func (p *Parser) drop(n int) {
	p.tokens = p.tokens[n:]
}

// expect consumes the next token, failing unless it has the given kind.
func (p *Parser) expect(kind uint) (lex.Token, *stil.Error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	//
	if tok.Kind != kind {
		return tok, p.unexpected(tok)
	}
	//
	return tok, nil
}

// text returns the source text of a token.
func (p *Parser) text(tok lex.Token) string {
	return p.srcfile.Text(tok.Span)
}

// unexpected constructs a parse error for an out-of-place token.
func (p *Parser) unexpected(tok lex.Token) *stil.Error {
	if tok.Kind == END_OF {
		return stil.Errorf(stil.ParseError, tok.Span.Start(), "unexpected end of file")
	}
	//
	return stil.Errorf(stil.ParseError, tok.Span.Start(), "unexpected token %q", p.text(tok))
}

// stripQuotes removes one layer of surrounding single or double quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	//
	return s
}

// splitSigRef splits a sigref expression "a + b + c" into its trimmed,
// unquoted member names.
func splitSigRef(expr string) []string {
	var members []string
	//
	for _, part := range strings.Split(expr, "+") {
		part = strings.TrimSpace(part)
		//
		if part != "" {
			members = append(members, stripQuotes(part))
		}
	}
	//
	return members
}
