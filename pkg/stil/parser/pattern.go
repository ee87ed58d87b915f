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
	"github.com/htol-tools/patconv/pkg/stil"
)

// frame is one spliced statement sequence (an inlined procedure or macro
// body) being replayed ahead of the underlying token stream.
type frame struct {
	body  []stil.Statement
	index int
}

// Cursor streams the statements of the Pattern block one at a time.  Pushed
// statement sequences (inlined procedure and macro bodies) are drained before
// the token stream resumes, which keeps memory proportional to splice depth
// rather than pattern length.
type Cursor struct {
	parser *Parser
	frames []frame
	// Set once the closing brace of the Pattern block has been consumed.
	done bool
}

// PatternCursor returns a cursor over the Pattern body.  ParseHeader must
// have completed first.
func (p *Parser) PatternCursor() *Cursor {
	return &Cursor{parser: p, done: !p.inPattern}
}

// Push splices a statement sequence in front of the stream.  Subsequent
// Next calls drain it (most recently pushed first) before returning to the
// underlying tokens.
func (c *Cursor) Push(body []stil.Statement) {
	c.frames = append(c.frames, frame{body: body})
}

// Depth returns the number of statement sequences currently spliced in.
func (c *Cursor) Depth() int {
	return len(c.frames)
}

// Offset returns the byte offset of the next unconsumed token, for progress
// reporting.
func (c *Cursor) Offset() int {
	return c.parser.Offset()
}

// Next returns the next pattern statement, or (nil, nil) once the Pattern
// block is exhausted.
func (c *Cursor) Next() (stil.Statement, *stil.Error) {
	// Drain spliced frames first.
	for n := len(c.frames); n > 0; n = len(c.frames) {
		top := &c.frames[n-1]
		//
		if top.index < len(top.body) {
			stmt := top.body[top.index]
			top.index++
			//
			return stmt, nil
		}
		//
		c.frames = c.frames[:n-1]
	}
	//
	for !c.done {
		tok, err := c.parser.peek()
		if err != nil {
			return nil, err
		}
		//
		switch tok.Kind {
		case RCURLY:
			if _, err := c.parser.next(); err != nil {
				return nil, err
			}
			//
			c.done = true
			//
			return nil, nil
		case END_OF:
			return nil, stil.Errorf(stil.ParseError, tok.Span.Start(),
				"unterminated Pattern block %q", c.parser.pattern)
		}
		//
		stmt, err := c.parser.parseStatement()
		if err != nil {
			return nil, err
		}
		// A nil statement was skipped; keep going.
		if stmt != nil {
			return stmt, nil
		}
	}
	//
	return nil, nil
}
