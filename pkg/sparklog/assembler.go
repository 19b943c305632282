// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package sparklog

import "strings"

type assemblerState int

const (
	stateIdle assemblerState = iota
	stateOpen
	stateCollecting
)

// Assembler is the one-pass streaming state machine that coalesces HEAD
// and CONT tokens into LogEntry values. It never buffers more than the
// entry currently being built; callers stream lines in and drain finished
// entries as they are emitted, which keeps memory bounded regardless of
// file size.
type Assembler struct {
	lexer     *Lexer
	extractor *Extractor

	state      assemblerState
	lineNumber int // physical line number of the HEAD currently buffered
	entry      *LogEntry
	messageBuf strings.Builder
	stackBuf   strings.Builder
}

// NewAssembler builds an Assembler around extractor for field extraction
// on HEAD lines.
func NewAssembler(extractor *Extractor) *Assembler {
	return &Assembler{
		lexer:     NewLexer(),
		extractor: extractor,
		state:     stateIdle,
	}
}

// Feed processes one physical line (1-indexed lineNo) and returns a
// finished entry if one was completed as a side effect (i.e. a prior HEAD
// was finalized because this line opened a new one).
func (a *Assembler) Feed(lineNo int, line string) *LogEntry {
	open := a.state != stateIdle
	collecting := a.state == stateCollecting
	tok := a.lexer.Classify(line, open, collecting)

	if tok.Kind == TokenHead {
		finished := a.finalizeCurrent()
		a.openEntry(lineNo, line)
		return finished
	}

	switch a.state {
	case stateIdle:
		// CONT/empty lines with no open entry are discarded; this also
		// covers the open question of a bare stack frame before any HEAD.
		return nil
	case stateOpen:
		if tok.IsStackLine {
			a.state = stateCollecting
			a.appendStack(line)
			return nil
		}
		a.appendMessage(line)
		if a.entry.ExceptionType == "" {
			if exc, ok := a.extractor.exceptionFromLine(line); ok {
				a.entry.markException(exc)
			}
		}
		return nil
	case stateCollecting:
		a.appendStack(line)
		return nil
	}
	return nil
}

// Close finalizes any buffered entry at end of stream.
func (a *Assembler) Close() *LogEntry {
	return a.finalizeCurrent()
}

func (a *Assembler) openEntry(lineNo int, line string) {
	a.lineNumber = lineNo
	level, _ := a.lexer.matchLevel(line)
	a.entry = &LogEntry{
		LineNumber: lineNo,
		RawLine:    line,
		Level:      level,
		IsError:    level == LevelError || level == LevelFatal,
		IsWarning:  level == LevelWarn,
	}
	a.messageBuf.Reset()
	a.messageBuf.WriteString(line)
	a.stackBuf.Reset()
	a.extractor.ExtractHead(a.entry, line)
	a.state = stateOpen
}

func (a *Assembler) appendMessage(line string) {
	a.messageBuf.WriteByte('\n')
	a.messageBuf.WriteString(line)
}

func (a *Assembler) appendStack(line string) {
	if a.stackBuf.Len() > 0 {
		a.stackBuf.WriteByte('\n')
	}
	a.stackBuf.WriteString(line)

	// A `Caused by: X.Y.ZException: ...` line inside the stack trace
	// promotes exception_type if none was set yet; first match wins.
	if a.entry.ExceptionType == "" {
		if exc, ok := a.extractor.causedByException(line); ok {
			a.entry.markException(exc)
		}
	}
}

func (a *Assembler) finalizeCurrent() *LogEntry {
	if a.entry == nil {
		return nil
	}
	entry := a.entry
	entry.Message = a.messageBuf.String()
	if a.stackBuf.Len() > 0 {
		entry.HasStackTrace = true
		entry.StackTrace = a.stackBuf.String()
	}
	a.entry = nil
	a.state = stateIdle
	return entry
}
