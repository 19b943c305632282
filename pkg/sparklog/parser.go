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

import "context"

// Result is the outcome of parsing one LogFile's content.
type Result struct {
	Entries  []LogEntry
	Mode     SparkMode
	Language SparkLanguage
}

// Parser wires the Decoder, Detector, Lexer/Assembler, Extractor, and
// Classifier into a single pipeline:
// bytes -> Decoder -> Lexer -> Assembler -> (Extractor, Classifier).
type Parser struct {
	decoder    *Decoder
	detector   *Detector
	classifier *Classifier
}

// NewParser builds a Parser from a shared, immutable Rules set.
func NewParser(rules *Rules) *Parser {
	return &Parser{
		decoder:    NewDecoder(),
		detector:   NewDetector(rules),
		classifier: NewClassifier(rules),
	}
}

// ParseFile decodes path and runs the full pipeline. ctx is checked for
// cancellation only at HEAD-line boundaries, per the concurrency model's
// cancellation contract: a cancelled parse aborts with ErrParseAborted and
// leaks no partial entries to the caller.
func (p *Parser) ParseFile(ctx context.Context, path string) (Result, error) {
	text, err := p.decoder.Decode(path)
	if err != nil {
		return Result{}, err
	}
	return p.ParseText(ctx, text)
}

// ParseBytes decodes raw bytes as if read from path, for payloads already in
// memory, and runs the pipeline.
func (p *Parser) ParseBytes(ctx context.Context, path string, raw []byte) (Result, error) {
	text, err := p.decoder.DecodeBytes(path, raw)
	if err != nil {
		return Result{}, err
	}
	return p.ParseText(ctx, text)
}

// ParseText runs the Detector once over text, then streams lines through
// the Lexer/Assembler/Extractor/Classifier in a single pass.
func (p *Parser) ParseText(ctx context.Context, text string) (Result, error) {
	mode := p.detector.DetectMode(text)
	language := p.detector.DetectLanguage(text)

	extractor := NewExtractor()
	assembler := NewAssembler(extractor)

	lines := Lines(text)
	entries := make([]LogEntry, 0, len(lines)/4+1)

	lexer := NewLexer()
	for i, line := range lines {
		// Cancellation is observed only at the start of a new HEAD, so an
		// in-flight entry is never left half-assembled.
		if isHeadLine(lexer, line) {
			select {
			case <-ctx.Done():
				return Result{}, ErrParseAborted
			default:
			}
		}

		if finished := assembler.Feed(i+1, line); finished != nil {
			p.classifier.ClassifyEntry(finished)
			entries = append(entries, *finished)
		}
	}
	if finished := assembler.Close(); finished != nil {
		p.classifier.ClassifyEntry(finished)
		entries = append(entries, *finished)
	}

	return Result{Entries: entries, Mode: mode, Language: language}, nil
}

func isHeadLine(l *Lexer, line string) bool {
	_, ok := l.matchLevel(line)
	return ok
}
