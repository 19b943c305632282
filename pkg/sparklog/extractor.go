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

import (
	"regexp"
	"strconv"
	"time"
)

var (
	timestampISORe   = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}[,.]\d{3}`)
	timestampSparkRe = regexp.MustCompile(`\d{2}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}`)
	// 13 digits must be tried first: alternation is leftmost-first, so the
	// 10-digit branch would otherwise truncate a millisecond timestamp.
	timestampUnixRe = regexp.MustCompile(`(?i)timestamp[=:]\s*(\d{13}|\d{10})`)

	componentBracketRe   = regexp.MustCompile(`\[([A-Za-z][A-Za-z0-9_\-.]+)\]`)
	componentHeuristicRe = regexp.MustCompile(`\w+(?:Context|Executor|Driver|Manager)`)

	executorIDRe = regexp.MustCompile(`(?i)executor[_\s-]?(\d+|driver)`)

	exceptionColonRe = regexp.MustCompile(`([\w.]+Exception):`)
	errorColonRe     = regexp.MustCompile(`([\w.]+Error):`)
	causedByRe       = regexp.MustCompile(`(?i)Caused by:\s*([\w.]+(?:Exception|Error))`)
)

// Extractor applies the pure field extraction rules to a
// HEAD line.
type Extractor struct{}

// NewExtractor returns an Extractor. It holds no state beyond the
// package-level compiled patterns, shared immutably across workers.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractHead populates entry's timestamp, component, executor id, and
// exception type from line (the HEAD line). Level is set by the caller
// before ExtractHead runs, since the Lexer already matched it while
// deciding HEAD vs CONT.
func (e *Extractor) ExtractHead(entry *LogEntry, line string) {
	entry.Timestamp = e.extractTimestamp(line)
	entry.Component = e.extractComponent(line)
	entry.ExecutorID = e.extractExecutorID(line)

	if exc, ok := e.exceptionFromLine(line); ok {
		entry.markException(exc)
	}
}

func (e *Extractor) extractTimestamp(line string) *time.Time {
	if m := timestampISORe.FindString(line); m != "" {
		// Accept both comma and dot millisecond separators by normalizing
		// to a dot before parsing with a single layout.
		normalized := m
		if len(normalized) > 19 {
			normalized = normalized[:19] + "." + normalized[20:]
		}
		if t, err := time.Parse("2006-01-02 15:04:05.000", normalized); err == nil {
			return &t
		}
	}

	if m := timestampSparkRe.FindString(line); m != "" {
		if t, err := time.Parse("06/01/02 15:04:05", m); err == nil {
			return &t
		}
	}

	if m := timestampUnixRe.FindStringSubmatch(line); m != nil {
		digits := m[1]
		v, err := strconv.ParseInt(digits, 10, 64)
		if err == nil {
			var t time.Time
			if len(digits) == 13 {
				t = time.UnixMilli(v).UTC()
			} else {
				t = time.Unix(v, 0).UTC()
			}
			return &t
		}
	}

	return nil
}

func (e *Extractor) extractComponent(line string) string {
	if m := componentBracketRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := componentHeuristicRe.FindString(line); m != "" {
		return m
	}
	return ""
}

func (e *Extractor) extractExecutorID(line string) string {
	m := executorIDRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

// exceptionFromLine applies the first two exception patterns (HEAD-line
// or continuation-line forms): `X.Exception:` / `X.Error:`.
func (e *Extractor) exceptionFromLine(line string) (string, bool) {
	if m := exceptionColonRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := errorColonRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// causedByException applies the third exception pattern, used while
// scanning stack-trace continuation lines.
func (e *Extractor) causedByException(line string) (string, bool) {
	if m := causedByRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}
