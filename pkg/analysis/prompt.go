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
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sparklogio/sparklogd/pkg/sparklog"
)

// maxPromptEntries bounds how many entries are rendered into one prompt;
// errors and warnings are kept ahead of informational rows when the cut
// is applied.
const maxPromptEntries = 200

const systemPrompt = `You are an Apache Spark troubleshooting expert. You are given parsed
entries from a Spark application log. Diagnose the failure and respond
with a single JSON object, no prose outside it, with these fields:
summary (string), root_cause (string), severity (one of low, medium,
high, critical), recommendations (array of {title, description,
priority, category, code_example}), config_suggestions (array of
{config_key, current_value, suggested_value, reason, impact}).`

// BuildPrompt renders req into the user prompt sent to the model.
func BuildPrompt(req Request) string {
	var b strings.Builder

	if req.File != nil {
		fmt.Fprintf(&b, "Log file: %s (mode=%s, language=%s)\n\n",
			req.File.OriginalFilename, req.File.DetectedMode, req.File.DetectedLanguage)
	}

	entries := prioritize(req.Entries)
	if len(entries) > maxPromptEntries {
		fmt.Fprintf(&b, "Showing %d of %d entries (errors and warnings first):\n\n",
			maxPromptEntries, len(entries))
		entries = entries[:maxPromptEntries]
	}

	for _, e := range entries {
		fmt.Fprintf(&b, "line %d", e.LineNumber)
		if e.Level != "" {
			fmt.Fprintf(&b, " [%s]", e.Level)
		}
		if e.Category != "" {
			fmt.Fprintf(&b, " (%s)", e.Category)
		}
		b.WriteString(": ")
		b.WriteString(e.Message)
		b.WriteByte('\n')
		if e.HasStackTrace {
			b.WriteString(e.StackTrace)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// prioritize returns entries reordered so errors come first, then
// warnings, then the rest, each group keeping its original order.
func prioritize(entries []sparklog.LogEntry) []sparklog.LogEntry {
	out := make([]sparklog.LogEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsError {
			out = append(out, e)
		}
	}
	for _, e := range entries {
		if e.IsWarning {
			out = append(out, e)
		}
	}
	for _, e := range entries {
		if !e.IsError && !e.IsWarning {
			out = append(out, e)
		}
	}
	return out
}

// ParseFinding extracts the JSON object from a model reply, tolerating
// markdown fences and prose around it, and unmarshals it into a Finding.
func ParseFinding(reply, providerName, model string) (*Finding, error) {
	raw := extractJSON(reply)
	if raw == "" {
		return nil, fmt.Errorf("analysis: no JSON object in model reply")
	}

	var f Finding
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("analysis: decode model reply: %w", err)
	}
	f.Provider = providerName
	f.Model = model
	return &f, nil
}

// extractJSON returns the first balanced top-level {...} in s, or "".
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
