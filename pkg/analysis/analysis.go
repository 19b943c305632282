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

// Package analysis defines the seam between the parsing engine and
// AI-assisted diagnosis: a Provider takes parsed entries and returns a
// structured Finding. The engine never calls a provider itself; the HTTP
// surface does, and only when one is configured.
//
// Concrete providers (Anthropic, Bedrock) are compiled in with the
// "analysis" build tag; without it this package is interface-only.
package analysis

import (
	"context"
	"errors"

	"github.com/sparklogio/sparklogd/pkg/sparklog"
)

// ErrNoProvider is returned by the HTTP surface when analysis is requested
// but no provider has been configured.
var ErrNoProvider = errors.New("analysis: no provider configured")

// Severity grades a Finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Recommendation is a single actionable suggestion within a Finding.
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Severity `json:"priority"`
	Category    string   `json:"category"`
	CodeExample string   `json:"code_example,omitempty"`
}

// ConfigSuggestion proposes a Spark configuration change.
type ConfigSuggestion struct {
	ConfigKey      string `json:"config_key"`
	CurrentValue   string `json:"current_value,omitempty"`
	SuggestedValue string `json:"suggested_value"`
	Reason         string `json:"reason"`
	Impact         string `json:"impact"`
}

// Finding is the structured result a Provider returns for a set of parsed
// entries.
type Finding struct {
	Summary           string             `json:"summary"`
	RootCause         string             `json:"root_cause,omitempty"`
	Severity          Severity           `json:"severity,omitempty"`
	Recommendations   []Recommendation   `json:"recommendations,omitempty"`
	ConfigSuggestions []ConfigSuggestion `json:"config_suggestions,omitempty"`
	Provider          string             `json:"provider"`
	Model             string             `json:"model"`
}

// Request selects what to analyze. Entries should already be filtered to
// the rows worth sending (typically errors and warnings); the provider
// truncates further if its context budget requires it.
type Request struct {
	File    *sparklog.LogFile
	Entries []sparklog.LogEntry
}

// Provider turns parsed entries into a Finding.
//
// Implementations must be safe for concurrent use; the HTTP surface calls
// AnalyzeEntries from multiple request goroutines.
type Provider interface {
	// Name returns the provider name (e.g. "anthropic", "bedrock").
	Name() string

	// Model returns the model identifier requests are sent to.
	Model() string

	// AnalyzeEntries sends req to the model and returns its Finding.
	AnalyzeEntries(ctx context.Context, req Request) (*Finding, error)
}
