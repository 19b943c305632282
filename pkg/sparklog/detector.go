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

// Detector runs once per file over the full decoded text to infer the
// Spark deployment mode and source language.
type Detector struct {
	rules *Rules
}

// NewDetector builds a Detector around rules.
func NewDetector(rules *Rules) *Detector {
	return &Detector{rules: rules}
}

// DetectLanguage scores each candidate language by the count of distinct
// patterns that match anywhere in text (presence, not occurrence count)
// and returns the highest scorer; ties favor the declared rule order.
// Zero matches across all languages yields LanguageUnknown.
func (d *Detector) DetectLanguage(text string) SparkLanguage {
	best := LanguageUnknown
	bestScore := 0
	for _, rule := range d.rules.languages {
		score := 0
		for _, pattern := range rule.Patterns {
			if pattern.MatchString(text) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = rule.Language
		}
	}
	return best
}

// DetectMode returns the first mode (in declared order) with any matching
// pattern, or ModeUnknown if none match.
func (d *Detector) DetectMode(text string) SparkMode {
	for _, rule := range d.rules.modes {
		for _, pattern := range rule.Patterns {
			if pattern.MatchString(text) {
				return rule.Mode
			}
		}
	}
	return ModeUnknown
}
