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
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// categoryRule is one (category, patterns) bucket in declared-order
// priority, evaluated top to bottom by the Classifier.
type categoryRule struct {
	Category Category
	Patterns []string
}

// languageRule is one (language, patterns) presence-count bucket evaluated
// by the Mode/Language Detector.
type languageRule struct {
	Language SparkLanguage
	Patterns []string
}

type modeRule struct {
	Mode     SparkMode
	Patterns []string
}

// rulesDoc is the YAML shape accepted by LoadRulesFile, allowing operators
// to extend or override the default category/language/mode patterns
// without a code change, per the data-driven extensibility design note.
type rulesDoc struct {
	Categories []struct {
		Name     string   `yaml:"name"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"categories"`
	Languages []struct {
		Name     string   `yaml:"name"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"languages"`
	Modes []struct {
		Name     string   `yaml:"name"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"modes"`
}

// Rules holds the compiled, immutable pattern set used by the Classifier
// and the Mode/Language Detector. A Rules value is safe for concurrent use
// once built; it is never mutated after construction.
type Rules struct {
	categories []compiledCategoryRule
	languages  []compiledLanguageRule
	modes      []compiledModeRule
}

type compiledCategoryRule struct {
	Category Category
	Patterns []*regexp.Regexp
}

type compiledLanguageRule struct {
	Language SparkLanguage
	Patterns []*regexp.Regexp
}

type compiledModeRule struct {
	Mode     SparkMode
	Patterns []*regexp.Regexp
}

// defaultCategoryRules is the built-in bucket set, in priority order.
var defaultCategoryRules = []categoryRule{
	{CategoryMemory, []string{`(?i)OutOfMemory`, `(?i)OOM`, `(?i)heap space`, `(?i)GC overhead`}},
	{CategoryShuffle, []string{`(?i)shuffle`, `(?i)FetchFailed`, `(?i)ShuffleMapTask`}},
	{CategoryNetwork, []string{`(?i)connection`, `(?i)timeout`, `(?i)refused`, `(?i)network`}},
	{CategorySerialization, []string{`(?i)serializ`, `(?i)deserializ`, `(?i)NotSerializable`}},
	{CategoryConfiguration, []string{`(?i)config`, `(?i)property`, `(?i)setting`, `(?i)parameter`}},
	{CategoryPermission, []string{`(?i)permission`, `(?i)access denied`, `(?i)authorization`}},
	{CategoryStorage, []string{`(?i)disk`, `(?i)storage`, `(?i)hdfs`, `(?i)s3`, `(?i)file not found`}},
	{CategoryExecutor, []string{`(?i)executor.*lost`, `(?i)executor.*failed`, `(?i)heartbeat`}},
}

// defaultLanguageRules is evaluated in declared order for tie-breaks.
var defaultLanguageRules = []languageRule{
	{LanguagePython, []string{`(?i)pyspark`, `(?i)Traceback \(most recent call last\)`, `(?i)PythonRunner`, `\.py["':]`, `(?i)py4j`}},
	{LanguageScala, []string{`\.scala:\d+`, `(?i)scala\.`, `(?i)akka\.`}},
	{LanguageJava, []string{`\.java:\d+`, `(?i)java\.lang\.`, `(?i)javac`}},
	{LanguageSQL, []string{`(?i)spark-sql`, `(?i)SparkSQL`, `(?i)HiveQL`, `(?i)thriftserver`}},
	{LanguageR, []string{`(?i)sparkr`, `(?i)SparkR`, `\.R["':]`}},
}

// defaultModeRules is evaluated in declared order; first match wins.
var defaultModeRules = []modeRule{
	{ModeYARN, []string{`(?i)yarn`, `container_\d+_\d+`, `(?i)ApplicationMaster`, `(?i)ResourceManager`}},
	{ModeKubernetes, []string{`(?i)kubernetes`, `(?i)k8s`, `(?i)KubernetesClusterManager`}},
	{ModeStandalone, []string{`(?i)standalone`, `(?i)spark://`, `(?i)StandaloneSchedulerBackend`}},
	{ModeLocal, []string{`(?i)local\[`, `(?i)LocalSchedulerBackend`}},
}

// NewDefaultRules compiles the built-in category/language/mode patterns.
func NewDefaultRules() *Rules {
	r, err := buildRules(defaultCategoryRules, defaultLanguageRules, defaultModeRules)
	if err != nil {
		// The default patterns are static and covered by tests; a compile
		// failure here is a programming error, not a runtime condition.
		panic(fmt.Sprintf("sparklog: default rules failed to compile: %v", err))
	}
	return r
}

// LoadRulesFile reads a YAML rules document and compiles it into Rules.
// Any section omitted from the document falls back to the built-in
// defaults for that section.
func LoadRulesFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var doc rulesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	categories := defaultCategoryRules
	if len(doc.Categories) > 0 {
		categories = make([]categoryRule, 0, len(doc.Categories))
		for _, c := range doc.Categories {
			categories = append(categories, categoryRule{Category: Category(c.Name), Patterns: c.Patterns})
		}
	}

	languages := defaultLanguageRules
	if len(doc.Languages) > 0 {
		languages = make([]languageRule, 0, len(doc.Languages))
		for _, l := range doc.Languages {
			languages = append(languages, languageRule{Language: SparkLanguage(l.Name), Patterns: l.Patterns})
		}
	}

	modes := defaultModeRules
	if len(doc.Modes) > 0 {
		modes = make([]modeRule, 0, len(doc.Modes))
		for _, m := range doc.Modes {
			modes = append(modes, modeRule{Mode: SparkMode(m.Name), Patterns: m.Patterns})
		}
	}

	return buildRules(categories, languages, modes)
}

// Categories returns the category names in evaluation order, including
// any YAML-configured overrides.
func (r *Rules) Categories() []Category {
	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c.Category)
	}
	return out
}

func buildRules(categories []categoryRule, languages []languageRule, modes []modeRule) (*Rules, error) {
	r := &Rules{}

	for _, c := range categories {
		compiled, err := compileAll(c.Patterns)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", c.Category, err)
		}
		r.categories = append(r.categories, compiledCategoryRule{Category: c.Category, Patterns: compiled})
	}

	for _, l := range languages {
		compiled, err := compileAll(l.Patterns)
		if err != nil {
			return nil, fmt.Errorf("language %s: %w", l.Language, err)
		}
		r.languages = append(r.languages, compiledLanguageRule{Language: l.Language, Patterns: compiled})
	}

	for _, m := range modes {
		compiled, err := compileAll(m.Patterns)
		if err != nil {
			return nil, fmt.Errorf("mode %s: %w", m.Mode, err)
		}
		r.modes = append(r.modes, compiledModeRule{Mode: m.Mode, Patterns: compiled})
	}

	return r, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
