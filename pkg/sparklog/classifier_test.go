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
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierMemoryBeforeExecutor(t *testing.T) {
	c := NewClassifier(NewDefaultRules())
	// An OOM inside an executor must land in memory, not executor.
	got := c.Classify("ERROR Executor: lost due to OutOfMemoryError")
	assert.Equal(t, CategoryMemory, got)
}

func TestClassifierNoMatchReturnsEmpty(t *testing.T) {
	c := NewClassifier(NewDefaultRules())
	assert.Equal(t, Category(""), c.Classify("ERROR Something: totally unrelated text"))
}

func TestClassifierOrderedCategories(t *testing.T) {
	c := NewClassifier(NewDefaultRules())
	cases := map[string]Category{
		"connection refused by remote host":   CategoryNetwork,
		"NotSerializable exception thrown":    CategorySerialization,
		"invalid configuration parameter set": CategoryConfiguration,
		"permission denied on resource":       CategoryPermission,
		"hdfs file not found":                 CategoryStorage,
		"executor heartbeat timed out":        CategoryExecutor,
	}
	for line, want := range cases {
		assert.Equal(t, want, c.Classify(line), line)
	}
}

func TestLoadRulesFileOverridesCategory(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/rules.yaml"
	yamlDoc := []byte("categories:\n  - name: custom\n    patterns:\n      - \"(?i)widget failure\"\n")
	assert.NoError(t, os.WriteFile(path, yamlDoc, 0o644))

	rules, err := LoadRulesFile(path)
	assert.NoError(t, err)
	c := NewClassifier(rules)
	assert.Equal(t, Category("custom"), c.Classify("widget failure detected"))
	// Languages/modes fall back to defaults when omitted from the file.
	d := NewDetector(rules)
	assert.Equal(t, LanguagePython, d.DetectLanguage("pyspark job running"))
}
