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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTimestampFormats(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name string
		line string
		want time.Time
	}{
		{
			name: "iso with comma millis",
			line: "2024-01-28 10:30:45,123 INFO Main: hi",
			want: time.Date(2024, 1, 28, 10, 30, 45, 123e6, time.UTC),
		},
		{
			name: "iso with dot millis",
			line: "2024-01-28 10:30:45.123 INFO Main: hi",
			want: time.Date(2024, 1, 28, 10, 30, 45, 123e6, time.UTC),
		},
		{
			name: "spark default",
			line: "24/01/28 10:30:45 INFO Main: hi",
			want: time.Date(2024, 1, 28, 10, 30, 45, 0, time.UTC),
		},
		{
			name: "unix seconds",
			line: "INFO timestamp=1706437845 Main: hi",
			want: time.Unix(1706437845, 0).UTC(),
		},
		{
			name: "unix millis",
			line: "INFO timestamp: 1706437845123 Main: hi",
			want: time.UnixMilli(1706437845123).UTC(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.extractTimestamp(tt.line)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v want %v", got, tt.want)
		})
	}

	assert.Nil(t, e.extractTimestamp("INFO Main: no timestamp here"))
}

func TestExtractComponent(t *testing.T) {
	e := NewExtractor()

	assert.Equal(t, "TaskScheduler", e.extractComponent("INFO [TaskScheduler] starting"))
	assert.Equal(t, "SparkContext", e.extractComponent("INFO SparkContext: Running"))
	assert.Equal(t, "BlockManager", e.extractComponent("WARN BlockManager: Removing"))
	assert.Empty(t, e.extractComponent("INFO plain message"))

	// bracketed token wins over the heuristic when both are present
	assert.Equal(t, "stage-1", e.extractComponent("ERROR [stage-1] SparkContext: failed"))
}

func TestExtractExecutorID(t *testing.T) {
	e := NewExtractor()

	assert.Equal(t, "3", e.extractExecutorID("Lost executor 3 on host"))
	assert.Equal(t, "12", e.extractExecutorID("executor_12 heartbeat timed out"))
	assert.Equal(t, "driver", e.extractExecutorID("Executor driver: starting"))
	assert.Empty(t, e.extractExecutorID("no executor mention"))
}

func TestExceptionExtraction(t *testing.T) {
	e := NewExtractor()

	exc, ok := e.exceptionFromLine("java.io.FileNotFoundException: /data/missing.parquet")
	require.True(t, ok)
	assert.Equal(t, "java.io.FileNotFoundException", exc)

	exc, ok = e.exceptionFromLine("java.lang.OutOfMemoryError: Java heap space")
	require.True(t, ok)
	assert.Equal(t, "java.lang.OutOfMemoryError", exc)

	exc, ok = e.causedByException("Caused by: org.apache.spark.SparkException")
	require.True(t, ok)
	assert.Equal(t, "org.apache.spark.SparkException", exc)

	_, ok = e.exceptionFromLine("INFO Main: all good")
	assert.False(t, ok)
}

func TestLexerLevelNormalization(t *testing.T) {
	l := NewLexer()

	level, ok := l.matchLevel("24/01/28 10:30:45 WARNING Main: careful")
	require.True(t, ok)
	assert.Equal(t, LevelWarn, level)

	level, ok = l.matchLevel("24/01/28 10:30:45 severe Main: bad")
	require.True(t, ok)
	assert.Equal(t, LevelFatal, level)

	_, ok = l.matchLevel("\tat org.apache.spark.rdd.RDD.iterator(RDD.scala:289)")
	assert.False(t, ok)
}

func TestLexerStackFrameShape(t *testing.T) {
	l := NewLexer()

	assert.True(t, l.IsStackFrame("\tat org.apache.spark.scheduler.Task.run(Task.scala:131)"))
	assert.True(t, l.IsStackFrame("    at java.lang.Thread.run(Thread.java:748)"))
	assert.False(t, l.IsStackFrame("at the start of the job"))
	assert.False(t, l.IsStackFrame("\tFile \"script.py\", line 3, in <module>"))
}
