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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIsDeterministic(t *testing.T) {
	data := []byte("some spark log bytes")
	assert.Equal(t, Fingerprint(data), Fingerprint(data))
}

func TestFingerprintReaderMatchesFingerprint(t *testing.T) {
	data := []byte("some spark log bytes")
	got, err := FingerprintReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(data), got)
}

func TestShortHashTruncates(t *testing.T) {
	full := Fingerprint([]byte("x"))
	assert.Len(t, ShortHash(full, 8), 8)
	assert.True(t, strings.HasPrefix(full, ShortHash(full, 8)))
}
