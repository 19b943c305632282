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

//go:build !analysis

package main

import (
	"context"

	"github.com/sparklogio/sparklogd/pkg/analysis"
)

// buildAnalyzer returns nil in builds without the analysis tag; the
// analyze endpoint then reports that no provider is configured.
func buildAnalyzer(context.Context) (analysis.Provider, error) {
	return nil, nil
}
