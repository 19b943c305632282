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

//go:build analysis

package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/sparklogio/sparklogd/pkg/analysis"
)

// buildAnalyzer constructs the configured analysis provider. Keys are
// read from the same layered config as everything else:
// analysis.provider (anthropic, bedrock, or empty to disable),
// analysis.model, analysis.region.
func buildAnalyzer(ctx context.Context) (analysis.Provider, error) {
	switch provider := viper.GetString("analysis.provider"); provider {
	case "":
		return nil, nil
	case "anthropic":
		return analysis.NewAnthropicProvider(analysis.AnthropicConfig{
			APIKey: viper.GetString("analysis.api-key"),
			Model:  viper.GetString("analysis.model"),
		})
	case "bedrock":
		return analysis.NewBedrockProvider(ctx, analysis.BedrockConfig{
			Region:  viper.GetString("analysis.region"),
			ModelID: viper.GetString("analysis.model"),
		})
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", provider)
	}
}
