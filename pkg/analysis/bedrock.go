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

package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// DefaultBedrockModel is the default Bedrock model identifier.
const DefaultBedrockModel = "anthropic.claude-sonnet-4-5-20250929-v1:0"

// BedrockProvider implements Provider against the AWS Bedrock Converse
// API.
type BedrockProvider struct {
	client  *bedrockruntime.Client
	modelID string
}

// BedrockConfig holds configuration for the Bedrock provider. With no
// explicit credentials the default AWS credential chain is used.
type BedrockConfig struct {
	Region          string
	ModelID         string // falls back to DefaultBedrockModel
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// NewBedrockProvider creates a provider from cfg.
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("analysis: load AWS config: %w", err)
	}

	modelID := cfg.ModelID
	if modelID == "" {
		modelID = DefaultBedrockModel
	}

	return &BedrockProvider{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: modelID,
	}, nil
}

// Name returns "bedrock".
func (p *BedrockProvider) Name() string { return "bedrock" }

// Model returns the configured model identifier.
func (p *BedrockProvider) Model() string { return p.modelID }

// AnalyzeEntries sends req through the Converse API and decodes the
// reply.
func (p *BedrockProvider) AnalyzeEntries(ctx context.Context, req Request) (*Finding, error) {
	prompt := BuildPrompt(req)

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(p.modelID),
		System: []bedrocktypes.SystemContentBlock{
			&bedrocktypes.SystemContentBlockMemberText{Value: systemPrompt},
		},
		Messages: []bedrocktypes.Message{
			{
				Role: bedrocktypes.ConversationRoleUser,
				Content: []bedrocktypes.ContentBlock{
					&bedrocktypes.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &bedrocktypes.InferenceConfiguration{
			MaxTokens: aws.Int32(defaultMaxTokens),
		},
	}

	output, err := p.client.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("analysis: bedrock converse: %w", err)
	}

	var reply strings.Builder
	if msg, ok := output.Output.(*bedrocktypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if text, ok := block.(*bedrocktypes.ContentBlockMemberText); ok {
				reply.WriteString(text.Value)
			}
		}
	}

	return ParseFinding(reply.String(), p.Name(), p.modelID)
}

var _ Provider = (*BedrockProvider)(nil)
