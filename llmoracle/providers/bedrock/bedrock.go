// Package bedrock implements llmoracle.ChatModel using the AWS Bedrock
// Converse API, grounded on the teacher framework's aws-sdk-go-v2 usage in
// llm/providers/bedrock/bedrock.go, simplified to the single-turn
// prompt-plus-history shape llmoracle needs.
package bedrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/waypoint-ai/convomcts/llmoracle"
)

// ConverseAPI is the subset of bedrockruntime.Client used here, allowing a
// mock client to be injected in tests.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Model implements llmoracle.ChatModel against the Bedrock Converse API.
type Model struct {
	client  ConverseAPI
	modelID string
}

// New creates a Model for the given Bedrock model ID and AWS region,
// loading credentials from the default AWS credential chain.
func New(ctx context.Context, modelID, region string) (*Model, error) {
	if modelID == "" {
		return nil, errors.New("bedrock: model is required")
	}
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: failed to load AWS config: %w", err)
	}
	return &Model{client: bedrockruntime.NewFromConfig(awsCfg), modelID: modelID}, nil
}

// NewWithClient creates a Model with a custom ConverseAPI implementation,
// for testing.
func NewWithClient(client ConverseAPI, modelID string) *Model {
	return &Model{client: client, modelID: modelID}
}

// Generate implements llmoracle.ChatModel.
func (m *Model) Generate(ctx context.Context, prompt string, history llmoracle.Messages, maxTokens int, jsonMode bool) (string, error) {
	messages := make([]brtypes.Message, 0, len(history))
	for _, h := range history {
		role := brtypes.ConversationRoleUser
		if h.Role == "assistant" {
			role = brtypes.ConversationRoleAssistant
		}
		messages = append(messages, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: h.Content}},
		})
	}
	if len(messages) == 0 {
		messages = append(messages, brtypes.Message{
			Role:    brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: "Begin."}},
		})
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(m.modelID),
		Messages: messages,
		System:   []brtypes.SystemContentBlock{&brtypes.SystemContentBlockMemberText{Value: prompt}},
	}
	if maxTokens > 0 {
		n := int32(maxTokens)
		input.InferenceConfig = &brtypes.InferenceConfiguration{MaxTokens: &n}
	}

	output, err := m.client.Converse(ctx, input)
	if err != nil {
		return "", fmt.Errorf("bedrock: converse failed: %w", err)
	}

	var out string
	if msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
				out += text.Value
			}
		}
	}
	return out, nil
}

var _ llmoracle.ChatModel = (*Model)(nil)
