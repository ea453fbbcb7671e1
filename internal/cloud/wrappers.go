// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file implements a wrapper around the OpenAI-compatible chat client.
// The wrapper uses the Decorator pattern to add rate limiting and a retry
// mechanism to the underlying model without altering its code.
//
// Why this is important:
//   - Rate Limiting: the script gateway enforces per-key quotas. The wrapper
//     keeps the application under those limits instead of burning requests
//     into quota errors.
//   - Retry Logic: gateway requests can fail for transient reasons. The
//     wrapper retries a failed request before giving up, making the script
//     stages resilient to blips.
package cloud

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"golang.org/x/time/rate"
)

// GenerateSchema reflects a Go struct into the JSON schema the gateway's
// structured-output mode requires. DoNotReference keeps the schema inline,
// which is what strict mode expects.
func GenerateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// NewJSONSchemaFormat builds the response-format parameter that forces the
// gateway to emit JSON matching the given reflected schema.
func NewJSONSchemaFormat(name string, description string, schema interface{}) openai.ChatCompletionNewParamsResponseFormatUnion {
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        name,
				Description: openai.String(description),
				Schema:      schema,
				Strict:      openai.Bool(true),
			},
		},
	}
}

// QuotaAwareChatModel is a decorator struct that wraps the OpenAI-compatible
// chat client to add rate limiting and retries. The model-level settings
// (system instructions, temperature, token budget) are fixed at construction
// so every command sees the same tuned model.
type QuotaAwareChatModel struct {
	Client             openai.Client
	ModelName          string
	SystemInstructions string
	Temperature        float64
	TopP               float64
	MaxTokens          int64
	RateLimit          *rate.Limiter
}

// NewQuotaAwareChatModel wraps a configured client with the model settings
// and a limiter allowing cfg.RateLimit requests per second.
func NewQuotaAwareChatModel(client openai.Client, cfg ScriptModel) *QuotaAwareChatModel {
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 1
	}
	return &QuotaAwareChatModel{
		Client:             client,
		ModelName:          cfg.Model,
		SystemInstructions: cfg.SystemInstructions,
		Temperature:        cfg.Temperature,
		TopP:               cfg.TopP,
		MaxTokens:          cfg.MaxTokens,
		RateLimit:          rate.NewLimiter(rate.Limit(limit), limit),
	}
}

// GenerateStructured sends a single user prompt through the model with a
// strict JSON response format and returns the raw JSON text of the first
// choice. Failed requests are retried up to MaxRetries times; the limiter
// is consulted before every attempt so retries also count against quota.
func (q *QuotaAwareChatModel) GenerateStructured(
	ctx context.Context,
	prompt string,
	format openai.ChatCompletionNewParamsResponseFormatUnion) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: q.ModelName,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(q.SystemInstructions),
			openai.UserMessage(prompt),
		},
		Temperature:    openai.Float(q.Temperature),
		TopP:           openai.Float(q.TopP),
		MaxTokens:      openai.Int(q.MaxTokens),
		ResponseFormat: format,
	}

	var lastErr error
	for try := 0; try <= MaxRetries; try++ {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return "", err
		}
		completion, err := q.Client.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = err
			continue
		}
		if len(completion.Choices) == 0 {
			lastErr = fmt.Errorf("model '%s' returned no choices", q.ModelName)
			continue
		}
		content := completion.Choices[0].Message.Content
		if content == "" {
			lastErr = fmt.Errorf("model '%s' returned an empty message, finish reason: %s",
				q.ModelName, completion.Choices[0].FinishReason)
			continue
		}
		return content, nil
	}
	return "", fmt.Errorf("generation failed after %d retries: %w", MaxRetries, lastErr)
}
