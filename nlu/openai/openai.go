// Package openai provides a core.Classifier backed by the OpenAI Chat
// Completions API. The model is prompted with the closed intent set and must
// answer with a JSON object carrying the label and a confidence estimate.
// Useful where the embedded TF-IDF classifier is too coarse and a network
// dependency is acceptable.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/wxbot/wxbot/core"
)

// Options configure the OpenAI classifier adapter.
type Options struct {
	Model     string
	Intents   []string
	MaxTokens int64
}

// Classifier wraps the OpenAI Chat Completions API behind core.Classifier.
type Classifier struct {
	client *openai.Client
	opts   Options
}

var _ core.Classifier = (*Classifier)(nil)

// NewClassifier creates a classifier using the official client with
// credentials taken from the environment.
func NewClassifier(optFns ...func(o *Options)) *Classifier {
	client := openai.NewClient()
	return NewClassifierFromClient(&client, optFns...)
}

// NewClassifierFromClient creates a classifier from an existing client.
func NewClassifierFromClient(client *openai.Client, optFns ...func(o *Options)) *Classifier {
	opts := Options{
		Model: openai.ChatModelGPT4oMini,
		Intents: []string{
			core.IntentCurrentWeather, core.IntentForecast, core.IntentAlerts,
			core.IntentGreet, core.IntentHelp, core.IntentFallback,
		},
		MaxTokens: 64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{client: client, opts: opts}
}

func systemPrompt(intents []string) string {
	return fmt.Sprintf(
		"You classify weather-assistant utterances. Reply with a single JSON "+
			"object {\"intent\":\"<label>\",\"confidence\":<0..1>} and nothing else. "+
			"Allowed labels: %s.", strings.Join(intents, ", "))
}

// Classify sends the utterance to the model and parses its JSON verdict.
// Transport failures and malformed answers surface as errors; the policy
// treats them like any other upstream failure.
func (c *Classifier) Classify(ctx context.Context, text string) (core.Prediction, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(c.opts.Intents)),
			openai.UserMessage(text),
		},
		MaxCompletionTokens: openai.Int(c.opts.MaxTokens),
	})
	if err != nil {
		return core.Prediction{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.Prediction{}, fmt.Errorf("openai: no choices returned")
	}
	return parseVerdict(resp.Choices[0].Message.Content, c.opts.Intents)
}

// parseVerdict decodes the model answer, tolerating surrounding prose by
// extracting the first JSON object.
func parseVerdict(content string, allowed []string) (core.Prediction, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return core.Prediction{}, fmt.Errorf("classifier answer is not JSON: %q", content)
	}
	var verdict struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &verdict); err != nil {
		return core.Prediction{}, fmt.Errorf("decode classifier answer: %w", err)
	}
	for _, label := range allowed {
		if verdict.Intent == label {
			if verdict.Confidence < 0 {
				verdict.Confidence = 0
			}
			if verdict.Confidence > 1 {
				verdict.Confidence = 1
			}
			return core.Prediction{Intent: verdict.Intent, Confidence: verdict.Confidence}, nil
		}
	}
	return core.Prediction{}, fmt.Errorf("classifier returned unknown intent %q", verdict.Intent)
}
