// Package anthropic provides a core.Classifier backed by the Anthropic
// Messages API, mirroring the openai sub-package.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/wxbot/wxbot/core"
)

// Options configure the Anthropic classifier adapter.
type Options struct {
	Model     anthropic.Model
	Intents   []string
	MaxTokens int64
	APIKey    string
}

// Classifier wraps the Anthropic Messages API behind core.Classifier.
type Classifier struct {
	client *anthropic.Client
	opts   Options
}

var _ core.Classifier = (*Classifier)(nil)

func defaultOptions() Options {
	return Options{
		Model: anthropic.ModelClaude3_5Sonnet20241022,
		Intents: []string{
			core.IntentCurrentWeather, core.IntentForecast, core.IntentAlerts,
			core.IntentGreet, core.IntentHelp, core.IntentFallback,
		},
		MaxTokens: 64,
	}
}

// NewClassifier creates a classifier using the official client.
func NewClassifier(optFns ...func(o *Options)) *Classifier {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Classifier{client: &client, opts: opts}
}

// NewClassifierFromClient creates a classifier from an existing client.
func NewClassifierFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Classifier {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{client: client, opts: opts}
}

// Classify sends the utterance to the model and parses its JSON verdict.
func (c *Classifier) Classify(ctx context.Context, text string) (core.Prediction, error) {
	prompt := fmt.Sprintf(
		"You classify weather-assistant utterances. Reply with a single JSON "+
			"object {\"intent\":\"<label>\",\"confidence\":<0..1>} and nothing else. "+
			"Allowed labels: %s.", strings.Join(c.opts.Intents, ", "))

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.opts.Model,
		MaxTokens: c.opts.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: prompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return core.Prediction{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var answer string
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer += block.AsText().Text
		}
	}
	return parseVerdict(answer, c.opts.Intents)
}

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
