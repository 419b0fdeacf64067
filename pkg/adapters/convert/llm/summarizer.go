// Package llm provides an LLM-backed converter that condenses plain
// text datasets into short summaries.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/convreg/convreg/internal/application/converters"
	"github.com/convreg/convreg/internal/domain"
	"go.uber.org/zap"
)

// MimeTypeSummary is the target mime type of the summarizer.
const MimeTypeSummary = "text/x-summary"

const systemPrompt = "Summarize the following document in at most five sentences. Reply with the summary only."

// Config holds summarizer configuration.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
	Logger    *zap.Logger
}

// Summarizer converts text datasets to summaries via the Anthropic API.
type Summarizer struct {
	client    anthropic.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// New creates a summarizer.
func New(cfg *Config) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	return &Summarizer{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    cfg.Logger,
	}, nil
}

// Converter returns the converter capability backed by this summarizer.
func (s *Summarizer) Converter() converters.Converter {
	return converters.Converter{
		Name: "llm-summarizer",
		From: []string{"text/plain", "text/markdown"},
		To:   MimeTypeSummary,
		Fn:   s.convert,
	}
}

// convert summarizes a single dataset.
func (s *Summarizer) convert(ctx context.Context, src domain.Dataset) (domain.Dataset, error) {
	data, err := src.Bytes(ctx)
	if err != nil {
		return domain.Dataset{}, err
	}

	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(string(data))),
		},
	})
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("summarization failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		sb.WriteString(block.Text)
	}

	s.logger.Debug("dataset summarized",
		zap.String("url", src.URL()),
		zap.String("model", s.model),
		zap.Int("input_bytes", len(data)),
		zap.Int("summary_bytes", sb.Len()))

	return domain.NewBytesDataset(src.URL(), MimeTypeSummary, []byte(sb.String())), nil
}
