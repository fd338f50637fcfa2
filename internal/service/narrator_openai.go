package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/spec-kit/issue-triage-service/internal/config"
)

const narratorSystemPrompt = "You write short weekly operations summaries for a facility " +
	"maintenance team. Given aggregate issue statistics, produce three to five plain " +
	"sentences: overall volume, the dominant categories and locations, resolution " +
	"progress, and any deadline breaches that need attention. No markdown, no lists."

// OpenAINarrator summarizes report statistics with a chat completion.
type OpenAINarrator struct {
	client openai.Client
	model  string
}

// NewOpenAINarrator returns nil when no API key is configured, which the
// report service treats as narration disabled.
func NewOpenAINarrator(cfg config.SummaryConfig) *OpenAINarrator {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	return &OpenAINarrator{
		client: openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)),
		model:  cfg.Model,
	}
}

func (n *OpenAINarrator) Narrate(ctx context.Context, stats ReportStats) (string, error) {
	resp, err := n.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: n.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(narratorSystemPrompt),
			openai.UserMessage(statsPrompt(stats)),
		},
		MaxTokens: openai.Int(400),
	})
	if err != nil {
		return "", fmt.Errorf("summary completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summary completion: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func statsPrompt(stats ReportStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week ending %s.\n", stats.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total issues: %d, resolved: %d, past deadline: %d.\n",
		stats.Total, stats.Resolved, stats.Breached)
	b.WriteString("By category:")
	for category, count := range stats.ByCategory {
		fmt.Fprintf(&b, " %s=%d", category, count)
	}
	b.WriteString("\nBy urgency:")
	for urgency, count := range stats.ByUrgency {
		fmt.Fprintf(&b, " %s=%d", urgency, count)
	}
	b.WriteString("\nBy location:")
	for location, count := range stats.ByLocation {
		fmt.Fprintf(&b, " %s=%d", location, count)
	}
	b.WriteString("\nBy assignee:")
	for role, count := range stats.ByAssignee {
		fmt.Fprintf(&b, " %s=%d", role, count)
	}
	return b.String()
}
