// Package ai generates the user-facing recommendation descriptions. All of
// it is best-effort from the engine's point of view: failures surface as
// errors and the caller drops them.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/costwise/costwise/internal/models"
)

// Provider is one chat-completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

const systemPrompt = `You are a cloud cost advisor writing for a dashboard.
Given a machine-generated recommendation, respond with a JSON object with two
string fields: "short" (one sentence, plain text) and "long" (2-4 sentences
of HTML using only <p>, <b> and <ul>/<li> tags). Do not invent numbers.`

// Service turns recommendations into short/long description pairs.
type Service struct {
	provider Provider
	timeout  time.Duration
	logger   *zap.Logger
}

// NewService wires a Service to its provider. logger may be nil.
func NewService(provider Provider, timeout time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, timeout: timeout, logger: logger}
}

// Describe generates the description pair for one recommendation.
func (s *Service) Describe(ctx context.Context, rec *models.Recommendation) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.provider.Complete(ctx, systemPrompt, describePrompt(rec))
	if err != nil {
		return "", "", fmt.Errorf("complete via %s: %w", s.provider.Name(), err)
	}

	var parsed struct {
		Short string `json:"short"`
		Long  string `json:"long"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return "", "", fmt.Errorf("parse %s response: %w", s.provider.Name(), err)
	}
	if parsed.Short == "" {
		return "", "", fmt.Errorf("%s returned an empty short description", s.provider.Name())
	}
	return parsed.Short, parsed.Long, nil
}

func describePrompt(rec *models.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recommendation type: %s\n", rec.Type)
	fmt.Fprintf(&b, "Title: %s\n", rec.Title)
	fmt.Fprintf(&b, "Details: %s\n", rec.Description)
	fmt.Fprintf(&b, "Estimated monthly savings: %.2f %s\n", rec.EstimatedMonthlySavings, rec.Currency)
	if rec.TargetVendor != "" {
		fmt.Fprintf(&b, "Suggested target: %s %s (%s)\n", rec.TargetVendor, rec.TargetSKU, rec.TargetRegion)
	}
	return b.String()
}

// extractJSON strips markdown code fences some models wrap JSON answers in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		if i := strings.LastIndex(raw, "```"); i >= 0 {
			raw = raw[:i]
		}
	}
	return strings.TrimSpace(raw)
}
