package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/impostor/internal/model"
)

// DefaultTimeout bounds a single content request when none is configured
const DefaultTimeout = 20 * time.Second

// Provider generates the secret word and impostor hint for a category
type Provider interface {
	Generate(ctx context.Context, category string) (model.RoundData, error)
}

// ErrIncompleteContent is returned when a provider response is missing a field
var ErrIncompleteContent = errors.New("incomplete round content")

// Fallback returns the canned round content used when a provider fails
func Fallback() model.RoundData {
	return model.RoundData{
		Category:     "Household Appliances",
		SecretWord:   "Coffee Machine",
		ImpostorHint: "Makes a hot, dark, energizing drink.",
	}
}

// Adapter makes a single bounded request to a Provider and validates the result
type Adapter struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewAdapter creates a new Adapter. A non-positive timeout uses DefaultTimeout.
func NewAdapter(provider Provider, timeout time.Duration, logger *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

// Request asks the provider for round content. There is no retry.
// Every failure is returned as a *model.ProviderError.
func (a *Adapter) Request(ctx context.Context, category string) (model.RoundData, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	data, err := a.provider.Generate(reqCtx, category)
	if err == nil {
		data, err = normalize(data)
	}
	if err != nil {
		a.logger.Warn("content request failed",
			slog.String("category", category),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return model.RoundData{}, &model.ProviderError{Category: category, Err: err}
	}

	a.logger.Info("content generated",
		slog.String("category", category),
		slog.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

func normalize(data model.RoundData) (model.RoundData, error) {
	data.Category = strings.TrimSpace(data.Category)
	data.SecretWord = strings.TrimSpace(data.SecretWord)
	data.ImpostorHint = strings.TrimSpace(data.ImpostorHint)

	var missing []string
	if data.Category == "" {
		missing = append(missing, "category")
	}
	if data.SecretWord == "" {
		missing = append(missing, "secret word")
	}
	if data.ImpostorHint == "" {
		missing = append(missing, "impostor hint")
	}
	if len(missing) > 0 {
		return model.RoundData{}, fmt.Errorf("%w: missing %s", ErrIncompleteContent, strings.Join(missing, ", "))
	}
	return data, nil
}
