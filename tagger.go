package main

import (
	"context"
	"log/slog"
)

// MediaStore lists media missing alt text and writes alt text back
type MediaStore interface {
	ListMissingAlt(ctx context.Context, limit int) ([]MediaItem, error)
	UpdateAltText(ctx context.Context, id int, altText string) error
}

// Tagger runs one pass: list, generate, optionally update, record
type Tagger struct {
	store     MediaStore
	generator AltTextGenerator
	reporter  *Reporter
	config    *Config
	logger    *slog.Logger
}

func NewTagger(store MediaStore, generator AltTextGenerator, reporter *Reporter, cfg *Config, logger *slog.Logger) *Tagger {
	return &Tagger{
		store:     store,
		generator: generator,
		reporter:  reporter,
		config:    cfg,
		logger:    logger,
	}
}

// Run processes every listed item in order. Only listing errors and cancellation are returned;
// generation and update failures are recorded per item. An item interrupted by cancellation is not recorded.
func (t *Tagger) Run(ctx context.Context) (RunSummary, error) {
	var summary RunSummary

	t.logger.Info("fetching media items", "site", t.config.SiteURL, "limit", t.config.Limit)
	items, err := t.store.ListMissingAlt(ctx, t.config.Limit)
	if err != nil {
		return summary, err
	}
	t.logger.Info("found images missing alt text", "count", len(items))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			t.logger.Warn("run canceled", "processed", summary.Processed, "remaining", len(items)-i)
			return summary, err
		}

		result, err := t.processItem(ctx, item, i+1, len(items))
		if err != nil {
			t.logger.Warn("run canceled", "media_id", item.ID, "processed", summary.Processed, "remaining", len(items)-i)
			return summary, err
		}
		t.reporter.Add(result)

		summary.Processed++
		switch result.Status {
		case StatusGenerationFailed:
			summary.Failed++
		case StatusUpdateFailed:
			summary.Generated++
			summary.Failed++
		case StatusUpdated:
			summary.Generated++
			summary.Updated++
		default:
			summary.Generated++
		}
	}

	return summary, nil
}

// processItem returns an error only when ctx was canceled while the item was in flight
func (t *Tagger) processItem(ctx context.Context, item MediaItem, n, total int) (AltTextResult, error) {
	result := AltTextResult{
		ID:          item.ID,
		Title:       plainTitle(item.Title.Rendered),
		OriginalAlt: item.AltText,
		URL:         item.SourceURL,
	}
	log := t.logger.With("media_id", item.ID, "progress", n, "total", total)
	log.Info("processing image", "url", item.SourceURL)

	altText, err := t.generator.GenerateAltText(ctx, item.SourceURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		log.Warn("skipping image", "error", err)
		result.Status = StatusGenerationFailed
		return result, nil
	}
	result.GeneratedAlt = altText
	log.Debug("alt text generated", "alt_text", altText)

	if !t.config.Write {
		result.Status = StatusDryRun
		return result, nil
	}

	if err := t.store.UpdateAltText(ctx, item.ID, altText); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		log.Error("failed to update alt text", "error", err)
		result.Status = StatusUpdateFailed
		return result, nil
	}
	log.Info("alt text updated", "alt_text", altText)
	result.Status = StatusUpdated
	return result, nil
}
