package analysis

import (
	"context"
	"fmt"

	"github.com/ternarybob/specto/internal/common"
	"github.com/ternarybob/specto/internal/models"
	"github.com/ternarybob/specto/internal/services/cache"
)

// Batch limits. Selected-video batches reject oversize input, channel batches
// clip instead; the asymmetry is deliberate and mirrors how the two entry
// points are used.
const (
	MinBatchReferences = 2
	MaxBatchReferences = 10
)

// RunBatchAnalysis analyzes 2 to 10 references together in one combined pass.
// Batch runs share the cache shape of single runs but never append records.
// An out-of-range reference count is rejected before any collaborator call.
func (o *Orchestrator) RunBatchAnalysis(ctx context.Context, references []string, language string) <-chan models.AnalysisEvent {
	events := make(chan models.AnalysisEvent, 16)

	common.SafeGo(o.logger, "batch-analysis-run", func() {
		defer close(events)

		if len(references) < MinBatchReferences {
			o.send(ctx, events, models.ErrorEvent(fmt.Sprintf("batch analysis requires at least %d references", MinBatchReferences)))
			return
		}
		if len(references) > MaxBatchReferences {
			o.send(ctx, events, models.ErrorEvent(fmt.Sprintf("batch analysis accepts at most %d references", MaxBatchReferences)))
			return
		}

		o.runBatch(ctx, references, language, events)
	})

	return events
}

// RunChannelBatchAnalysis analyzes the videos of a channel listing. Unlike
// RunBatchAnalysis it clips oversize input to the batch limit instead of
// rejecting it.
func (o *Orchestrator) RunChannelBatchAnalysis(ctx context.Context, references []string, language string) <-chan models.AnalysisEvent {
	events := make(chan models.AnalysisEvent, 16)

	common.SafeGo(o.logger, "channel-batch-analysis-run", func() {
		defer close(events)

		if len(references) == 0 {
			o.send(ctx, events, models.ErrorEvent("batch analysis requires at least one reference"))
			return
		}
		if len(references) > MaxBatchReferences {
			o.logger.Info().
				Int("submitted", len(references)).
				Int("limit", MaxBatchReferences).
				Msg("Clipping channel batch to limit")
			references = references[:MaxBatchReferences]
		}

		o.runBatch(ctx, references, language, events)
	})

	return events
}

func (o *Orchestrator) runBatch(ctx context.Context, references []string, language string, events chan<- models.AnalysisEvent) {
	if !o.send(ctx, events, models.StatusEvent(fmt.Sprintf("Starting batch analysis of %d videos...", len(references)), 0)) {
		return
	}

	key := cache.DeriveKey(references)
	if o.emitCacheHit(ctx, key, events) {
		return
	}

	if !o.send(ctx, events, models.StatusEvent("Analyzing video content...", 10)) {
		return
	}

	if language == "" {
		language = o.config.DefaultLanguage
	}

	summary, err := o.video.Summarize(ctx, references, language, o.sink(ctx, events))
	if err != nil {
		o.fail(ctx, events, fmt.Errorf("batch video analysis failed: %w", err))
		return
	}
	if summary.VideoCount == 0 {
		summary.VideoCount = len(references)
	}

	if !o.send(ctx, events, models.StatusEvent("Generating report...", 80)) {
		return
	}

	result := &models.AnalysisResult{
		Mode:           models.ModeBatchContent,
		Report:         o.reports.Batch(summary),
		ContentSummary: summary,
		ReferenceCount: len(references),
		CacheKey:       key,
	}

	if err := o.cache.Put(ctx, key, references, result); err != nil {
		o.fail(ctx, events, fmt.Errorf("failed to cache batch result: %w", err))
		return
	}

	if !o.send(ctx, events, models.StatusEvent("Analysis complete", 100)) {
		return
	}
	o.send(ctx, events, models.ResultEvent(result))
}
