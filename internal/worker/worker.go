// Package worker provides async write-behind persistence for scoring
// and lending results published on the event bus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/opencredit-finance/kestrel/internal/domain"
)

// Worker consumes score and loan events from the EventBus and persists
// them, keeping persistence latency out of the request path.
type Worker struct {
	bus   domain.EventBus
	repo  domain.Repository
	cache domain.Cache

	scorecardTTL  time.Duration
	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker. The cache is optional; when
// present, persisted scorecards are also warmed into it.
func NewWorker(bus domain.EventBus, repo domain.Repository, cache domain.Cache, scorecardTTL time.Duration) *Worker {
	if scorecardTTL <= 0 {
		scorecardTTL = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:          bus,
		repo:         repo,
		cache:        cache,
		scorecardTTL: scorecardTTL,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start subscribes to the scoring and lending topics.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicScoreComputed, w.handleScoreComputed)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	sub, err = w.bus.Subscribe(w.ctx, domain.TopicLoanDecided, w.handleLoanDecided)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("worker started",
		"topics", []string{domain.TopicScoreComputed, domain.TopicLoanDecided},
	)
	return nil
}

// handleScoreComputed persists a scoring run and warms the cache.
func (w *Worker) handleScoreComputed(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var sc domain.Scorecard
	if err := json.Unmarshal(msg.Payload, &sc); err != nil {
		slog.Error("failed to parse scorecard message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	if err := w.repo.SaveScorecard(ctx, &sc); err != nil {
		slog.Error("failed to save scorecard",
			"scorecard_id", sc.ID,
			"error", err,
		)
		return err
	}

	if w.cache != nil {
		if err := w.cache.SetScorecard(ctx, &sc, w.scorecardTTL); err != nil {
			slog.Warn("failed to cache scorecard",
				"scorecard_id", sc.ID,
				"error", err,
			)
		}
	}

	slog.Info("scorecard persisted",
		"scorecard_id", sc.ID,
		"borrower_id", sc.BorrowerID,
		"score", sc.Score,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// handleLoanDecided persists an underwriting result.
func (w *Worker) handleLoanDecided(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var offer domain.LoanOffer
	if err := json.Unmarshal(msg.Payload, &offer); err != nil {
		slog.Error("failed to parse loan offer message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	if err := w.repo.SaveLoanOffer(ctx, &offer); err != nil {
		slog.Error("failed to save loan offer",
			"offer_id", offer.ID,
			"error", err,
		)
		return err
	}

	slog.Info("loan offer persisted",
		"offer_id", offer.ID,
		"decision", offer.Decision,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
