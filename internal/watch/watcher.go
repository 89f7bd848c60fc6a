// Package watch runs the polling cycle: it fetches tracked markets,
// evaluates them for significant moves, composes digests and delivers them,
// stamping the cooldown state on success.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/foldwatch/foldwatch/internal/logger"
	"github.com/foldwatch/foldwatch/internal/models"
	"github.com/foldwatch/foldwatch/internal/monitor"
	"github.com/foldwatch/foldwatch/internal/report"
)

// MarketSource supplies market snapshots and their bet and comment streams.
type MarketSource interface {
	MarketByURL(ctx context.Context, questionURL string) (*models.FetchedMarket, error)
	Bets(ctx context.Context, contractID string, within time.Duration) ([]models.Bet, error)
	Comments(ctx context.Context, marketID string, within time.Duration) ([]models.Comment, error)
	Positions(ctx context.Context, marketID string) ([]models.Bet, error)
}

// QuestionStore persists tracking and cooldown state.
type QuestionStore interface {
	ListTracked() ([]*models.TrackedQuestion, error)
	RecordNotification(questionID string, windowHours int, report string, sentAt time.Time) error
	RecordTrackingAnnouncement(questionID string, at time.Time) error
}

// Notifier delivers digests and tracking announcements.
type Notifier interface {
	Send(ctx context.Context, n models.Notification) error
	Announce(ctx context.Context, marketName, marketURL, marketID string) error
}

// Watcher orchestrates one polling cycle over all tracked questions.
type Watcher struct {
	source    MarketSource
	store     QuestionStore
	notifier  Notifier
	monitor   *monitor.Monitor
	debugURLs map[string]struct{}
	now       func() time.Time
}

// New creates a Watcher. A non-empty debugURLs list restricts processing to
// those question URLs.
func New(source MarketSource, store QuestionStore, notifier Notifier, mon *monitor.Monitor, debugURLs []string) *Watcher {
	var debug map[string]struct{}
	if len(debugURLs) > 0 {
		debug = make(map[string]struct{}, len(debugURLs))
		for _, u := range debugURLs {
			debug[u] = struct{}{}
		}
	}
	return &Watcher{
		source:    source,
		store:     store,
		notifier:  notifier,
		monitor:   mon,
		debugURLs: debug,
		now:       time.Now,
	}
}

type pair struct {
	question *models.TrackedQuestion
	market   *models.FetchedMarket
}

// RunCycle performs one full pass: announce newly tracked questions, then
// evaluate every tracked market and send digests for significant moves past
// their cooldown. Per-market fetch and evaluation failures degrade to a
// skipped market; delivery failures surface in the returned error.
func (w *Watcher) RunCycle(ctx context.Context) error {
	questions, err := w.store.ListTracked()
	if err != nil {
		return fmt.Errorf("failed to list tracked questions: %w", err)
	}
	logger.Debug("cycle start: %d tracked questions", len(questions))

	pairs := w.fetchPairs(ctx, questions)
	if len(pairs) < len(questions) {
		logger.Warn("fetched %d of %d tracked markets", len(pairs), len(questions))
	}

	w.announceNew(ctx, pairs)
	return w.sendUpdates(ctx, pairs)
}

// fetchPairs resolves tracked questions to market snapshots concurrently,
// preserving question order and dropping questions that fail to fetch.
func (w *Watcher) fetchPairs(ctx context.Context, questions []*models.TrackedQuestion) []pair {
	results := make([]pair, len(questions))
	var wg sync.WaitGroup
	for i, q := range questions {
		if w.skipForDebugging(q.URL) {
			continue
		}
		wg.Add(1)
		go func(i int, q *models.TrackedQuestion) {
			defer wg.Done()
			market, err := w.source.MarketByURL(ctx, q.URL)
			if err != nil {
				logger.Warn("failed to fetch market for %s: %v", q.URL, err)
				return
			}
			results[i] = pair{question: q, market: market}
		}(i, q)
	}
	wg.Wait()

	pairs := make([]pair, 0, len(results))
	for _, p := range results {
		if p.market != nil {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

func (w *Watcher) announceNew(ctx context.Context, pairs []pair) {
	for _, p := range pairs {
		if !monitor.NeedsTrackingAnnouncement(p.question) {
			continue
		}
		logger.Info("announcing newly tracked market: %s", p.market.URL)
		if err := w.notifier.Announce(ctx, p.market.Question, p.market.URL, p.market.ID); err != nil {
			logger.Error("failed to announce %s: %v", p.market.URL, err)
			continue
		}
		if err := w.store.RecordTrackingAnnouncement(p.question.ID, w.now()); err != nil {
			logger.Error("failed to record announcement for %s: %v", p.market.URL, err)
		}
	}
}

func (w *Watcher) sendUpdates(ctx context.Context, pairs []pair) error {
	var errs []error
	for _, p := range pairs {
		if p.market.IsResolved {
			logger.Debug("skipping resolved market: %s", p.market.URL)
			continue
		}
		if err := w.processPair(ctx, p); err != nil {
			logger.Error("failed to notify for %s: %v", p.market.URL, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *Watcher) processPair(ctx context.Context, p pair) error {
	rep, err := w.monitor.EvaluateMarket(ctx, p.market)
	if err != nil {
		logger.Warn("failed to evaluate %s: %v", p.market.URL, err)
		return nil
	}
	if !rep.ReportWorthy {
		logger.Debug("no significant move: %s", p.market.URL)
		return nil
	}
	if !monitor.IsTimeForNewUpdate(p.question, rep.WindowHours, w.now()) {
		logger.Debug("cooldown active for %s (window %dh)", p.market.URL, rep.WindowHours)
		return nil
	}

	window := time.Duration(rep.WindowHours) * time.Hour

	var commentsNote string
	var numComments int
	if comments, err := w.source.Comments(ctx, p.market.ID, window); err != nil {
		logger.Warn("failed to fetch comments for %s: %v", p.market.URL, err)
	} else {
		commentsNote, numComments = report.CommentsNote(comments)
	}

	var moversNote string
	if bets, err := w.source.Bets(ctx, p.market.ID, window); err != nil {
		logger.Warn("failed to fetch bets for %s: %v", p.market.URL, err)
	} else {
		moversNote = report.MoversNote(monitor.ComputeAggregateMove(bets))
	}

	positions, err := w.source.Positions(ctx, p.market.ID)
	if err != nil {
		logger.Warn("failed to fetch positions for %s: %v", p.market.URL, err)
	}
	moreInfo := report.MoreInfo(p.market, positions)

	n := models.Notification{
		MarketURL:  p.market.URL,
		MarketName: report.MarketName(p.market),
		MarketID:   p.market.ID,
		Report:     report.ReportBody(rep.ChangeNote, numComments),
		Comments:   commentsNote,
		MoreInfo:   moreInfo + moversNote,
	}
	if err := w.notifier.Send(ctx, n); err != nil {
		return fmt.Errorf("delivery failed: %w", err)
	}
	logger.Info("notified: %s (%s)", p.market.URL, rep.ChangeNote)

	// The message is already out; a failed stamp must not fail the cycle.
	if err := w.store.RecordNotification(p.question.ID, rep.WindowHours, rep.ChangeNote, w.now()); err != nil {
		logger.Error("failed to record notification for %s: %v", p.market.URL, err)
	}
	return nil
}

func (w *Watcher) skipForDebugging(url string) bool {
	if w.debugURLs == nil {
		return false
	}
	_, ok := w.debugURLs[url]
	return !ok
}
