package monitor

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/foldwatch/foldwatch/internal/models"
	"github.com/foldwatch/foldwatch/internal/report"
)

// MarketData supplies the bet stream the evaluator works from. Bets are
// expected newest-first, filled and non-cancelled only.
type MarketData interface {
	Bets(ctx context.Context, contractID string, within time.Duration) ([]models.Bet, error)
}

// MarketReport is the outcome of evaluating one market: whether a move
// crossed the threshold, the human-readable change note, and the hour window
// the move was detected in.
type MarketReport struct {
	ReportWorthy bool
	ChangeNote   string
	WindowHours  int
}

// Monitor evaluates markets against a probability change threshold.
type Monitor struct {
	data  MarketData
	delta float64
	now   func() time.Time
}

// New creates a Monitor. delta is the minimum absolute probability change
// (0..1) a window must exceed to be report-worthy.
func New(data MarketData, delta float64) *Monitor {
	return &Monitor{
		data:  data,
		delta: delta,
		now:   time.Now,
	}
}

// ProbChanges computes the net probability change of a binary contract over
// each horizon from a single month-deep bet fetch.
func (m *Monitor) ProbChanges(ctx context.Context, contractID string) (models.ProbChanges, error) {
	bets, err := m.data.Bets(ctx, contractID, HorizonMonth.Window())
	if err != nil {
		return models.ProbChanges{}, fmt.Errorf("failed to fetch bets: %w", err)
	}

	now := m.now()
	return models.ProbChanges{
		Day:   NetProbChange(RecentBets(bets, HorizonDay.Window(), now)),
		Week:  NetProbChange(RecentBets(bets, HorizonWeek.Window(), now)),
		Month: NetProbChange(bets),
	}, nil
}

// EvaluateMarket checks a market for a significant move. Horizons are tried
// shortest-first and the first significant one wins; for multi-outcome
// markets each answer is checked and all significant answers in the winning
// window are reported together.
func (m *Monitor) EvaluateMarket(ctx context.Context, market *models.FetchedMarket) (*MarketReport, error) {
	switch market.OutcomeType {
	case models.OutcomeBinary:
		return m.evaluateBinary(ctx, market)
	case models.OutcomeMultipleChoice:
		return m.evaluateMultipleChoice(market), nil
	default:
		return nil, fmt.Errorf("unsupported outcome type: %s", market.OutcomeType)
	}
}

func (m *Monitor) evaluateBinary(ctx context.Context, market *models.FetchedMarket) (*MarketReport, error) {
	changes, err := m.ProbChanges(ctx, market.ID)
	if err != nil {
		return nil, err
	}

	for _, h := range Horizons {
		change := changeForHorizon(changes, h)
		if m.Significant(change) {
			return &MarketReport{
				ReportWorthy: true,
				ChangeNote:   changeNote(change, h),
				WindowHours:  h.Hours(),
			}, nil
		}
	}
	return &MarketReport{}, nil
}

func (m *Monitor) evaluateMultipleChoice(market *models.FetchedMarket) *MarketReport {
	for _, h := range Horizons {
		var notes []string
		for _, answer := range market.Answers {
			if answer.ProbChanges == nil {
				continue
			}
			change := changeForHorizon(*answer.ProbChanges, h)
			if m.Significant(change) {
				notes = append(notes, answer.Text+": "+changeNote(change, h))
			}
		}
		if len(notes) > 0 {
			return &MarketReport{
				ReportWorthy: true,
				ChangeNote:   strings.Join(notes, "\n"),
				WindowHours:  h.Hours(),
			}
		}
	}
	return &MarketReport{}
}

// Significant reports whether a change strictly exceeds the threshold.
func (m *Monitor) Significant(change float64) bool {
	return math.Abs(change) > m.delta
}

func changeForHorizon(pc models.ProbChanges, h Horizon) float64 {
	switch h {
	case HorizonDay:
		return pc.Day
	case HorizonWeek:
		return pc.Week
	case HorizonMonth:
		return pc.Month
	default:
		return 0
	}
}

func changeNote(change float64, h Horizon) string {
	if change == 0 {
		return ""
	}
	direction := "\U0001F4C8 Up"
	if change < 0 {
		direction = "\U0001F4C9 Down"
	}
	return fmt.Sprintf("%s %s%% in the last %s", direction, report.FormatProb(math.Abs(change)), h)
}
