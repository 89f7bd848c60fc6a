// Package report composes the human-readable digest pieces that accompany a
// market move notification: the headline, comment excerpts, mover breakdowns
// and the market context block.
package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/foldwatch/foldwatch/internal/models"
)

const maxCommentRunes = 200

// FormatProb renders a probability or probability change as a rounded
// percentage figure without the sign suffix.
func FormatProb(prob float64) string {
	return strconv.Itoa(int(math.Round(prob * 100)))
}

// MarketName renders the display name of a market. Binary markets carry
// their current probability as a prefix.
func MarketName(market *models.FetchedMarket) string {
	if market.OutcomeType == models.OutcomeBinary {
		return fmt.Sprintf("(%s%%) %s", FormatProb(market.Probability), market.Question)
	}
	return market.Question
}

// CommentsNote renders up to three of the newest top-level comments as
// excerpt lines, and returns the line block along with the number of
// comments it covers. Replies are skipped; long comments are truncated.
func CommentsNote(comments []models.Comment) (string, int) {
	var lines []string
	count := 0
	for _, c := range comments {
		if !c.TopLevel() {
			continue
		}
		if count == 3 {
			break
		}
		count++

		text := renderBlocks(c.Content)
		if text == "" {
			lines = append(lines, "")
			continue
		}
		if runes := []rune(text); len(runes) > maxCommentRunes {
			text = string(runes[:maxCommentRunes]) + "..."
		}
		lines = append(lines, fmt.Sprintf("\U0001F4AC %s: %s", c.UserName, text))
	}
	return strings.Join(lines, "\n"), count
}

func renderBlocks(blocks []models.ContentBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Kind {
		case "paragraph":
			parts = append(parts, b.Text)
		case "link":
			parts = append(parts, fmt.Sprintf("(link: %s)", b.Href))
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// ReportBody combines the change note with a comment count suffix.
func ReportBody(changeNote string, numComments int) string {
	if numComments > 0 {
		return fmt.Sprintf("%s\n(%d comments)", changeNote, numComments)
	}
	return changeNote
}

// MoreInfo renders the market context block: liquidity, volumes, trader
// count and the current largest YES/NO positions derived from the full bet
// history.
func MoreInfo(market *models.FetchedMarket, bets []models.Bet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total liquidity: \U0001F4B2%s\n", humanize.Comma(roundMoney(market.TotalLiquidity)))
	fmt.Fprintf(&b, "Volume: \U0001F4B2%s (24h), \U0001F4B2%s (total)\n",
		humanize.Comma(roundMoney(market.Volume24Hours)), humanize.Comma(roundMoney(market.Volume)))
	fmt.Fprintf(&b, "Unique traders: %d\n\n", market.UniqueBettorCount)

	yes, no := latestPositions(bets)
	if len(yes) > 0 || len(no) > 0 {
		b.WriteString("⚠️ (position data might be somewhat inaccurate)\n")
		b.WriteString("\U0001F7E9 YES positions\n")
		writePositions(&b, yes)
		b.WriteString("\U0001F7E5 NO positions\n")
		writePositions(&b, no)
	}
	return b.String()
}

func writePositions(b *strings.Builder, positions []models.Bet) {
	for i, p := range positions {
		if i == 3 {
			break
		}
		fmt.Fprintf(b, "--- %s: \U0001F4B2%s\n", p.UserName, humanize.Comma(roundMoney(p.Shares)))
	}
}

// latestPositions keeps each bettor's most recent bet and splits the result
// by outcome, largest position first.
func latestPositions(bets []models.Bet) (yes, no []models.Bet) {
	latest := make(map[string]models.Bet)
	for _, b := range bets {
		if b.UserID == "" {
			continue
		}
		prev, ok := latest[b.UserID]
		if !ok || b.CreatedTime.After(prev.CreatedTime) {
			latest[b.UserID] = b
		}
	}

	for _, b := range latest {
		switch b.Outcome {
		case "YES":
			yes = append(yes, b)
		case "NO":
			no = append(no, b)
		}
	}

	byShares := func(ps []models.Bet) func(i, j int) bool {
		return func(i, j int) bool { return ps[i].Shares > ps[j].Shares }
	}
	sort.Slice(yes, byShares(yes))
	sort.Slice(no, byShares(no))
	return yes, no
}

// MoversNote renders the mover and countermover cohort breakdowns for a
// detected move. A nil breakdown renders as nothing.
func MoversNote(breakdown *models.MoveBreakdown) string {
	if breakdown == nil {
		return ""
	}
	return "\n" + cohortNote("Movers", breakdown.Move) + cohortNote("Countermovers", breakdown.CounterMove)
}

func cohortNote(label string, move models.AggregateMove) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %s\n", moveEmoji(move.Stats.MoveSize), len(move.Movers), label)
	fmt.Fprintf(&b, "Top 3 traders effect: %s%%\n", FormatProb(move.Stats.Top3MoversEffect))
	fmt.Fprintf(&b, "Effect percentile (share of traders behind the move): 20th: %s%%, 50th: %s%%, 80th: %s%%\n",
		FormatProb(move.Stats.Effect20Cohort),
		FormatProb(move.Stats.Effect50Cohort),
		FormatProb(move.Stats.Effect80Cohort))
	for i, m := range move.Movers {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "--- %s: %s%% (%d bets)\n", m.UserName, FormatProb(m.ProbChangeTotal), m.NumBets)
	}
	return b.String()
}

func moveEmoji(moveSize float64) string {
	switch {
	case moveSize > 0:
		return "\U0001F4C8"
	case moveSize < 0:
		return "\U0001F4C9"
	default:
		return "➖"
	}
}

func roundMoney(v float64) int64 {
	return int64(math.Round(v))
}
