package telegram

import (
	"strings"
	"testing"

	"github.com/foldwatch/foldwatch/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text unchanged",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "special characters escaped",
			input: "a_b*c[d]e(f)g.h!i",
			want:  `a\_b\*c\[d\]e\(f\)g\.h\!i`,
		},
		{
			name:  "percent and arrows untouched",
			input: "62% → 75%",
			want:  "62% → 75%",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeMarkdownV2(tt.input); got != tt.want {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatDigest(t *testing.T) {
	n := models.Notification{
		MarketURL:  "https://manifold.markets/alice/will-x-happen",
		MarketName: "(62%) Will X happen?",
		MarketID:   "mkt1",
		Report:     "\U0001F4C8 Up 15% in the last day\n(2 comments)",
		Comments:   "\U0001F4AC Ann: big news",
		MoreInfo:   "Total liquidity: \U0001F4B21,500",
	}

	msg := formatDigest(n)

	if !strings.Contains(msg, "(https://manifold.markets/alice/will-x-happen)") {
		t.Errorf("missing market link: %q", msg)
	}
	if !strings.Contains(msg, `\(62%\) Will X happen?`) {
		t.Errorf("market name not escaped: %q", msg)
	}
	if !strings.Contains(msg, "Ann: big news") {
		t.Errorf("missing comments block: %q", msg)
	}
	if !strings.Contains(msg, "Total liquidity") {
		t.Errorf("missing more info block: %q", msg)
	}
}

func TestFormatDigestOmitsEmptySections(t *testing.T) {
	n := models.Notification{
		MarketURL:  "https://manifold.markets/alice/will-x-happen",
		MarketName: "(62%) Will X happen?",
		MarketID:   "mkt1",
		Report:     "\U0001F4C8 Up 15% in the last day",
	}

	msg := formatDigest(n)
	if strings.Contains(msg, "\n\n\n") {
		t.Errorf("blank sections left behind: %q", msg)
	}
}
