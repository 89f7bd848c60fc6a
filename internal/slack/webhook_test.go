package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foldwatch/foldwatch/internal/models"
)

func TestSend(t *testing.T) {
	var got payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "C012345", 2, time.Millisecond)
	err := client.Send(context.Background(), models.Notification{
		MarketURL:  "https://manifold.markets/alice/will-x-happen",
		MarketName: "(62%) Will X happen?",
		MarketID:   "mkt1",
		Report:     "\U0001F4C8 Up 15% in the last day",
		Comments:   "\U0001F4AC Ann: big news",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ChannelID != "C012345" {
		t.Errorf("channelId = %q, want C012345", got.ChannelID)
	}
	if got.MarketName != "(62%) Will X happen?" {
		t.Errorf("market_name = %q", got.MarketName)
	}
	if got.Report != "\U0001F4C8 Up 15% in the last day" {
		t.Errorf("report = %q", got.Report)
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "C012345", 3, time.Millisecond)
	err := client.Announce(context.Background(), "Will X happen?", "https://manifold.markets/alice/will-x-happen", "mkt1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestSendGivesUpOnClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "C012345", 3, time.Millisecond)
	err := client.Send(context.Background(), models.Notification{MarketID: "mkt1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls)
	}
}
