// Package manifold provides a client for the Manifold Markets REST API. It
// translates wire payloads into domain models and applies the bet-stream
// filters (filled, non-cancelled, recency) that the aggregation layer relies
// on. The API returns bets and comments newest-first; the client preserves
// that ordering.
package manifold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foldwatch/foldwatch/internal/models"
)

// ErrNotFound is returned when the upstream API reports no market for a
// slug or contract.
var ErrNotFound = errors.New("market not found")

// ClientConfig holds retry and connection pool settings.
type ClientConfig struct {
	MaxRetries          int
	RetryDelayBase      time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// Client provides access to the Manifold Markets API.
type Client struct {
	apiBaseURL     string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
	now            func() time.Time
}

// NewClient creates a new Manifold client.
func NewClient(apiBaseURL string, timeout time.Duration, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	return &Client{
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
		now:            time.Now,
	}
}

// SlugFromQuestionURL extracts the market slug from a canonical question URL
// such as https://manifold.markets/alice/will-x-happen.
func SlugFromQuestionURL(questionURL string) (string, error) {
	u, err := url.Parse(questionURL)
	if err != nil {
		return "", fmt.Errorf("invalid question URL %q: %w", questionURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	slug := parts[len(parts)-1]
	if slug == "" {
		return "", fmt.Errorf("question URL %q has no slug", questionURL)
	}
	return slug, nil
}

// MarketByURL fetches the market snapshot for a canonical question URL.
// A 404 from the API is reported as ErrNotFound.
func (c *Client) MarketByURL(ctx context.Context, questionURL string) (*models.FetchedMarket, error) {
	slug, err := SlugFromQuestionURL(questionURL)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, c.apiBaseURL+"/slug/"+url.PathEscape(slug))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market %s: %w", slug, err)
	}
	defer resp.Body.Close()

	var am apiMarket
	if err := json.NewDecoder(resp.Body).Decode(&am); err != nil {
		return nil, fmt.Errorf("failed to decode market %s: %w", slug, err)
	}

	market := am.toModel()
	if market.URL == "" {
		market.URL = questionURL
	}
	if err := market.Validate(); err != nil {
		return nil, fmt.Errorf("invalid market %s: %w", slug, err)
	}
	return market, nil
}

// Bets fetches the countable (filled, non-cancelled) bets for a contract,
// newest-first. A positive window restricts the result to bets created within
// that duration of now; zero means no recency filter.
func (c *Client) Bets(ctx context.Context, contractID string, within time.Duration) ([]models.Bet, error) {
	raw, err := c.rawBets(ctx, contractID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	bets := make([]models.Bet, 0, len(raw))
	for _, ab := range raw {
		b := ab.toModel(contractID)
		if !b.Countable() {
			continue
		}
		if within > 0 && now.Sub(b.CreatedTime) > within {
			continue
		}
		bets = append(bets, b)
	}
	return bets, nil
}

// Positions fetches the full bet list for a market, unfiltered. The report
// layer derives each holder's latest position from it.
func (c *Client) Positions(ctx context.Context, marketID string) ([]models.Bet, error) {
	raw, err := c.rawBets(ctx, marketID)
	if err != nil {
		return nil, err
	}
	bets := make([]models.Bet, 0, len(raw))
	for _, ab := range raw {
		bets = append(bets, ab.toModel(marketID))
	}
	return bets, nil
}

// Comments fetches comments on a market created within the given duration,
// newest-first.
func (c *Client) Comments(ctx context.Context, marketID string, within time.Duration) ([]models.Comment, error) {
	resp, err := c.doRequest(ctx, c.apiBaseURL+"/comments?contractId="+url.QueryEscape(marketID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments for %s: %w", marketID, err)
	}
	defer resp.Body.Close()

	var raw []apiComment
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode comments for %s: %w", marketID, err)
	}

	now := c.now()
	comments := make([]models.Comment, 0, len(raw))
	for _, ac := range raw {
		cm := ac.toModel()
		if within > 0 && now.Sub(cm.CreatedTime) > within {
			continue
		}
		comments = append(comments, cm)
	}
	return comments, nil
}

func (c *Client) rawBets(ctx context.Context, contractID string) ([]apiBet, error) {
	resp, err := c.doRequest(ctx, c.apiBaseURL+"/bets?contractId="+url.QueryEscape(contractID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bets for %s: %w", contractID, err)
	}
	defer resp.Body.Close()

	var raw []apiBet
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode bets for %s: %w", contractID, err)
	}
	return raw, nil
}

// doRequest performs a GET with linear-backoff retry on network errors and
// 5xx responses. 404 is terminal and mapped to ErrNotFound.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, ErrNotFound
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("client error: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

type apiProbChanges struct {
	Day   float64 `json:"day"`
	Week  float64 `json:"week"`
	Month float64 `json:"month"`
}

type apiAnswer struct {
	ID          string          `json:"id"`
	ContractID  string          `json:"contractId"`
	Text        string          `json:"text"`
	Probability float64         `json:"probability"`
	ProbChanges *apiProbChanges `json:"probChanges"`
}

type apiMarket struct {
	ID                string      `json:"id"`
	Question          string      `json:"question"`
	Slug              string      `json:"slug"`
	URL               string      `json:"url"`
	OutcomeType       string      `json:"outcomeType"`
	Probability       float64     `json:"probability"`
	Answers           []apiAnswer `json:"answers"`
	TotalLiquidity    float64     `json:"totalLiquidity"`
	Volume            float64     `json:"volume"`
	Volume24Hours     float64     `json:"volume24Hours"`
	UniqueBettorCount int         `json:"uniqueBettorCount"`
	IsResolved        bool        `json:"isResolved"`
	CreatedTime       int64       `json:"createdTime"`
	LastBetTime       int64       `json:"lastBetTime"`
}

func (am *apiMarket) toModel() *models.FetchedMarket {
	m := &models.FetchedMarket{
		ID:                am.ID,
		Question:          am.Question,
		Slug:              am.Slug,
		URL:               am.URL,
		OutcomeType:       models.OutcomeType(am.OutcomeType),
		Probability:       am.Probability,
		TotalLiquidity:    am.TotalLiquidity,
		Volume:            am.Volume,
		Volume24Hours:     am.Volume24Hours,
		UniqueBettorCount: am.UniqueBettorCount,
		IsResolved:        am.IsResolved,
		CreatedTime:       millisToTime(am.CreatedTime),
		LastBetTime:       millisToTime(am.LastBetTime),
	}
	for _, aa := range am.Answers {
		answer := models.Answer{
			ID:          aa.ID,
			ContractID:  aa.ContractID,
			Text:        aa.Text,
			Probability: aa.Probability,
		}
		if aa.ProbChanges != nil {
			answer.ProbChanges = &models.ProbChanges{
				Day:   aa.ProbChanges.Day,
				Week:  aa.ProbChanges.Week,
				Month: aa.ProbChanges.Month,
			}
		}
		m.Answers = append(m.Answers, answer)
	}
	return m
}

type apiBet struct {
	ID          string  `json:"id"`
	ContractID  string  `json:"contractId"`
	UserID      string  `json:"userId"`
	UserName    string  `json:"userName"`
	CreatedTime int64   `json:"createdTime"`
	ProbBefore  float64 `json:"probBefore"`
	ProbAfter   float64 `json:"probAfter"`
	Amount      float64 `json:"amount"`
	Shares      float64 `json:"shares"`
	Outcome     string  `json:"outcome"`
	// Market orders fill immediately and omit isFilled; only resting limit
	// orders carry an explicit false.
	IsFilled    *bool `json:"isFilled"`
	IsCancelled bool  `json:"isCancelled"`
}

func (ab *apiBet) toModel(fallbackContractID string) models.Bet {
	contractID := ab.ContractID
	if contractID == "" {
		contractID = fallbackContractID
	}
	return models.Bet{
		ID:          ab.ID,
		ContractID:  contractID,
		UserID:      ab.UserID,
		UserName:    ab.UserName,
		CreatedTime: millisToTime(ab.CreatedTime),
		ProbBefore:  ab.ProbBefore,
		ProbAfter:   ab.ProbAfter,
		Amount:      ab.Amount,
		Shares:      ab.Shares,
		Outcome:     ab.Outcome,
		IsFilled:    ab.IsFilled == nil || *ab.IsFilled,
		IsCancelled: ab.IsCancelled,
	}
}

type apiContentNode struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Attrs struct {
		Src string `json:"src"`
	} `json:"attrs"`
}

type apiComment struct {
	ID               string `json:"id"`
	UserID           string `json:"userId"`
	UserName         string `json:"userName"`
	CreatedTime      int64  `json:"createdTime"`
	ReplyToCommentID string `json:"replyToCommentId"`
	Content          struct {
		Type    string           `json:"type"`
		Content []apiContentNode `json:"content"`
	} `json:"content"`
}

func (ac *apiComment) toModel() models.Comment {
	cm := models.Comment{
		ID:          ac.ID,
		UserID:      ac.UserID,
		UserName:    ac.UserName,
		CreatedTime: millisToTime(ac.CreatedTime),
		ReplyToID:   ac.ReplyToCommentID,
	}
	for _, node := range ac.Content.Content {
		switch node.Type {
		case "paragraph":
			texts := make([]string, 0, len(node.Content))
			for _, t := range node.Content {
				if t.Text != "" {
					texts = append(texts, t.Text)
				}
			}
			cm.Content = append(cm.Content, models.ContentBlock{
				Kind: "paragraph",
				Text: strings.Join(texts, " "),
			})
		case "iframe":
			cm.Content = append(cm.Content, models.ContentBlock{
				Kind: "link",
				Href: node.Attrs.Src,
			})
		}
	}
	return cm
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
