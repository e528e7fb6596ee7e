package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/placar/internal/domain/roster"
)

const defaultHTTPTimeout = 3 * time.Second

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPConfig controls how the roster endpoint is reached.
type HTTPConfig struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HTTP fetches rosters from GET <url>?championship_id=<id>, which answers
// with [{"id": "...", "text": "..."}].
type HTTP struct {
	url    string
	client httpDoer
}

type option struct {
	ID   json.RawMessage `json:"id"`
	Text string          `json:"text"`
}

// NewHTTP constructs an HTTP roster provider.
func NewHTTP(cfg HTTPConfig) *HTTP {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTP{url: cfg.URL, client: client}
}

// Teams implements roster.Provider.
func (h *HTTP) Teams(ctx context.Context, championshipID string) ([]roster.Team, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("championship_id", championshipID)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: unexpected status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload []option
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrUpstream, err)
	}
	teams := make([]roster.Team, 0, len(payload))
	for _, o := range payload {
		teams = append(teams, roster.Team{ID: rawID(o.ID), Label: o.Text})
	}
	return teams, nil
}

// rawID accepts numeric or string ids.
func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
