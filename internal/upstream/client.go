// Package upstream is the HTTP client for the sports data API. Responses are
// validated against the expected shape before use; a response that fails
// validation is reported as a fetch failure, never passed through.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds every upstream request. A timed-out fetch is an
// ordinary fetch failure; callers retry on their next cycle.
const DefaultTimeout = 10 * time.Second

// ErrBadShape marks a response that parsed but did not match the expected
// structure.
var ErrBadShape = errors.New("upstream response has unexpected shape")

// Competition is one competition under an organization.
type Competition struct {
	ID   int    `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// MatchSummary is the per-match polling payload. Status carries the raw,
// inconsistent upstream vocabulary; normalize it with the matchstatus
// package before reasoning about it.
type MatchSummary struct {
	ID        int       `json:"id"`
	Status    string    `json:"status"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
}

// Label is a short human-readable description of the match.
func (m MatchSummary) Label() string {
	if m.HomeTeam == "" || m.AwayTeam == "" {
		return fmt.Sprintf("match %d", m.ID)
	}
	return m.HomeTeam + " vs " + m.AwayTeam
}

// Client is the upstream collaborator consumed by the resolution layer and
// the detection engine.
type Client interface {
	// CompetitionsByOrg lists the competitions of an organization.
	CompetitionsByOrg(ctx context.Context, orgKey string) ([]Competition, error)
	// MatchSummary fetches the current summary for one match.
	MatchSummary(ctx context.Context, matchID int) (*MatchSummary, error)
	// Fixtures lists the matches of a competition, upcoming and finished.
	Fixtures(ctx context.Context, compID int) ([]MatchSummary, error)
}

// HTTPClient implements Client against the upstream REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient creates an HTTPClient. A zero timeout selects DefaultTimeout.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// CompetitionsByOrg lists the competitions of an organization.
func (c *HTTPClient) CompetitionsByOrg(ctx context.Context, orgKey string) ([]Competition, error) {
	var payload struct {
		Competitions []Competition `json:"competitions"`
	}
	path := fmt.Sprintf("/orgs/%s/competitions", url.PathEscape(orgKey))
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	if payload.Competitions == nil {
		return nil, fmt.Errorf("competitions for org %q: %w", orgKey, ErrBadShape)
	}
	for _, comp := range payload.Competitions {
		if comp.ID == 0 || comp.Key == "" {
			return nil, fmt.Errorf("competitions for org %q: %w", orgKey, ErrBadShape)
		}
	}
	return payload.Competitions, nil
}

// MatchSummary fetches the current summary for one match.
func (c *HTTPClient) MatchSummary(ctx context.Context, matchID int) (*MatchSummary, error) {
	var payload struct {
		Match *MatchSummary `json:"match"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/matches/%d/summary", matchID), &payload); err != nil {
		return nil, err
	}
	if payload.Match == nil || payload.Match.ID != matchID {
		return nil, fmt.Errorf("summary for match %d: %w", matchID, ErrBadShape)
	}
	return payload.Match, nil
}

// Fixtures lists the matches of a competition.
func (c *HTTPClient) Fixtures(ctx context.Context, compID int) ([]MatchSummary, error) {
	var payload struct {
		Fixtures []MatchSummary `json:"fixtures"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/competitions/%d/fixtures", compID), &payload); err != nil {
		return nil, err
	}
	if payload.Fixtures == nil {
		return nil, fmt.Errorf("fixtures for competition %d: %w", compID, ErrBadShape)
	}
	for _, fx := range payload.Fixtures {
		if fx.ID == 0 {
			return nil, fmt.Errorf("fixtures for competition %d: %w", compID, ErrBadShape)
		}
	}
	return payload.Fixtures, nil
}

// getJSON performs a GET and decodes the JSON body into out. Non-2xx
// responses and undecodable bodies are fetch failures.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upstream request %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding upstream response %s: %w", path, err)
	}
	return nil
}
