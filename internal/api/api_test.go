package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchday-hq/matchday/internal/api"
	"github.com/matchday-hq/matchday/internal/config"
	"github.com/matchday-hq/matchday/internal/detector"
	"github.com/matchday-hq/matchday/internal/metrics"
	"github.com/matchday-hq/matchday/internal/notification"
	"github.com/matchday-hq/matchday/internal/resolve"
	"github.com/matchday-hq/matchday/internal/searchindex"
	"github.com/matchday-hq/matchday/internal/storage"
	"github.com/matchday-hq/matchday/internal/upstream"
)

// --- stub notification service ---

type stubNotificationService struct {
	items    []notification.Notification
	settings *notification.Settings
	marked   []string
	testErr  error
}

func (s *stubNotificationService) List() []notification.Notification { return s.items }

func (s *stubNotificationService) MarkRead(id string) bool {
	for _, n := range s.items {
		if n.ID == id {
			s.marked = append(s.marked, id)
			return true
		}
	}
	return false
}

func (s *stubNotificationService) Hydrated() bool { return true }

func (s *stubNotificationService) UnreadCount() int {
	count := 0
	for _, n := range s.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (s *stubNotificationService) GetSettings() (*notification.Settings, error) {
	if s.settings == nil {
		return &notification.Settings{}, nil
	}
	return s.settings, nil
}

func (s *stubNotificationService) UpdateSettings(ns *notification.Settings) error {
	s.settings = ns
	return nil
}

func (s *stubNotificationService) TestNotification(_ context.Context) error { return s.testErr }

// --- stub upstream client ---

type stubUpstreamClient struct {
	competitions map[string][]upstream.Competition
	fixtures     map[int][]upstream.MatchSummary
	err          error
}

func (c *stubUpstreamClient) CompetitionsByOrg(_ context.Context, orgKey string) ([]upstream.Competition, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.competitions[orgKey], nil
}

func (c *stubUpstreamClient) MatchSummary(_ context.Context, matchID int) (*upstream.MatchSummary, error) {
	return &upstream.MatchSummary{ID: matchID, Status: "SCHEDULED"}, nil
}

func (c *stubUpstreamClient) Fixtures(_ context.Context, compID int) ([]upstream.MatchSummary, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.fixtures[compID], nil
}

// --- in-memory KV store ---

type memStore struct {
	data map[string]string
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (m *memStore) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(key, value string) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Remove(key string) error {
	delete(m.data, key)
	return nil
}

// testHarness bundles the stubs and router used by every test.
type testHarness struct {
	notificationSvc *stubNotificationService
	upstreamClient  *stubUpstreamClient
	index           *searchindex.Index
	engine          *detector.Engine
	router          chi.Router
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := storage.Clock(func() time.Time {
		return time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	})

	notificationSvc := &stubNotificationService{}
	upstreamClient := &stubUpstreamClient{
		competitions: map[string][]upstream.Competition{},
		fixtures:     map[int][]upstream.MatchSummary{},
	}

	kv := newMemStore()
	index := searchindex.New(kv, clock, 0, logger)
	index.Load()

	m := metrics.New()
	resolver := resolve.NewCompetitionResolver(upstreamClient, m)

	inbox := notification.NewStore(kv, clock, 0, logger)
	inbox.Load()
	engine := detector.New(detector.Config{
		Client:  upstreamClient,
		Store:   inbox,
		Metrics: m,
		Clock:   clock,
		Logger:  logger,
	})

	leaguesFile := filepath.Join(t.TempDir(), "leagues.yaml")
	require.NoError(t, os.WriteFile(leaguesFile, []byte(`
nba:
  name: National Basketball Association
  competitions:
    - key: regular-season
      name: Regular Season
`), 0o644))
	leagues, err := config.LoadLeagueRegistry(leaguesFile)
	require.NoError(t, err)

	srv := api.New(notificationSvc, index, resolver, upstreamClient, engine, leagues, logger)

	r := chi.NewRouter()
	srv.Mount(r)

	return &testHarness{
		notificationSvc: notificationSvc,
		upstreamClient:  upstreamClient,
		index:           index,
		engine:          engine,
		router:          r,
	}
}

func (h *testHarness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListNotifications(t *testing.T) {
	h := newHarness(t)
	h.notificationSvc.items = []notification.Notification{
		{ID: "GAME_START:42", Type: notification.TypeGameStart, Message: "Hawks vs Celtics has started"},
		{ID: "GAME_END:17", Type: notification.TypeGameEnd, Message: "Lakers vs Warriors has ended", Read: true},
	}

	rec := h.do(t, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]json.RawMessage](t, rec)
	var items []notification.Notification
	require.NoError(t, json.Unmarshal(body["notifications"], &items))
	assert.Len(t, items, 2)
	assert.JSONEq(t, `1`, string(body["unread_count"]))
	assert.JSONEq(t, `true`, string(body["hydrated"]))
}

func TestListNotificationsEmptyInboxIsAnArray(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"notifications":[]`)
}

func TestMarkNotificationRead(t *testing.T) {
	h := newHarness(t)
	h.notificationSvc.items = []notification.Notification{{ID: "GAME_START:42"}}

	rec := h.do(t, http.MethodPost, "/notifications/GAME_START:42/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"GAME_START:42"}, h.notificationSvc.marked)

	rec = h.do(t, http.MethodPost, "/notifications/missing/read", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationSettingsRoundTrip(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPut, "/notifications/settings", notification.Settings{
		Enabled:  true,
		Provider: notification.SMTPConfig{Host: "smtp.example.com", Port: 587},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/notifications/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decodeBody[notification.Settings](t, rec)
	assert.True(t, settings.Enabled)
	assert.Equal(t, "smtp.example.com", settings.Provider.Host)
}

func TestUpdateNotificationSettingsRejectsBadJSON(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPut, "/notifications/settings", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestNotificationFailure(t *testing.T) {
	h := newHarness(t)
	h.notificationSvc.testErr = errors.New("smtp: connection refused")

	rec := h.do(t, http.MethodPost, "/notifications/test", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestRegisterAndSnapshotSearchIndex(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/search/index", map[string]any{
		"entities": []searchindex.Entity{
			{Type: searchindex.EntityTeam, ID: "77", Name: "Hawks", Link: "/teams/77"},
			{Type: searchindex.EntityCompetition, ID: "12", Name: "Regular Season"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/search/index", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[struct {
		Entities []searchindex.Entity `json:"entities"`
		Count    int                  `json:"count"`
	}](t, rec)
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Entities, 2)
}

func TestRegisterEntitiesValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/search/index", map[string]any{
		"entities": []map[string]string{{"type": "team", "name": "missing id"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, h.index.Len())
}

func TestListLeagues(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/leagues", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orgs := decodeBody[[]config.Organization](t, rec)
	require.Len(t, orgs, 1)
	assert.Equal(t, "nba", orgs[0].Key)
	assert.Equal(t, "National Basketball Association", orgs[0].Name)
}

func TestResolveCompetition(t *testing.T) {
	h := newHarness(t)
	h.upstreamClient.competitions["nba"] = []upstream.Competition{
		{ID: 4217, Key: "regular-season", Name: "Regular Season"},
	}

	rec := h.do(t, http.MethodGet, "/leagues/nba/competitions/regular-season", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[map[string]any](t, rec)
	assert.Equal(t, float64(4217), resp["competition_id"])

	rec = h.do(t, http.MethodGet, "/leagues/nba/competitions/playoffs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveCompetitionUpstreamFailure(t *testing.T) {
	h := newHarness(t)
	h.upstreamClient.err = errors.New("upstream down")

	rec := h.do(t, http.MethodGet, "/leagues/nba/competitions/regular-season", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestListFixtures(t *testing.T) {
	h := newHarness(t)
	h.upstreamClient.fixtures[12] = []upstream.MatchSummary{
		{ID: 42, Status: "SCHEDULED", HomeTeam: "Hawks", AwayTeam: "Celtics",
			StartTime: time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)},
		{ID: 43, Status: "FINAL", HomeTeam: "Lakers", AwayTeam: "Warriors"},
	}

	rec := h.do(t, http.MethodGet, "/competitions/12/fixtures", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[struct {
		Fixtures []upstream.MatchSummary `json:"fixtures"`
		Count    int                     `json:"count"`
	}](t, rec)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 42, resp.Fixtures[0].ID)
}

func TestListFixturesUpstreamFailure(t *testing.T) {
	h := newHarness(t)
	h.upstreamClient.err = errors.New("upstream down")

	rec := h.do(t, http.MethodGet, "/competitions/12/fixtures", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWatchCompetitionSeedsWatchSetFromFixtures(t *testing.T) {
	h := newHarness(t)
	kickoff := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	h.upstreamClient.fixtures[12] = []upstream.MatchSummary{
		{ID: 42, Status: "SCHEDULED", HomeTeam: "Hawks", AwayTeam: "Celtics", StartTime: kickoff},
		{ID: 43, Status: "InProgress", HomeTeam: "Lakers", AwayTeam: "Warriors"},
		{ID: 44, Status: "FINAL", HomeTeam: "Knicks", AwayTeam: "Bulls"},
	}

	rec := h.do(t, http.MethodPost, "/competitions/12/watch", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[map[string]int](t, rec)
	assert.Equal(t, 3, resp["fixtures"])
	assert.Equal(t, 2, resp["watched"], "finished fixtures are not watched")

	watched := h.engine.Watched()
	require.Len(t, watched, 2)
	assert.Equal(t, 42, watched[0].MatchID)
	assert.Equal(t, "Hawks vs Celtics", watched[0].Label)
	assert.True(t, watched[0].StartTime.Equal(kickoff), "kickoff time seeded from fixture data")
	assert.Equal(t, 43, watched[1].MatchID)
}

func TestWatchAndUnwatchMatch(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/matches/42/watch", map[string]any{
		"label":  "Hawks vs Celtics",
		"status": "scheduled",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/matches/watched", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[struct {
		Matches []detector.WatchedMatch `json:"matches"`
		Count   int                     `json:"count"`
	}](t, rec)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, 42, resp.Matches[0].MatchID)
	assert.Equal(t, "Hawks vs Celtics", resp.Matches[0].Label)

	rec = h.do(t, http.MethodDelete, "/matches/42/watch", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.engine.Watched())
}

func TestWatchMatchRejectsBadID(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/matches/abc/watch", map[string]any{"label": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunDetection(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/detection/run", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "version")
}
