package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"game-arena-system/handlers"
	"game-arena-system/models"
	"game-arena-system/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	app    *fiber.App
	ledger *services.LedgerService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Wallet{},
		&models.LedgerEntry{},
		&models.Match{},
		&models.PlayerStats{},
		&models.Tournament{},
		&models.TournamentRegistration{},
		&models.BracketMatch{},
	))

	cfg := &services.ArenaConfig{
		MinWager:          100,
		MaxWager:          1_000_000,
		PlatformFeeBps:    100,
		TreasuryAddress:   "treasury",
		ResolverAddresses: map[string]bool{"resolver": true},
	}
	ledger := services.NewLedgerService(db)
	matchService := services.NewMatchService(db, ledger, cfg)
	tournamentService := services.NewTournamentService(db, ledger, cfg)
	statsService := services.NewStatsService(db)

	app := fiber.New()
	handlers.SetupMatchRoutes(app, matchService, ledger, cfg)
	handlers.SetupTournamentRoutes(app, tournamentService, cfg)
	handlers.SetupStatsRoutes(app, statsService, matchService)

	return &testServer{app: app, ledger: ledger}
}

func (s *testServer) do(t *testing.T, method, path, player string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if player != "" {
		req.Header.Set("X-Player-Address", player)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestCreateMatchRequiresPlayerContext(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodPost, "/matches", "", fiber.Map{"game_type": "poker", "wager": 1000})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMatchLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, err := s.ledger.Topup("alice", 10_000)
	require.NoError(t, err)
	_, err = s.ledger.Topup("bob", 10_000)
	require.NoError(t, err)

	resp := s.do(t, http.MethodPost, "/matches", "alice", fiber.Map{"game_type": "poker", "wager": 1000})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var match models.Match
	decodeJSON(t, resp, &match)
	assert.Equal(t, "created", match.State)

	resp = s.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/join", match.ID), "bob", fiber.Map{"wager": 1000})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &match)
	assert.Equal(t, "commit", match.State)

	resp = s.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/resolve", match.ID), "resolver", fiber.Map{"winner": "bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &match)
	assert.Equal(t, "resolved", match.State)
	assert.Equal(t, "bob", match.Winner)

	resp = s.do(t, http.MethodGet, "/wallets/bob", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var wallet models.Wallet
	decodeJSON(t, resp, &wallet)
	assert.Equal(t, int64(9000+1980), wallet.Balance)

	resp = s.do(t, http.MethodGet, "/players/bob/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats models.PlayerStats
	decodeJSON(t, resp, &stats)
	assert.Equal(t, int64(1), stats.Wins)
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t)
	_, err := s.ledger.Topup("alice", 10_000)
	require.NoError(t, err)

	// Unknown record → 404
	resp := s.do(t, http.MethodGet, "/matches/999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Precondition violation → 400
	resp = s.do(t, http.MethodPost, "/matches", "alice", fiber.Map{"game_type": "chess", "wager": 1000})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Transfer failure → 409
	resp = s.do(t, http.MethodPost, "/matches", "broke", fiber.Map{"game_type": "poker", "wager": 1000})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Non-resolver on a resolver route → 403
	resp = s.do(t, http.MethodPost, "/matches", "alice", fiber.Map{"game_type": "poker", "wager": 1000})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var match models.Match
	decodeJSON(t, resp, &match)
	resp = s.do(t, http.MethodPost, fmt.Sprintf("/matches/%d/resolve", match.ID), "alice", fiber.Map{"winner": "alice"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTournamentFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	for _, p := range []string{"p1", "p2"} {
		_, err := s.ledger.Topup(p, 5000)
		require.NoError(t, err)
	}

	resp := s.do(t, http.MethodPost, "/tournaments", "p1", fiber.Map{
		"name": "Duel", "game_type": "poker", "entry_fee": 1000, "max_players": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var tournament models.Tournament
	decodeJSON(t, resp, &tournament)

	for _, p := range []string{"p1", "p2"} {
		resp = s.do(t, http.MethodPost, fmt.Sprintf("/tournaments/%d/register", tournament.ID), p, fiber.Map{"payment": 1000})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	decodeJSON(t, resp, &tournament)
	assert.Equal(t, "active", tournament.State)

	resp = s.do(t, http.MethodPost, fmt.Sprintf("/tournaments/%d/matches/0/resolve", tournament.ID), "resolver", fiber.Map{"winner": "p2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &tournament)
	assert.Equal(t, "completed", tournament.State)
	assert.Equal(t, "p2", tournament.Winner)

	resp = s.do(t, http.MethodGet, fmt.Sprintf("/tournaments/%d/matches", tournament.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bracket []map[string]interface{}
	decodeJSON(t, resp, &bracket)
	require.Len(t, bracket, 1)
	assert.Equal(t, "Finals", bracket[0]["round_name"])
}
