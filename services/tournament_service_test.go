// services/tournament_service_test.go
package services_test

import (
	"testing"

	"game-arena-system/models"
	"game-arena-system/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entryFee = int64(1000)

func newFourPlayerTournament(t *testing.T, a *arena) *models.Tournament {
	t.Helper()
	tournament, err := a.tournaments.CreateTournament("Friday Cup", models.GameTypePoker, entryFee, 4)
	require.NoError(t, err)

	for _, p := range []string{"p1", "p2", "p3", "p4"} {
		a.fund(t, p, 5000)
	}
	for _, p := range []string{"p1", "p2", "p3", "p4"} {
		tournament, err = a.tournaments.Register(tournament.ID, p, entryFee)
		require.NoError(t, err)
	}
	return tournament
}

func TestCreateTournamentValidation(t *testing.T) {
	a := newArena(t)

	_, err := a.tournaments.CreateTournament("", models.GameTypePoker, entryFee, 4)
	assert.ErrorIs(t, err, services.ErrTournamentNameRequired)

	_, err = a.tournaments.CreateTournament("Cup", "chess", entryFee, 4)
	assert.ErrorIs(t, err, services.ErrInvalidGameType)

	_, err = a.tournaments.CreateTournament("Cup", models.GameTypePoker, entryFee, 3)
	assert.ErrorIs(t, err, services.ErrInvalidCapacity)

	_, err = a.tournaments.CreateTournament("Cup", models.GameTypePoker, entryFee, 32)
	assert.ErrorIs(t, err, services.ErrInvalidCapacity)

	_, err = a.tournaments.CreateTournament("Cup", models.GameTypePoker, 0, 4)
	assert.ErrorIs(t, err, services.ErrInvalidEntryFee)
}

func TestRegistrationFillsAndStartsBracket(t *testing.T) {
	a := newArena(t)
	tournament := newFourPlayerTournament(t, a)

	assert.Equal(t, models.TournamentStateActive, tournament.State)
	assert.Equal(t, 1, tournament.CurrentRound)
	assert.Equal(t, 4*entryFee, tournament.PrizePool)
	assert.Equal(t, int64(4000), a.balance(t, "p1"))

	bracket, err := a.tournaments.ListBracket(tournament.ID)
	require.NoError(t, err)
	require.Len(t, bracket, 2)

	// Pairing follows registration order: [p1,p2] then [p3,p4].
	assert.Equal(t, 0, bracket[0].MatchIndex)
	assert.Equal(t, "p1", bracket[0].PlayerA)
	assert.Equal(t, "p2", bracket[0].PlayerB)
	assert.Equal(t, 1, bracket[1].MatchIndex)
	assert.Equal(t, "p3", bracket[1].PlayerA)
	assert.Equal(t, "p4", bracket[1].PlayerB)
	assert.Equal(t, "Semifinals", bracket[0].RoundName)
}

func TestRegistrationGuards(t *testing.T) {
	a := newArena(t)
	tournament, err := a.tournaments.CreateTournament("Cup", models.GameTypePoker, entryFee, 2)
	require.NoError(t, err)

	a.fund(t, "p1", 5000)
	a.fund(t, "p2", 5000)
	a.fund(t, "p3", 5000)

	_, err = a.tournaments.Register(tournament.ID, "p1", entryFee+1)
	assert.ErrorIs(t, err, services.ErrEntryFeeMismatch)
	assert.Equal(t, int64(5000), a.balance(t, "p1"))

	_, err = a.tournaments.Register(tournament.ID, "p1", entryFee)
	require.NoError(t, err)
	_, err = a.tournaments.Register(tournament.ID, "p1", entryFee)
	assert.ErrorIs(t, err, services.ErrAlreadyRegistered)

	_, err = a.tournaments.Register(tournament.ID, "p2", entryFee)
	require.NoError(t, err)

	// The fill auto-started the bracket, so p3 finds registration closed.
	_, err = a.tournaments.Register(tournament.ID, "p3", entryFee)
	assert.ErrorIs(t, err, services.ErrRegistrationClosed)

	_, err = a.tournaments.Register(9999, "p3", entryFee)
	assert.ErrorIs(t, err, services.ErrTournamentNotFound)
}

func TestRegisterWithoutFundsRollsBack(t *testing.T) {
	a := newArena(t)
	tournament, err := a.tournaments.CreateTournament("Cup", models.GameTypePoker, entryFee, 2)
	require.NoError(t, err)

	_, err = a.tournaments.Register(tournament.ID, "broke", entryFee)
	require.ErrorIs(t, err, services.ErrInsufficientFunds)

	got, err := a.tournaments.GetTournament(tournament.ID)
	require.NoError(t, err)
	assert.Zero(t, got.PrizePool)
	assert.Empty(t, got.Registrations)
}

func TestFullBracketRun(t *testing.T) {
	a := newArena(t)
	tournament := newFourPlayerTournament(t, a)

	_, err := a.tournaments.ResolveMatch(tournament.ID, 0, "resolver", "p1", nil)
	require.NoError(t, err)
	got, err := a.tournaments.ResolveMatch(tournament.ID, 1, "resolver", "p4", nil)
	require.NoError(t, err)

	// Round 1 complete: the final is generated at round 2, index 2.
	assert.Equal(t, 2, got.CurrentRound)
	bracket, err := a.tournaments.ListBracket(tournament.ID)
	require.NoError(t, err)
	require.Len(t, bracket, 3)
	final := bracket[2]
	assert.Equal(t, 2, final.MatchIndex)
	assert.Equal(t, 2, final.Round)
	assert.Equal(t, "p1", final.PlayerA)
	assert.Equal(t, "p4", final.PlayerB)
	assert.Equal(t, "Finals", final.RoundName)

	got, err = a.tournaments.ResolveMatch(tournament.ID, 2, "resolver", "p4", nil)
	require.NoError(t, err)

	assert.Equal(t, models.TournamentStateCompleted, got.State)
	assert.Equal(t, "p4", got.Winner)

	// Prize is the pool minus the 1% fee: 4000 - 40.
	assert.Equal(t, int64(4000+3960), a.balance(t, "p4"))
	assert.Equal(t, int64(40), a.balance(t, "treasury"))
	assert.Equal(t, int64(4000), a.balance(t, "p1"))

	// Tournament results never touch match stats.
	stats, err := a.stats.GetPlayerStats("p4")
	require.NoError(t, err)
	assert.Zero(t, stats.GamesPlayed)
}

func TestTwoPlayerTournamentFinalOnly(t *testing.T) {
	a := newArena(t)
	tournament, err := a.tournaments.CreateTournament("Duel", models.GameTypeRPGBattle, entryFee, 2)
	require.NoError(t, err)

	a.fund(t, "p1", 5000)
	a.fund(t, "p2", 5000)
	_, err = a.tournaments.Register(tournament.ID, "p1", entryFee)
	require.NoError(t, err)
	_, err = a.tournaments.Register(tournament.ID, "p2", entryFee)
	require.NoError(t, err)

	bracket, err := a.tournaments.ListBracket(tournament.ID)
	require.NoError(t, err)
	require.Len(t, bracket, 1)
	assert.Equal(t, "Finals", bracket[0].RoundName)

	got, err := a.tournaments.ResolveMatch(tournament.ID, 0, "resolver", "p2", nil)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStateCompleted, got.State)
	assert.Equal(t, int64(4000+1980), a.balance(t, "p2"))
}

func TestResolveMatchGuards(t *testing.T) {
	a := newArena(t)
	tournament := newFourPlayerTournament(t, a)

	_, err := a.tournaments.ResolveMatch(tournament.ID, 0, "p1", "p1", nil)
	assert.ErrorIs(t, err, services.ErrNotResolver)

	_, err = a.tournaments.ResolveMatch(tournament.ID, 0, "resolver", "p3", nil)
	assert.ErrorIs(t, err, services.ErrWinnerNotContestant)

	_, err = a.tournaments.ResolveMatch(tournament.ID, 7, "resolver", "p1", nil)
	assert.ErrorIs(t, err, services.ErrBracketMatchNotFound)

	_, err = a.tournaments.ResolveMatch(tournament.ID, 0, "resolver", "p1", nil)
	require.NoError(t, err)
	_, err = a.tournaments.ResolveMatch(tournament.ID, 0, "resolver", "p2", nil)
	assert.ErrorIs(t, err, services.ErrBracketMatchCompleted)
}

func TestResolveMatchLinksEscrowMatch(t *testing.T) {
	a := newArena(t)
	tournament := newFourPlayerTournament(t, a)

	escrowID := uint64(42)
	_, err := a.tournaments.ResolveMatch(tournament.ID, 0, "resolver", "p2", &escrowID)
	require.NoError(t, err)

	bracket, err := a.tournaments.ListBracket(tournament.ID)
	require.NoError(t, err)
	require.NotNil(t, bracket[0].EscrowMatchID)
	assert.Equal(t, escrowID, *bracket[0].EscrowMatchID)
}

func TestCancelTournamentRefundsRegistrants(t *testing.T) {
	a := newArena(t)
	tournament, err := a.tournaments.CreateTournament("Cup", models.GameTypePoker, entryFee, 4)
	require.NoError(t, err)

	a.fund(t, "p1", 5000)
	a.fund(t, "p2", 5000)
	_, err = a.tournaments.Register(tournament.ID, "p1", entryFee)
	require.NoError(t, err)
	_, err = a.tournaments.Register(tournament.ID, "p2", entryFee)
	require.NoError(t, err)

	_, err = a.tournaments.CancelTournament(tournament.ID, "p1")
	assert.ErrorIs(t, err, services.ErrNotResolver)

	got, err := a.tournaments.CancelTournament(tournament.ID, "resolver")
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStateCancelled, got.State)
	assert.Equal(t, int64(5000), a.balance(t, "p1"))
	assert.Equal(t, int64(5000), a.balance(t, "p2"))

	_, err = a.tournaments.CancelTournament(tournament.ID, "resolver")
	assert.ErrorIs(t, err, services.ErrTournamentNotCancellable)

	_, err = a.tournaments.Register(tournament.ID, "p3", entryFee)
	assert.ErrorIs(t, err, services.ErrRegistrationClosed)
}

func TestCancelActiveTournament(t *testing.T) {
	a := newArena(t)
	tournament := newFourPlayerTournament(t, a)

	got, err := a.tournaments.CancelTournament(tournament.ID, "resolver")
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStateCancelled, got.State)
	for _, p := range []string{"p1", "p2", "p3", "p4"} {
		assert.Equal(t, int64(5000), a.balance(t, p))
	}

	// A dangling bracket match can no longer be resolved.
	_, err = a.tournaments.ResolveMatch(tournament.ID, 0, "resolver", "p1", nil)
	assert.ErrorIs(t, err, services.ErrTournamentNotActive)
}

func TestLeaderboardOrdering(t *testing.T) {
	a := newArena(t)
	a.fund(t, "alice", 20_000)
	a.fund(t, "bob", 20_000)

	// Two resolved matches, both won by bob.
	for i := 0; i < 2; i++ {
		m, err := a.matches.CreateMatch("alice", models.GameTypePoker, wager)
		require.NoError(t, err)
		_, err = a.matches.JoinMatch(m.ID, "bob", wager)
		require.NoError(t, err)
		_, err = a.matches.ResolveByResolver(m.ID, "resolver", "bob")
		require.NoError(t, err)
	}

	rows, err := a.stats.GetLeaderboard(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "bob", rows[0].Address)
	assert.Equal(t, int64(2), rows[0].Wins)
	assert.Equal(t, "alice", rows[1].Address)
	assert.Equal(t, int64(2), rows[1].Losses)
}
