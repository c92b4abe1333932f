// services/testutil_test.go
package services_test

import (
	"testing"
	"time"

	"game-arena-system/models"
	"game-arena-system/services"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func newTestConfig() *services.ArenaConfig {
	return &services.ArenaConfig{
		MinWager:        100,
		MaxWager:        1_000_000,
		CommitTimeout:   5 * time.Minute,
		RevealTimeout:   5 * time.Minute,
		PlatformFeeBps:  100,
		TreasuryAddress: "treasury",
		ResolverAddresses: map[string]bool{
			"resolver": true,
		},
	}
}

type arena struct {
	db          *gorm.DB
	cfg         *services.ArenaConfig
	ledger      *services.LedgerService
	matches     *services.MatchService
	tournaments *services.TournamentService
	stats       *services.StatsService
}

func newArena(t *testing.T) *arena {
	t.Helper()
	db := newTestDB(t)
	cfg := newTestConfig()
	ledger := services.NewLedgerService(db)
	return &arena{
		db:          db,
		cfg:         cfg,
		ledger:      ledger,
		matches:     services.NewMatchService(db, ledger, cfg),
		tournaments: services.NewTournamentService(db, ledger, cfg),
		stats:       services.NewStatsService(db),
	}
}

func (a *arena) fund(t *testing.T, address string, amount int64) {
	t.Helper()
	_, err := a.ledger.Topup(address, amount)
	require.NoError(t, err)
}

func (a *arena) balance(t *testing.T, address string) int64 {
	t.Helper()
	wallet, err := a.ledger.GetWallet(address)
	require.NoError(t, err)
	return wallet.Balance
}

// backdate rewrites a timestamp column directly so timeout deadlines lie in
// the past without injecting a clock.
func backdate(t *testing.T, db *gorm.DB, model interface{}, id uint64, column string, by time.Duration) {
	t.Helper()
	past := time.Now().UTC().Add(-by)
	require.NoError(t, db.Model(model).Where("id = ?", id).Update(column, past).Error)
}
