// workers/escrow_audit_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"game-arena-system/models"

	"gorm.io/gorm"
)

// EscrowAuditor cross-checks money conservation. Every wallet movement
// leaves a ledger entry, so the funds currently held by open matches and
// tournaments must equal the net amount the ledger says left player
// wallets (topups excluded). A mismatch means an operation committed a
// partial transfer and needs operator attention.
type EscrowAuditor struct {
	DB *gorm.DB
}

func NewEscrowAuditor(db *gorm.DB) *EscrowAuditor {
	return &EscrowAuditor{DB: db}
}

// AuditReport is one conservation snapshot. Balanced requires both checks:
// wallet balances reproduce the net ledger history, and the amount the
// ledger says is held matches what open matches and tournaments hold.
type AuditReport struct {
	WalletTotal int64 `json:"wallet_total"`
	LedgerNet   int64 `json:"ledger_net"`
	EscrowHeld  int64 `json:"escrow_held"`
	LedgerHeld  int64 `json:"ledger_held"`
	Balanced    bool  `json:"balanced"`
}

// CheckConservation computes the held totals from both sides of the books.
func (a *EscrowAuditor) CheckConservation() (*AuditReport, error) {
	var report AuditReport

	if err := a.DB.Model(&models.Wallet{}).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&report.WalletTotal).Error; err != nil {
		return nil, err
	}

	if err := a.DB.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&report.LedgerNet).Error; err != nil {
		return nil, err
	}

	if err := a.DB.Model(&models.LedgerEntry{}).
		Where("kind <> ?", models.EntryTopup).
		Select("COALESCE(SUM(-amount), 0)").
		Scan(&report.LedgerHeld).Error; err != nil {
		return nil, err
	}

	var openMatches []models.Match
	if err := a.DB.
		Where("state IN ?", []string{
			models.MatchStateCreated,
			models.MatchStateCommit,
			models.MatchStateReveal,
		}).
		Find(&openMatches).Error; err != nil {
		return nil, err
	}
	for _, m := range openMatches {
		report.EscrowHeld += m.EscrowedAmount()
	}

	var openTournaments []models.Tournament
	if err := a.DB.
		Where("state IN ?", []string{
			models.TournamentStateRegistration,
			models.TournamentStateActive,
		}).
		Find(&openTournaments).Error; err != nil {
		return nil, err
	}
	for _, t := range openTournaments {
		report.EscrowHeld += t.HeldAmount()
	}

	report.Balanced = report.EscrowHeld == report.LedgerHeld &&
		report.WalletTotal == report.LedgerNet
	return &report, nil
}

// PollEscrow runs the conservation check on a fixed interval until ctx is
// cancelled.
func PollEscrow(ctx context.Context, auditor *EscrowAuditor, interval time.Duration) {
	log.Println("🔁 Starting escrow audit worker…")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Escrow audit worker stopped")
			return
		case <-ticker.C:
			report, err := auditor.CheckConservation()
			if err != nil {
				log.Printf("⚠️ Escrow audit failed: %v", err)
				continue
			}
			if !report.Balanced {
				log.Printf("❌ Escrow imbalance: held by state machines %d, held per ledger %d (wallet total %d, ledger net %d)",
					report.EscrowHeld, report.LedgerHeld, report.WalletTotal, report.LedgerNet)
			}
		}
	}
}
