// services/match_service.go
package services

import (
	"bytes"
	"errors"
	"time"

	"game-arena-system/models"
	"game-arena-system/utils"

	"gorm.io/gorm"
)

// WinnerComparator decides a double-reveal outcome from the two revealed
// payloads. Positive means the creator's payload wins, negative the
// opponent's; zero is a tie, which always favors the creator.
type WinnerComparator func(revealA, revealB []byte) int


var validGameTypes = map[string]bool{
	models.GameTypePoker:     true,
	models.GameTypeAuction:   true,
	models.GameTypeRPGBattle: true,
}

// MatchService is the match-escrow state machine. Every state-changing
// operation takes the ledger mutex and runs in a single transaction, so
// preconditions are always checked against committed state and each call is
// indivisible with respect to every other operation on the same ledger,
// including tournament registrations and topups.
type MatchService struct {
	DB          *gorm.DB
	Ledger      *LedgerService
	Config      *ArenaConfig
	comparators map[string]WinnerComparator
}

func NewMatchService(db *gorm.DB, ledger *LedgerService, cfg *ArenaConfig) *MatchService {
	return &MatchService{
		DB:          db,
		Ledger:      ledger,
		Config:      cfg,
		comparators: map[string]WinnerComparator{},
	}
}

// RegisterComparator installs a game-type-specific winner rule for the
// double-reveal path. Call it during wiring, before the service starts
// taking requests. Game types without one fall back to a deterministic byte
// order; real poker/auction/rpg outcomes are expected to arrive via the
// resolver path instead.
func (s *MatchService) RegisterComparator(gameType string, cmp WinnerComparator) {
	s.comparators[gameType] = cmp
}

func (s *MatchService) comparatorFor(gameType string) WinnerComparator {
	if cmp, ok := s.comparators[gameType]; ok {
		return cmp
	}
	return bytes.Compare
}

// CreateMatch escrows the creator's wager and opens the match for joining.
func (s *MatchService) CreateMatch(creator, gameType string, wager int64) (*models.Match, error) {
	if !validGameTypes[gameType] {
		return nil, ErrInvalidGameType
	}
	if wager < s.Config.MinWager {
		return nil, ErrWagerTooLow
	}
	if wager > s.Config.MaxWager {
		return nil, ErrWagerTooHigh
	}

	s.Ledger.mu.Lock()
	defer s.Ledger.mu.Unlock()

	match := &models.Match{
		GameType: gameType,
		PlayerA:  creator,
		Wager:    wager,
		State:    models.MatchStateCreated,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(match).Error; err != nil {
			return err
		}
		matchID := match.ID
		return s.Ledger.Debit(tx, creator, wager, models.EntryEscrowDeposit, &matchID, nil)
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// JoinMatch escrows the second wager and moves the match into the commit
// phase. The join must come from a different player with the exact wager.
func (s *MatchService) JoinMatch(matchID uint64, joiner string, wager int64) (*models.Match, error) {
	s.Ledger.mu.Lock()
	defer s.Ledger.mu.Unlock()

	var match models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadMatch(tx, matchID, &match); err != nil {
			return err
		}
		if match.State != models.MatchStateCreated {
			return ErrMatchNotJoinable
		}
		if joiner == match.PlayerA {
			return ErrSelfJoin
		}
		if wager != match.Wager {
			return ErrWagerMismatch
		}

		if err := s.Ledger.Debit(tx, joiner, wager, models.EntryEscrowDeposit, &match.ID, nil); err != nil {
			return err
		}

		now := time.Now().UTC()
		match.PlayerB = joiner
		match.State = models.MatchStateCommit
		match.JoinedAt = &now
		return tx.Save(&match).Error
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// CommitMove stores a participant's commitment digest. When both digests
// are present the match advances atomically to the reveal phase.
func (s *MatchService) CommitMove(matchID uint64, player string, commitment []byte) (*models.Match, error) {
	if len(commitment) != utils.CommitmentSize {
		return nil, ErrInvalidCommitment
	}

	s.Ledger.mu.Lock()
	defer s.Ledger.mu.Unlock()

	var match models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadMatch(tx, matchID, &match); err != nil {
			return err
		}
		if match.State != models.MatchStateCommit {
			return ErrNotCommitPhase
		}
		if !match.IsPlayer(player) {
			return ErrNotAPlayer
		}

		switch player {
		case match.PlayerA:
			if len(match.CommitA) > 0 {
				return ErrAlreadyCommitted
			}
			match.CommitA = commitment
		case match.PlayerB:
			if len(match.CommitB) > 0 {
				return ErrAlreadyCommitted
			}
			match.CommitB = commitment
		}

		if len(match.CommitA) > 0 && len(match.CommitB) > 0 {
			now := time.Now().UTC()
			match.State = models.MatchStateReveal
			match.RevealStartedAt = &now
		}
		return tx.Save(&match).Error
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// RevealMove verifies a move against its earlier commitment and stores it.
// A participant cannot change their move after seeing the opponent's digest:
// the reveal is only accepted if keccak256(move‖salt) reproduces it. Once
// both sides reveal, the match resolves by the game type's comparator.
func (s *MatchService) RevealMove(matchID uint64, player string, move, salt []byte) (*models.Match, error) {
	if len(move) == 0 {
		return nil, ErrEmptyMove
	}

	s.Ledger.mu.Lock()
	defer s.Ledger.mu.Unlock()

	var match models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadMatch(tx, matchID, &match); err != nil {
			return err
		}
		if match.State != models.MatchStateReveal {
			return ErrNotRevealPhase
		}
		if !match.IsPlayer(player) {
			return ErrNotAPlayer
		}

		digest := utils.ComputeCommitment(move, salt)
		switch player {
		case match.PlayerA:
			if len(match.RevealA) > 0 {
				return ErrAlreadyRevealed
			}
			if !bytes.Equal(digest, match.CommitA) {
				return ErrCommitmentMismatch
			}
			match.RevealA = move
		case match.PlayerB:
			if len(match.RevealB) > 0 {
				return ErrAlreadyRevealed
			}
			if !bytes.Equal(digest, match.CommitB) {
				return ErrCommitmentMismatch
			}
			match.RevealB = move
		}

		if len(match.RevealA) > 0 && len(match.RevealB) > 0 {
			winner := match.PlayerA
			if s.comparatorFor(match.GameType)(match.RevealA, match.RevealB) < 0 {
				winner = match.PlayerB
			}
			return s.settle(tx, &match, winner)
		}
		return tx.Save(&match).Error
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ResolveByResolver declares a winner computed outside the escrow boundary.
// Only configured resolver identities may call it, and only while the match
// holds both wagers.
func (s *MatchService) ResolveByResolver(matchID uint64, caller, winner string) (*models.Match, error) {
	if !s.Config.IsResolver(caller) {
		return nil, ErrNotResolver
	}

	s.Ledger.mu.Lock()
	defer s.Ledger.mu.Unlock()

	var match models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadMatch(tx, matchID, &match); err != nil {
			return err
		}
		if match.State != models.MatchStateCommit && match.State != models.MatchStateReveal {
			return ErrMatchNotResolvable
		}
		if !match.IsPlayer(winner) {
			return ErrWinnerNotPlayer
		}
		return s.settle(tx, &match, winner)
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// CancelMatch refunds the creator of a match nobody joined. A joined match
// can never be cancelled, only timed out or resolved.
func (s *MatchService) CancelMatch(matchID uint64, caller string) (*models.Match, error) {
	s.Ledger.mu.Lock()
	defer s.Ledger.mu.Unlock()

	var match models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadMatch(tx, matchID, &match); err != nil {
			return err
		}
		if caller != match.PlayerA {
			return ErrNotCreator
		}
		if match.State != models.MatchStateCreated {
			return ErrMatchNotCancellable
		}
		if err := s.Ledger.Credit(tx, match.PlayerA, match.Wager, models.EntryRefund, &match.ID, nil); err != nil {
			return err
		}
		return s.terminate(tx, &match, models.MatchStateCancelled)
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// ClaimTimeout forces a terminal state once the phase deadline passed.
// Policy: whoever acted alone wins the pot (punishes a stalled opponent);
// if nobody acted, everyone is refunded. A lone committer at the commit
// deadline wins outright, with no grace extension — responsiveness is
// deliberately favored over fairness here.
func (s *MatchService) ClaimTimeout(matchID uint64, caller string) (*models.Match, error) {
	s.Ledger.mu.Lock()
	defer s.Ledger.mu.Unlock()

	var match models.Match
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadMatch(tx, matchID, &match); err != nil {
			return err
		}
		if match.Terminal() {
			return ErrMatchTerminal
		}
		if !match.IsPlayer(caller) {
			return ErrNotAPlayer
		}

		deadline, ok := s.TimeoutDeadline(&match)
		if !ok {
			return ErrMatchNotResolvable
		}
		if time.Now().UTC().Before(deadline) {
			return ErrTimeoutNotElapsed
		}

		switch match.State {
		case models.MatchStateCreated:
			// Never joined; same outcome as a cancel.
			if err := s.Ledger.Credit(tx, match.PlayerA, match.Wager, models.EntryRefund, &match.ID, nil); err != nil {
				return err
			}
			return s.terminate(tx, &match, models.MatchStateCancelled)

		case models.MatchStateCommit:
			return s.forceOutcome(tx, &match, len(match.CommitA) > 0, len(match.CommitB) > 0)

		case models.MatchStateReveal:
			return s.forceOutcome(tx, &match, len(match.RevealA) > 0, len(match.RevealB) > 0)
		}
		return ErrMatchNotResolvable
	})
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// forceOutcome applies the timeout policy for a joined match: a lone actor
// wins, no actors means a full double refund and cancellation.
func (s *MatchService) forceOutcome(tx *gorm.DB, match *models.Match, aActed, bActed bool) error {
	switch {
	case aActed && !bActed:
		return s.settle(tx, match, match.PlayerA)
	case bActed && !aActed:
		return s.settle(tx, match, match.PlayerB)
	case !aActed && !bActed:
		if err := s.Ledger.Credit(tx, match.PlayerA, match.Wager, models.EntryRefund, &match.ID, nil); err != nil {
			return err
		}
		if err := s.Ledger.Credit(tx, match.PlayerB, match.Wager, models.EntryRefund, &match.ID, nil); err != nil {
			return err
		}
		return s.terminate(tx, match, models.MatchStateCancelled)
	}
	// Both acted: the state machine already advanced, the timeout is moot.
	return ErrMatchNotResolvable
}

// settle marks the match resolved, pays the winner the pot minus the
// platform fee and updates both players' stats, all in the same transaction.
func (s *MatchService) settle(tx *gorm.DB, match *models.Match, winner string) error {
	pot := 2 * match.Wager
	fee := s.Config.PlatformFee(pot)
	payout := pot - fee

	match.Winner = winner
	if err := s.terminate(tx, match, models.MatchStateResolved); err != nil {
		return err
	}

	if err := s.Ledger.Credit(tx, winner, payout, models.EntryPayout, &match.ID, nil); err != nil {
		return err
	}
	if fee > 0 {
		if err := s.Ledger.Credit(tx, s.Config.TreasuryAddress, fee, models.EntryPlatformFee, &match.ID, nil); err != nil {
			return err
		}
	}

	if err := bumpStats(tx, winner, true, match.Wager, payout); err != nil {
		return err
	}
	return bumpStats(tx, match.Opponent(winner), false, match.Wager, 0)
}

func (s *MatchService) terminate(tx *gorm.DB, match *models.Match, state string) error {
	now := time.Now().UTC()
	match.State = state
	match.ResolvedAt = &now
	return tx.Save(match).Error
}

// TimeoutDeadline returns the claimable deadline for the match's current
// phase. The commit window doubles as the join window for unjoined matches.
func (s *MatchService) TimeoutDeadline(match *models.Match) (time.Time, bool) {
	switch match.State {
	case models.MatchStateCreated:
		return match.CreatedAt.Add(s.Config.CommitTimeout), true
	case models.MatchStateCommit:
		if match.JoinedAt == nil {
			return time.Time{}, false
		}
		return match.JoinedAt.Add(s.Config.CommitTimeout), true
	case models.MatchStateReveal:
		if match.RevealStartedAt == nil {
			return time.Time{}, false
		}
		return match.RevealStartedAt.Add(s.Config.RevealTimeout), true
	}
	return time.Time{}, false
}

func bumpStats(tx *gorm.DB, address string, won bool, wager, payout int64) error {
	var stats models.PlayerStats
	if err := tx.Where(models.PlayerStats{Address: address}).
		FirstOrCreate(&stats).Error; err != nil {
		return err
	}
	stats.GamesPlayed++
	stats.TotalWagered += wager
	if won {
		stats.Wins++
		stats.TotalWon += payout
	} else {
		stats.Losses++
	}
	return tx.Save(&stats).Error
}

func loadMatch(tx *gorm.DB, matchID uint64, match *models.Match) error {
	if err := tx.First(match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	return nil
}

// GetMatch returns one match by id.
func (s *MatchService) GetMatch(matchID uint64) (*models.Match, error) {
	var match models.Match
	if err := loadMatch(s.DB, matchID, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// ListMatches returns recent matches, optionally filtered by state.
func (s *MatchService) ListMatches(state string, limit int) ([]models.Match, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.DB.Order("id DESC").Limit(limit)
	if state != "" {
		q = q.Where("state = ?", state)
	}
	var matches []models.Match
	err := q.Find(&matches).Error
	return matches, err
}

// ListPlayerMatches returns every match a player took part in, newest first.
func (s *MatchService) ListPlayerMatches(address string) ([]models.Match, error) {
	var matches []models.Match
	err := s.DB.Where("player_a = ? OR player_b = ?", address, address).
		Order("id DESC").
		Find(&matches).Error
	return matches, err
}
