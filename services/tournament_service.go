// services/tournament_service.go
package services

import (
	"errors"
	"fmt"
	"math/bits"

	"game-arena-system/models"

	"gorm.io/gorm"
)

var validCapacities = map[int]bool{2: true, 4: true, 8: true, 16: true}

// TournamentService is the bracket state machine layered on top of the
// escrow semantics: registration collects exact entry fees into the prize
// pool, rounds pair winners in fixed order, and the last winner takes the
// pool minus the platform fee. State-changing operations take the shared
// ledger mutex, so they are serialised against match operations and topups
// on the same ledger, not just against each other.
type TournamentService struct {
	DB     *gorm.DB
	Ledger *LedgerService
	Config *ArenaConfig
}

func NewTournamentService(db *gorm.DB, ledger *LedgerService, cfg *ArenaConfig) *TournamentService {
	return &TournamentService{DB: db, Ledger: ledger, Config: cfg}
}

// CreateTournament opens a bracket for registration. Capacity is fixed at
// creation and must be a power of two between 2 and 16.
func (s *TournamentService) CreateTournament(name, gameType string, entryFee int64, maxPlayers int) (*models.Tournament, error) {
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if !validGameTypes[gameType] {
		return nil, ErrInvalidGameType
	}
	if !validCapacities[maxPlayers] {
		return nil, ErrInvalidCapacity
	}
	if entryFee <= 0 {
		return nil, ErrInvalidEntryFee
	}

	tournament := &models.Tournament{
		Name:       name,
		GameType:   gameType,
		EntryFee:   entryFee,
		MaxPlayers: maxPlayers,
		State:      models.TournamentStateRegistration,
	}
	if err := s.DB.Create(tournament).Error; err != nil {
		return nil, err
	}
	return tournament, nil
}

// Register takes one seat for the exact entry fee. Filling the last seat
// auto-starts the tournament: round 1 is generated from the registration
// order and the state flips to active in the same transaction.
func (s *TournamentService) Register(tournamentID uint64, player string, payment int64) (*models.Tournament, error) {
	s.Ledger.mu.Lock()
	defer s.Ledger.mu.Unlock()

	var tournament models.Tournament
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadTournament(tx, tournamentID, &tournament); err != nil {
			return err
		}
		if tournament.State != models.TournamentStateRegistration {
			return ErrRegistrationClosed
		}

		var registered int64
		if err := tx.Model(&models.TournamentRegistration{}).
			Where("tournament_id = ?", tournamentID).
			Count(&registered).Error; err != nil {
			return err
		}
		if registered >= int64(tournament.MaxPlayers) {
			return ErrTournamentFull
		}

		var existing models.TournamentRegistration
		err := tx.Where("tournament_id = ? AND player_address = ?", tournamentID, player).
			First(&existing).Error
		if err == nil {
			return ErrAlreadyRegistered
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if payment != tournament.EntryFee {
			return ErrEntryFeeMismatch
		}

		if err := s.Ledger.Debit(tx, player, payment, models.EntryEscrowDeposit, nil, &tournament.ID); err != nil {
			return err
		}

		registration := models.TournamentRegistration{
			TournamentID:  tournamentID,
			PlayerAddress: player,
			Slot:          int(registered),
			PaidAmount:    payment,
		}
		if err := tx.Create(&registration).Error; err != nil {
			return err
		}

		tournament.PrizePool += payment
		if registered+1 == int64(tournament.MaxPlayers) {
			players, err := registeredPlayers(tx, tournamentID)
			if err != nil {
				return err
			}
			tournament.State = models.TournamentStateActive
			tournament.CurrentRound = 1
			if err := s.generateRound(tx, &tournament, players, 1); err != nil {
				return err
			}
		}
		return tx.Save(&tournament).Error
	})
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

// generateRound emits one bracket match per pair in fixed order
// [0,1], [2,3], … MatchIndex continues the per-tournament creation order.
func (s *TournamentService) generateRound(tx *gorm.DB, tournament *models.Tournament, players []string, round int) error {
	var existing int64
	if err := tx.Model(&models.BracketMatch{}).
		Where("tournament_id = ?", tournament.ID).
		Count(&existing).Error; err != nil {
		return err
	}

	for i := 0; i+1 < len(players); i += 2 {
		bracketMatch := models.BracketMatch{
			TournamentID: tournament.ID,
			Round:        round,
			MatchIndex:   int(existing) + i/2,
			PlayerA:      players[i],
			PlayerB:      players[i+1],
		}
		if err := tx.Create(&bracketMatch).Error; err != nil {
			return err
		}
	}
	return nil
}

// ResolveMatch records a bracket-match winner (resolver only) and advances
// the bracket: once the current round is fully resolved, either the next
// round is generated from its winners or the tournament finalizes and the
// prize is paid. Completed rounds are never mutated again.
func (s *TournamentService) ResolveMatch(tournamentID uint64, matchIndex int, caller, winner string, escrowMatchID *uint64) (*models.Tournament, error) {
	if !s.Config.IsResolver(caller) {
		return nil, ErrNotResolver
	}

	s.Ledger.mu.Lock()
	defer s.Ledger.mu.Unlock()

	var tournament models.Tournament
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadTournament(tx, tournamentID, &tournament); err != nil {
			return err
		}
		if tournament.State != models.TournamentStateActive {
			return ErrTournamentNotActive
		}

		var bracketMatch models.BracketMatch
		err := tx.Where("tournament_id = ? AND match_index = ?", tournamentID, matchIndex).
			First(&bracketMatch).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBracketMatchNotFound
			}
			return err
		}
		if bracketMatch.Completed {
			return ErrBracketMatchCompleted
		}
		if !bracketMatch.IsContestant(winner) {
			return ErrWinnerNotContestant
		}

		bracketMatch.Winner = winner
		bracketMatch.Completed = true
		if escrowMatchID != nil {
			bracketMatch.EscrowMatchID = escrowMatchID
		}
		if err := tx.Save(&bracketMatch).Error; err != nil {
			return err
		}

		var roundMatches []models.BracketMatch
		if err := tx.Where("tournament_id = ? AND round = ?", tournamentID, tournament.CurrentRound).
			Order("match_index ASC").
			Find(&roundMatches).Error; err != nil {
			return err
		}

		winners := make([]string, 0, len(roundMatches))
		for _, rm := range roundMatches {
			if !rm.Completed {
				return nil // round still in progress
			}
			winners = append(winners, rm.Winner)
		}

		if len(winners) == 1 {
			return s.finalize(tx, &tournament, winners[0])
		}

		tournament.CurrentRound++
		if err := s.generateRound(tx, &tournament, winners, tournament.CurrentRound); err != nil {
			return err
		}
		return tx.Save(&tournament).Error
	})
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

// finalize pays the champion the pool minus the platform fee and closes the
// tournament.
func (s *TournamentService) finalize(tx *gorm.DB, tournament *models.Tournament, champion string) error {
	fee := s.Config.PlatformFee(tournament.PrizePool)
	prize := tournament.PrizePool - fee

	tournament.State = models.TournamentStateCompleted
	tournament.Winner = champion
	if err := tx.Save(tournament).Error; err != nil {
		return err
	}

	if prize > 0 {
		if err := s.Ledger.Credit(tx, champion, prize, models.EntryPayout, nil, &tournament.ID); err != nil {
			return err
		}
	}
	if fee > 0 {
		if err := s.Ledger.Credit(tx, s.Config.TreasuryAddress, fee, models.EntryPlatformFee, nil, &tournament.ID); err != nil {
			return err
		}
	}
	return nil
}

// CancelTournament (resolver only) refunds every registrant their exact
// entry fee. Allowed from registration or active; terminal afterwards.
func (s *TournamentService) CancelTournament(tournamentID uint64, caller string) (*models.Tournament, error) {
	if !s.Config.IsResolver(caller) {
		return nil, ErrNotResolver
	}

	s.Ledger.mu.Lock()
	defer s.Ledger.mu.Unlock()

	var tournament models.Tournament
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := loadTournament(tx, tournamentID, &tournament); err != nil {
			return err
		}
		if tournament.State != models.TournamentStateRegistration &&
			tournament.State != models.TournamentStateActive {
			return ErrTournamentNotCancellable
		}

		var registrations []models.TournamentRegistration
		if err := tx.Where("tournament_id = ?", tournamentID).
			Order("slot ASC").
			Find(&registrations).Error; err != nil {
			return err
		}
		for _, r := range registrations {
			if err := s.Ledger.Credit(tx, r.PlayerAddress, r.PaidAmount, models.EntryRefund, nil, &tournament.ID); err != nil {
				return err
			}
		}

		tournament.State = models.TournamentStateCancelled
		return tx.Save(&tournament).Error
	})
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func registeredPlayers(tx *gorm.DB, tournamentID uint64) ([]string, error) {
	var registrations []models.TournamentRegistration
	if err := tx.Where("tournament_id = ?", tournamentID).
		Order("slot ASC").
		Find(&registrations).Error; err != nil {
		return nil, err
	}
	players := make([]string, len(registrations))
	for i, r := range registrations {
		players[i] = r.PlayerAddress
	}
	return players, nil
}

func loadTournament(tx *gorm.DB, tournamentID uint64, tournament *models.Tournament) error {
	if err := tx.First(tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	return nil
}

// GetTournament returns one tournament with its registrations and bracket.
func (s *TournamentService) GetTournament(tournamentID uint64) (*models.Tournament, error) {
	var tournament models.Tournament
	err := s.DB.
		Preload("Registrations", func(db *gorm.DB) *gorm.DB {
			return db.Order("slot ASC")
		}).
		Preload("Matches", func(db *gorm.DB) *gorm.DB {
			return db.Order("match_index ASC")
		}).
		First(&tournament, "id = ?", tournamentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &tournament, nil
}

// ListTournaments returns tournaments newest first.
func (s *TournamentService) ListTournaments(limit int) ([]models.Tournament, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var tournaments []models.Tournament
	err := s.DB.Order("id DESC").Limit(limit).Find(&tournaments).Error
	return tournaments, err
}

// BracketView is the read model for one bracket match, with the display
// round name ("Round 1", "Semifinals", "Finals").
type BracketView struct {
	models.BracketMatch
	RoundName string `json:"round_name"`
}

// ListBracket returns the tournament's matches in creation order with
// display round names.
func (s *TournamentService) ListBracket(tournamentID uint64) ([]BracketView, error) {
	var tournament models.Tournament
	if err := loadTournament(s.DB, tournamentID, &tournament); err != nil {
		return nil, err
	}

	var matches []models.BracketMatch
	if err := s.DB.Where("tournament_id = ?", tournamentID).
		Order("match_index ASC").
		Find(&matches).Error; err != nil {
		return nil, err
	}

	totalRounds := bits.Len(uint(tournament.MaxPlayers)) - 1
	views := make([]BracketView, len(matches))
	for i, m := range matches {
		views[i] = BracketView{BracketMatch: m, RoundName: roundName(m.Round, totalRounds)}
	}
	return views, nil
}

func roundName(round, totalRounds int) string {
	switch {
	case round == totalRounds:
		return "Finals"
	case round == totalRounds-1:
		return "Semifinals"
	default:
		return fmt.Sprintf("Round %d", round)
	}
}
