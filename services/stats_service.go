// services/stats_service.go
package services

import (
	"errors"

	"game-arena-system/models"

	"gorm.io/gorm"
)

// StatsService serves the per-player aggregates maintained by match
// settlement. It is read-only; the match engine writes the rows.
type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// GetPlayerStats returns the aggregate row for one address. A player who
// has never finished a match reads as all zeros.
func (s *StatsService) GetPlayerStats(address string) (*models.PlayerStats, error) {
	var stats models.PlayerStats
	if err := s.DB.First(&stats, "address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.PlayerStats{Address: address}, nil
		}
		return nil, err
	}
	return &stats, nil
}

// GetLeaderboard returns players ordered by wins, then total winnings.
func (s *StatsService) GetLeaderboard(limit int) ([]models.PlayerStats, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []models.PlayerStats
	err := s.DB.Order("wins DESC, total_won DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
