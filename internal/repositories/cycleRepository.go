package repositories

import (
	"ForexTradeBot/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
)

type CycleRepository struct {
	db *gorm.DB
}

// NewCycleRepository creates a new instance of CycleRepository
func NewCycleRepository(db *gorm.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

// Create appends a TradingCycle record. Cycle records are never updated.
func (r *CycleRepository) Create(cycle *models.TradingCycle) error {
	if cycle == nil {
		return errors.New("cycle cannot be nil")
	}
	return r.db.Create(cycle).Error
}

// GetRecent returns the latest cycle records, newest first
func (r *CycleRepository) GetRecent(limit int) ([]models.TradingCycle, error) {
	var cycles []models.TradingCycle
	err := r.db.Order("timestamp DESC").Limit(limit).Find(&cycles).Error
	return cycles, err
}

// GetByInstrument returns cycle records for one instrument, newest first
func (r *CycleRepository) GetByInstrument(instrument string, limit int) ([]models.TradingCycle, error) {
	if instrument == "" {
		return nil, errors.New("invalid instrument")
	}
	var cycles []models.TradingCycle
	err := r.db.Where("instrument = ?", instrument).
		Order("timestamp DESC").
		Limit(limit).
		Find(&cycles).Error
	return cycles, err
}

// GetByTimeRange returns cycle records between start and end
func (r *CycleRepository) GetByTimeRange(start, end time.Time) ([]models.TradingCycle, error) {
	var cycles []models.TradingCycle
	err := r.db.Where("timestamp BETWEEN ? AND ?", start, end).
		Order("timestamp ASC").
		Find(&cycles).Error
	return cycles, err
}

// GetByCycleID returns the record for one cycle run
func (r *CycleRepository) GetByCycleID(cycleID string) (*models.TradingCycle, error) {
	if cycleID == "" {
		return nil, errors.New("invalid cycle id")
	}
	var cycle models.TradingCycle
	err := r.db.Where("cycle_id = ?", cycleID).First(&cycle).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}
