package repositories

import (
	"ForexTradeBot/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
)

type CandleRepository struct {
	db *gorm.DB
}

// NewCandleRepository creates a new instance of CandleRepository
func NewCandleRepository(db *gorm.DB) *CandleRepository {
	return &CandleRepository{db: db}
}

// Create adds a new Candle record to the database
func (r *CandleRepository) Create(candle *models.Candle) error {
	if candle == nil {
		return errors.New("candle cannot be nil")
	}
	return r.db.Create(candle).Error
}

// CreateBatch inserts many Candle records in chunks
func (r *CandleRepository) CreateBatch(candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	return r.db.CreateInBatches(candles, 500).Error
}

// GetCandles returns the most recent count candles in ascending time order
func (r *CandleRepository) GetCandles(instrument, granularity string, count int) ([]models.Candle, error) {
	if instrument == "" || granularity == "" {
		return nil, errors.New("invalid instrument or granularity")
	}

	var candles []models.Candle
	err := r.db.Where("instrument = ? AND granularity = ?", instrument, granularity).
		Order("time DESC").
		Limit(count).
		Find(&candles).Error
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// GetRange returns candles between start and end in ascending time order
func (r *CandleRepository) GetRange(instrument, granularity string, start, end time.Time) ([]models.Candle, error) {
	if instrument == "" || granularity == "" {
		return nil, errors.New("invalid instrument or granularity")
	}

	var candles []models.Candle
	err := r.db.Where("instrument = ? AND granularity = ? AND time BETWEEN ? AND ?",
		instrument, granularity, start, end).
		Order("time ASC").
		Find(&candles).Error
	return candles, err
}

// GetLatest returns the most recent candle for an instrument and granularity
func (r *CandleRepository) GetLatest(instrument, granularity string) (*models.Candle, error) {
	if instrument == "" || granularity == "" {
		return nil, errors.New("invalid instrument or granularity")
	}

	var candle models.Candle
	err := r.db.Where("instrument = ? AND granularity = ?", instrument, granularity).
		Order("time DESC").
		First(&candle).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &candle, nil
}

// Count returns how many candles are stored for an instrument and granularity
func (r *CandleRepository) Count(instrument, granularity string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Candle{}).
		Where("instrument = ? AND granularity = ?", instrument, granularity).
		Count(&count).Error
	return count, err
}
