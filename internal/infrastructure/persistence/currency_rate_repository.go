package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCurrencyRateRepository stores dated exchange rates
type GormCurrencyRateRepository struct {
	db *gorm.DB
}

// NewGormCurrencyRateRepository creates a new GormCurrencyRateRepository
func NewGormCurrencyRateRepository(db *gorm.DB) *GormCurrencyRateRepository {
	return &GormCurrencyRateRepository{db: db}
}

// FindEffective returns the latest base→quote rate effective on or before the date
func (r *GormCurrencyRateRepository) FindEffective(ctx context.Context, base, quote string, date time.Time) (decimal.Decimal, error) {
	var model models.CurrencyRateModel
	if err := r.db.WithContext(ctx).
		Where("base = ? AND quote = ? AND effective_date <= ?", base, quote, truncateToDate(date)).
		Order("effective_date DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, shared.ErrNotFound
		}
		return decimal.Zero, err
	}
	return model.Rate, nil
}

// Upsert records the rate for a pair and day, replacing any rate already stored for that day
func (r *GormCurrencyRateRepository) Upsert(ctx context.Context, base, quote string, date time.Time, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "exchange rate must be positive")
	}
	model := &models.CurrencyRateModel{
		ID:            uuid.New(),
		Base:          base,
		Quote:         quote,
		EffectiveDate: truncateToDate(date),
		Rate:          rate,
		CreatedAt:     time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "base"}, {Name: "quote"}, {Name: "effective_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate"}),
	}).Create(model).Error
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
