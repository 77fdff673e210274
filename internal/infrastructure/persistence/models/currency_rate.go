package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrencyRateModel stores how many units of Quote one unit of Base buys from EffectiveDate on
type CurrencyRateModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Base          string          `gorm:"type:varchar(3);not null;uniqueIndex:idx_currency_rate_pair_date,priority:1"`
	Quote         string          `gorm:"type:varchar(3);not null;uniqueIndex:idx_currency_rate_pair_date,priority:2"`
	EffectiveDate time.Time       `gorm:"type:date;not null;uniqueIndex:idx_currency_rate_pair_date,priority:3"`
	Rate          decimal.Decimal `gorm:"type:decimal(18,8);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CurrencyRateModel) TableName() string {
	return "currency_rates"
}
