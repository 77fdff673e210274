// Package currency converts document amounts into the tax service's reporting
// currency using dated exchange rates.
package currency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/salestax/internal/domain/shared"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/erp/salestax/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// rateDivisionPrecision bounds the digits kept when inverting a stored rate
const rateDivisionPrecision = 12

// ErrRateNotFound is returned when no rate is effective for the pair on the date
var ErrRateNotFound = shared.NewDomainError("RATE_NOT_FOUND", "no exchange rate effective for date")

// RateProvider returns the rate converting one unit of from into to on a date
type RateProvider interface {
	RateAt(ctx context.Context, from, to valueobject.Currency, date time.Time) (decimal.Decimal, error)
}

// RateStore is the persistence needed by StoredRateProvider
type RateStore interface {
	FindEffective(ctx context.Context, base, quote string, date time.Time) (decimal.Decimal, error)
}

// StoredRateProvider reads rates from the currency_rates table.
// When only the reverse pair is stored, its inverse is used.
type StoredRateProvider struct {
	store RateStore
}

// NewStoredRateProvider creates a new StoredRateProvider
func NewStoredRateProvider(store RateStore) *StoredRateProvider {
	return &StoredRateProvider{store: store}
}

// RateAt returns the latest rate effective on or before date
func (p *StoredRateProvider) RateAt(ctx context.Context, from, to valueobject.Currency, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rate, err := p.store.FindEffective(ctx, from.String(), to.String(), date)
	if err == nil {
		return rate, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("load rate %s/%s: %w", from, to, err)
	}

	inverse, err := p.store.FindEffective(ctx, to.String(), from.String(), date)
	if errors.Is(err, shared.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("%w: %s/%s on %s", ErrRateNotFound, from, to, date.Format(time.DateOnly))
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load rate %s/%s: %w", to, from, err)
	}
	return decimal.NewFromInt(1).DivRound(inverse, rateDivisionPrecision), nil
}

// CachedRateProvider memoizes another provider's rates per pair and day
type CachedRateProvider struct {
	next   RateProvider
	cache  cache.RateCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRateProvider wraps next with a rate cache
func NewCachedRateProvider(next RateProvider, rates cache.RateCache, ttl time.Duration, logger *zap.Logger) *CachedRateProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedRateProvider{next: next, cache: rates, ttl: ttl, logger: logger}
}

// RateAt serves the rate from cache, falling through to the wrapped provider on a miss.
// Cache failures are logged and never fail the lookup.
func (p *CachedRateProvider) RateAt(ctx context.Context, from, to valueobject.Currency, date time.Time) (decimal.Decimal, error) {
	key := rateKey(from, to, date)

	rate, ok, err := p.cache.GetRate(ctx, key)
	if err != nil {
		p.logger.Warn("rate cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return rate, nil
	}

	rate, err = p.next.RateAt(ctx, from, to, date)
	if err != nil {
		return decimal.Zero, err
	}
	if err := p.cache.SetRate(ctx, key, rate, p.ttl); err != nil {
		p.logger.Warn("rate cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rate, nil
}

func rateKey(from, to valueobject.Currency, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", from, to, date.UTC().Format(time.DateOnly))
}
