package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"aeroserv.in/fuelops/models"
)

// ConsistencyStatus classifies the divergence between a tank's physical
// reading and the sum of its lots' remaining quantities.
type ConsistencyStatus string

const (
	StatusConsistent ConsistencyStatus = "consistent"
	StatusMinor      ConsistencyStatus = "minor"
	StatusMajor      ConsistencyStatus = "major"
)

// minorDriftThreshold is the inclusive upper bound of the minor band:
// |difference| / max(physical, 1) <= 1%.
var minorDriftThreshold = decimal.NewFromFloat(0.01)

// ConsistencyResult is the derived outcome of one check. It is never the
// source of truth; at most it is cached briefly.
type ConsistencyResult struct {
	TankID       uuid.UUID         `json:"tankId"`
	Physical     decimal.Decimal   `json:"physical"`
	LedgerSum    decimal.Decimal   `json:"ledgerSum"`
	Difference   decimal.Decimal   `json:"difference"` // physical - ledgerSum
	Status       ConsistencyStatus `json:"status"`
	OverCapacity bool              `json:"overCapacity"`
	CheckedAt    time.Time         `json:"checkedAt"`
}

// Classify applies the fixed threshold policy. Exact equality is required
// for "consistent": ledger arithmetic is exact decimal liters, so any nonzero
// difference is real drift.
func Classify(physical, ledgerSum decimal.Decimal) ConsistencyStatus {
	diff := physical.Sub(ledgerSum)
	if diff.IsZero() {
		return StatusConsistent
	}
	denom := decimal.Max(physical, decimal.NewFromInt(1))
	ratio := diff.Abs().Div(denom)
	if ratio.LessThanOrEqual(minorDriftThreshold) {
		return StatusMinor
	}
	return StatusMajor
}

// Check compares one tank's physical reading against its ledger sum. The
// transaction runs at REPEATABLE READ so both reads come from one snapshot:
// under READ COMMITTED each statement would snapshot separately, and an
// allocation committing between them would pair a stale reading with fresh
// lots and report drift that never existed.
func (s *Service) Check(ctx context.Context, tankID uuid.UUID) (*ConsistencyResult, error) {
	if cached := s.cachedConsistency(ctx, tankID); cached != nil {
		return cached, nil
	}

	var result ConsistencyResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tank models.FuelTank
		if err := tx.Where("id = ?", tankID).First(&tank).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTankNotFound
			}
			return err
		}
		ledgerSum, err := sumRemainingTx(tx, tankID)
		if err != nil {
			return err
		}
		result = ConsistencyResult{
			TankID:       tank.ID,
			Physical:     tank.CurrentQuantity,
			LedgerSum:    ledgerSum,
			Difference:   tank.CurrentQuantity.Sub(ledgerSum),
			Status:       Classify(tank.CurrentQuantity, ledgerSum),
			OverCapacity: tank.OverCapacity(),
			CheckedAt:    s.now().UTC(),
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, err
	}

	s.storeConsistency(ctx, &result)
	return &result, nil
}

// CheckAll runs Check for every tank, in primary-key order. Tanks are
// independent; each check is its own snapshot.
func (s *Service) CheckAll(ctx context.Context) ([]ConsistencyResult, error) {
	var tankIDs []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.FuelTank{}).
		Order("id ASC").
		Pluck("id", &tankIDs).Error
	if err != nil {
		return nil, err
	}

	results := make([]ConsistencyResult, 0, len(tankIDs))
	for _, id := range tankIDs {
		res, err := s.Check(ctx, id)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, nil
}

func (s *Service) cachedConsistency(ctx context.Context, tankID uuid.UUID) *ConsistencyResult {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, consistencyCacheKey(tankID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.WithError(err).Warn("ledger: consistency cache read failed")
		}
		return nil
	}
	var result ConsistencyResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil
	}
	return &result
}

func (s *Service) storeConsistency(ctx context.Context, result *ConsistencyResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, consistencyCacheKey(result.TankID), raw, consistencyCacheTTL).Err(); err != nil {
		s.log.WithError(err).Warn("ledger: consistency cache write failed")
	}
}
