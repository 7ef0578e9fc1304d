package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aeroserv.in/fuelops/models"
)

// OverrideTTL is the validity window of an override token. Kept short on
// purpose: a token authorizes one supervised action right now, not a standing
// bypass.
const OverrideTTL = 15 * time.Minute

// maxTxRetries bounds retries on optimistic-lock conflicts (Postgres
// serialization failures and deadlocks). All other storage errors propagate
// immediately with the transaction rolled back.
const maxTxRetries = 3

// consistencyCacheTTL bounds staleness of cached consistency results.
const consistencyCacheTTL = 30 * time.Second

// Operator identifies who performed an engine operation. It travels with the
// request (taken from the JWT claims), never from process-wide state.
type Operator struct {
	ID   uuid.UUID
	Name string
}

// Service is the MRN-lot ledger and consistency engine. All mutating
// operations serialize per tank by locking the tank row first, so two
// concurrent draws can never double-spend a lot.
type Service struct {
	db    *gorm.DB
	log   *logrus.Logger
	cache *redis.Client
	now   func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithCache enables Redis caching of consistency results.
func WithCache(client *redis.Client) Option {
	return func(s *Service) { s.cache = client }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds the engine over the given DB handle.
func New(db *gorm.DB, log *logrus.Logger, opts ...Option) *Service {
	s := &Service{db: db, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockTank loads the tank row FOR UPDATE inside tx. Every mutating operation
// goes through this first, which is what serializes allocation and correction
// against the same tank.
func lockTank(tx *gorm.DB, tankID uuid.UUID) (*models.FuelTank, error) {
	var tank models.FuelTank
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", tankID).
		First(&tank).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTankNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tank, nil
}

// inTx runs fn in a transaction, retrying a bounded number of times when
// Postgres reports a serialization failure or deadlock.
func (s *Service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(fn)
		if err == nil || !retryableTxError(err) {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("ledger: transaction conflict, retrying")
	}
	return err
}

func retryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// invalidateConsistency drops the cached consistency result for a tank after
// any mutation that touches its quantities.
func (s *Service) invalidateConsistency(ctx context.Context, tankID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, consistencyCacheKey(tankID)).Err(); err != nil {
		s.log.WithField("tank_id", tankID).WithError(err).
			Warn("ledger: could not invalidate consistency cache")
	}
}

func consistencyCacheKey(tankID uuid.UUID) string {
	return "fuelops:consistency:" + tankID.String()
}

// lotSnapshot is the per-lot part of a correction audit snapshot.
type lotSnapshot struct {
	Mrn       string `json:"mrn"`
	Original  string `json:"original"`
	Remaining string `json:"remaining"`
}

// tankSnapshot captures the quantities a correction may touch.
type tankSnapshot struct {
	TankQuantity string        `json:"tankQuantity"`
	LedgerSum    string        `json:"ledgerSum"`
	Lots         []lotSnapshot `json:"lots"`
}

func snapshotJSON(tank *models.FuelTank, lots []models.MrnLot) ([]byte, error) {
	snap := tankSnapshot{
		TankQuantity: tank.CurrentQuantity.String(),
		Lots:         make([]lotSnapshot, 0, len(lots)),
	}
	sum := sumLotRemaining(lots)
	snap.LedgerSum = sum.String()
	for _, lot := range lots {
		snap.Lots = append(snap.Lots, lotSnapshot{
			Mrn:       lot.Mrn,
			Original:  lot.Original.String(),
			Remaining: lot.Remaining.String(),
		})
	}
	return json.Marshal(snap)
}
