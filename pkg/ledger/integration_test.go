package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"aeroserv.in/fuelops/models"
)

// These tests need a real Postgres because the engine's concurrency story
// rests on row locks and transaction semantics that sqlite cannot emulate.
// Run with:
//
//	INTEGRATION_TESTS=1 TEST_DB_DSN="host=localhost user=postgres ..." go test ./pkg/ledger/
func integrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS and TEST_DB_DSN to run database tests")
	}
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Location{},
		&models.FuelTank{},
		&models.MrnLot{},
		&models.FuelMovement{},
		&models.MovementAllocation{},
		&models.OverrideToken{},
		&models.CorrectionRecord{},
	)
	if err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

func integrationService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(integrationDB(t), log, opts...)
}

func createTank(t *testing.T, db *gorm.DB, capacity string) *models.FuelTank {
	t.Helper()
	loc := models.Location{Name: "Test Depot " + uuid.NewString()[:8]}
	if err := db.Create(&loc).Error; err != nil {
		t.Fatalf("creating location: %v", err)
	}
	tank := models.FuelTank{
		Name:           "TANK-" + uuid.NewString()[:8],
		LocationID:     loc.ID,
		FuelType:       "JET-A1",
		CapacityLiters: dec(capacity),
	}
	if err := db.Create(&tank).Error; err != nil {
		t.Fatalf("creating tank: %v", err)
	}
	return &tank
}

func testOperator() Operator {
	return Operator{ID: uuid.New(), Name: "itest operator"}
}

func TestIntakeThenAllocateFIFO(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")
	op := testOperator()

	base := time.Now().Add(-time.Hour)
	lotA, err := svc.AddLot(ctx, IntakeInput{
		TankID: tank.ID, Mrn: "24DEA1B2C3D4E5F6G5",
		Quantity: dec("100"), OccurredAt: base, Operator: op,
	})
	if err != nil {
		t.Fatalf("first intake: %v", err)
	}
	lotB, err := svc.AddLot(ctx, IntakeInput{
		TankID: tank.ID, Mrn: "25FR00000000000002",
		Quantity: dec("50"), OccurredAt: base.Add(time.Minute), Operator: op,
	})
	if err != nil {
		t.Fatalf("second intake: %v", err)
	}

	movement, err := svc.Allocate(ctx, AllocateInput{
		TankID: tank.ID, Quantity: dec("120"),
		Kind: models.MovementFuelingOut, Operator: op,
	})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if len(movement.Allocations) != 2 {
		t.Fatalf("got %d allocation lines, want 2", len(movement.Allocations))
	}
	if movement.Allocations[0].LotID != lotA.ID || !movement.Allocations[0].Quantity.Equal(dec("100")) {
		t.Errorf("first line = (%s, %s), want (lot A, 100)", movement.Allocations[0].Mrn, movement.Allocations[0].Quantity)
	}
	if movement.Allocations[1].LotID != lotB.ID || !movement.Allocations[1].Quantity.Equal(dec("20")) {
		t.Errorf("second line = (%s, %s), want (lot B, 20)", movement.Allocations[1].Mrn, movement.Allocations[1].Quantity)
	}

	lots, err := svc.ListLots(ctx, tank.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if !lots[0].Remaining.IsZero() || !lots[1].Remaining.Equal(dec("30")) {
		t.Errorf("remaining = (%s, %s), want (0, 30)", lots[0].Remaining, lots[1].Remaining)
	}

	var fresh models.FuelTank
	if err := svc.db.First(&fresh, "id = ?", tank.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !fresh.CurrentQuantity.Equal(dec("30")) {
		t.Errorf("tank reading = %s, want 30", fresh.CurrentQuantity)
	}
}

func TestAllocateInsufficientCoverageRollsBack(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")
	op := testOperator()

	if _, err := svc.AddLot(ctx, IntakeInput{
		TankID: tank.ID, Mrn: "24DEA1B2C3D4E5F6G5", Quantity: dec("100"), Operator: op,
	}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Allocate(ctx, AllocateInput{
		TankID: tank.ID, Quantity: dec("150"), Kind: models.MovementFuelingOut, Operator: op,
	})
	var ice *InsufficientCoverageError
	if !errors.As(err, &ice) {
		t.Fatalf("err = %v, want InsufficientCoverageError", err)
	}
	if !ice.Uncovered.Equal(dec("50")) {
		t.Errorf("uncovered = %s, want 50", ice.Uncovered)
	}

	// Nothing may have been written.
	lots, _ := svc.ListLots(ctx, tank.ID, false)
	if !lots[0].Remaining.Equal(dec("100")) {
		t.Errorf("lot remaining = %s, want untouched 100", lots[0].Remaining)
	}
	var count int64
	svc.db.Model(&models.FuelMovement{}).
		Where("tank_id = ? AND kind = ?", tank.ID, models.MovementFuelingOut).
		Count(&count)
	if count != 0 {
		t.Errorf("found %d fueling movements after failed allocation, want 0", count)
	}
}

func TestTransferPreservesMrnAttribution(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	source := createTank(t, svc.db, "100000")
	dest := createTank(t, svc.db, "100000")
	op := testOperator()

	base := time.Now().Add(-time.Hour)
	for i, in := range []IntakeInput{
		{TankID: source.ID, Mrn: "24DEA1B2C3D4E5F6G5", Quantity: dec("100")},
		{TankID: source.ID, Mrn: "25FR00000000000002", Quantity: dec("50")},
	} {
		in.Operator = op
		in.OccurredAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := svc.AddLot(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	outLeg, inLeg, err := svc.Transfer(ctx, TransferInput{
		SourceTankID: source.ID, DestTankID: dest.ID,
		Quantity: dec("120"), Operator: op,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if outLeg.Kind != models.MovementTransferOut || inLeg.Kind != models.MovementTransferIn {
		t.Errorf("leg kinds = (%s, %s)", outLeg.Kind, inLeg.Kind)
	}
	if inLeg.CounterpartTankID == nil || *inLeg.CounterpartTankID != source.ID {
		t.Error("in leg is not linked back to the source tank")
	}

	destLots, err := svc.ListLots(ctx, dest.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, lot := range destLots {
		got[lot.Mrn] = lot.Remaining.String()
	}
	if got["24DEA1B2C3D4E5F6G5"] != "100" || got["25FR00000000000002"] != "20" {
		t.Errorf("destination lots = %v, want MRN-for-MRN mirror of the draw", got)
	}

	sum, err := svc.SumRemaining(ctx, source.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Equal(dec("30")) {
		t.Errorf("source ledger sum = %s, want 30", sum)
	}
}

func TestConcurrentAllocationsCannotDoubleSpend(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")
	op := testOperator()

	if _, err := svc.AddLot(ctx, IntakeInput{
		TankID: tank.ID, Mrn: "24DEA1B2C3D4E5F6G5", Quantity: dec("100"), Operator: op,
	}); err != nil {
		t.Fatal(err)
	}

	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Allocate(ctx, AllocateInput{
				TankID: tank.ID, Quantity: dec("60"),
				Kind: models.MovementFuelingOut, Operator: op,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var ice *InsufficientCoverageError
		if !errors.As(err, &ice) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d of %d concurrent allocations succeeded, want exactly 1", succeeded, workers)
	}

	sum, err := svc.SumRemaining(ctx, tank.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Equal(dec("40")) {
		t.Errorf("ledger sum = %s, want 40 (no double spend)", sum)
	}
}

func TestCheckSnapshotUnderConcurrentAllocations(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")
	op := testOperator()

	if _, err := svc.AddLot(ctx, IntakeInput{
		TankID: tank.ID, Mrn: "24DEA1B2C3D4E5F6G5", Quantity: dec("1000"), Operator: op,
	}); err != nil {
		t.Fatal(err)
	}

	// Every committed state is consistent (each allocation moves the tank
	// reading and the lots together), so a check that pairs reads from two
	// different moments is the only way drift can appear here.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if _, err := svc.Allocate(ctx, AllocateInput{
				TankID: tank.ID, Quantity: dec("10"),
				Kind: models.MovementFuelingOut, Operator: op,
			}); err != nil {
				t.Errorf("allocation %d: %v", i, err)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		result, err := svc.Check(ctx, tank.ID)
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if result.Status != StatusConsistent {
			t.Fatalf("check saw phantom drift: status=%s physical=%s ledger=%s",
				result.Status, result.Physical, result.LedgerSum)
		}
	}
}

func TestConcurrentAllocationsExactPartition(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")
	op := testOperator()

	base := time.Now().Add(-time.Hour)
	for i, in := range []IntakeInput{
		{TankID: tank.ID, Mrn: "24DEA1B2C3D4E5F6G5", Quantity: dec("60")},
		{TankID: tank.ID, Mrn: "25FR00000000000002", Quantity: dec("40")},
	} {
		in.Operator = op
		in.OccurredAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := svc.AddLot(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	// Combined request equals the ledger sum exactly: both must succeed.
	const workers = 2
	movements := make([]*models.FuelMovement, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			movements[i], errs[i] = svc.Allocate(ctx, AllocateInput{
				TankID: tank.ID, Quantity: dec("50"),
				Kind: models.MovementFuelingOut, Operator: op,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("allocation %d failed: %v", i, err)
		}
	}

	// The two breakdowns partition the lots: per MRN, the draws add up to
	// the lot's original quantity.
	drawnByMrn := map[string]decimal.Decimal{}
	for _, m := range movements {
		for _, a := range m.Allocations {
			drawnByMrn[a.Mrn] = drawnByMrn[a.Mrn].Add(a.Quantity)
		}
	}
	if !drawnByMrn["24DEA1B2C3D4E5F6G5"].Equal(dec("60")) || !drawnByMrn["25FR00000000000002"].Equal(dec("40")) {
		t.Errorf("drawn per MRN = %v, want full partition (60, 40)", drawnByMrn)
	}

	sum, err := svc.SumRemaining(ctx, tank.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.IsZero() {
		t.Errorf("ledger sum = %s, want 0 after exact drain", sum)
	}
}

func TestCreateBalancingMrnRejectsDeficit(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")
	op := testOperator()

	if _, err := svc.AddLot(ctx, IntakeInput{
		TankID: tank.ID, Mrn: "24DEA1B2C3D4E5F6G5", Quantity: dec("500"), Operator: op,
	}); err != nil {
		t.Fatal(err)
	}
	// Physical deficit: 20 liters below the ledger.
	if err := svc.db.Model(&models.FuelTank{}).
		Where("id = ?", tank.ID).
		Update("current_quantity", dec("480")).Error; err != nil {
		t.Fatal(err)
	}

	token, err := svc.IssueOverride(ctx, tank.ID, models.OverrideCreateBalancingMrn, op, "deficit test")
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.Correct(ctx, CorrectionInput{
		TankID: tank.ID, Action: models.ActionCreateBalancingMrn, Token: token.Token, Operator: op,
	})
	var neg *NegativeBalancingError
	if !errors.As(err, &neg) {
		t.Fatalf("err = %v, want NegativeBalancingError", err)
	}
	if !neg.Difference.Equal(dec("-20")) {
		t.Errorf("difference = %s, want -20", neg.Difference)
	}

	// The whole action rolled back: no lot was created, the tank reading is
	// untouched, and the token is still live.
	var lotCount int64
	svc.db.Model(&models.MrnLot{}).Where("tank_id = ?", tank.ID).Count(&lotCount)
	if lotCount != 1 {
		t.Errorf("lot count = %d, want 1 (no balancing lot)", lotCount)
	}
	var fresh models.FuelTank
	if err := svc.db.First(&fresh, "id = ?", tank.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !fresh.CurrentQuantity.Equal(dec("480")) {
		t.Errorf("tank reading = %s, want untouched 480", fresh.CurrentQuantity)
	}
	var freshToken models.OverrideToken
	if err := svc.db.First(&freshToken, "id = ?", token.ID).Error; err != nil {
		t.Fatal(err)
	}
	if freshToken.Consumed {
		t.Error("token marked consumed although the correction rolled back")
	}
}

func TestCorrectionTokenLifecycle(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")
	op := testOperator()

	if _, err := svc.AddLot(ctx, IntakeInput{
		TankID: tank.ID, Mrn: "24DEA1B2C3D4E5F6G5", Quantity: dec("1000"), Operator: op,
	}); err != nil {
		t.Fatal(err)
	}
	// Simulated meter drift.
	if err := svc.db.Model(&models.FuelTank{}).
		Where("id = ?", tank.ID).
		Update("current_quantity", dec("995")).Error; err != nil {
		t.Fatal(err)
	}

	// No token at all.
	_, err := svc.Correct(ctx, CorrectionInput{
		TankID: tank.ID, Action: models.ActionAdjustTank, Operator: op,
	})
	if !errors.Is(err, ErrOverrideRequired) {
		t.Fatalf("err = %v, want ErrOverrideRequired", err)
	}

	token, err := svc.IssueOverride(ctx, tank.ID, models.OverrideAdjustTank, op, "meter misread during shift change")
	if err != nil {
		t.Fatalf("issue override: %v", err)
	}

	// Wrong action class for this token.
	_, err = svc.Correct(ctx, CorrectionInput{
		TankID: tank.ID, Action: models.ActionAdjustMrn, Token: token.Token, Operator: op,
	})
	if !errors.Is(err, ErrTokenTankMismatch) {
		t.Fatalf("err = %v, want ErrTokenTankMismatch", err)
	}

	record, err := svc.Correct(ctx, CorrectionInput{
		TankID: tank.ID, Action: models.ActionAdjustTank, Token: token.Token, Operator: op,
		Notes: "meter misread during shift change",
	})
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	if record.TokenID != token.ID {
		t.Error("audit record not linked to the consumed token")
	}

	var fresh models.FuelTank
	if err := svc.db.First(&fresh, "id = ?", tank.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !fresh.CurrentQuantity.Equal(dec("1000")) {
		t.Errorf("tank reading = %s, want ledger sum 1000", fresh.CurrentQuantity)
	}

	// Single use: the same token cannot authorize a second action.
	_, err = svc.Correct(ctx, CorrectionInput{
		TankID: tank.ID, Action: models.ActionAdjustTank, Token: token.Token, Operator: op,
	})
	if !errors.Is(err, ErrTokenAlreadyConsumed) {
		t.Fatalf("err = %v, want ErrTokenAlreadyConsumed", err)
	}
}

func TestCorrectionTokenExpiry(t *testing.T) {
	db := integrationDB(t)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := New(db, log)
	ctx := context.Background()
	tank := createTank(t, db, "100000")
	op := testOperator()

	token, err := svc.IssueOverride(ctx, tank.ID, models.OverrideAdjustTank, op, "expiry test")
	if err != nil {
		t.Fatal(err)
	}

	future := New(db, log, WithClock(func() time.Time {
		return time.Now().Add(OverrideTTL + time.Minute)
	}))
	_, err = future.Correct(ctx, CorrectionInput{
		TankID: tank.ID, Action: models.ActionAdjustTank, Token: token.Token, Operator: op,
	})
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestCreateBalancingMrnCorrection(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")
	op := testOperator()

	if _, err := svc.AddLot(ctx, IntakeInput{
		TankID: tank.ID, Mrn: "24DEA1B2C3D4E5F6G5", Quantity: dec("500"), Operator: op,
	}); err != nil {
		t.Fatal(err)
	}
	// Physical surplus of 25 liters.
	if err := svc.db.Model(&models.FuelTank{}).
		Where("id = ?", tank.ID).
		Update("current_quantity", dec("525")).Error; err != nil {
		t.Fatal(err)
	}

	token, err := svc.IssueOverride(ctx, tank.ID, models.OverrideCreateBalancingMrn, op, "surplus after delivery audit")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Correct(ctx, CorrectionInput{
		TankID: tank.ID, Action: models.ActionCreateBalancingMrn, Token: token.Token, Operator: op,
	}); err != nil {
		t.Fatalf("correct: %v", err)
	}

	result, err := svc.Check(ctx, tank.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusConsistent {
		t.Errorf("status after balancing = %s, want consistent (diff %s)", result.Status, result.Difference)
	}

	lots, _ := svc.ListLots(ctx, tank.ID, false)
	var balancing *models.MrnLot
	for i := range lots {
		if lots[i].SystemGenerated && IsSyntheticMrn(lots[i].Mrn) {
			balancing = &lots[i]
		}
	}
	if balancing == nil {
		t.Fatal("no synthetic balancing lot was created")
	}
	if !balancing.Remaining.Equal(dec("25")) {
		t.Errorf("balancing lot remaining = %s, want 25", balancing.Remaining)
	}
}

func TestCheckReportsDrift(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")
	op := testOperator()

	if _, err := svc.AddLot(ctx, IntakeInput{
		TankID: tank.ID, Mrn: "24DEA1B2C3D4E5F6G5", Quantity: dec("1000"), Operator: op,
	}); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Check(ctx, tank.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusConsistent {
		t.Fatalf("fresh intake status = %s, want consistent", result.Status)
	}

	if err := svc.db.Model(&models.FuelTank{}).
		Where("id = ?", tank.ID).
		Update("current_quantity", dec("700")).Error; err != nil {
		t.Fatal(err)
	}
	result, err = svc.Check(ctx, tank.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusMajor {
		t.Errorf("status = %s, want major (diff %s)", result.Status, result.Difference)
	}
	if !result.Difference.Equal(dec("-300")) {
		t.Errorf("difference = %s, want -300", result.Difference)
	}
}

func TestUntrackedIntakeGetsSyntheticMrn(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")

	lot, err := svc.AddLot(ctx, IntakeInput{
		TankID: tank.ID, Quantity: dec("200"), Operator: testOperator(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !IsSyntheticMrn(lot.Mrn) || !lot.SystemGenerated {
		t.Errorf("untracked intake lot = %q (system=%v), want synthetic", lot.Mrn, lot.SystemGenerated)
	}
}

func TestDuplicateMrnPerTankRejected(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")
	op := testOperator()

	in := IntakeInput{TankID: tank.ID, Mrn: "24DEA1B2C3D4E5F6G5", Quantity: dec("100"), Operator: op}
	if _, err := svc.AddLot(ctx, in); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddLot(ctx, in); err == nil {
		t.Error("second intake with the same MRN on one tank should fail the unique index")
	}
}

func TestAdjustMrnCorrection(t *testing.T) {
	svc := integrationService(t)
	ctx := context.Background()
	tank := createTank(t, svc.db, "100000")
	op := testOperator()

	base := time.Now().Add(-time.Hour)
	for i, mrn := range []string{"24DEA1B2C3D4E5F6G5", "25FR00000000000002"} {
		if _, err := svc.AddLot(ctx, IntakeInput{
			TankID: tank.ID, Mrn: mrn, Quantity: dec("100"),
			OccurredAt: base.Add(time.Duration(i) * time.Minute), Operator: op,
		}); err != nil {
			t.Fatal(err)
		}
	}
	// Physical shows 30 liters less than the ledger.
	if err := svc.db.Model(&models.FuelTank{}).
		Where("id = ?", tank.ID).
		Update("current_quantity", dec("170")).Error; err != nil {
		t.Fatal(err)
	}

	token, err := svc.IssueOverride(ctx, tank.ID, models.OverrideAdjustMrn, op, fmt.Sprintf("stocktake %s", time.Now().Format("2006-01-02")))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Correct(ctx, CorrectionInput{
		TankID: tank.ID, Action: models.ActionAdjustMrn, Token: token.Token, Operator: op,
	}); err != nil {
		t.Fatalf("correct: %v", err)
	}

	lots, _ := svc.ListLots(ctx, tank.ID, false)
	// Deficit lands on the most recent lot first.
	if !lots[0].Remaining.Equal(dec("100")) || !lots[1].Remaining.Equal(dec("70")) {
		t.Errorf("remaining = (%s, %s), want (100, 70)", lots[0].Remaining, lots[1].Remaining)
	}

	result, err := svc.Check(ctx, tank.ID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusConsistent {
		t.Errorf("status after adjust = %s, want consistent", result.Status)
	}
}
