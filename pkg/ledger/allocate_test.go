package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"aeroserv.in/fuelops/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testLot(mrn string, original, remaining string) models.MrnLot {
	return models.MrnLot{
		ID:        uuid.New(),
		Mrn:       mrn,
		Original:  dec(original),
		Remaining: dec(remaining),
	}
}

func TestPlanDraws(t *testing.T) {
	tests := []struct {
		name          string
		lots          []models.MrnLot
		requested     string
		wantDraws     []struct{ mrn, qty string }
		wantUncovered string
	}{
		{
			name: "spans two lots",
			lots: []models.MrnLot{
				testLot("MRN-A", "100", "100"),
				testLot("MRN-B", "50", "50"),
			},
			requested: "120",
			wantDraws: []struct{ mrn, qty string }{
				{"MRN-A", "100"},
				{"MRN-B", "20"},
			},
			wantUncovered: "0",
		},
		{
			name: "single lot covers",
			lots: []models.MrnLot{
				testLot("MRN-A", "100", "100"),
				testLot("MRN-B", "50", "50"),
			},
			requested: "60",
			wantDraws: []struct{ mrn, qty string }{
				{"MRN-A", "60"},
			},
			wantUncovered: "0",
		},
		{
			name: "exact drain of first lot",
			lots: []models.MrnLot{
				testLot("MRN-A", "100", "100"),
				testLot("MRN-B", "50", "50"),
			},
			requested: "100",
			wantDraws: []struct{ mrn, qty string }{
				{"MRN-A", "100"},
			},
			wantUncovered: "0",
		},
		{
			name: "skips exhausted lots",
			lots: []models.MrnLot{
				testLot("MRN-A", "100", "0"),
				testLot("MRN-B", "50", "50"),
			},
			requested: "30",
			wantDraws: []struct{ mrn, qty string }{
				{"MRN-B", "30"},
			},
			wantUncovered: "0",
		},
		{
			name: "uncovered remainder",
			lots: []models.MrnLot{
				testLot("MRN-A", "100", "40"),
				testLot("MRN-B", "50", "10"),
			},
			requested: "75",
			wantDraws: []struct{ mrn, qty string }{
				{"MRN-A", "40"},
				{"MRN-B", "10"},
			},
			wantUncovered: "25",
		},
		{
			name:          "no lots at all",
			lots:          nil,
			requested:     "10",
			wantDraws:     nil,
			wantUncovered: "10",
		},
		{
			name: "fractional liters",
			lots: []models.MrnLot{
				testLot("MRN-A", "10.5", "10.5"),
				testLot("MRN-B", "5", "5"),
			},
			requested: "12.75",
			wantDraws: []struct{ mrn, qty string }{
				{"MRN-A", "10.5"},
				{"MRN-B", "2.25"},
			},
			wantUncovered: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draws, uncovered := planDraws(tt.lots, dec(tt.requested))
			if len(draws) != len(tt.wantDraws) {
				t.Fatalf("got %d draws, want %d", len(draws), len(tt.wantDraws))
			}
			for i, want := range tt.wantDraws {
				if draws[i].Mrn != want.mrn {
					t.Errorf("draw %d mrn = %q, want %q", i, draws[i].Mrn, want.mrn)
				}
				if !draws[i].Quantity.Equal(dec(want.qty)) {
					t.Errorf("draw %d quantity = %s, want %s", i, draws[i].Quantity, want.qty)
				}
			}
			if !uncovered.Equal(dec(tt.wantUncovered)) {
				t.Errorf("uncovered = %s, want %s", uncovered, tt.wantUncovered)
			}
		})
	}
}

func TestPlanDrawsDeterministic(t *testing.T) {
	lots := []models.MrnLot{
		testLot("MRN-A", "100", "30"),
		testLot("MRN-B", "100", "30"),
		testLot("MRN-C", "100", "30"),
	}
	first, _ := planDraws(lots, dec("70"))
	second, _ := planDraws(lots, dec("70"))
	if len(first) != len(second) {
		t.Fatalf("plans differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Mrn != second[i].Mrn || !first[i].Quantity.Equal(second[i].Quantity) {
			t.Errorf("plan diverges at %d: %v vs %v", i, first[i], second[i])
		}
	}
	// Input must be untouched.
	for i, lot := range lots {
		if !lot.Remaining.Equal(dec("30")) {
			t.Errorf("lot %d remaining mutated to %s", i, lot.Remaining)
		}
	}
}

func TestAllocateRejectsNonOutgoingKinds(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := New(nil, log)

	for _, kind := range []models.MovementKind{models.MovementIntake, models.MovementTransferIn, "inventory", ""} {
		_, err := svc.Allocate(context.Background(), AllocateInput{
			TankID:   uuid.New(),
			Quantity: dec("10"),
			Kind:     kind,
		})
		if !errors.Is(err, ErrUnsupportedKind) {
			t.Errorf("kind %q: err = %v, want ErrUnsupportedKind", kind, err)
		}
	}
}

func TestPlanDrawsTotalMatchesRequest(t *testing.T) {
	lots := []models.MrnLot{
		testLot("MRN-A", "50", "12.345"),
		testLot("MRN-B", "50", "0.001"),
		testLot("MRN-C", "50", "37.654"),
	}
	requested := dec("50")
	draws, uncovered := planDraws(lots, requested)
	total := decimal.Zero
	for _, d := range draws {
		total = total.Add(d.Quantity)
	}
	if !total.Add(uncovered).Equal(requested) {
		t.Errorf("drawn %s + uncovered %s != requested %s", total, uncovered, requested)
	}
	if !uncovered.IsZero() {
		t.Errorf("uncovered = %s, want 0", uncovered)
	}
}
