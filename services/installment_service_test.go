package services

import (
	"testing"
	"time"

	"github.com/tanamvest/tanamvest_backend/models"
)

func TestTermMonths(t *testing.T) {
	cases := []struct {
		term string
		want int
	}{
		{models.TermMonthly, 1},
		{models.TermQuarterly, 3},
		{models.TermSemiannual, 6},
		{models.TermAnnual, 12},
		{"weekly", 0},
		{"", 0},
	}

	for _, tc := range cases {
		if got := TermMonths(tc.term); got != tc.want {
			t.Errorf("TermMonths(%q) = %d, want %d", tc.term, got, tc.want)
		}
	}
}

func TestPlanInstallments(t *testing.T) {
	cases := []struct {
		name       string
		total      float64
		term       string
		wantCount  int
		wantAmount float64
	}{
		{"monthly divides evenly", 2400000, models.TermMonthly, 24, 100000},
		{"quarterly", 2400000, models.TermQuarterly, 8, 300000},
		{"semiannual", 2400000, models.TermSemiannual, 4, 600000},
		{"annual", 2400000, models.TermAnnual, 2, 1200000},
		{"amount rounds up", 1000000, models.TermQuarterly, 8, 125000},
		{"uneven amount rounds up", 1000001, models.TermAnnual, 2, 500001},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			count, amount, err := PlanInstallments(tc.total, tc.term)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if count != tc.wantCount {
				t.Errorf("count = %d, want %d", count, tc.wantCount)
			}
			if amount != tc.wantAmount {
				t.Errorf("amount = %.2f, want %.2f", amount, tc.wantAmount)
			}
		})
	}
}

func TestPlanInstallmentsUnknownTerm(t *testing.T) {
	if _, _, err := PlanInstallments(1000000, "weekly"); err == nil {
		t.Fatal("expected error for unknown term")
	}
}

func TestBuildSchedule(t *testing.T) {
	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	schedule, err := BuildSchedule(2400000, models.TermQuarterly, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(schedule) != 8 {
		t.Fatalf("schedule length = %d, want 8", len(schedule))
	}

	// First installment is due immediately
	if !schedule[0].DueDate.Equal(start) {
		t.Errorf("first due date = %v, want %v", schedule[0].DueDate, start)
	}

	for i, entry := range schedule {
		if entry.InstallmentNumber != i+1 {
			t.Errorf("entry %d has installment number %d", i, entry.InstallmentNumber)
		}
		if entry.Amount != 300000 {
			t.Errorf("entry %d amount = %.2f, want 300000", i, entry.Amount)
		}
		wantDue := start.AddDate(0, i*3, 0)
		if !entry.DueDate.Equal(wantDue) {
			t.Errorf("entry %d due date = %v, want %v", i, entry.DueDate, wantDue)
		}
		if entry.IsPaid {
			t.Errorf("entry %d should start unpaid", i)
		}
	}
}

func TestBuildScheduleCoversHorizon(t *testing.T) {
	start := time.Now()
	for _, term := range []string{models.TermMonthly, models.TermQuarterly, models.TermSemiannual, models.TermAnnual} {
		schedule, err := BuildSchedule(1200000, term, start)
		if err != nil {
			t.Fatalf("term %s: %v", term, err)
		}

		months := TermMonths(term)
		covered := len(schedule) * months
		if covered < HorizonMonths {
			t.Errorf("term %s covers %d months, want at least %d", term, covered, HorizonMonths)
		}
		if covered-months >= HorizonMonths {
			t.Errorf("term %s has a redundant installment: %d installments of %d months", term, len(schedule), months)
		}
	}
}
