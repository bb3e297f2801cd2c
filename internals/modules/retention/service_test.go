package retention

import (
	"context"
	"testing"
	"time"

	"routepulse/pkg/clock"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
)

func newMockService(t *testing.T, batchSize int) (pgxmock.PgxPoolIface, *Service) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	logger := zerolog.Nop()
	repo := NewRepository(mock, &logger)
	fixed := clock.Fixed(time.Date(2026, 8, 24, 3, 0, 0, 0, time.UTC))
	return mock, NewService(repo, fixed, 90*24*time.Hour, batchSize, &logger)
}

func TestPruneLoopsUntilExhausted(t *testing.T) {
	mock, svc := newMockService(t, 2)
	defer mock.Close()

	cutoff := time.Date(2026, 5, 26, 3, 0, 0, 0, time.UTC)

	// two full batches, then a short one ends the loop
	mock.ExpectExec(`UPDATE poll_records`).
		WithArgs(cutoff, 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(`UPDATE poll_records`).
		WithArgs(cutoff, 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(`UPDATE poll_records`).
		WithArgs(cutoff, 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	total, err := svc.PruneOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// The deleted = FALSE guard makes a rerun with the same cutoff find
// nothing: everything aged was already soft deleted by the first pass.
func TestPruneIsIdempotent(t *testing.T) {
	mock, svc := newMockService(t, 100)
	defer mock.Close()

	cutoff := time.Date(2026, 5, 26, 3, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE poll_records`).
		WithArgs(cutoff, 100).
		WillReturnResult(pgxmock.NewResult("UPDATE", 7))
	mock.ExpectExec(`UPDATE poll_records`).
		WithArgs(cutoff, 100).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	first, err := svc.PruneOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("first prune: %v", err)
	}
	second, err := svc.PruneOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("second prune: %v", err)
	}
	if first != 7 || second != 0 {
		t.Fatalf("first = %d second = %d, want 7 and 0", first, second)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPruneAppliesConfiguredAge(t *testing.T) {
	mock, svc := newMockService(t, 100)
	defer mock.Close()

	// fixed clock 2026-08-24 03:00 minus 90 days
	cutoff := time.Date(2026, 5, 26, 3, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE poll_records`).
		WithArgs(cutoff, 100).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if _, err := svc.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
