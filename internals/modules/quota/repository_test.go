package quota

import (
	"context"
	"testing"
	"time"

	"routepulse/pkg/apperror"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	logger := zerolog.Nop()
	return mock, NewRepository(mock, &logger)
}

func TestTryConsumeWithinLimit(t *testing.T) {
	mock, repo := newMockRepo(t)
	defer mock.Close()

	userID := uuid.New()
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO user_quota_usage`).
		WithArgs(userID, day, int32(1), int32(10)).
		WillReturnRows(pgxmock.NewRows([]string{"used"}).AddRow(int32(7)))

	used, err := repo.TryConsume(context.Background(), userID, day, 1, 10)
	if err != nil {
		t.Fatalf("try consume: %v", err)
	}
	if used != 7 {
		t.Fatalf("used = %d, want 7", used)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// The guard lives inside the upsert: a consumer that would overshoot
// the cap gets zero returned rows, surfaced as QuotaExceeded with no
// mutation to compensate.
func TestTryConsumeAtLimit(t *testing.T) {
	mock, repo := newMockRepo(t)
	defer mock.Close()

	userID := uuid.New()
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO user_quota_usage`).
		WithArgs(userID, day, int32(1), int32(10)).
		WillReturnRows(pgxmock.NewRows([]string{"used"}))

	_, err := repo.TryConsume(context.Background(), userID, day, 1, 10)
	if !apperror.IsKind(err, apperror.QuotaExceeded) {
		t.Fatalf("expected QuotaExceeded, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// The insert branch refuses an oversized first reservation on its own,
// without leaning on caller-side validation.
func TestTryConsumeFirstReservationOverLimit(t *testing.T) {
	mock, repo := newMockRepo(t)
	defer mock.Close()

	userID := uuid.New()
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO user_quota_usage`).
		WithArgs(userID, day, int32(11), int32(10)).
		WillReturnRows(pgxmock.NewRows([]string{"used"}))

	_, err := repo.TryConsume(context.Background(), userID, day, 11, 10)
	if !apperror.IsKind(err, apperror.QuotaExceeded) {
		t.Fatalf("expected QuotaExceeded, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetUsageAbsentRowMeansZero(t *testing.T) {
	mock, repo := newMockRepo(t)
	defer mock.Close()

	userID := uuid.New()
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT used FROM user_quota_usage`).
		WithArgs(userID, day).
		WillReturnRows(pgxmock.NewRows([]string{"used"}))

	used, err := repo.GetUsage(context.Background(), userID, day)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if used != 0 {
		t.Fatalf("used = %d, want 0", used)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestServiceRejectsBadUnitCounts(t *testing.T) {
	mock, repo := newMockRepo(t)
	defer mock.Close()

	svc := NewService(repo, 10)

	if _, err := svc.TryConsume(context.Background(), mock, uuid.New(), time.Now(), 0); !apperror.IsKind(err, apperror.InvalidInput) {
		t.Fatalf("expected InvalidInput for 0 units, got %v", err)
	}
	if _, err := svc.TryConsume(context.Background(), mock, uuid.New(), time.Now(), 11); !apperror.IsKind(err, apperror.InvalidInput) {
		t.Fatalf("expected InvalidInput for over-limit units, got %v", err)
	}
}

func TestUTCDayNormalization(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Kolkata")
	// 01:30 IST on the 25th is 20:00 UTC on the 24th
	local := time.Date(2026, 8, 25, 1, 30, 0, 0, loc)
	got := UTCDay(local)
	if want := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}
