package session

import (
	"context"
	"testing"
	"time"

	"routepulse/internals/modules/route"
	"routepulse/pkg/apperror"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
)

var sessionCols = []string{"id", "route_id", "session_date", "state", "first_poll_at", "last_poll_at", "poll_count", "quota_consumed", "holiday_excluded"}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	logger := zerolog.Nop()
	return mock, NewRepository(mock, &logger)
}

func TestGetOrCreateInsertsWhenAbsent(t *testing.T) {
	mock, repo := newMockRepo(t)
	defer mock.Close()

	routeID := uuid.New()
	date := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	sessID := uuid.New()

	mock.ExpectQuery(`INSERT INTO monitoring_sessions`).
		WithArgs(pgxmock.AnyArg(), routeID, date, false).
		WillReturnRows(pgxmock.NewRows(sessionCols).
			AddRow(sessID, routeID, date, "pending", nil, nil, int32(0), int32(0), false))

	sess, err := repo.GetOrCreate(context.Background(), routeID, date, false)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if sess.ID != sessID || sess.State != StatePending || sess.PollCount != 0 {
		t.Fatalf("unexpected session %+v", sess)
	}
	if sess.FirstPollAt != nil {
		t.Fatal("fresh session must have no first poll")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A losing concurrent creator sees zero returned rows from the
// conflicting insert and must recover by reading the winner's row.
func TestGetOrCreateRecoversFromInsertRace(t *testing.T) {
	mock, repo := newMockRepo(t)
	defer mock.Close()

	routeID := uuid.New()
	date := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	winnerID := uuid.New()
	firstPoll := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO monitoring_sessions`).
		WithArgs(pgxmock.AnyArg(), routeID, date, false).
		WillReturnRows(pgxmock.NewRows(sessionCols)) // conflict, nothing returned

	mock.ExpectQuery(`SELECT .+ FROM monitoring_sessions`).
		WithArgs(routeID, date).
		WillReturnRows(pgxmock.NewRows(sessionCols).
			AddRow(winnerID, routeID, date, "active", &firstPoll, &firstPoll, int32(1), int32(1), false))

	sess, err := repo.GetOrCreate(context.Background(), routeID, date, false)
	if err != nil {
		t.Fatalf("race must be recovered, got %v", err)
	}
	if sess.ID != winnerID || sess.State != StateActive {
		t.Fatalf("expected winner's row, got %+v", sess)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordPollOnCompletedSession(t *testing.T) {
	mock, repo := newMockRepo(t)
	defer mock.Close()

	sessID := uuid.New()
	now := time.Date(2026, 8, 24, 8, 30, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE monitoring_sessions`).
		WithArgs(sessID, now, int32(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.RecordPoll(context.Background(), sessID, now, 1)
	if !apperror.IsKind(err, apperror.SessionClosed) {
		t.Fatalf("expected SessionClosed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// ApplyPoll advances the session before inserting the record, and a
// closed session stops the record from ever being written.
func TestApplyPoll(t *testing.T) {
	mock, repo := newMockRepo(t)
	defer mock.Close()

	sessID := uuid.New()
	userID := uuid.New()
	now := time.Date(2026, 8, 24, 8, 30, 0, 0, time.UTC)

	cmd := RecordPollCmd{
		SessionID:   sessID,
		UserID:      userID,
		PolledAt:    now,
		DurationSec: 420,
		DistanceM:   9000,
		Provider:    "osrm",
		RawPayload:  []byte(`{}`),
		Units:       1,
	}

	mock.ExpectExec(`UPDATE monitoring_sessions`).
		WithArgs(sessID, now, int32(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO poll_records`).
		WithArgs(pgxmock.AnyArg(), sessID, userID, now, int32(420), int32(9000), "osrm", false, []byte(`{}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec, err := repo.ApplyPoll(context.Background(), cmd)
	if err != nil {
		t.Fatalf("apply poll: %v", err)
	}
	if rec.ID == uuid.Nil || rec.SessionID != sessID || rec.DurationSec != 420 {
		t.Fatalf("unexpected record %+v", rec)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyPollOnClosedSessionSkipsRecord(t *testing.T) {
	mock, repo := newMockRepo(t)
	defer mock.Close()

	sessID := uuid.New()
	now := time.Date(2026, 8, 24, 8, 30, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE monitoring_sessions`).
		WithArgs(sessID, now, int32(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := repo.ApplyPoll(context.Background(), RecordPollCmd{
		SessionID: sessID,
		PolledAt:  now,
		Units:     1,
	})
	if !apperror.IsKind(err, apperror.SessionClosed) {
		t.Fatalf("expected SessionClosed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	mock, repo := newMockRepo(t)
	defer mock.Close()

	sessID := uuid.New()

	// second close matches zero rows and is still not an error
	mock.ExpectExec(`UPDATE monitoring_sessions SET state = 'completed'`).
		WithArgs(sessID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE monitoring_sessions SET state = 'completed'`).
		WithArgs(sessID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.Close(context.Background(), sessID); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := repo.Close(context.Background(), sessID); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWindowsElapsed(t *testing.T) {
	sess := MonitoringSession{Date: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)}
	windows := []route.MonitoringWindow{
		{StartMinute: 8 * 60, EndMinute: 9 * 60, Weekdays: route.Monday, Active: true},
		{StartMinute: 17 * 60, EndMinute: 18 * 60, Weekdays: route.Monday, Active: true},
	}

	at := func(h, m int) time.Time { return time.Date(2026, 8, 24, h, m, 0, 0, time.UTC) }

	if WindowsElapsed(sess, windows, at(8, 30)) {
		t.Fatal("morning window still open")
	}
	if WindowsElapsed(sess, windows, at(12, 0)) {
		t.Fatal("evening window not reached yet")
	}
	if !WindowsElapsed(sess, windows, at(18, 0)) {
		t.Fatal("both windows ended")
	}
	// date rollover closes regardless of time of day
	if !WindowsElapsed(sess, windows, time.Date(2026, 8, 25, 0, 1, 0, 0, time.UTC)) {
		t.Fatal("rolled over date must close the session")
	}
}
