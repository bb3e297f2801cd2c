package tripletest

import (
	"context"
	"testing"
	"time"

	"routepulse/internals/modules/provider"
	"routepulse/pkg/clock"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
)

func shotsOf(durations []int32, failed map[int]bool) []Shot {
	shots := make([]Shot, 0, len(durations))
	for i, d := range durations {
		s := Shot{ShotIndex: i, Success: !failed[i]}
		if s.Success {
			dur := d
			dist := int32(5000)
			s.DurationSec = &dur
			s.DistanceM = &dist
		}
		shots = append(shots, s)
	}
	return shots
}

func TestFinalizePicksMinimumDuration(t *testing.T) {
	ideal, avgDur, avgDist := Finalize(shotsOf([]int32{210, 190, 230}, nil))

	if ideal == nil || *ideal != 1 {
		t.Fatalf("ideal = %v, want 1", ideal)
	}
	if avgDur == nil || *avgDur != 210.0 {
		t.Fatalf("avg duration = %v, want 210.0", avgDur)
	}
	if avgDist == nil || *avgDist != 5000.0 {
		t.Fatalf("avg distance = %v, want 5000.0", avgDist)
	}
}

// When the fastest shot fails, the ideal is recomputed from the
// remaining successes.
func TestFinalizeSkipsFailedShots(t *testing.T) {
	ideal, avgDur, _ := Finalize(shotsOf([]int32{210, 190, 230}, map[int]bool{1: true}))

	if ideal == nil || *ideal != 0 {
		t.Fatalf("ideal = %v, want 0", ideal)
	}
	if avgDur == nil || *avgDur != 220.0 {
		t.Fatalf("avg duration = %v, want 220.0", avgDur)
	}
}

func TestFinalizeTieBreaksLowestIndex(t *testing.T) {
	ideal, _, _ := Finalize(shotsOf([]int32{190, 190, 230}, nil))
	if ideal == nil || *ideal != 0 {
		t.Fatalf("ideal = %v, want 0", ideal)
	}
}

func TestFinalizeAllFailed(t *testing.T) {
	ideal, avgDur, avgDist := Finalize(shotsOf([]int32{210, 190, 230}, map[int]bool{0: true, 1: true, 2: true}))
	if ideal != nil || avgDur != nil || avgDist != nil {
		t.Fatal("zero successes must leave every aggregate nil")
	}
}

type stubFetcher struct {
	name string
	res  provider.Result
	err  error
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Fetch(ctx context.Context, origin, destination string) (provider.Result, error) {
	return f.res, f.err
}

func newMockCoordinator(t *testing.T, fetcher provider.Fetcher) (pgxmock.PgxPoolIface, *Coordinator) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	mock.MatchExpectationsInOrder(false)

	logger := zerolog.Nop()
	repo := NewRepository(mock, &logger)
	registry := provider.NewRegistry(fetcher)
	fixed := clock.Fixed(time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC))

	c := NewCoordinator(repo, registry, nil, fixed, time.Second, &logger)
	c.waitUntil = func(ctx context.Context, at time.Time) error { return nil }
	c.spawn = func(fn func()) { fn() } // run inline so expectations settle before assertions
	return mock, c
}

func int32Ptr(v int32) *int32   { return &v }
func intPtr(v int) *int         { return &v }
func f64Ptr(v float64) *float64 { return &v }

func TestStartRecordsEveryShotIndependently(t *testing.T) {
	fetcher := &stubFetcher{name: "osrm", res: provider.Result{DurationSec: 300, DistanceM: 8000}}
	mock, c := newMockCoordinator(t, fetcher)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO triple_test_sessions`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "A", "B", "osrm", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	for i := 0; i < 3; i++ {
		mock.ExpectExec(`INSERT INTO triple_test_shots`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`UPDATE triple_test_shots`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), true, int32Ptr(300), int32Ptr(8000), "").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	}
	mock.ExpectExec(`UPDATE triple_test_sessions`).
		WithArgs(pgxmock.AnyArg(), intPtr(0), f64Ptr(300.0), f64Ptr(8000.0)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	sess, err := c.Start(context.Background(), RunCmd{
		UserID:      uuid.New(),
		Origin:      "A",
		Destination: "B",
		Provider:    "osrm",
		ScheduledAt: time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC),
		OffsetsSec:  []int{0, 60, 120},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if len(sess.Shots) != 3 {
		t.Fatalf("shots = %d, want 3", len(sess.Shots))
	}
	for _, s := range sess.Shots {
		if s.Success || s.FiredAt != nil {
			t.Fatalf("returned shot %d must still be pending, %+v", s.ShotIndex, s)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A failing provider marks the shots, never the session.
func TestStartSurvivesProviderFailure(t *testing.T) {
	fetcher := &stubFetcher{name: "osrm", err: &provider.Failure{Code: provider.CodeTimeout}}
	mock, c := newMockCoordinator(t, fetcher)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO triple_test_sessions`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "A", "B", "osrm", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO triple_test_shots`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE triple_test_shots`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), false, (*int32)(nil), (*int32)(nil), provider.CodeTimeout).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE triple_test_sessions`).
		WithArgs(pgxmock.AnyArg(), (*int)(nil), (*float64)(nil), (*float64)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	_, err := c.Start(context.Background(), RunCmd{
		UserID:      uuid.New(),
		Origin:      "A",
		Destination: "B",
		Provider:    "osrm",
		ScheduledAt: time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC),
		OffsetsSec:  []int{0},
	})
	if err != nil {
		t.Fatalf("start must not fail on shot failure: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Shots at +60s and +120s outlive any request deadline, so the run must
// be cut loose from the request context: a dead caller context must not
// abort a waiting shot.
func TestStartOutlivesRequestCancellation(t *testing.T) {
	fetcher := &stubFetcher{name: "osrm", res: provider.Result{DurationSec: 300, DistanceM: 8000}}
	mock, c := newMockCoordinator(t, fetcher)
	defer mock.Close()

	// surfaces any cancellation the run context still carries
	c.waitUntil = func(ctx context.Context, at time.Time) error { return ctx.Err() }

	// hold the detached run until the request context has died
	var pending func()
	c.spawn = func(fn func()) { pending = fn }

	mock.ExpectExec(`INSERT INTO triple_test_sessions`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "A", "B", "osrm", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO triple_test_shots`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE triple_test_shots`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), true, int32Ptr(300), int32Ptr(8000), "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE triple_test_sessions`).
		WithArgs(pgxmock.AnyArg(), intPtr(0), f64Ptr(300.0), f64Ptr(8000.0)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	reqCtx, cancel := context.WithCancel(context.Background())

	_, err := c.Start(reqCtx, RunCmd{
		UserID:      uuid.New(),
		Origin:      "A",
		Destination: "B",
		Provider:    "osrm",
		ScheduledAt: time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC),
		OffsetsSec:  []int{60},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	cancel() // request over, the waiting shot must not notice
	pending()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
