package quota

import (
	"context"
	"routepulse/pkg/apperror"
	"routepulse/pkg/db"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo       *Repository
	dailyLimit int32
}

func NewService(repo *Repository, dailyLimit int32) *Service {
	return &Service{
		repo:       repo,
		dailyLimit: dailyLimit,
	}
}

func (s *Service) DailyLimit() int32 {
	return s.dailyLimit
}

// TryConsume atomically reserves units for the user-day on the given
// executor (pool or open transaction). Returns QuotaExceeded without
// side effect when the reservation would overshoot the cap.
func (s *Service) TryConsume(ctx context.Context, q db.Querier, userID uuid.UUID, day time.Time, units int32) (int32, error) {
	const op string = "service.quota.try_consume"

	if units < 1 || units > s.dailyLimit {
		return 0, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: "invalid unit count",
		}
	}
	return s.repo.WithTx(q).TryConsume(ctx, userID, UTCDay(day), units, s.dailyLimit)
}

// HasHeadroom is the cheap pre-check run before a provider call; the
// conditional upsert inside the poll transaction stays the authority.
func (s *Service) HasHeadroom(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	used, err := s.repo.GetUsage(ctx, userID, UTCDay(now))
	if err != nil {
		return false, err
	}
	return used < s.dailyLimit, nil
}

func (s *Service) GetStatus(ctx context.Context, userID uuid.UUID, now time.Time) (Status, error) {
	day := UTCDay(now)
	used, err := s.repo.GetUsage(ctx, userID, day)
	if err != nil {
		return Status{}, err
	}
	return Status{
		UsageDate: day,
		Used:      used,
		Limit:     s.dailyLimit,
	}, nil
}
