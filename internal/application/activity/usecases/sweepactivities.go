package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/shared/biztime"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

// SweepActivitiesUseCase enforces the retention horizon. Critical records
// are kept indefinitely.
type SweepActivitiesUseCase struct {
	repo    activity.Repository
	horizon time.Duration
	now     func() time.Time
	logger  logger.Interface
}

func NewSweepActivitiesUseCase(
	repo activity.Repository,
	horizon time.Duration,
	logger logger.Interface,
) *SweepActivitiesUseCase {
	return &SweepActivitiesUseCase{
		repo:    repo,
		horizon: horizon,
		now:     biztime.NowUTC,
		logger:  logger,
	}
}

func (uc *SweepActivitiesUseCase) Execute(ctx context.Context) (int64, error) {
	cutoff := uc.now().Add(-uc.horizon)

	deleted, err := uc.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		uc.logger.Errorw("failed to sweep activities", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to sweep activities: %w", err)
	}

	uc.logger.Infow("activity retention sweep completed", "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}
