package usecases

import (
	"context"
	"fmt"

	"github.com/spendwise/spendwise/internal/application/activity/dto"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/shared/constants"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type ListRecentActivitiesUseCase struct {
	repo            activity.Repository
	markdownService dto.MarkdownService
	logger          logger.Interface
}

func NewListRecentActivitiesUseCase(
	repo activity.Repository,
	markdownService dto.MarkdownService,
	logger logger.Interface,
) *ListRecentActivitiesUseCase {
	return &ListRecentActivitiesUseCase{
		repo:            repo,
		markdownService: markdownService,
		logger:          logger,
	}
}

// ClampLimit bounds a requested page size to [1, MaxActivityLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return constants.DefaultActivityLimit
	case limit > constants.MaxActivityLimit:
		return constants.MaxActivityLimit
	}
	return limit
}

// Execute lists the newest records of tenantID that viewer may see.
func (uc *ListRecentActivitiesUseCase) Execute(ctx context.Context, tenantID uint, viewer activity.Viewer, limit int) ([]*dto.ActivityResponse, error) {
	items, err := uc.repo.ListRecent(ctx, tenantID, viewer.VisibleScopes(), ClampLimit(limit))
	if err != nil {
		uc.logger.Errorw("failed to list activities", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return dto.ToActivityResponses(items, uc.markdownService), nil
}
