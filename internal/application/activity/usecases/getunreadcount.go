package usecases

import (
	"context"
	"fmt"

	"github.com/spendwise/spendwise/internal/application/activity/dto"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type GetUnreadCountUseCase struct {
	repo   activity.Repository
	logger logger.Interface
}

func NewGetUnreadCountUseCase(
	repo activity.Repository,
	logger logger.Interface,
) *GetUnreadCountUseCase {
	return &GetUnreadCountUseCase{
		repo:   repo,
		logger: logger,
	}
}

// Execute counts unread records visible to viewer, excluding the viewer's own actions.
func (uc *GetUnreadCountUseCase) Execute(ctx context.Context, tenantID uint, viewer activity.Viewer) (*dto.UnreadCountResponse, error) {
	count, err := uc.repo.CountUnread(ctx, tenantID, viewer.VisibleScopes(), viewer.UserID)
	if err != nil {
		uc.logger.Errorw("failed to get unread count", "tenant_id", tenantID, "user_id", viewer.UserID, "error", err)
		return nil, fmt.Errorf("failed to get unread count: %w", err)
	}

	return &dto.UnreadCountResponse{
		Count: count,
	}, nil
}
