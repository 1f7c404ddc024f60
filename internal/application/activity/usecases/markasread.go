package usecases

import (
	"context"
	"fmt"

	"github.com/spendwise/spendwise/internal/application/activity/dto"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type MarkAsReadUseCase struct {
	repo   activity.Repository
	logger logger.Interface
}

func NewMarkAsReadUseCase(
	repo activity.Repository,
	logger logger.Interface,
) *MarkAsReadUseCase {
	return &MarkAsReadUseCase{
		repo:   repo,
		logger: logger,
	}
}

// Execute marks the requested records read. Records outside the viewer's
// visibility are left untouched.
func (uc *MarkAsReadUseCase) Execute(ctx context.Context, tenantID uint, viewer activity.Viewer, req dto.MarkAsReadRequest) (*dto.MarkAsReadResponse, error) {
	updated, err := uc.repo.MarkAsRead(ctx, tenantID, viewer.VisibleScopes(), req.IDs)
	if err != nil {
		uc.logger.Errorw("failed to mark activities as read", "tenant_id", tenantID, "user_id", viewer.UserID, "error", err)
		return nil, fmt.Errorf("failed to mark activities as read: %w", err)
	}

	uc.logger.Infow("activities marked as read", "tenant_id", tenantID, "user_id", viewer.UserID, "count", updated)
	return &dto.MarkAsReadResponse{Updated: updated}, nil
}
