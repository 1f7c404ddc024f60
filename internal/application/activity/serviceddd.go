package activity

import (
	"context"
	"time"

	"github.com/spendwise/spendwise/internal/application/activity/dto"
	"github.com/spendwise/spendwise/internal/application/activity/usecases"
	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/shared/logger"
)

type ServiceDDD struct {
	logger logger.Interface

	listRecent     *usecases.ListRecentActivitiesUseCase
	getUnreadCount *usecases.GetUnreadCountUseCase
	markAsRead     *usecases.MarkAsReadUseCase
	sweep          *usecases.SweepActivitiesUseCase
}

func NewServiceDDD(
	repo activity.Repository,
	markdownService dto.MarkdownService,
	retention time.Duration,
	logger logger.Interface,
) *ServiceDDD {
	return &ServiceDDD{
		logger: logger,

		listRecent:     usecases.NewListRecentActivitiesUseCase(repo, markdownService, logger),
		getUnreadCount: usecases.NewGetUnreadCountUseCase(repo, logger),
		markAsRead:     usecases.NewMarkAsReadUseCase(repo, logger),
		sweep:          usecases.NewSweepActivitiesUseCase(repo, retention, logger),
	}
}

func (s *ServiceDDD) ListRecent(ctx context.Context, tenantID uint, viewer activity.Viewer, limit int) ([]*dto.ActivityResponse, error) {
	return s.listRecent.Execute(ctx, tenantID, viewer, limit)
}

func (s *ServiceDDD) UnreadCount(ctx context.Context, tenantID uint, viewer activity.Viewer) (*dto.UnreadCountResponse, error) {
	return s.getUnreadCount.Execute(ctx, tenantID, viewer)
}

func (s *ServiceDDD) MarkAsRead(ctx context.Context, tenantID uint, viewer activity.Viewer, req dto.MarkAsReadRequest) (*dto.MarkAsReadResponse, error) {
	return s.markAsRead.Execute(ctx, tenantID, viewer, req)
}

// Sweep deletes non-critical records older than the retention horizon.
func (s *ServiceDDD) Sweep(ctx context.Context) (int64, error) {
	return s.sweep.Execute(ctx)
}
