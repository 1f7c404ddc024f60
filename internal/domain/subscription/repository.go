package subscription

import "context"

type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	Update(ctx context.Context, plan *Plan) error
	GetBySlug(ctx context.Context, slug string) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
}
