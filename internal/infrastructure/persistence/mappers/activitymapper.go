package mappers

import (
	"encoding/json"
	"fmt"

	"github.com/spendwise/spendwise/internal/domain/activity"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
)

type ActivityMapper interface {
	ToEntity(model *models.ActivityModel) (*activity.Activity, error)
	ToModel(entity *activity.Activity) (*models.ActivityModel, error)
	ToEntities(models []*models.ActivityModel) ([]*activity.Activity, error)
}

type ActivityMapperImpl struct{}

func NewActivityMapper() ActivityMapper {
	return &ActivityMapperImpl{}
}

func (m *ActivityMapperImpl) ToEntity(model *models.ActivityModel) (*activity.Activity, error) {
	if model == nil {
		return nil, nil
	}
	kind, ok := activity.ParseKind(model.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown activity kind %q", model.Kind)
	}
	var metadata activity.Metadata
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to decode activity metadata: %w", err)
		}
	}
	return activity.ReconstructActivity(
		model.ID,
		model.SID,
		model.TenantID,
		kind,
		model.Title,
		model.Description,
		activity.EntityRef{Type: model.EntityType, ID: model.EntityID, Name: model.EntityName},
		model.PerformedBy,
		model.PerformedByName,
		metadata,
		model.IsRead,
		activity.Priority(model.Priority),
		activity.Visibility(model.Visibility),
		model.IdempotencyKey,
		model.CreatedAt,
	)
}

func (m *ActivityMapperImpl) ToModel(entity *activity.Activity) (*models.ActivityModel, error) {
	if entity == nil {
		return nil, nil
	}
	var metadata []byte
	if md := entity.Metadata(); !md.IsEmpty() {
		raw, err := json.Marshal(md)
		if err != nil {
			return nil, fmt.Errorf("failed to encode activity metadata: %w", err)
		}
		metadata = raw
	}
	e := entity.Entity()
	return &models.ActivityModel{
		ID:              entity.ID(),
		SID:             entity.SID(),
		TenantID:        entity.TenantID(),
		Kind:            entity.Kind().Code(),
		Category:        string(entity.Category()),
		Title:           entity.Title(),
		Description:     entity.Description(),
		EntityType:      e.Type,
		EntityID:        e.ID,
		EntityName:      e.Name,
		PerformedBy:     entity.PerformedBy(),
		PerformedByName: entity.PerformedByName(),
		Metadata:        metadata,
		IsRead:          entity.IsRead(),
		Priority:        string(entity.Priority()),
		Visibility:      string(entity.Visibility()),
		IdempotencyKey:  entity.IdempotencyKey(),
		CreatedAt:       entity.CreatedAt(),
	}, nil
}

func (m *ActivityMapperImpl) ToEntities(ms []*models.ActivityModel) ([]*activity.Activity, error) {
	out := make([]*activity.Activity, 0, len(ms))
	for _, model := range ms {
		a, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
