package mappers

import (
	"fmt"

	"github.com/spendwise/spendwise/internal/domain/subscription"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
)

func PlanToEntity(model *models.PlanModel) (*subscription.Plan, error) {
	if model == nil {
		return nil, nil
	}
	features, err := decodeStrings(model.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plan features: %w", err)
	}
	return subscription.ReconstructPlan(
		model.ID, model.Slug, model.Name,
		model.MaxUsers, model.MaxRecords, model.MaxStorageBytes,
		features, model.TrialDays, model.IsActive, model.Version,
		model.CreatedAt, model.UpdatedAt,
	)
}

func PlanToModel(entity *subscription.Plan) (*models.PlanModel, error) {
	features, err := encodeStrings(entity.Features())
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan features: %w", err)
	}
	return &models.PlanModel{
		ID:              entity.ID(),
		Slug:            entity.Slug(),
		Name:            entity.Name(),
		MaxUsers:        entity.MaxUsers(),
		MaxRecords:      entity.MaxRecords(),
		MaxStorageBytes: entity.MaxStorageBytes(),
		Features:        features,
		TrialDays:       entity.TrialDays(),
		IsActive:        entity.IsActive(),
		Version:         entity.Version(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}, nil
}
