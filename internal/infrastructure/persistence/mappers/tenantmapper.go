package mappers

import (
	"encoding/json"
	"fmt"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/infrastructure/persistence/models"
)

type TenantMapper interface {
	ToEntity(model *models.TenantModel, usage *models.TenantUsageModel) (*tenant.Tenant, error)
	ToModel(entity *tenant.Tenant) (*models.TenantModel, error)
}

type TenantMapperImpl struct{}

func NewTenantMapper() TenantMapper {
	return &TenantMapperImpl{}
}

func encodeStrings(v []string) ([]byte, error) {
	if v == nil {
		v = []string{}
	}
	return json.Marshal(v)
}

func decodeStrings(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeFeatures renders a feature set as the JSON column value.
func EncodeFeatures(features []string) ([]byte, error) {
	raw, err := encodeStrings(features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tenant features: %w", err)
	}
	return raw, nil
}

// UsageToEntity converts a counters row; a nil row is a zero snapshot.
func UsageToEntity(m *models.TenantUsageModel) tenant.Usage {
	if m == nil {
		return tenant.Usage{}
	}
	return tenant.Usage{
		Users:              m.Users,
		Records:            m.Records,
		RecordsPeriod:      m.RecordsPeriod,
		StorageBytes:       m.StorageBytes,
		LastRecalculatedAt: m.LastRecalculatedAt,
	}
}

func (m *TenantMapperImpl) ToEntity(model *models.TenantModel, usage *models.TenantUsageModel) (*tenant.Tenant, error) {
	if model == nil {
		return nil, nil
	}
	features, err := decodeStrings(model.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tenant features: %w", err)
	}

	entity, err := tenant.ReconstructTenant(
		model.ID,
		model.SID,
		model.Name,
		model.Slug,
		model.CustomDomain,
		model.DomainVerified,
		model.DomainVerifyToken,
		tenant.Status(model.Status),
		model.PlanSlug,
		tenant.NewSettings(model.MaxUsers, model.MaxRecords, model.MaxStorageBytes, features),
		UsageToEntity(usage),
		model.TrialEndDate,
		model.IsActive,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct tenant entity: %w", err)
	}
	return entity, nil
}

func (m *TenantMapperImpl) ToModel(entity *tenant.Tenant) (*models.TenantModel, error) {
	if entity == nil {
		return nil, nil
	}
	s := entity.Settings()
	features, err := encodeStrings(s.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tenant features: %w", err)
	}
	return &models.TenantModel{
		ID:                entity.ID(),
		SID:               entity.SID(),
		Name:              entity.Name(),
		Slug:              entity.Slug(),
		CustomDomain:      entity.CustomDomain(),
		DomainVerified:    entity.DomainVerified(),
		DomainVerifyToken: entity.DomainVerifyToken(),
		Status:            string(entity.Status()),
		PlanSlug:          entity.PlanSlug(),
		MaxUsers:          s.MaxUsers,
		MaxRecords:        s.MaxRecords,
		MaxStorageBytes:   s.MaxStorageBytes,
		Features:          features,
		TrialEndDate:      entity.TrialEndDate(),
		IsActive:          entity.IsActive(),
		Version:           entity.Version(),
		CreatedAt:         entity.CreatedAt(),
		UpdatedAt:         entity.UpdatedAt(),
	}, nil
}

func DeletionToModel(d *tenant.Deletion) *models.TenantDeletionModel {
	return &models.TenantDeletionModel{
		TenantSID:     d.TenantSID,
		Slug:          d.Slug,
		Name:          d.Name,
		PlanSlug:      d.PlanSlug,
		DeletedBy:     d.DeletedBy,
		DeletedByName: d.DeletedByName,
		Reason:        d.Reason,
		DeletedAt:     d.DeletedAt,
	}
}

func DeletionToEntity(m *models.TenantDeletionModel) *tenant.Deletion {
	return &tenant.Deletion{
		TenantSID:     m.TenantSID,
		Slug:          m.Slug,
		Name:          m.Name,
		PlanSlug:      m.PlanSlug,
		DeletedBy:     m.DeletedBy,
		DeletedByName: m.DeletedByName,
		Reason:        m.Reason,
		DeletedAt:     m.DeletedAt,
	}
}
