package dto

import (
	"time"

	"github.com/spendwise/spendwise/internal/domain/tenant"
	"github.com/spendwise/spendwise/internal/shared/biztime"
)

type SettingsResponse struct {
	MaxUsers        int64    `json:"max_users"`
	MaxRecords      int64    `json:"max_records"`
	MaxStorageBytes int64    `json:"max_storage_bytes"`
	Features        []string `json:"features"`
}

type TenantResponse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Status         string           `json:"status"`
	Plan           string           `json:"plan"`
	CustomDomain   *string          `json:"custom_domain,omitempty"`
	DomainVerified bool             `json:"domain_verified"`
	TrialEndDate   *time.Time       `json:"trial_end_date,omitempty"`
	Settings       SettingsResponse `json:"settings"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func ToTenantResponse(t *tenant.Tenant) *TenantResponse {
	s := t.Settings()
	features := s.Features
	if features == nil {
		features = []string{}
	}
	return &TenantResponse{
		ID:             t.SID(),
		Name:           t.Name(),
		Slug:           t.Slug(),
		Status:         string(t.Status()),
		Plan:           t.PlanSlug(),
		CustomDomain:   t.CustomDomain(),
		DomainVerified: t.DomainVerified(),
		TrialEndDate:   t.TrialEndDate(),
		Settings: SettingsResponse{
			MaxUsers:        s.MaxUsers,
			MaxRecords:      s.MaxRecords,
			MaxStorageBytes: s.MaxStorageBytes,
			Features:        features,
		},
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}
}

type ProvisionTenantRequest struct {
	Name          string `json:"name" binding:"required,max=100"`
	Slug          string `json:"slug" binding:"omitempty,max=63"`
	Plan          string `json:"plan" binding:"omitempty,max=50"`
	TrialDays     *int   `json:"trial_days" binding:"omitempty,min=0,max=365"`
	AdminEmail    string `json:"admin_email" binding:"required,email"`
	AdminName     string `json:"admin_name" binding:"required,max=100"`
	AdminPassword string `json:"admin_password" binding:"required,min=8,max=72"`
}

type AdminResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type ProvisionTenantResponse struct {
	Tenant *TenantResponse `json:"tenant"`
	Admin  AdminResponse   `json:"admin"`
}

type ListTenantsRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=trial active suspended cancelled"`
	Plan     string `form:"plan"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type ListTenantsResponse struct {
	Tenants  []*TenantResponse `json:"tenants"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

type ExtendTrialRequest struct {
	Days int `json:"days" binding:"required,min=1,max=365"`
}

type ChangePlanRequest struct {
	Plan string `json:"plan" binding:"required,max=50"`
}

type SetCustomDomainRequest struct {
	Domain string `json:"domain" binding:"required,fqdn,max=253"`
}

type CustomDomainResponse struct {
	Domain      string `json:"domain"`
	Verified    bool   `json:"verified"`
	VerifyToken string `json:"verify_token,omitempty"`
	// TXTRecord is where the token must be published.
	TXTRecord string `json:"txt_record,omitempty"`
}

type VerifyCustomDomainRequest struct {
	Token string `json:"token" binding:"required"`
}

// DeleteTenantRequest repeats the slug to confirm an irreversible delete.
type DeleteTenantRequest struct {
	ConfirmSlug string `json:"confirm_slug" binding:"required"`
	Reason      string `json:"reason" binding:"omitempty,max=500"`
}

type CounterResponse struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Unlimited bool  `json:"unlimited"`
}

type UsageResponse struct {
	Plan               string          `json:"plan"`
	Users              CounterResponse `json:"users"`
	Records            CounterResponse `json:"records"`
	RecordsPeriod      int             `json:"records_period"`
	Storage            CounterResponse `json:"storage"`
	LastRecalculatedAt *time.Time      `json:"last_recalculated_at,omitempty"`
}

func counter(used, limit int64) CounterResponse {
	return CounterResponse{Used: used, Limit: limit, Unlimited: limit == tenant.Unlimited}
}

// ToUsageResponse reports u against t's limits as of now.
func ToUsageResponse(t *tenant.Tenant, u tenant.Usage, now time.Time) *UsageResponse {
	period := biztime.PeriodKey(now)
	s := t.Settings()
	return &UsageResponse{
		Plan:               t.PlanSlug(),
		Users:              counter(u.Current(tenant.ResourceUsers, period), s.MaxUsers),
		Records:            counter(u.Current(tenant.ResourceRecords, period), s.MaxRecords),
		RecordsPeriod:      period,
		Storage:            counter(u.Current(tenant.ResourceStorage, period), s.MaxStorageBytes),
		LastRecalculatedAt: u.LastRecalculatedAt,
	}
}

type DeletionResponse struct {
	TenantID  string    `json:"tenant_id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan,omitempty"`
	DeletedBy string    `json:"deleted_by,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	DeletedAt time.Time `json:"deleted_at"`
}

func ToDeletionResponse(d *tenant.Deletion) *DeletionResponse {
	return &DeletionResponse{
		TenantID:  d.TenantSID,
		Slug:      d.Slug,
		Name:      d.Name,
		Plan:      d.PlanSlug,
		DeletedBy: d.DeletedByName,
		Reason:    d.Reason,
		DeletedAt: d.DeletedAt,
	}
}
