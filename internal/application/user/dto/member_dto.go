package dto

import (
	"time"

	"github.com/spendwise/spendwise/internal/domain/user"
)

type MemberResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToMemberResponse renders u; roleSlugs maps role IDs to slugs.
func ToMemberResponse(u *user.User, roleSlugs map[uint]string) *MemberResponse {
	resp := &MemberResponse{
		ID:          u.SID(),
		Email:       u.Email(),
		Name:        u.Name(),
		Status:      string(u.Status()),
		LastLoginAt: u.LastLoginAt(),
		CreatedAt:   u.CreatedAt(),
	}
	if rid := u.RoleID(); rid != nil {
		resp.Role = roleSlugs[*rid]
	}
	return resp
}

type CreateMemberRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      *MemberResponse `json:"user"`
	TenantID  string          `json:"tenant_id,omitempty"`
}
