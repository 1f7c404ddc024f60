package dto

import (
	"time"

	"github.com/spendwise/spendwise/internal/domain/activity"
)

type MarkdownService interface {
	ToHTMLSanitized(markdown string) (string, error)
}

type ActivityResponse struct {
	ID              string             `json:"id"`
	Type            string             `json:"type"`
	Category        string             `json:"category"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	DescriptionHTML string             `json:"description_html"`
	Icon            string             `json:"icon"`
	EntityType      string             `json:"entity_type"`
	EntityID        string             `json:"entity_id"`
	EntityName      string             `json:"entity_name,omitempty"`
	PerformedBy     string             `json:"performed_by,omitempty"`
	Priority        string             `json:"priority"`
	Visibility      string             `json:"visibility"`
	IsRead          bool               `json:"is_read"`
	Metadata        *activity.Metadata `json:"metadata,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

type ListActivitiesRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAsReadRequest marks the listed records, or every visible record when IDs is empty.
type MarkAsReadRequest struct {
	IDs []string `json:"ids" binding:"omitempty,max=100,dive,required"`
}

type MarkAsReadResponse struct {
	Updated int64 `json:"updated"`
}

// ToActivityResponse renders a. A rendering failure leaves DescriptionHTML empty.
func ToActivityResponse(a *activity.Activity, md MarkdownService) *ActivityResponse {
	resp := &ActivityResponse{
		ID:          a.SID(),
		Type:        a.Kind().Code(),
		Category:    string(a.Category()),
		Title:       a.Title(),
		Description: a.Description(),
		Icon:        a.Kind().Icon(),
		EntityType:  a.Entity().Type,
		EntityID:    a.Entity().ID,
		EntityName:  a.Entity().Name,
		PerformedBy: a.PerformedByName(),
		Priority:    string(a.Priority()),
		Visibility:  string(a.Visibility()),
		IsRead:      a.IsRead(),
		CreatedAt:   a.CreatedAt(),
	}
	if m := a.Metadata(); !m.IsEmpty() {
		resp.Metadata = &m
	}
	if md != nil {
		if html, err := md.ToHTMLSanitized(a.Description()); err == nil {
			resp.DescriptionHTML = html
		}
	}
	return resp
}

func ToActivityResponses(items []*activity.Activity, md MarkdownService) []*ActivityResponse {
	out := make([]*ActivityResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToActivityResponse(a, md))
	}
	return out
}
