package handler

import (
	"time"

	"github.com/msomdec/member-login/internal/domain"
)

// MemberDTO is the JSON representation of a member. It never carries the
// password hash.
type MemberDTO struct {
	ID        int64  `json:"id"`
	LoginID   string `json:"loginId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toMemberDTO(m *domain.Member) MemberDTO {
	return MemberDTO{
		ID:        m.ID,
		LoginID:   m.LoginID,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
		UpdatedAt: m.UpdatedAt.Format(time.RFC3339),
	}
}
