package dto

import (
	"time"

	"github.com/yigit/societyhub/internal/app/models"
)

// CreateSocietyRequest represents a new society application
type CreateSocietyRequest struct {
	Name            string                `json:"name" binding:"required,min=3,max=120"`
	Description     string                `json:"description" binding:"required"`
	Type            models.SocietyType    `json:"type" binding:"required,oneof=academic sports cultural arts social other"`
	Visibility      models.Visibility     `json:"visibility" binding:"omitempty,oneof=public private"`
	JoinQuiz        []models.QuizQuestion `json:"joinQuiz" binding:"omitempty,dive"`
	QuizPassPercent int                   `json:"quizPassPercent" binding:"omitempty,min=0,max=100"`
	MembershipFee   int64                 `json:"membershipFee" binding:"omitempty,min=0"`
}

// UpdateSocietyRequest represents editable society fields; nil fields are left unchanged
type UpdateSocietyRequest struct {
	Description     *string               `json:"description"`
	Type            *models.SocietyType   `json:"type" binding:"omitempty,oneof=academic sports cultural arts social other"`
	Visibility      *models.Visibility    `json:"visibility" binding:"omitempty,oneof=public private"`
	JoinQuiz        []models.QuizQuestion `json:"joinQuiz"`
	QuizPassPercent *int                  `json:"quizPassPercent" binding:"omitempty,min=0,max=100"`
	MembershipFee   *int64                `json:"membershipFee" binding:"omitempty,min=0"`
}

// RejectSocietyRequest carries the reason shown to the applicant
type RejectSocietyRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// TransferManagementRequest names the co-manager taking over
type TransferManagementRequest struct {
	NewManagerID int64 `json:"newManagerId" binding:"required,min=1"`
}

// SocietyFilterRequest holds query parameters for listing societies
type SocietyFilterRequest struct {
	Type     *string `form:"type"`
	Status   *string `form:"status"`
	Search   *string `form:"search"`
	Page     int     `form:"page,default=1" binding:"min=1"`
	PageSize int     `form:"size,default=10" binding:"min=1,max=100"`
}

// SocietyResponse is a society with derived data for the viewer
type SocietyResponse struct {
	ID              int64                `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	Type            models.SocietyType   `json:"type"`
	Status          models.SocietyStatus `json:"status"`
	Visibility      models.Visibility    `json:"visibility"`
	ManagerID       int64                `json:"managerId"`
	RejectionReason *string              `json:"rejectionReason,omitempty"`
	HasJoinQuiz     bool                 `json:"hasJoinQuiz"`
	JoinQuiz        []QuizQuestionPublic `json:"joinQuiz,omitempty"`
	QuizPassPercent int                  `json:"quizPassPercent"`
	MembershipFee   int64                `json:"membershipFee"`
	LogoURL         *string              `json:"logoUrl,omitempty"`
	MemberCount     int                  `json:"memberCount"`
	Membership      *models.Membership   `json:"membership,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// QuizQuestionPublic hides the correct answer from applicants
type QuizQuestionPublic struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
}

// FromSociety converts a society model, leaving out quiz answers
func FromSociety(s *models.Society) *SocietyResponse {
	if s == nil {
		return nil
	}
	resp := &SocietyResponse{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		Type:            s.Type,
		Status:          s.Status,
		Visibility:      s.Visibility,
		ManagerID:       s.ManagerID,
		RejectionReason: s.RejectionReason,
		HasJoinQuiz:     len(s.JoinQuiz) > 0,
		QuizPassPercent: s.QuizPassPercent,
		MembershipFee:   s.MembershipFee,
		LogoURL:         s.LogoURL,
		MemberCount:     s.MemberCount,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	for _, q := range s.JoinQuiz {
		resp.JoinQuiz = append(resp.JoinQuiz, QuizQuestionPublic{Question: q.Question, Choices: q.Choices})
	}
	return resp
}

// SocietyListResponse is a page of societies
type SocietyListResponse struct {
	Societies  []SocietyResponse `json:"societies"`
	Pagination PaginationInfo    `json:"pagination"`
}

// JoinSocietyRequest carries join quiz answers as choice indexes
type JoinSocietyRequest struct {
	QuizAnswers []int `json:"quizAnswers"`
}

// ChangeRoleRequest sets a member's role
type ChangeRoleRequest struct {
	Role models.MembershipRole `json:"role" binding:"required,oneof=member editor co_manager"`
}

// MembershipListResponse lists memberships of a society
type MembershipListResponse struct {
	Members []models.Membership `json:"members"`
	Hidden  bool                `json:"hidden"`
}
