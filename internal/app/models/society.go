package models

import "time"

// SocietyStatus is the approval lifecycle state of a society
type SocietyStatus string

const (
	SocietyStatusPending       SocietyStatus = "pending"
	SocietyStatusApproved      SocietyStatus = "approved"
	SocietyStatusRejected      SocietyStatus = "rejected"
	SocietyStatusRequestDelete SocietyStatus = "request_delete"
	SocietyStatusDeleted       SocietyStatus = "deleted"
)

// SocietyType categorises societies
type SocietyType string

const (
	SocietyTypeAcademic SocietyType = "academic"
	SocietyTypeSports   SocietyType = "sports"
	SocietyTypeCultural SocietyType = "cultural"
	SocietyTypeArts     SocietyType = "arts"
	SocietyTypeSocial   SocietyType = "social"
	SocietyTypeOther    SocietyType = "other"
)

// Visibility controls whether non-members can see a society's member list
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Society represents a student society
type Society struct {
	ID              int64          `json:"id" db:"id"`
	Name            string         `json:"name" db:"name"`
	Description     string         `json:"description" db:"description"`
	Type            SocietyType    `json:"type" db:"type"`
	Status          SocietyStatus  `json:"status" db:"status"`
	Visibility      Visibility     `json:"visibility" db:"visibility"`
	ManagerID       int64          `json:"managerId" db:"manager_id"`
	RejectionReason *string        `json:"rejectionReason,omitempty" db:"rejection_reason"`
	JoinQuiz        []QuizQuestion `json:"joinQuiz,omitempty" db:"join_quiz"`
	QuizPassPercent int            `json:"quizPassPercent" db:"quiz_pass_percent"`
	MembershipFee   int64          `json:"membershipFee" db:"membership_fee"`
	LogoURL         *string        `json:"logoUrl,omitempty" db:"logo_url"`
	CreatedAt       time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time      `json:"updatedAt" db:"updated_at"`

	MemberCount int `json:"memberCount" db:"-"`
}

// QuizQuestion is one multiple-choice question of a society's join quiz
type QuizQuestion struct {
	Question      string   `json:"question"`
	Choices       []string `json:"choices"`
	CorrectChoice int      `json:"correctChoice"`
}

// IsVisibleTo reports whether a viewer may see the society at all
func (s *Society) IsVisibleTo(viewerID int64, isStaff bool) bool {
	if s.Status == SocietyStatusApproved || s.Status == SocietyStatusRequestDelete {
		return true
	}
	if s.Status == SocietyStatusDeleted {
		return isStaff
	}
	return isStaff || s.ManagerID == viewerID
}

// CountsTowardsOwnershipCap reports whether the society occupies one of the owner's slots
func (s SocietyStatus) CountsTowardsOwnershipCap() bool {
	return s != SocietyStatusRejected && s != SocietyStatusDeleted
}

// PassPercent is the score needed to pass the join quiz. A quiz stored with 0 requires every answer.
func (s *Society) PassPercent() int {
	if len(s.JoinQuiz) > 0 && s.QuizPassPercent <= 0 {
		return 100
	}
	return s.QuizPassPercent
}

// NormalizeQuiz stores the effective pass percent after the quiz or threshold changed
func (s *Society) NormalizeQuiz() {
	s.QuizPassPercent = s.PassPercent()
}

// ScoreQuiz returns the percentage of correct answers, or ok=false when the
// answers do not line up with the quiz.
func ScoreQuiz(quiz []QuizQuestion, answers []int) (percent int, ok bool) {
	if len(quiz) == 0 {
		return 100, true
	}
	if len(answers) != len(quiz) {
		return 0, false
	}

	correct := 0
	for i, q := range quiz {
		if answers[i] < 0 || answers[i] >= len(q.Choices) {
			return 0, false
		}
		if answers[i] == q.CorrectChoice {
			correct++
		}
	}
	return correct * 100 / len(quiz), true
}

// SocietyFilter holds list query parameters
type SocietyFilter struct {
	Type     *SocietyType
	Status   *SocietyStatus
	Search   *string
	Page     int
	PageSize int
}
