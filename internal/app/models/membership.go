package models

import "time"

// MembershipRole is the role a user holds inside a society
type MembershipRole string

const (
	RoleMember    MembershipRole = "member"
	RoleEditor    MembershipRole = "editor"
	RoleCoManager MembershipRole = "co_manager"
	RoleManager   MembershipRole = "manager"
)

// MembershipStatus tracks approval of a join request
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "pending"
	MembershipApproved MembershipStatus = "approved"
)

// Membership links a user to a society
type Membership struct {
	ID         int64            `json:"id" db:"id"`
	SocietyID  int64            `json:"societyId" db:"society_id"`
	UserID     int64            `json:"userId" db:"user_id"`
	Role       MembershipRole   `json:"role" db:"role"`
	Status     MembershipStatus `json:"status" db:"status"`
	CreatedAt  time.Time        `json:"createdAt" db:"created_at"`
	ApprovedAt *time.Time       `json:"approvedAt,omitempty" db:"approved_at"`

	// Populated by list queries
	User *UserSummary `json:"user,omitempty" db:"-"`
}

// UserSummary is the public subset of a user shown next to memberships, comments and ratings
type UserSummary struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// IsApproved reports whether the membership is active
func (m *Membership) IsApproved() bool {
	return m != nil && m.Status == MembershipApproved
}

// Capability is something a society role may be allowed to do
type Capability int

const (
	CapManageMembers Capability = iota
	// events, widgets, polls, galleries, matches, hall of fame
	CapManageContent
	CapWriteNews
	// comment, vote
	CapParticipate
)

var roleCapabilities = map[MembershipRole][]Capability{
	RoleManager:   {CapManageMembers, CapManageContent, CapWriteNews, CapParticipate},
	RoleCoManager: {CapManageMembers, CapManageContent, CapWriteNews, CapParticipate},
	RoleEditor:    {CapWriteNews, CapParticipate},
	RoleMember:    {CapParticipate},
}

// Can reports whether an approved membership grants the capability
func (m *Membership) Can(c Capability) bool {
	if !m.IsApproved() {
		return false
	}
	for _, granted := range roleCapabilities[m.Role] {
		if granted == c {
			return true
		}
	}
	return false
}

// IsAssignableRole reports whether role may be set through ChangeRole
func IsAssignableRole(role MembershipRole) bool {
	return role == RoleMember || role == RoleEditor || role == RoleCoManager
}

// CanManageRoleOf decides whether actor may remove or re-role a membership held by target.
// Managers act on everyone but themselves; co-managers only on members and editors.
func CanManageRoleOf(actor, target *Membership) bool {
	if !actor.Can(CapManageMembers) || actor.UserID == target.UserID {
		return false
	}
	switch actor.Role {
	case RoleManager:
		return target.Role != RoleManager
	case RoleCoManager:
		return target.Role == RoleMember || target.Role == RoleEditor
	}
	return false
}
