package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestDecideRegistrationStatus(t *testing.T) {
	assert.Equal(t, RegistrationAccepted, DecideRegistrationStatus(nil, 500))
	assert.Equal(t, RegistrationAccepted, DecideRegistrationStatus(intPtr(2), 1))
	assert.Equal(t, RegistrationWaitlisted, DecideRegistrationStatus(intPtr(2), 2))
	assert.Equal(t, RegistrationWaitlisted, DecideRegistrationStatus(intPtr(2), 3))
}

func TestScoreQuiz(t *testing.T) {
	quiz := []QuizQuestion{
		{Question: "Founded?", Choices: []string{"1990", "2001"}, CorrectChoice: 1},
		{Question: "Colour?", Choices: []string{"red", "blue", "green"}, CorrectChoice: 0},
		{Question: "Mascot?", Choices: []string{"owl", "fox"}, CorrectChoice: 0},
		{Question: "Motto?", Choices: []string{"a", "b"}, CorrectChoice: 1},
	}

	pct, ok := ScoreQuiz(quiz, []int{1, 0, 1, 0})
	assert.True(t, ok)
	assert.Equal(t, 50, pct)

	pct, ok = ScoreQuiz(quiz, []int{1, 0, 0, 1})
	assert.True(t, ok)
	assert.Equal(t, 100, pct)

	_, ok = ScoreQuiz(quiz, []int{1, 0})
	assert.False(t, ok)

	_, ok = ScoreQuiz(quiz, []int{1, 7, 0, 1})
	assert.False(t, ok)

	pct, ok = ScoreQuiz(nil, nil)
	assert.True(t, ok)
	assert.Equal(t, 100, pct)
}

func TestSocietyPassPercent(t *testing.T) {
	s := &Society{QuizPassPercent: 0}
	assert.Equal(t, 0, s.PassPercent())

	s.JoinQuiz = []QuizQuestion{{Question: "Q", Choices: []string{"a", "b"}}}
	assert.Equal(t, 100, s.PassPercent())

	s.QuizPassPercent = 60
	s.NormalizeQuiz()
	assert.Equal(t, 60, s.QuizPassPercent)
}

func TestMembershipCapabilities(t *testing.T) {
	editor := &Membership{UserID: 3, Role: RoleEditor, Status: MembershipApproved}
	assert.True(t, editor.Can(CapWriteNews))
	assert.False(t, editor.Can(CapManageContent))

	pendingManager := &Membership{UserID: 1, Role: RoleManager, Status: MembershipPending}
	assert.False(t, pendingManager.Can(CapManageMembers))

	var none *Membership
	assert.False(t, none.Can(CapParticipate))
}

func TestCanManageRoleOf(t *testing.T) {
	manager := &Membership{UserID: 1, Role: RoleManager, Status: MembershipApproved}
	co := &Membership{UserID: 2, Role: RoleCoManager, Status: MembershipApproved}
	editor := &Membership{UserID: 3, Role: RoleEditor, Status: MembershipApproved}
	member := &Membership{UserID: 4, Role: RoleMember, Status: MembershipApproved}

	assert.True(t, CanManageRoleOf(manager, co))
	assert.True(t, CanManageRoleOf(manager, member))
	assert.False(t, CanManageRoleOf(manager, manager))
	assert.True(t, CanManageRoleOf(co, editor))
	assert.False(t, CanManageRoleOf(co, &Membership{UserID: 9, Role: RoleCoManager, Status: MembershipApproved}))
	assert.False(t, CanManageRoleOf(editor, member))
}

func TestSocietyVisibility(t *testing.T) {
	s := &Society{ManagerID: 7, Status: SocietyStatusPending}
	assert.True(t, s.IsVisibleTo(7, false))
	assert.True(t, s.IsVisibleTo(1, true))
	assert.False(t, s.IsVisibleTo(1, false))

	s.Status = SocietyStatusApproved
	assert.True(t, s.IsVisibleTo(1, false))

	s.Status = SocietyStatusDeleted
	assert.False(t, s.IsVisibleTo(7, false))
	assert.True(t, s.IsVisibleTo(1, true))

	assert.False(t, SocietyStatusRejected.CountsTowardsOwnershipCap())
	assert.True(t, SocietyStatusRequestDelete.CountsTowardsOwnershipCap())
}

func TestEventSpotsLeftAndPollOpen(t *testing.T) {
	e := &Event{Capacity: intPtr(3), AcceptedCount: 5}
	assert.Equal(t, 0, *e.SpotsLeft())
	e.Capacity = nil
	assert.Nil(t, e.SpotsLeft())

	now := time.Now()
	closes := now.Add(-time.Minute)
	p := &Poll{IsActive: true, ClosesAt: &closes}
	assert.False(t, p.IsOpen(now))
	p.ClosesAt = nil
	assert.True(t, p.IsOpen(now))
}

func TestRankLeaderboard(t *testing.T) {
	entries := []LeaderboardEntry{
		{UserID: 4, AverageRating: 7.5, RatingCount: 2},
		{UserID: 2, AverageRating: 8, RatingCount: 1},
		{UserID: 3, AverageRating: 7.5, RatingCount: 4},
		{UserID: 1, AverageRating: 7.5, RatingCount: 2},
	}
	RankLeaderboard(entries)

	var ids []int64
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	assert.Equal(t, []int64{2, 3, 1, 4}, ids)
}
