package inmemory

import (
	"bms-service/internal/domain"
	"cmp"
	"context"
	"slices"
)

type MembershipRepo struct {
	db conn
}

func NewMembershipRepo(db conn) *MembershipRepo {
	return &MembershipRepo{
		db: db,
	}
}

func (mr *MembershipRepo) Create(_ context.Context, membership domain.Membership) (domain.Membership, error) {
	t, release := mr.db.acquire()
	defer release()

	if _, exists := t.teams[membership.TeamID]; !exists {
		return domain.Membership{}, domain.ErrTeamNotFound
	}
	if _, exists := t.users[membership.UserID]; !exists {
		return domain.Membership{}, domain.ErrUserNotFound
	}

	members, ok := t.memberships[membership.TeamID]
	if !ok {
		members = map[domain.UserID]domain.Membership{}
		t.memberships[membership.TeamID] = members
	}

	if _, exists := members[membership.UserID]; exists {
		return domain.Membership{}, domain.ErrAlreadyMember
	}

	membership.CreatedAt = mr.db.now()
	members[membership.UserID] = membership

	return membership, nil
}

func (mr *MembershipRepo) Membership(_ context.Context, userID domain.UserID, teamID domain.TeamID) (domain.Membership, error) {
	t, release := mr.db.acquire()
	defer release()

	membership, exists := t.memberships[teamID][userID]
	if !exists {
		return domain.Membership{}, domain.ErrMembershipNotFound
	}

	return membership, nil
}

func (mr *MembershipRepo) MembersByTeam(_ context.Context, teamID domain.TeamID) ([]domain.TeamMember, error) {
	t, release := mr.db.acquire()
	defer release()

	members := []domain.TeamMember{}
	for userID, membership := range t.memberships[teamID] {
		members = append(members, domain.TeamMember{
			User:     t.users[userID],
			Role:     membership.Role,
			JoinedAt: membership.CreatedAt,
		})
	}

	slices.SortFunc(members, func(a, b domain.TeamMember) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.User.ID, b.User.ID)
	})

	return members, nil
}

func (mr *MembershipRepo) Delete(_ context.Context, userID domain.UserID, teamID domain.TeamID) error {
	t, release := mr.db.acquire()
	defer release()

	if _, exists := t.memberships[teamID][userID]; !exists {
		return domain.ErrMembershipNotFound
	}

	delete(t.memberships[teamID], userID)

	return nil
}
