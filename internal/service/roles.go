package service

import (
	"bms-service/internal/domain"
	"bms-service/internal/repository"
	"context"
	"errors"
	"fmt"
)

// RoleStore is the only place roles are read from. Build it from the repositories of
// the current transaction so that role checks see the same snapshot as the writes.
type RoleStore struct {
	memberships repository.MembershipRepository
}

func NewRoleStore(memberships repository.MembershipRepository) RoleStore {
	return RoleStore{
		memberships: memberships,
	}
}

// RoleOf returns RoleNone when userID holds no membership in teamID.
func (rs RoleStore) RoleOf(ctx context.Context, userID domain.UserID, teamID domain.TeamID) (domain.Role, error) {
	membership, err := rs.memberships.Membership(ctx, userID, teamID)
	if err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return domain.RoleNone, nil
		}
		return domain.RoleNone, err
	}

	return membership.Role, nil
}

// RequireMembers fails with InvalidInput naming the first user outside teamID.
func (rs RoleStore) RequireMembers(ctx context.Context, teamID domain.TeamID, userIDs ...domain.UserID) error {
	for _, userID := range userIDs {
		role, err := rs.RoleOf(ctx, userID, teamID)
		if err != nil {
			return err
		}
		if role == domain.RoleNone {
			return domain.InvalidInput(fmt.Sprintf("user %d is not a member of this team", userID))
		}
	}

	return nil
}
