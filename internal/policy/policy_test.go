package policy_test

import (
	"bms-service/internal/domain"
	"bms-service/internal/policy"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allRoles = []domain.Role{domain.RoleNone, domain.RoleMember, domain.RoleManager, domain.RoleAdmin}

func TestCanManageTeamOnlyAdmin(t *testing.T) {
	for _, role := range allRoles {
		err := policy.CanManageTeam(role)
		if role == domain.RoleAdmin {
			assert.NoError(t, err, role)
		} else {
			assert.ErrorIs(t, err, domain.ErrForbidden, role)
		}
	}
}

func TestCanManageMembersManagerOrAdmin(t *testing.T) {
	assert.ErrorIs(t, policy.CanManageMembers(domain.RoleNone), domain.ErrForbidden)
	assert.ErrorIs(t, policy.CanManageMembers(domain.RoleMember), domain.ErrForbidden)
	assert.NoError(t, policy.CanManageMembers(domain.RoleManager))
	assert.NoError(t, policy.CanManageMembers(domain.RoleAdmin))
}

func TestCanMutateTask(t *testing.T) {
	tests := []struct {
		name       string
		role       domain.Role
		isAssignee bool
		isCreator  bool
		action     policy.Action
		allowed    bool
	}{
		{"assignee member updates", domain.RoleMember, true, false, policy.ActionUpdate, true},
		{"creator member cannot update", domain.RoleMember, false, true, policy.ActionUpdate, false},
		{"manager updates", domain.RoleManager, false, false, policy.ActionUpdate, true},
		{"creator member deletes", domain.RoleMember, false, true, policy.ActionDelete, true},
		{"assignee member cannot delete", domain.RoleMember, true, false, policy.ActionDelete, false},
		{"admin deletes", domain.RoleAdmin, false, false, policy.ActionDelete, true},
		{"non member assignee denied", domain.RoleNone, true, true, policy.ActionUpdate, false},
		{"non member creator denied", domain.RoleNone, true, true, policy.ActionDelete, false},
		{"unknown action denied", domain.RoleAdmin, true, true, policy.Action("archive"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.CanMutateTask(tt.role, tt.isAssignee, tt.isCreator, tt.action)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrForbidden)
			}
		})
	}
}

func TestCanCreateEvaluationRequiresOverseer(t *testing.T) {
	assert.ErrorIs(t, policy.CanCreateEvaluation(domain.RoleNone), domain.ErrForbidden)
	assert.ErrorIs(t, policy.CanCreateEvaluation(domain.RoleMember), domain.ErrForbidden)
	assert.NoError(t, policy.CanCreateEvaluation(domain.RoleManager))
	assert.NoError(t, policy.CanCreateEvaluation(domain.RoleAdmin))
}

func TestCanMutateMeeting(t *testing.T) {
	assert.NoError(t, policy.CanMutateMeeting(true, domain.RoleMember, policy.ActionUpdate))
	assert.ErrorIs(t, policy.CanMutateMeeting(false, domain.RoleAdmin, policy.ActionUpdate), domain.ErrForbidden)

	assert.NoError(t, policy.CanMutateMeeting(true, domain.RoleMember, policy.ActionDelete))
	assert.NoError(t, policy.CanMutateMeeting(false, domain.RoleAdmin, policy.ActionDelete))
	assert.ErrorIs(t, policy.CanMutateMeeting(false, domain.RoleManager, policy.ActionDelete), domain.ErrForbidden)

	assert.ErrorIs(t, policy.CanMutateMeeting(true, domain.RoleNone, policy.ActionUpdate), domain.ErrForbidden)
}

func TestCanMutateEvaluation(t *testing.T) {
	assert.NoError(t, policy.CanMutateEvaluation(true, false, policy.ActionUpdate))
	assert.ErrorIs(t, policy.CanMutateEvaluation(false, true, policy.ActionUpdate), domain.ErrForbidden)

	assert.NoError(t, policy.CanMutateEvaluation(true, false, policy.ActionDelete))
	assert.NoError(t, policy.CanMutateEvaluation(false, true, policy.ActionDelete))
	assert.ErrorIs(t, policy.CanMutateEvaluation(false, false, policy.ActionDelete), domain.ErrForbidden)
}

func TestDenialCarriesReason(t *testing.T) {
	err := policy.CanMutateTask(domain.RoleMember, false, false, policy.ActionUpdate)

	var domainErr *domain.Error
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "you can only update your own tasks", domainErr.Message)
}

func TestViewPredicates(t *testing.T) {
	assert.ErrorIs(t, policy.CanViewTeam(domain.RoleNone), domain.ErrForbidden)
	assert.NoError(t, policy.CanViewTeam(domain.RoleMember))

	assert.NoError(t, policy.CanViewMeeting(true, domain.RoleNone))
	assert.NoError(t, policy.CanViewMeeting(false, domain.RoleMember))
	assert.ErrorIs(t, policy.CanViewMeeting(false, domain.RoleNone), domain.ErrForbidden)

	assert.NoError(t, policy.CanViewUserEvaluations(true, false))
	assert.NoError(t, policy.CanViewUserEvaluations(false, true))
	assert.ErrorIs(t, policy.CanViewUserEvaluations(false, false), domain.ErrForbidden)
}

func TestCanViewEvaluation(t *testing.T) {
	assert.NoError(t, policy.CanViewEvaluation(true, false, domain.RoleNone))
	assert.NoError(t, policy.CanViewEvaluation(false, true, domain.RoleNone))
	assert.NoError(t, policy.CanViewEvaluation(false, false, domain.RoleManager))
	assert.ErrorIs(t, policy.CanViewEvaluation(false, false, domain.RoleMember), domain.ErrForbidden)
}
