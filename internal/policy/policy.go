// Package policy holds the authorization rules for team-scoped resources.
//
// Every predicate returns nil when the action is allowed and a domain Forbidden
// error carrying the denial reason otherwise. A missing membership (RoleNone)
// denies every team-scoped action.
package policy

import "bms-service/internal/domain"

type Action string

const (
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func isOverseer(role domain.Role) bool {
	return role == domain.RoleManager || role == domain.RoleAdmin
}

func CanViewTeam(role domain.Role) error {
	if role == domain.RoleNone {
		return domain.Forbidden("you are not a member of this team")
	}

	return nil
}

func CanManageTeam(role domain.Role) error {
	if role != domain.RoleAdmin {
		return domain.Forbidden("only team admin can manage this team")
	}

	return nil
}

func CanManageMembers(role domain.Role) error {
	if !isOverseer(role) {
		return domain.Forbidden("only team managers or admins can manage members")
	}

	return nil
}

func CanMutateTask(role domain.Role, isAssignee, isCreator bool, action Action) error {
	if role == domain.RoleNone {
		return domain.Forbidden("you are not a member of this task's team")
	}

	switch action {
	case ActionUpdate:
		if isAssignee || isOverseer(role) {
			return nil
		}
		return domain.Forbidden("you can only update your own tasks")
	case ActionDelete:
		if isCreator || isOverseer(role) {
			return nil
		}
		return domain.Forbidden("you can only delete your own tasks")
	}

	return domain.Forbidden("unsupported task action")
}

func CanCreateEvaluation(role domain.Role) error {
	if !isOverseer(role) {
		return domain.Forbidden("only team managers or admins can evaluate tasks")
	}

	return nil
}

func CanViewMeeting(isParticipant bool, role domain.Role) error {
	if !isParticipant && role == domain.RoleNone {
		return domain.Forbidden("you don't have access to this meeting")
	}

	return nil
}

func CanMutateMeeting(isOrganizer bool, role domain.Role, action Action) error {
	if role == domain.RoleNone {
		return domain.Forbidden("you are not a member of this meeting's team")
	}

	switch action {
	case ActionUpdate:
		if isOrganizer {
			return nil
		}
		return domain.Forbidden("only meeting organizer can update meeting")
	case ActionDelete:
		if isOrganizer || role == domain.RoleAdmin {
			return nil
		}
		return domain.Forbidden("only meeting organizer or team admin can delete meeting")
	}

	return domain.Forbidden("unsupported meeting action")
}

// CanMutateEvaluation is not team-scoped: the superuser flag is a system-wide override.
func CanMutateEvaluation(isOwnerEvaluator, isSuperuser bool, action Action) error {
	switch action {
	case ActionUpdate:
		if isOwnerEvaluator {
			return nil
		}
		return domain.Forbidden("you can only update your own evaluations")
	case ActionDelete:
		if isOwnerEvaluator || isSuperuser {
			return nil
		}
		return domain.Forbidden("you can only delete your own evaluations")
	}

	return domain.Forbidden("unsupported evaluation action")
}

func CanViewUserEvaluations(isSelf, isSuperuser bool) error {
	if !isSelf && !isSuperuser {
		return domain.Forbidden("you can only view your own evaluations")
	}

	return nil
}

// CanViewEvaluation admits both parties of an evaluation, superusers, and overseers of the task's team.
func CanViewEvaluation(isParty, isSuperuser bool, role domain.Role) error {
	if isParty || isSuperuser || isOverseer(role) {
		return nil
	}

	return domain.Forbidden("you don't have access to this evaluation")
}
