package service

import (
	"bms-service/internal/domain"
	"bms-service/internal/policy"
	"bms-service/internal/repository"
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type TeamService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewTeamService(store repository.Store, logger *slog.Logger) *TeamService {
	return &TeamService{
		store:  store,
		logger: logger,
	}
}

type CreateTeamInput struct {
	Name        string
	Description string
}

type UpdateTeamInput struct {
	Name        *string
	Description *string
}

// CreateTeam stores a team with a fresh invite code and makes the caller its admin.
func (s *TeamService) CreateTeam(ctx context.Context, actor domain.Principal, in CreateTeamInput) (domain.TeamWithMembers, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.TeamWithMembers{}, domain.InvalidInput("team name is required")
	}

	var result domain.TeamWithMembers
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		team, err := repos.Teams.Create(ctx, domain.Team{
			Name:        name,
			Description: in.Description,
			InviteCode:  newInviteCode(),
		})
		if err != nil {
			return err
		}

		_, err = repos.Memberships.Create(ctx, domain.Membership{
			UserID: actor.UserID,
			TeamID: team.ID,
			Role:   domain.RoleAdmin,
		})
		if err != nil {
			return err
		}

		members, err := repos.Memberships.MembersByTeam(ctx, team.ID)
		if err != nil {
			return err
		}

		result = domain.TeamWithMembers{Team: team, Members: members}

		return nil
	})
	if err != nil {
		return domain.TeamWithMembers{}, err
	}

	s.logger.Info("team created", "team_id", result.ID, "user_id", actor.UserID)

	return result, nil
}

func (s *TeamService) Teams(ctx context.Context, actor domain.Principal) ([]domain.Team, error) {
	return s.store.Repos().Teams.TeamsByUser(ctx, actor.UserID)
}

func (s *TeamService) Team(ctx context.Context, actor domain.Principal, teamID domain.TeamID) (domain.TeamWithMembers, error) {
	repos := s.store.Repos()

	team, _, err := s.authorizeTeam(ctx, repos, actor, teamID, policy.CanViewTeam)
	if err != nil {
		return domain.TeamWithMembers{}, err
	}

	members, err := repos.Memberships.MembersByTeam(ctx, teamID)
	if err != nil {
		return domain.TeamWithMembers{}, err
	}

	return domain.TeamWithMembers{Team: team, Members: members}, nil
}

func (s *TeamService) UpdateTeam(ctx context.Context, actor domain.Principal, teamID domain.TeamID, in UpdateTeamInput) (domain.Team, error) {
	var updated domain.Team
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		team, _, err := s.authorizeTeam(ctx, repos, actor, teamID, policy.CanManageTeam)
		if err != nil {
			return err
		}

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.InvalidInput("team name is required")
			}
			team.Name = name
		}
		if in.Description != nil {
			team.Description = *in.Description
		}

		updated, err = repos.Teams.Update(ctx, team)

		return err
	})
	if err != nil {
		return domain.Team{}, err
	}

	s.logger.Info("team updated", "team_id", teamID, "user_id", actor.UserID)

	return updated, nil
}

func (s *TeamService) DeleteTeam(ctx context.Context, actor domain.Principal, teamID domain.TeamID) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, _, err := s.authorizeTeam(ctx, repos, actor, teamID, policy.CanManageTeam); err != nil {
			return err
		}

		return repos.Teams.Delete(ctx, teamID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("team deleted", "team_id", teamID, "user_id", actor.UserID)

	return nil
}

func (s *TeamService) Members(ctx context.Context, actor domain.Principal, teamID domain.TeamID) ([]domain.TeamMember, error) {
	repos := s.store.Repos()

	if _, _, err := s.authorizeTeam(ctx, repos, actor, teamID, policy.CanViewTeam); err != nil {
		return nil, err
	}

	return repos.Memberships.MembersByTeam(ctx, teamID)
}

// Invite adds the user registered under email to the team. An empty role means member.
// Only an admin may grant the admin role.
func (s *TeamService) Invite(ctx context.Context, actor domain.Principal, teamID domain.TeamID, email string, role domain.Role) (domain.Membership, error) {
	if role == domain.RoleNone {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return domain.Membership{}, domain.ErrInvalidRole
	}

	var membership domain.Membership
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, actorRole, err := s.authorizeTeam(ctx, repos, actor, teamID, policy.CanManageMembers)
		if err != nil {
			return err
		}
		if role == domain.RoleAdmin {
			if err := policy.CanManageTeam(actorRole); err != nil {
				return err
			}
		}

		invited, err := repos.Users.UserByEmail(ctx, strings.TrimSpace(email))
		if err != nil {
			return err
		}

		membership, err = repos.Memberships.Create(ctx, domain.Membership{
			UserID: invited.ID,
			TeamID: teamID,
			Role:   role,
		})

		return err
	})
	if err != nil {
		return domain.Membership{}, err
	}

	s.logger.Info("member invited", "team_id", teamID, "user_id", membership.UserID, "role", role, "invited_by", actor.UserID)

	return membership, nil
}

// Join makes the caller a member of the team owning code.
func (s *TeamService) Join(ctx context.Context, actor domain.Principal, code string) (domain.Team, error) {
	var team domain.Team
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		team, err = repos.Teams.TeamByInviteCode(ctx, strings.TrimSpace(code))
		if err != nil {
			return err
		}

		_, err = repos.Memberships.Create(ctx, domain.Membership{
			UserID: actor.UserID,
			TeamID: team.ID,
			Role:   domain.RoleMember,
		})

		return err
	})
	if err != nil {
		return domain.Team{}, err
	}

	s.logger.Info("team joined", "team_id", team.ID, "user_id", actor.UserID)

	return team, nil
}

// RemoveMember drops the membership and unassigns the user's tasks in the team.
// Only an admin may remove another admin.
func (s *TeamService) RemoveMember(ctx context.Context, actor domain.Principal, teamID domain.TeamID, userID domain.UserID) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, actorRole, err := s.authorizeTeam(ctx, repos, actor, teamID, policy.CanManageMembers)
		if err != nil {
			return err
		}

		if userID == actor.UserID {
			return domain.InvalidInput("cannot remove yourself from team")
		}

		membership, err := repos.Memberships.Membership(ctx, userID, teamID)
		if err != nil {
			return err
		}
		if membership.Role == domain.RoleAdmin {
			if err := policy.CanManageTeam(actorRole); err != nil {
				return err
			}
		}

		if err := repos.Tasks.UnassignInTeam(ctx, teamID, userID); err != nil {
			return err
		}

		return repos.Memberships.Delete(ctx, userID, teamID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("member removed", "team_id", teamID, "user_id", userID, "removed_by", actor.UserID)

	return nil
}

func (s *TeamService) InviteCode(ctx context.Context, actor domain.Principal, teamID domain.TeamID) (string, error) {
	team, _, err := s.authorizeTeam(ctx, s.store.Repos(), actor, teamID, policy.CanManageTeam)
	if err != nil {
		return "", err
	}

	return team.InviteCode, nil
}

// authorizeTeam loads the team and checks the caller's role against allow.
func (s *TeamService) authorizeTeam(ctx context.Context, repos repository.Repositories, actor domain.Principal, teamID domain.TeamID, allow func(domain.Role) error) (domain.Team, domain.Role, error) {
	team, err := repos.Teams.TeamByID(ctx, teamID)
	if err != nil {
		return domain.Team{}, domain.RoleNone, err
	}

	role, err := NewRoleStore(repos.Memberships).RoleOf(ctx, actor.UserID, teamID)
	if err != nil {
		return domain.Team{}, domain.RoleNone, err
	}

	if err := allow(role); err != nil {
		return domain.Team{}, domain.RoleNone, err
	}

	return team, role, nil
}

func newInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
