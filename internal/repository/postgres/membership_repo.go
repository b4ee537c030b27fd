package postgres

import (
	"bms-service/internal/domain"
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type MembershipRepo struct {
	db querier
}

func NewMembershipRepo(db querier) *MembershipRepo {
	return &MembershipRepo{
		db: db,
	}
}

func (mr *MembershipRepo) Create(ctx context.Context, membership domain.Membership) (domain.Membership, error) {
	createMembershipQuery := `
		INSERT INTO team_memberships (user_id, team_id, role)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := mr.db.QueryRow(ctx, createMembershipQuery, membership.UserID, membership.TeamID, membership.Role).
		Scan(&membership.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Membership{}, domain.ErrAlreadyMember
		}
		if constraint, ok := missingReference(err); ok {
			if constraint == "team_memberships_team_id_fkey" {
				return domain.Membership{}, domain.ErrTeamNotFound
			}
			return domain.Membership{}, domain.ErrUserNotFound
		}
		return domain.Membership{}, err
	}

	return membership, nil
}

func (mr *MembershipRepo) Membership(ctx context.Context, userID domain.UserID, teamID domain.TeamID) (domain.Membership, error) {
	membershipQuery := `
		SELECT user_id, team_id, role, created_at
		FROM team_memberships
		WHERE user_id = $1 AND team_id = $2
	`

	var m domain.Membership
	err := mr.db.QueryRow(ctx, membershipQuery, userID, teamID).
		Scan(&m.UserID, &m.TeamID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Membership{}, domain.ErrMembershipNotFound
		}
		return domain.Membership{}, err
	}

	return m, nil
}

func (mr *MembershipRepo) MembersByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.TeamMember, error) {
	membersQuery := `
		SELECT u.id, u.email, u.first_name, u.last_name, u.is_superuser, m.role, m.created_at
		FROM team_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.created_at, u.id
	`

	rows, err := mr.db.Query(ctx, membersQuery, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []domain.TeamMember{}
	for rows.Next() {
		var member domain.TeamMember
		err := rows.Scan(
			&member.User.ID,
			&member.User.Email,
			&member.User.FirstName,
			&member.User.LastName,
			&member.User.IsSuperuser,
			&member.Role,
			&member.JoinedAt,
		)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}

func (mr *MembershipRepo) Delete(ctx context.Context, userID domain.UserID, teamID domain.TeamID) error {
	tag, err := mr.db.Exec(ctx, `DELETE FROM team_memberships WHERE user_id = $1 AND team_id = $2`, userID, teamID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrMembershipNotFound
	}

	return nil
}
