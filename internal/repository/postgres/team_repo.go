package postgres

import (
	"bms-service/internal/domain"
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type TeamRepo struct {
	db querier
}

func NewTeamRepo(db querier) *TeamRepo {
	return &TeamRepo{
		db: db,
	}
}

const teamColumns = `t.id, t.name, t.description, t.invite_code, t.created_at, t.updated_at`

func (tr *TeamRepo) Create(ctx context.Context, team domain.Team) (domain.Team, error) {
	createTeamQuery := `
		INSERT INTO teams AS t (name, description, invite_code)
		VALUES ($1, $2, $3)
		RETURNING ` + teamColumns

	created, err := scanTeam(tr.db.QueryRow(ctx, createTeamQuery, team.Name, team.Description, team.InviteCode))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Team{}, domain.ErrInviteCodeTaken
		}
		return domain.Team{}, err
	}

	return created, nil
}

func (tr *TeamRepo) TeamByID(ctx context.Context, teamID domain.TeamID) (domain.Team, error) {
	teamByIDQuery := `SELECT ` + teamColumns + ` FROM teams t WHERE t.id = $1`

	return scanTeam(tr.db.QueryRow(ctx, teamByIDQuery, teamID))
}

func (tr *TeamRepo) TeamByInviteCode(ctx context.Context, code string) (domain.Team, error) {
	teamByCodeQuery := `SELECT ` + teamColumns + ` FROM teams t WHERE t.invite_code = $1`

	team, err := scanTeam(tr.db.QueryRow(ctx, teamByCodeQuery, code))
	if errors.Is(err, domain.ErrTeamNotFound) {
		return domain.Team{}, domain.ErrInvalidInviteCode
	}

	return team, err
}

func (tr *TeamRepo) TeamsByUser(ctx context.Context, userID domain.UserID) ([]domain.Team, error) {
	teamsByUserQuery := `
		SELECT ` + teamColumns + `
		FROM teams t
		JOIN team_memberships m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.id
	`

	rows, err := tr.db.Query(ctx, teamsByUserQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []domain.Team{}
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return teams, nil
}

func (tr *TeamRepo) Update(ctx context.Context, team domain.Team) (domain.Team, error) {
	updateTeamQuery := `
		UPDATE teams AS t
		SET
			name = $2,
			description = $3,
			invite_code = $4,
			updated_at = NOW()
		WHERE t.id = $1
		RETURNING ` + teamColumns

	updated, err := scanTeam(tr.db.QueryRow(ctx, updateTeamQuery, team.ID, team.Name, team.Description, team.InviteCode))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Team{}, domain.ErrInviteCodeTaken
		}
		return domain.Team{}, err
	}

	return updated, nil
}

// Delete relies on ON DELETE CASCADE for memberships, tasks and meetings.
func (tr *TeamRepo) Delete(ctx context.Context, teamID domain.TeamID) error {
	tag, err := tr.db.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTeamNotFound
	}

	return nil
}

func scanTeam(row scanner) (domain.Team, error) {
	var team domain.Team
	err := row.Scan(&team.ID, &team.Name, &team.Description, &team.InviteCode, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Team{}, domain.ErrTeamNotFound
		}
		return domain.Team{}, err
	}

	return team, nil
}
