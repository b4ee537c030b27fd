package inmemory

import (
	"bms-service/internal/domain"
	"context"
	"maps"
	"slices"
)

type TeamRepo struct {
	db conn
}

func NewTeamRepo(db conn) *TeamRepo {
	return &TeamRepo{
		db: db,
	}
}

func (tr *TeamRepo) Create(_ context.Context, team domain.Team) (domain.Team, error) {
	t, release := tr.db.acquire()
	defer release()

	if inviteCodeTaken(t, team.InviteCode, 0) {
		return domain.Team{}, domain.ErrInviteCodeTaken
	}

	t.seq.team++
	team.ID = domain.TeamID(t.seq.team)
	team.CreatedAt = tr.db.now()
	team.UpdatedAt = team.CreatedAt
	t.teams[team.ID] = team

	return team, nil
}

func (tr *TeamRepo) TeamByID(_ context.Context, teamID domain.TeamID) (domain.Team, error) {
	t, release := tr.db.acquire()
	defer release()

	team, exists := t.teams[teamID]
	if !exists {
		return domain.Team{}, domain.ErrTeamNotFound
	}

	return team, nil
}

func (tr *TeamRepo) TeamByInviteCode(_ context.Context, code string) (domain.Team, error) {
	t, release := tr.db.acquire()
	defer release()

	for _, team := range t.teams {
		if team.InviteCode == code {
			return team, nil
		}
	}

	return domain.Team{}, domain.ErrInvalidInviteCode
}

func (tr *TeamRepo) TeamsByUser(_ context.Context, userID domain.UserID) ([]domain.Team, error) {
	t, release := tr.db.acquire()
	defer release()

	teams := []domain.Team{}
	for _, teamID := range slices.Sorted(maps.Keys(t.memberships)) {
		if _, ok := t.memberships[teamID][userID]; ok {
			teams = append(teams, t.teams[teamID])
		}
	}

	return teams, nil
}

func (tr *TeamRepo) Update(_ context.Context, team domain.Team) (domain.Team, error) {
	t, release := tr.db.acquire()
	defer release()

	existing, exists := t.teams[team.ID]
	if !exists {
		return domain.Team{}, domain.ErrTeamNotFound
	}

	if inviteCodeTaken(t, team.InviteCode, team.ID) {
		return domain.Team{}, domain.ErrInviteCodeTaken
	}

	team.CreatedAt = existing.CreatedAt
	team.UpdatedAt = tr.db.now()
	t.teams[team.ID] = team

	return team, nil
}

// Delete removes the team together with its memberships, tasks and meetings.
func (tr *TeamRepo) Delete(_ context.Context, teamID domain.TeamID) error {
	t, release := tr.db.acquire()
	defer release()

	if _, exists := t.teams[teamID]; !exists {
		return domain.ErrTeamNotFound
	}

	for id, task := range t.tasks {
		if task.TeamID == teamID {
			deleteTask(t, id)
		}
	}
	for id, meeting := range t.meetings {
		if meeting.TeamID == teamID {
			delete(t.meetings, id)
		}
	}
	delete(t.memberships, teamID)
	delete(t.teams, teamID)

	return nil
}

func inviteCodeTaken(t *tables, code string, self domain.TeamID) bool {
	for _, team := range t.teams {
		if team.ID != self && team.InviteCode == code {
			return true
		}
	}

	return false
}
