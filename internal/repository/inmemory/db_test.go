package inmemory_test

import (
	"bms-service/internal/domain"
	"bms-service/internal/repository"
	"bms-service/internal/repository/inmemory"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type testEnviroment struct {
	ctx     context.Context
	clock   *clock
	storage *inmemory.InMemoryStorage
	repos   repository.Repositories
	alice   domain.User
	bob     domain.User
	team    domain.Team
}

var (
	startOfYear = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	aliceUser = domain.User{Email: "alice@example.com", FirstName: "Alice", LastName: "Adams"}
	bobUser   = domain.User{Email: "bob@example.com", FirstName: "Bob"}
)

func setup(t *testing.T) testEnviroment {
	t.Helper()

	c := &clock{now: startOfYear}
	storage := inmemory.NewStorage(inmemory.WithClock(c.Now))
	repos := storage.Repos()
	ctx := context.Background()

	alice, err := repos.Users.Create(ctx, aliceUser)
	require.NoError(t, err)
	bob, err := repos.Users.Create(ctx, bobUser)
	require.NoError(t, err)

	team, err := repos.Teams.Create(ctx, domain.Team{Name: "Platform", InviteCode: "code-1"})
	require.NoError(t, err)

	_, err = repos.Memberships.Create(ctx, domain.Membership{UserID: alice.ID, TeamID: team.ID, Role: domain.RoleAdmin})
	require.NoError(t, err)

	return testEnviroment{
		ctx:     ctx,
		clock:   c,
		storage: storage,
		repos:   repos,
		alice:   alice,
		bob:     bob,
		team:    team,
	}
}

func TestFailCreateUserWhenEmailTaken(t *testing.T) {
	e := setup(t)

	_, err := e.repos.Users.Create(e.ctx, domain.User{Email: "ALICE@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSuccessUserByEmail(t *testing.T) {
	e := setup(t)

	user, err := e.repos.Users.UserByEmail(e.ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, e.bob.ID, user.ID)

	_, err = e.repos.Users.UserByEmail(e.ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFailCreateTeamWhenInviteCodeTaken(t *testing.T) {
	e := setup(t)

	_, err := e.repos.Teams.Create(e.ctx, domain.Team{Name: "Other", InviteCode: "code-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInviteCodeTaken)
}

func TestFailCreateMembershipWhenAlreadyMember(t *testing.T) {
	e := setup(t)

	_, err := e.repos.Memberships.Create(e.ctx, domain.Membership{UserID: e.alice.ID, TeamID: e.team.ID, Role: domain.RoleMember})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)

	membership, err := e.repos.Memberships.Membership(e.ctx, e.alice.ID, e.team.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, membership.Role)
}

func TestSuccessMembersByTeamOrderedByJoinTime(t *testing.T) {
	e := setup(t)
	e.clock.advance(time.Minute)

	_, err := e.repos.Memberships.Create(e.ctx, domain.Membership{UserID: e.bob.ID, TeamID: e.team.ID, Role: domain.RoleMember})
	require.NoError(t, err)

	members, err := e.repos.Memberships.MembersByTeam(e.ctx, e.team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, e.alice.ID, members[0].User.ID)
	assert.Equal(t, domain.RoleAdmin, members[0].Role)
	assert.Equal(t, "Bob", members[1].User.FirstName)
	assert.Equal(t, startOfYear.Add(time.Minute), members[1].JoinedAt)
}

func TestSuccessTeamsByUser(t *testing.T) {
	e := setup(t)

	teams, err := e.repos.Teams.TeamsByUser(e.ctx, e.alice.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, e.team.ID, teams[0].ID)

	teams, err = e.repos.Teams.TeamsByUser(e.ctx, e.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestDeleteTeamCascades(t *testing.T) {
	e := setup(t)

	task, err := e.repos.Tasks.Create(e.ctx, domain.Task{Title: "t", Status: domain.TaskOpen, CreatorID: e.alice.ID, TeamID: e.team.ID})
	require.NoError(t, err)
	meeting, err := e.repos.Meetings.Create(e.ctx, domain.Meeting{
		Title:        "m",
		StartTime:    startOfYear,
		EndTime:      startOfYear.Add(time.Hour),
		OrganizerID:  e.alice.ID,
		TeamID:       e.team.ID,
		Participants: []domain.UserID{e.alice.ID},
	})
	require.NoError(t, err)

	require.NoError(t, e.repos.Teams.Delete(e.ctx, e.team.ID))

	_, err = e.repos.Memberships.Membership(e.ctx, e.alice.ID, e.team.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.repos.Tasks.TaskByID(e.ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = e.repos.Meetings.MeetingByID(e.ctx, meeting.ID)
	assert.ErrorIs(t, err, domain.ErrMeetingNotFound)
}

func TestDeleteTaskCascadesCommentsAndEvaluations(t *testing.T) {
	e := setup(t)

	task, err := e.repos.Tasks.Create(e.ctx, domain.Task{Title: "t", Status: domain.TaskOpen, CreatorID: e.alice.ID, TeamID: e.team.ID})
	require.NoError(t, err)
	_, err = e.repos.Tasks.AddComment(e.ctx, domain.TaskComment{TaskID: task.ID, AuthorID: e.alice.ID, Content: "hi"})
	require.NoError(t, err)
	evaluation, err := e.repos.Evaluations.Create(e.ctx, domain.Evaluation{Rating: 4, TaskID: task.ID, UserID: e.bob.ID, EvaluatorID: e.alice.ID})
	require.NoError(t, err)

	require.NoError(t, e.repos.Tasks.Delete(e.ctx, task.ID))

	comments, err := e.repos.Tasks.CommentsByTask(e.ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	_, err = e.repos.Evaluations.EvaluationByID(e.ctx, evaluation.ID)
	assert.ErrorIs(t, err, domain.ErrEvaluationNotFound)
}

func TestTasksByAssigneeFiltersSortsAndPages(t *testing.T) {
	e := setup(t)

	deadline := func(d int) *time.Time {
		v := startOfYear.AddDate(0, 0, d)
		return &v
	}

	seeds := []struct {
		title    string
		status   domain.TaskStatus
		deadline *time.Time
	}{
		{"first", domain.TaskOpen, deadline(5)},
		{"second", domain.TaskCompleted, nil},
		{"third", domain.TaskOpen, deadline(2)},
		{"fourth", domain.TaskOpen, nil},
	}
	for _, s := range seeds {
		_, err := e.repos.Tasks.Create(e.ctx, domain.Task{
			Title:      s.title,
			Status:     s.status,
			Deadline:   s.deadline,
			CreatorID:  e.alice.ID,
			AssigneeID: &e.bob.ID,
			TeamID:     e.team.ID,
		})
		require.NoError(t, err)
		e.clock.advance(time.Minute)
	}

	titles := func(tasks []domain.Task) []string {
		out := make([]string, len(tasks))
		for i, task := range tasks {
			out[i] = task.Title
		}
		return out
	}

	tasks, total, err := e.repos.Tasks.TasksByAssignee(e.ctx, domain.TaskFilter{AssigneeID: e.bob.ID, Sort: domain.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"fourth", "third", "second", "first"}, titles(tasks))

	tasks, _, err = e.repos.Tasks.TasksByAssignee(e.ctx, domain.TaskFilter{AssigneeID: e.bob.ID, Sort: domain.SortDeadline})
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "first", "second", "fourth"}, titles(tasks))

	tasks, total, err = e.repos.Tasks.TasksByAssignee(e.ctx, domain.TaskFilter{
		AssigneeID: e.bob.ID,
		Status:     domain.TaskOpen,
		Sort:       domain.SortOldest,
		Limit:      2,
		Offset:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"third", "fourth"}, titles(tasks))
}

func TestTasksForCalendarUsesDeadlineOrCreation(t *testing.T) {
	e := setup(t)

	inWindow := startOfYear.Add(48 * time.Hour)
	outOfWindow := startOfYear.AddDate(0, 1, 0)

	withDeadline, err := e.repos.Tasks.Create(e.ctx, domain.Task{Title: "due", Status: domain.TaskOpen, Deadline: &inWindow, AssigneeID: &e.alice.ID, TeamID: e.team.ID})
	require.NoError(t, err)
	_, err = e.repos.Tasks.Create(e.ctx, domain.Task{Title: "later", Status: domain.TaskOpen, Deadline: &outOfWindow, AssigneeID: &e.alice.ID, TeamID: e.team.ID})
	require.NoError(t, err)
	undated, err := e.repos.Tasks.Create(e.ctx, domain.Task{Title: "undated", Status: domain.TaskOpen, AssigneeID: &e.alice.ID, TeamID: e.team.ID})
	require.NoError(t, err)
	_, err = e.repos.Tasks.Create(e.ctx, domain.Task{Title: "not mine", Status: domain.TaskOpen, Deadline: &inWindow, AssigneeID: &e.bob.ID, TeamID: e.team.ID})
	require.NoError(t, err)

	tasks, err := e.repos.Tasks.TasksForCalendar(e.ctx, e.alice.ID, startOfYear, startOfYear.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, withDeadline.ID, tasks[0].ID)
	assert.Equal(t, undated.ID, tasks[1].ID)
}

func TestSuccessUpdateTaskKeepsOwnership(t *testing.T) {
	e := setup(t)

	task, err := e.repos.Tasks.Create(e.ctx, domain.Task{Title: "t", Status: domain.TaskOpen, CreatorID: e.alice.ID, TeamID: e.team.ID})
	require.NoError(t, err)
	e.clock.advance(time.Hour)

	task.Status = domain.TaskCompleted
	task.CreatorID = e.bob.ID
	updated, err := e.repos.Tasks.Update(e.ctx, task)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, updated.Status)
	assert.Equal(t, e.alice.ID, updated.CreatorID)
	assert.Equal(t, startOfYear, updated.CreatedAt)
	assert.Equal(t, startOfYear.Add(time.Hour), updated.UpdatedAt)
}

func TestMeetingsForUserWindows(t *testing.T) {
	e := setup(t)

	create := func(title string, start time.Time) domain.Meeting {
		m, err := e.repos.Meetings.Create(e.ctx, domain.Meeting{
			Title:        title,
			StartTime:    start,
			EndTime:      start.Add(time.Hour),
			OrganizerID:  e.alice.ID,
			TeamID:       e.team.ID,
			Participants: []domain.UserID{e.alice.ID, e.alice.ID},
		})
		require.NoError(t, err)
		return m
	}

	now := startOfYear.Add(12 * time.Hour)
	past := create("past", now.Add(-3*time.Hour))
	running := create("running", now.Add(-30*time.Minute))
	upcoming := create("upcoming", now.Add(time.Hour))

	assert.Equal(t, []domain.UserID{e.alice.ID}, past.Participants)

	ids := func(ms []domain.Meeting) []domain.MeetingID {
		out := make([]domain.MeetingID, len(ms))
		for i, m := range ms {
			out[i] = m.ID
		}
		return out
	}

	all, err := e.repos.Meetings.MeetingsForUser(e.ctx, e.alice.ID, domain.WindowAll, now)
	require.NoError(t, err)
	assert.Equal(t, []domain.MeetingID{past.ID, running.ID, upcoming.ID}, ids(all))

	up, err := e.repos.Meetings.MeetingsForUser(e.ctx, e.alice.ID, domain.WindowUpcoming, now)
	require.NoError(t, err)
	assert.Equal(t, []domain.MeetingID{upcoming.ID}, ids(up))

	gone, err := e.repos.Meetings.MeetingsForUser(e.ctx, e.alice.ID, domain.WindowPast, now)
	require.NoError(t, err)
	assert.Equal(t, []domain.MeetingID{past.ID}, ids(gone))

	none, err := e.repos.Meetings.MeetingsForUser(e.ctx, e.bob.ID, domain.WindowAll, now)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMeetingsForCalendarIncludesIntersecting(t *testing.T) {
	e := setup(t)

	from := startOfYear.Add(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	spanning, err := e.repos.Meetings.Create(e.ctx, domain.Meeting{
		Title:        "offsite",
		StartTime:    from.Add(-time.Hour),
		EndTime:      to.Add(time.Hour),
		OrganizerID:  e.alice.ID,
		TeamID:       e.team.ID,
		Participants: []domain.UserID{e.alice.ID},
	})
	require.NoError(t, err)
	_, err = e.repos.Meetings.Create(e.ctx, domain.Meeting{
		Title:        "earlier",
		StartTime:    from.Add(-3 * time.Hour),
		EndTime:      from.Add(-2 * time.Hour),
		OrganizerID:  e.alice.ID,
		TeamID:       e.team.ID,
		Participants: []domain.UserID{e.alice.ID},
	})
	require.NoError(t, err)

	meetings, err := e.repos.Meetings.MeetingsForCalendar(e.ctx, e.alice.ID, from, to)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, spanning.ID, meetings[0].ID)
}

func TestReturnedMeetingDoesNotAliasStorage(t *testing.T) {
	e := setup(t)

	m, err := e.repos.Meetings.Create(e.ctx, domain.Meeting{
		Title:        "sync",
		StartTime:    startOfYear,
		EndTime:      startOfYear.Add(time.Hour),
		OrganizerID:  e.alice.ID,
		TeamID:       e.team.ID,
		Participants: []domain.UserID{e.alice.ID, e.bob.ID},
	})
	require.NoError(t, err)

	m.Participants[0] = 999

	stored, err := e.repos.Meetings.MeetingByID(e.ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{e.alice.ID, e.bob.ID}, stored.Participants)
}

func TestEvaluationListAndStats(t *testing.T) {
	e := setup(t)

	task, err := e.repos.Tasks.Create(e.ctx, domain.Task{Title: "t", Status: domain.TaskOpen, CreatorID: e.alice.ID, TeamID: e.team.ID})
	require.NoError(t, err)

	for _, rating := range []int{5, 3, 4} {
		_, err := e.repos.Evaluations.Create(e.ctx, domain.Evaluation{Rating: rating, TaskID: task.ID, UserID: e.bob.ID, EvaluatorID: e.alice.ID})
		require.NoError(t, err)
		e.clock.advance(24 * time.Hour)
	}

	list, err := e.repos.Evaluations.List(e.ctx, domain.EvaluationFilter{UserID: e.bob.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 4, list[0].Rating)
	assert.Equal(t, 3, list[1].Rating)

	avg, count, err := e.repos.Evaluations.Stats(e.ctx, e.bob.ID, startOfYear, e.clock.now)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.InDelta(t, 4.0, avg, 1e-9)

	avg, count, err = e.repos.Evaluations.Stats(e.ctx, e.bob.ID, startOfYear.Add(time.Hour), e.clock.now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.InDelta(t, 3.5, avg, 1e-9)

	avg, count, err = e.repos.Evaluations.Stats(e.ctx, e.alice.ID, startOfYear, e.clock.now)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, avg)
}

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	e := setup(t)

	err := e.storage.WithinTx(e.ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Memberships.Create(ctx, domain.Membership{UserID: e.bob.ID, TeamID: e.team.ID, Role: domain.RoleMember})
		return err
	})
	require.NoError(t, err)

	_, err = e.repos.Memberships.Membership(e.ctx, e.bob.ID, e.team.ID)
	assert.NoError(t, err)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	e := setup(t)
	boom := errors.New("boom")

	err := e.storage.WithinTx(e.ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Memberships.Create(ctx, domain.Membership{UserID: e.bob.ID, TeamID: e.team.ID, Role: domain.RoleMember}); err != nil {
			return err
		}
		if _, err := repos.Teams.Create(ctx, domain.Team{Name: "Temp", InviteCode: "code-2"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = e.repos.Memberships.Membership(e.ctx, e.bob.ID, e.team.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.repos.Teams.TeamByInviteCode(e.ctx, "code-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	team, err := e.repos.Teams.Create(e.ctx, domain.Team{Name: "Next", InviteCode: "code-3"})
	require.NoError(t, err)
	assert.Equal(t, e.team.ID+1, team.ID)
}

func TestWithinTxRollsBackWhenContextCancelled(t *testing.T) {
	e := setup(t)
	ctx, cancel := context.WithCancel(e.ctx)

	err := e.storage.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Memberships.Create(ctx, domain.Membership{UserID: e.bob.ID, TeamID: e.team.ID, Role: domain.RoleMember})
		cancel()
		return err
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = e.repos.Memberships.Membership(e.ctx, e.bob.ID, e.team.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
