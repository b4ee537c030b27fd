package service_test

import (
	"bms-service/internal/domain"
	"bms-service/internal/repository"
	"bms-service/internal/repository/inmemory"
	"bms-service/internal/service"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	now = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	adminUser     = domain.User{Email: "olga@example.com", FirstName: "Olga", LastName: "Orlova"}
	managerUser   = domain.User{Email: "mike@example.com", FirstName: "Mike"}
	memberUser    = domain.User{Email: "petr@example.com", FirstName: "Petr", LastName: "Popov"}
	teammateUser  = domain.User{Email: "mira@example.com", FirstName: "Mira"}
	outsiderUser  = domain.User{Email: "oscar@example.com", FirstName: "Oscar"}
	superuserUser = domain.User{Email: "root@example.com", IsSuperuser: true}
)

type testEnviroment struct {
	ctx     context.Context
	storage *inmemory.InMemoryStorage
	repos   repository.Repositories

	admin     domain.User
	manager   domain.User
	member    domain.User
	teammate  domain.User
	outsider  domain.User
	superuser domain.User
	team      domain.Team

	teamService       *service.TeamService
	taskService       *service.TaskService
	meetingService    *service.MeetingService
	evaluationService *service.EvaluationService
	calendarService   *service.CalendarService
	userService       *service.UserService
}

func setup(t *testing.T) testEnviroment {
	t.Helper()

	ctx := context.Background()
	clock := func() time.Time { return now }
	logger := slog.New(slog.DiscardHandler)

	storage := inmemory.NewStorage(inmemory.WithClock(clock))
	repos := storage.Repos()

	e := testEnviroment{
		ctx:               ctx,
		storage:           storage,
		repos:             repos,
		teamService:       service.NewTeamService(storage, logger),
		taskService:       service.NewTaskService(storage, logger),
		meetingService:    service.NewMeetingService(storage, logger, service.WithClock(clock)),
		evaluationService: service.NewEvaluationService(storage, logger, service.WithClock(clock)),
		calendarService:   service.NewCalendarService(storage, service.WithClock(clock)),
		userService:       service.NewUserService(storage, logger),
	}

	for _, u := range []struct {
		dst *domain.User
		src domain.User
	}{
		{&e.admin, adminUser},
		{&e.manager, managerUser},
		{&e.member, memberUser},
		{&e.teammate, teammateUser},
		{&e.outsider, outsiderUser},
		{&e.superuser, superuserUser},
	} {
		created, err := repos.Users.Create(ctx, u.src)
		require.NoError(t, err)
		*u.dst = created
	}

	team, err := e.teamService.CreateTeam(ctx, principal(e.admin), service.CreateTeamInput{Name: "Platform"})
	require.NoError(t, err)
	e.team = team.Team

	for _, m := range []domain.Membership{
		{UserID: e.manager.ID, TeamID: e.team.ID, Role: domain.RoleManager},
		{UserID: e.member.ID, TeamID: e.team.ID, Role: domain.RoleMember},
		{UserID: e.teammate.ID, TeamID: e.team.ID, Role: domain.RoleMember},
	} {
		_, err := repos.Memberships.Create(ctx, m)
		require.NoError(t, err)
	}

	return e
}

func principal(u domain.User) domain.Principal {
	return domain.Principal{UserID: u.ID, IsSuperuser: u.IsSuperuser}
}

func ptr[T any](v T) *T {
	return &v
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
}
