package repository

import (
	"bms-service/internal/domain"
	"context"
	"time"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	UserByID(ctx context.Context, userID domain.UserID) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
}

type TeamRepository interface {
	Create(ctx context.Context, team domain.Team) (domain.Team, error)
	TeamByID(ctx context.Context, teamID domain.TeamID) (domain.Team, error)
	TeamByInviteCode(ctx context.Context, code string) (domain.Team, error)
	TeamsByUser(ctx context.Context, userID domain.UserID) ([]domain.Team, error)
	Update(ctx context.Context, team domain.Team) (domain.Team, error)
	Delete(ctx context.Context, teamID domain.TeamID) error
}

type MembershipRepository interface {
	Create(ctx context.Context, membership domain.Membership) (domain.Membership, error)
	Membership(ctx context.Context, userID domain.UserID, teamID domain.TeamID) (domain.Membership, error)
	MembersByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.TeamMember, error)
	Delete(ctx context.Context, userID domain.UserID, teamID domain.TeamID) error
}

type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) (domain.Task, error)
	TaskByID(ctx context.Context, taskID domain.TaskID) (domain.Task, error)
	Update(ctx context.Context, task domain.Task) (domain.Task, error)
	Delete(ctx context.Context, taskID domain.TaskID) error
	// UnassignInTeam clears the assignee of every task in the team assigned to userID.
	UnassignInTeam(ctx context.Context, teamID domain.TeamID, userID domain.UserID) error
	TasksByMember(ctx context.Context, userID domain.UserID) ([]domain.Task, error)
	TasksByAssignee(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, int, error)
	TasksForCalendar(ctx context.Context, userID domain.UserID, from, to time.Time) ([]domain.Task, error)
	AddComment(ctx context.Context, comment domain.TaskComment) (domain.TaskComment, error)
	CommentsByTask(ctx context.Context, taskID domain.TaskID) ([]domain.TaskComment, error)
}

type MeetingRepository interface {
	Create(ctx context.Context, meeting domain.Meeting) (domain.Meeting, error)
	MeetingByID(ctx context.Context, meetingID domain.MeetingID) (domain.Meeting, error)
	Update(ctx context.Context, meeting domain.Meeting) (domain.Meeting, error)
	Delete(ctx context.Context, meetingID domain.MeetingID) error
	MeetingsByParticipant(ctx context.Context, userID domain.UserID) ([]domain.Meeting, error)
	MeetingsForUser(ctx context.Context, userID domain.UserID, window domain.MeetingWindow, now time.Time) ([]domain.Meeting, error)
	MeetingsByTeam(ctx context.Context, teamID domain.TeamID) ([]domain.Meeting, error)
	MeetingsForCalendar(ctx context.Context, userID domain.UserID, from, to time.Time) ([]domain.Meeting, error)
	// LockParticipants serializes scheduling for the given users until the surrounding transaction ends.
	LockParticipants(ctx context.Context, userIDs []domain.UserID) error
}

type EvaluationRepository interface {
	Create(ctx context.Context, evaluation domain.Evaluation) (domain.Evaluation, error)
	EvaluationByID(ctx context.Context, evaluationID domain.EvaluationID) (domain.Evaluation, error)
	Update(ctx context.Context, evaluation domain.Evaluation) (domain.Evaluation, error)
	Delete(ctx context.Context, evaluationID domain.EvaluationID) error
	List(ctx context.Context, filter domain.EvaluationFilter) ([]domain.Evaluation, error)
	Stats(ctx context.Context, userID domain.UserID, from, to time.Time) (average float64, count int, err error)
}

type Repositories struct {
	Users       UserRepository
	Teams       TeamRepository
	Memberships MembershipRepository
	Tasks       TaskRepository
	Meetings    MeetingRepository
	Evaluations EvaluationRepository
}

// Store hands out repositories either directly or bound to a single transaction.
// WithinTx commits when fn returns nil and rolls back on any error or a cancelled ctx.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
