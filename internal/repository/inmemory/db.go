package inmemory

import (
	"bms-service/internal/domain"
	"bms-service/internal/repository"
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

type InMemoryStorage struct {
	mu   sync.Mutex
	data *tables
	now  func() time.Time
}

type Option func(*InMemoryStorage)

// WithClock overrides the source of created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryStorage) {
		s.now = now
	}
}

func NewStorage(opts ...Option) *InMemoryStorage {
	s := &InMemoryStorage{
		data: newTables(),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *InMemoryStorage) Repos() repository.Repositories {
	return s.repos(conn{storage: s})
}

// WithinTx runs fn against a private copy of the tables. The copy replaces the committed
// state only when fn succeeds and ctx is still alive; transactions never interleave.
func (s *InMemoryStorage) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.data.clone()
	if err := fn(ctx, s.repos(conn{storage: s, tx: working})); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.data = working

	return nil
}

func (s *InMemoryStorage) repos(c conn) repository.Repositories {
	return repository.Repositories{
		Users:       NewUserRepo(c),
		Teams:       NewTeamRepo(c),
		Memberships: NewMembershipRepo(c),
		Tasks:       NewTaskRepo(c),
		Meetings:    NewMeetingRepo(c),
		Evaluations: NewEvaluationRepo(c),
	}
}

// conn points a repository either at the committed tables or at an open transaction's copy.
type conn struct {
	storage *InMemoryStorage
	tx      *tables
}

func (c conn) acquire() (*tables, func()) {
	if c.tx != nil {
		return c.tx, func() {}
	}

	c.storage.mu.Lock()

	return c.storage.data, c.storage.mu.Unlock
}

func (c conn) now() time.Time {
	return c.storage.now()
}

type sequences struct {
	user       int64
	team       int64
	task       int64
	comment    int64
	meeting    int64
	evaluation int64
}

type tables struct {
	users       map[domain.UserID]domain.User
	teams       map[domain.TeamID]domain.Team
	memberships map[domain.TeamID]map[domain.UserID]domain.Membership
	tasks       map[domain.TaskID]domain.Task
	comments    map[domain.CommentID]domain.TaskComment
	meetings    map[domain.MeetingID]domain.Meeting
	evaluations map[domain.EvaluationID]domain.Evaluation
	seq         sequences
}

func newTables() *tables {
	return &tables{
		users:       map[domain.UserID]domain.User{},
		teams:       map[domain.TeamID]domain.Team{},
		memberships: map[domain.TeamID]map[domain.UserID]domain.Membership{},
		tasks:       map[domain.TaskID]domain.Task{},
		comments:    map[domain.CommentID]domain.TaskComment{},
		meetings:    map[domain.MeetingID]domain.Meeting{},
		evaluations: map[domain.EvaluationID]domain.Evaluation{},
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		users:       maps.Clone(t.users),
		teams:       maps.Clone(t.teams),
		memberships: make(map[domain.TeamID]map[domain.UserID]domain.Membership, len(t.memberships)),
		tasks:       maps.Clone(t.tasks),
		comments:    maps.Clone(t.comments),
		meetings:    make(map[domain.MeetingID]domain.Meeting, len(t.meetings)),
		evaluations: maps.Clone(t.evaluations),
		seq:         t.seq,
	}

	for teamID, members := range t.memberships {
		c.memberships[teamID] = maps.Clone(members)
	}
	for id, m := range t.meetings {
		c.meetings[id] = copyMeeting(m)
	}

	return c
}

func copyMeeting(m domain.Meeting) domain.Meeting {
	m.Participants = slices.Clone(m.Participants)
	return m
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
