package inmemory

import (
	"bms-service/internal/domain"
	"cmp"
	"context"
	"slices"
	"time"
)

type TaskRepo struct {
	db conn
}

func NewTaskRepo(db conn) *TaskRepo {
	return &TaskRepo{
		db: db,
	}
}

func (tr *TaskRepo) Create(_ context.Context, task domain.Task) (domain.Task, error) {
	t, release := tr.db.acquire()
	defer release()

	if _, exists := t.teams[task.TeamID]; !exists {
		return domain.Task{}, domain.ErrTeamNotFound
	}

	t.seq.task++
	task.ID = domain.TaskID(t.seq.task)
	task.CreatedAt = tr.db.now()
	task.UpdatedAt = task.CreatedAt
	t.tasks[task.ID] = task

	return task, nil
}

func (tr *TaskRepo) TaskByID(_ context.Context, taskID domain.TaskID) (domain.Task, error) {
	t, release := tr.db.acquire()
	defer release()

	task, exists := t.tasks[taskID]
	if !exists {
		return domain.Task{}, domain.ErrTaskNotFound
	}

	return task, nil
}

func (tr *TaskRepo) Update(_ context.Context, task domain.Task) (domain.Task, error) {
	t, release := tr.db.acquire()
	defer release()

	existing, exists := t.tasks[task.ID]
	if !exists {
		return domain.Task{}, domain.ErrTaskNotFound
	}

	task.CreatorID = existing.CreatorID
	task.TeamID = existing.TeamID
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = tr.db.now()
	t.tasks[task.ID] = task

	return task, nil
}

func (tr *TaskRepo) Delete(_ context.Context, taskID domain.TaskID) error {
	t, release := tr.db.acquire()
	defer release()

	if _, exists := t.tasks[taskID]; !exists {
		return domain.ErrTaskNotFound
	}

	deleteTask(t, taskID)

	return nil
}

func (tr *TaskRepo) UnassignInTeam(_ context.Context, teamID domain.TeamID, userID domain.UserID) error {
	t, release := tr.db.acquire()
	defer release()

	for id, task := range t.tasks {
		if task.TeamID != teamID || task.AssigneeID == nil || *task.AssigneeID != userID {
			continue
		}
		task.AssigneeID = nil
		task.UpdatedAt = tr.db.now()
		t.tasks[id] = task
	}

	return nil
}

func (tr *TaskRepo) TasksByMember(_ context.Context, userID domain.UserID) ([]domain.Task, error) {
	t, release := tr.db.acquire()
	defer release()

	tasks := []domain.Task{}
	for _, task := range t.tasks {
		if _, ok := t.memberships[task.TeamID][userID]; ok {
			tasks = append(tasks, task)
		}
	}

	slices.SortFunc(tasks, newestFirst)

	return tasks, nil
}

func (tr *TaskRepo) TasksByAssignee(_ context.Context, filter domain.TaskFilter) ([]domain.Task, int, error) {
	t, release := tr.db.acquire()
	defer release()

	tasks := []domain.Task{}
	for _, task := range t.tasks {
		if task.AssigneeID == nil || *task.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		tasks = append(tasks, task)
	}

	switch filter.Sort {
	case domain.SortOldest:
		slices.SortFunc(tasks, func(a, b domain.Task) int { return newestFirst(b, a) })
	case domain.SortDeadline:
		slices.SortFunc(tasks, byDeadline)
	default:
		slices.SortFunc(tasks, newestFirst)
	}

	return page(tasks, filter.Offset, filter.Limit), len(tasks), nil
}

func (tr *TaskRepo) TasksForCalendar(_ context.Context, userID domain.UserID, from, to time.Time) ([]domain.Task, error) {
	t, release := tr.db.acquire()
	defer release()

	tasks := []domain.Task{}
	for _, task := range t.tasks {
		if task.AssigneeID == nil || *task.AssigneeID != userID {
			continue
		}

		instant := task.CreatedAt
		if task.Deadline != nil {
			instant = *task.Deadline
		}
		if instant.Before(from) || instant.After(to) {
			continue
		}

		tasks = append(tasks, task)
	}

	slices.SortFunc(tasks, func(a, b domain.Task) int { return cmp.Compare(a.ID, b.ID) })

	return tasks, nil
}

func (tr *TaskRepo) AddComment(_ context.Context, comment domain.TaskComment) (domain.TaskComment, error) {
	t, release := tr.db.acquire()
	defer release()

	if _, exists := t.tasks[comment.TaskID]; !exists {
		return domain.TaskComment{}, domain.ErrTaskNotFound
	}

	t.seq.comment++
	comment.ID = domain.CommentID(t.seq.comment)
	comment.CreatedAt = tr.db.now()
	t.comments[comment.ID] = comment

	return comment, nil
}

func (tr *TaskRepo) CommentsByTask(_ context.Context, taskID domain.TaskID) ([]domain.TaskComment, error) {
	t, release := tr.db.acquire()
	defer release()

	comments := []domain.TaskComment{}
	for _, comment := range t.comments {
		if comment.TaskID == taskID {
			comments = append(comments, comment)
		}
	}

	slices.SortFunc(comments, func(a, b domain.TaskComment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return comments, nil
}

// deleteTask drops a task with its comments and evaluations.
func deleteTask(t *tables, taskID domain.TaskID) {
	for id, comment := range t.comments {
		if comment.TaskID == taskID {
			delete(t.comments, id)
		}
	}
	for id, evaluation := range t.evaluations {
		if evaluation.TaskID == taskID {
			delete(t.evaluations, id)
		}
	}
	delete(t.tasks, taskID)
}

func newestFirst(a, b domain.Task) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

// byDeadline orders by deadline ascending with tasks lacking one last.
func byDeadline(a, b domain.Task) int {
	switch {
	case a.Deadline == nil && b.Deadline == nil:
		return cmp.Compare(a.ID, b.ID)
	case a.Deadline == nil:
		return 1
	case b.Deadline == nil:
		return -1
	}

	if c := a.Deadline.Compare(*b.Deadline); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
