package service

import (
	"bms-service/internal/domain"
	"bms-service/internal/policy"
	"bms-service/internal/repository"
	"context"
	"log/slog"
	"strings"
	"time"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

type TaskService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewTaskService(store repository.Store, logger *slog.Logger) *TaskService {
	return &TaskService{
		store:  store,
		logger: logger,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Deadline    *time.Time
	AssigneeID  *domain.UserID
	TeamID      domain.TeamID
}

// UpdateTaskInput carries only the fields to change; nil leaves a field as is.
// ClearDeadline and ClearAssignee reset the field to null and win over a value.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *domain.TaskStatus
	Deadline      *time.Time
	AssigneeID    *domain.UserID
	ClearDeadline bool
	ClearAssignee bool
}

type ListTasksInput struct {
	Page    int
	PerPage int
	Status  domain.TaskStatus
	Sort    domain.TaskSort
}

func (s *TaskService) CreateTask(ctx context.Context, actor domain.Principal, in CreateTaskInput) (domain.Task, error) {
	var created domain.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Teams.TeamByID(ctx, in.TeamID); err != nil {
			return err
		}

		roles := NewRoleStore(repos.Memberships)
		role, err := roles.RoleOf(ctx, actor.UserID, in.TeamID)
		if err != nil {
			return err
		}
		if err := policy.CanViewTeam(role); err != nil {
			return err
		}

		title := strings.TrimSpace(in.Title)
		if title == "" {
			return domain.InvalidInput("task title is required")
		}

		status := in.Status
		if status == "" {
			status = domain.TaskOpen
		}
		if !status.Valid() {
			return domain.ErrInvalidStatus
		}

		if in.AssigneeID != nil {
			if err := roles.RequireMembers(ctx, in.TeamID, *in.AssigneeID); err != nil {
				return err
			}
		}

		created, err = repos.Tasks.Create(ctx, domain.Task{
			Title:       title,
			Description: in.Description,
			Status:      status,
			Deadline:    in.Deadline,
			CreatorID:   actor.UserID,
			AssigneeID:  in.AssigneeID,
			TeamID:      in.TeamID,
		})

		return err
	})
	if err != nil {
		return domain.Task{}, err
	}

	s.logger.Info("task created", "task_id", created.ID, "team_id", created.TeamID, "user_id", actor.UserID)

	return created, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, actor domain.Principal, taskID domain.TaskID, in UpdateTaskInput) (domain.Task, error) {
	var updated domain.Task
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		task, err := repos.Tasks.TaskByID(ctx, taskID)
		if err != nil {
			return err
		}

		roles := NewRoleStore(repos.Memberships)
		role, err := roles.RoleOf(ctx, actor.UserID, task.TeamID)
		if err != nil {
			return err
		}

		isAssignee := task.AssigneeID != nil && *task.AssigneeID == actor.UserID
		if err := policy.CanMutateTask(role, isAssignee, task.CreatorID == actor.UserID, policy.ActionUpdate); err != nil {
			return err
		}

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return domain.InvalidInput("task title is required")
			}
			task.Title = title
		}
		if in.Description != nil {
			task.Description = *in.Description
		}
		if in.Status != nil {
			if !in.Status.Valid() {
				return domain.ErrInvalidStatus
			}
			task.Status = *in.Status
		}
		switch {
		case in.ClearDeadline:
			task.Deadline = nil
		case in.Deadline != nil:
			task.Deadline = in.Deadline
		}
		switch {
		case in.ClearAssignee:
			task.AssigneeID = nil
		case in.AssigneeID != nil:
			if err := roles.RequireMembers(ctx, task.TeamID, *in.AssigneeID); err != nil {
				return err
			}
			task.AssigneeID = in.AssigneeID
		}

		updated, err = repos.Tasks.Update(ctx, task)

		return err
	})
	if err != nil {
		return domain.Task{}, err
	}

	s.logger.Info("task updated", "task_id", taskID, "status", updated.Status, "user_id", actor.UserID)

	return updated, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, actor domain.Principal, taskID domain.TaskID) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		task, err := repos.Tasks.TaskByID(ctx, taskID)
		if err != nil {
			return err
		}

		role, err := NewRoleStore(repos.Memberships).RoleOf(ctx, actor.UserID, task.TeamID)
		if err != nil {
			return err
		}

		isAssignee := task.AssigneeID != nil && *task.AssigneeID == actor.UserID
		if err := policy.CanMutateTask(role, isAssignee, task.CreatorID == actor.UserID, policy.ActionDelete); err != nil {
			return err
		}

		return repos.Tasks.Delete(ctx, taskID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("task deleted", "task_id", taskID, "user_id", actor.UserID)

	return nil
}

func (s *TaskService) Task(ctx context.Context, actor domain.Principal, taskID domain.TaskID) (domain.Task, error) {
	repos := s.store.Repos()

	task, err := repos.Tasks.TaskByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	if err := s.authorizeView(ctx, repos, actor, task); err != nil {
		return domain.Task{}, err
	}

	return task, nil
}

// TeamTasks lists the tasks of every team the caller belongs to.
func (s *TaskService) TeamTasks(ctx context.Context, actor domain.Principal) ([]domain.Task, error) {
	return s.store.Repos().Tasks.TasksByMember(ctx, actor.UserID)
}

// AssignedTasks pages through the tasks assigned to the caller.
func (s *TaskService) AssignedTasks(ctx context.Context, actor domain.Principal, in ListTasksInput) (domain.TaskPage, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.PerPage < 1 {
		in.PerPage = defaultPerPage
	}
	if in.PerPage > maxPerPage {
		in.PerPage = maxPerPage
	}
	if in.Status != "" && !in.Status.Valid() {
		return domain.TaskPage{}, domain.ErrInvalidStatus
	}

	switch in.Sort {
	case "":
		in.Sort = domain.SortNewest
	case domain.SortNewest, domain.SortOldest, domain.SortDeadline:
	default:
		return domain.TaskPage{}, domain.InvalidInput("sort must be one of: newest, oldest, deadline")
	}

	tasks, total, err := s.store.Repos().Tasks.TasksByAssignee(ctx, domain.TaskFilter{
		AssigneeID: actor.UserID,
		Status:     in.Status,
		Sort:       in.Sort,
		Limit:      in.PerPage,
		Offset:     (in.Page - 1) * in.PerPage,
	})
	if err != nil {
		return domain.TaskPage{}, err
	}

	return domain.TaskPage{
		Items:      tasks,
		Page:       in.Page,
		PerPage:    in.PerPage,
		TotalCount: total,
		TotalPages: (total + in.PerPage - 1) / in.PerPage,
	}, nil
}

func (s *TaskService) AddComment(ctx context.Context, actor domain.Principal, taskID domain.TaskID, content string) (domain.TaskComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.TaskComment{}, domain.InvalidInput("comment content is required")
	}

	var comment domain.TaskComment
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		task, err := repos.Tasks.TaskByID(ctx, taskID)
		if err != nil {
			return err
		}

		if err := s.authorizeView(ctx, repos, actor, task); err != nil {
			return err
		}

		comment, err = repos.Tasks.AddComment(ctx, domain.TaskComment{
			TaskID:   taskID,
			AuthorID: actor.UserID,
			Content:  content,
		})

		return err
	})
	if err != nil {
		return domain.TaskComment{}, err
	}

	s.logger.Info("task comment added", "task_id", taskID, "comment_id", comment.ID, "user_id", actor.UserID)

	return comment, nil
}

func (s *TaskService) Comments(ctx context.Context, actor domain.Principal, taskID domain.TaskID) ([]domain.TaskComment, error) {
	repos := s.store.Repos()

	task, err := repos.Tasks.TaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeView(ctx, repos, actor, task); err != nil {
		return nil, err
	}

	return repos.Tasks.CommentsByTask(ctx, taskID)
}

func (s *TaskService) authorizeView(ctx context.Context, repos repository.Repositories, actor domain.Principal, task domain.Task) error {
	role, err := NewRoleStore(repos.Memberships).RoleOf(ctx, actor.UserID, task.TeamID)
	if err != nil {
		return err
	}

	return policy.CanViewTeam(role)
}
