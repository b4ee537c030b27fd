package postgres

import (
	"bms-service/internal/domain"
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type TaskRepo struct {
	db querier
}

func NewTaskRepo(db querier) *TaskRepo {
	return &TaskRepo{
		db: db,
	}
}

const taskColumns = `t.id, t.title, t.description, t.status, t.deadline, t.creator_id, t.assignee_id, t.team_id, t.created_at, t.updated_at`

var taskOrders = map[domain.TaskSort]string{
	domain.SortNewest:   `t.created_at DESC, t.id DESC`,
	domain.SortOldest:   `t.created_at ASC, t.id ASC`,
	domain.SortDeadline: `t.deadline ASC NULLS LAST, t.id ASC`,
}

func (tr *TaskRepo) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	createTaskQuery := `
		INSERT INTO tasks AS t (title, description, status, deadline, creator_id, assignee_id, team_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + taskColumns

	created, err := scanTask(tr.db.QueryRow(ctx, createTaskQuery,
		task.Title, task.Description, task.Status, task.Deadline, task.CreatorID, task.AssigneeID, task.TeamID,
	))
	if err != nil {
		if constraint, ok := missingReference(err); ok {
			if constraint == "tasks_team_id_fkey" {
				return domain.Task{}, domain.ErrTeamNotFound
			}
			return domain.Task{}, domain.ErrUserNotFound
		}
		return domain.Task{}, err
	}

	return created, nil
}

func (tr *TaskRepo) TaskByID(ctx context.Context, taskID domain.TaskID) (domain.Task, error) {
	taskByIDQuery := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`

	return scanTask(tr.db.QueryRow(ctx, taskByIDQuery, taskID))
}

func (tr *TaskRepo) Update(ctx context.Context, task domain.Task) (domain.Task, error) {
	updateTaskQuery := `
		UPDATE tasks AS t
		SET
			title = $2,
			description = $3,
			status = $4,
			deadline = $5,
			assignee_id = $6,
			updated_at = NOW()
		WHERE t.id = $1
		RETURNING ` + taskColumns

	return scanTask(tr.db.QueryRow(ctx, updateTaskQuery,
		task.ID, task.Title, task.Description, task.Status, task.Deadline, task.AssigneeID,
	))
}

// Delete relies on ON DELETE CASCADE for comments and evaluations.
func (tr *TaskRepo) Delete(ctx context.Context, taskID domain.TaskID) error {
	tag, err := tr.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

func (tr *TaskRepo) UnassignInTeam(ctx context.Context, teamID domain.TeamID, userID domain.UserID) error {
	unassignQuery := `
		UPDATE tasks
		SET assignee_id = NULL, updated_at = NOW()
		WHERE team_id = $1 AND assignee_id = $2`

	_, err := tr.db.Exec(ctx, unassignQuery, teamID, userID)

	return err
}

func (tr *TaskRepo) TasksByMember(ctx context.Context, userID domain.UserID) ([]domain.Task, error) {
	tasksByMemberQuery := `
		SELECT ` + taskColumns + `
		FROM tasks t
		JOIN team_memberships m ON m.team_id = t.team_id
		WHERE m.user_id = $1
		ORDER BY ` + taskOrders[domain.SortNewest]

	return tr.queryTasks(ctx, tasksByMemberQuery, userID)
}

func (tr *TaskRepo) TasksByAssignee(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, int, error) {
	order, ok := taskOrders[filter.Sort]
	if !ok {
		order = taskOrders[domain.SortNewest]
	}

	tasksQuery := `
		SELECT ` + taskColumns + `
		FROM tasks t
		WHERE t.assignee_id = $1 AND ($2 = '' OR t.status = $2)
		ORDER BY ` + order + `
		LIMIT NULLIF($3, 0) OFFSET $4
	`

	tasks, err := tr.queryTasks(ctx, tasksQuery, filter.AssigneeID, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}

	countQuery := `
		SELECT COUNT(*)
		FROM tasks t
		WHERE t.assignee_id = $1 AND ($2 = '' OR t.status = $2)
	`

	var total int
	if err := tr.db.QueryRow(ctx, countQuery, filter.AssigneeID, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (tr *TaskRepo) TasksForCalendar(ctx context.Context, userID domain.UserID, from, to time.Time) ([]domain.Task, error) {
	calendarQuery := `
		SELECT ` + taskColumns + `
		FROM tasks t
		WHERE t.assignee_id = $1
			AND (
				t.deadline BETWEEN $2 AND $3
				OR (t.deadline IS NULL AND t.created_at BETWEEN $2 AND $3)
			)
		ORDER BY t.id
	`

	return tr.queryTasks(ctx, calendarQuery, userID, from, to)
}

func (tr *TaskRepo) AddComment(ctx context.Context, comment domain.TaskComment) (domain.TaskComment, error) {
	addCommentQuery := `
		INSERT INTO task_comments (task_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := tr.db.QueryRow(ctx, addCommentQuery, comment.TaskID, comment.AuthorID, comment.Content).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		if _, ok := missingReference(err); ok {
			return domain.TaskComment{}, domain.ErrTaskNotFound
		}
		return domain.TaskComment{}, err
	}

	return comment, nil
}

func (tr *TaskRepo) CommentsByTask(ctx context.Context, taskID domain.TaskID) ([]domain.TaskComment, error) {
	commentsQuery := `
		SELECT id, task_id, author_id, content, created_at
		FROM task_comments
		WHERE task_id = $1
		ORDER BY created_at, id
	`

	rows, err := tr.db.Query(ctx, commentsQuery, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []domain.TaskComment{}
	for rows.Next() {
		var c domain.TaskComment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

func (tr *TaskRepo) queryTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := tr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func scanTask(row scanner) (domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Deadline,
		&task.CreatorID,
		&task.AssigneeID,
		&task.TeamID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, err
	}

	return task, nil
}
