package domain

import "time"

type (
	TaskID    int64
	CommentID int64
)

type TaskStatus string

const (
	TaskOpen       TaskStatus = "OPEN"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskOpen, TaskInProgress, TaskCompleted:
		return true
	}

	return false
}

type Task struct {
	ID          TaskID
	Title       string
	Description string
	Status      TaskStatus
	Deadline    *time.Time
	CreatorID   UserID
	AssigneeID  *UserID
	TeamID      TeamID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TaskComment struct {
	ID        CommentID
	TaskID    TaskID
	AuthorID  UserID
	Content   string
	CreatedAt time.Time
}

type TaskSort string

const (
	SortNewest   TaskSort = "newest"
	SortOldest   TaskSort = "oldest"
	SortDeadline TaskSort = "deadline"
)

type TaskFilter struct {
	AssigneeID UserID
	Status     TaskStatus
	Sort       TaskSort
	Limit      int
	Offset     int
}

type TaskPage struct {
	Items      []Task
	Page       int
	PerPage    int
	TotalCount int
	TotalPages int
}
