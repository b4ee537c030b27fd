package domain

import "time"

type EvaluationID int64

const (
	MinRating = 1
	MaxRating = 5
)

type Evaluation struct {
	ID          EvaluationID
	Rating      int
	Comment     string
	TaskID      TaskID
	UserID      UserID
	EvaluatorID UserID
	CreatedAt   time.Time
}

type EvaluationFilter struct {
	TaskID      TaskID
	UserID      UserID
	EvaluatorID UserID
	Limit       int
	Offset      int
}

type EvaluationStats struct {
	UserID           UserID
	AverageRating    float64
	TotalEvaluations int
	PeriodStart      time.Time
	PeriodEnd        time.Time
}

type EvaluationDetails struct {
	Evaluation
	TaskTitle     string
	UserName      string
	EvaluatorName string
}
