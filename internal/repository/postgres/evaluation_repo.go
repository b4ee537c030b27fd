package postgres

import (
	"bms-service/internal/domain"
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type EvaluationRepo struct {
	db querier
}

func NewEvaluationRepo(db querier) *EvaluationRepo {
	return &EvaluationRepo{
		db: db,
	}
}

const evaluationColumns = `e.id, e.rating, e.comment, e.task_id, e.user_id, e.evaluator_id, e.created_at`

func (er *EvaluationRepo) Create(ctx context.Context, evaluation domain.Evaluation) (domain.Evaluation, error) {
	createEvaluationQuery := `
		INSERT INTO evaluations AS e (rating, comment, task_id, user_id, evaluator_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + evaluationColumns

	created, err := scanEvaluation(er.db.QueryRow(ctx, createEvaluationQuery,
		evaluation.Rating, evaluation.Comment, evaluation.TaskID, evaluation.UserID, evaluation.EvaluatorID,
	))
	if err != nil {
		if constraint, ok := missingReference(err); ok {
			if constraint == "evaluations_task_id_fkey" {
				return domain.Evaluation{}, domain.ErrTaskNotFound
			}
			return domain.Evaluation{}, domain.ErrUserNotFound
		}
		return domain.Evaluation{}, err
	}

	return created, nil
}

func (er *EvaluationRepo) EvaluationByID(ctx context.Context, evaluationID domain.EvaluationID) (domain.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations e WHERE e.id = $1`

	return scanEvaluation(er.db.QueryRow(ctx, query, evaluationID))
}

func (er *EvaluationRepo) Update(ctx context.Context, evaluation domain.Evaluation) (domain.Evaluation, error) {
	updateEvaluationQuery := `
		UPDATE evaluations AS e
		SET rating = $2, comment = $3
		WHERE e.id = $1
		RETURNING ` + evaluationColumns

	return scanEvaluation(er.db.QueryRow(ctx, updateEvaluationQuery, evaluation.ID, evaluation.Rating, evaluation.Comment))
}

func (er *EvaluationRepo) Delete(ctx context.Context, evaluationID domain.EvaluationID) error {
	tag, err := er.db.Exec(ctx, `DELETE FROM evaluations WHERE id = $1`, evaluationID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrEvaluationNotFound
	}

	return nil
}

func (er *EvaluationRepo) List(ctx context.Context, filter domain.EvaluationFilter) ([]domain.Evaluation, error) {
	listQuery := `
		SELECT ` + evaluationColumns + `
		FROM evaluations e
		WHERE ($1 = 0 OR e.task_id = $1)
			AND ($2 = 0 OR e.user_id = $2)
			AND ($3 = 0 OR e.evaluator_id = $3)
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT NULLIF($4, 0) OFFSET $5
	`

	rows, err := er.db.Query(ctx, listQuery,
		int64(filter.TaskID), int64(filter.UserID), int64(filter.EvaluatorID), filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	evaluations := []domain.Evaluation{}
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return evaluations, nil
}

func (er *EvaluationRepo) Stats(ctx context.Context, userID domain.UserID, from, to time.Time) (float64, int, error) {
	statsQuery := `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
		FROM evaluations
		WHERE user_id = $1 AND created_at BETWEEN $2 AND $3
	`

	var (
		average float64
		count   int
	)
	if err := er.db.QueryRow(ctx, statsQuery, userID, from, to).Scan(&average, &count); err != nil {
		return 0, 0, err
	}

	return average, count, nil
}

func scanEvaluation(row scanner) (domain.Evaluation, error) {
	var e domain.Evaluation
	err := row.Scan(&e.ID, &e.Rating, &e.Comment, &e.TaskID, &e.UserID, &e.EvaluatorID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Evaluation{}, domain.ErrEvaluationNotFound
		}
		return domain.Evaluation{}, err
	}

	return e, nil
}
