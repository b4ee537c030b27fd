package inmemory

import (
	"bms-service/internal/domain"
	"cmp"
	"context"
	"slices"
	"time"
)

type EvaluationRepo struct {
	db conn
}

func NewEvaluationRepo(db conn) *EvaluationRepo {
	return &EvaluationRepo{
		db: db,
	}
}

func (er *EvaluationRepo) Create(_ context.Context, evaluation domain.Evaluation) (domain.Evaluation, error) {
	t, release := er.db.acquire()
	defer release()

	if _, exists := t.tasks[evaluation.TaskID]; !exists {
		return domain.Evaluation{}, domain.ErrTaskNotFound
	}

	t.seq.evaluation++
	evaluation.ID = domain.EvaluationID(t.seq.evaluation)
	evaluation.CreatedAt = er.db.now()
	t.evaluations[evaluation.ID] = evaluation

	return evaluation, nil
}

func (er *EvaluationRepo) EvaluationByID(_ context.Context, evaluationID domain.EvaluationID) (domain.Evaluation, error) {
	t, release := er.db.acquire()
	defer release()

	evaluation, exists := t.evaluations[evaluationID]
	if !exists {
		return domain.Evaluation{}, domain.ErrEvaluationNotFound
	}

	return evaluation, nil
}

func (er *EvaluationRepo) Update(_ context.Context, evaluation domain.Evaluation) (domain.Evaluation, error) {
	t, release := er.db.acquire()
	defer release()

	existing, exists := t.evaluations[evaluation.ID]
	if !exists {
		return domain.Evaluation{}, domain.ErrEvaluationNotFound
	}

	existing.Rating = evaluation.Rating
	existing.Comment = evaluation.Comment
	t.evaluations[existing.ID] = existing

	return existing, nil
}

func (er *EvaluationRepo) Delete(_ context.Context, evaluationID domain.EvaluationID) error {
	t, release := er.db.acquire()
	defer release()

	if _, exists := t.evaluations[evaluationID]; !exists {
		return domain.ErrEvaluationNotFound
	}

	delete(t.evaluations, evaluationID)

	return nil
}

func (er *EvaluationRepo) List(_ context.Context, filter domain.EvaluationFilter) ([]domain.Evaluation, error) {
	t, release := er.db.acquire()
	defer release()

	evaluations := []domain.Evaluation{}
	for _, e := range t.evaluations {
		if filter.TaskID != 0 && e.TaskID != filter.TaskID {
			continue
		}
		if filter.UserID != 0 && e.UserID != filter.UserID {
			continue
		}
		if filter.EvaluatorID != 0 && e.EvaluatorID != filter.EvaluatorID {
			continue
		}
		evaluations = append(evaluations, e)
	}

	slices.SortFunc(evaluations, func(a, b domain.Evaluation) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	return page(evaluations, filter.Offset, filter.Limit), nil
}

func (er *EvaluationRepo) Stats(_ context.Context, userID domain.UserID, from, to time.Time) (float64, int, error) {
	t, release := er.db.acquire()
	defer release()

	var sum, count int
	for _, e := range t.evaluations {
		if e.UserID != userID || e.CreatedAt.Before(from) || e.CreatedAt.After(to) {
			continue
		}
		sum += e.Rating
		count++
	}

	if count == 0 {
		return 0, 0, nil
	}

	return float64(sum) / float64(count), count, nil
}
