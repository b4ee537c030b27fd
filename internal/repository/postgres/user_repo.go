package postgres

import (
	"bms-service/internal/domain"
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	db querier
}

func NewUserRepo(db querier) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

func (ur *UserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	createUserQuery := `
		INSERT INTO users (email, first_name, last_name, is_superuser)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := ur.db.QueryRow(ctx, createUserQuery, user.Email, user.FirstName, user.LastName, user.IsSuperuser).
		Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, err
	}

	return user, nil
}

func (ur *UserRepo) UserByID(ctx context.Context, userID domain.UserID) (domain.User, error) {
	userByIDQuery := `
		SELECT id, email, first_name, last_name, is_superuser
		FROM users
		WHERE id = $1
	`

	return scanUser(ur.db.QueryRow(ctx, userByIDQuery, userID))
}

func (ur *UserRepo) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	userByEmailQuery := `
		SELECT id, email, first_name, last_name, is_superuser
		FROM users
		WHERE lower(email) = lower($1)
	`

	return scanUser(ur.db.QueryRow(ctx, userByEmailQuery, email))
}

func scanUser(row scanner) (domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.IsSuperuser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, err
	}

	return user, nil
}
