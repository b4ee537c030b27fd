package inmemory

import (
	"bms-service/internal/domain"
	"context"
	"strings"
)

type UserRepo struct {
	db conn
}

func NewUserRepo(db conn) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

func (ur *UserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	t, release := ur.db.acquire()
	defer release()

	for _, existing := range t.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.User{}, domain.ErrEmailTaken
		}
	}

	t.seq.user++
	user.ID = domain.UserID(t.seq.user)
	t.users[user.ID] = user

	return user, nil
}

func (ur *UserRepo) UserByID(_ context.Context, userID domain.UserID) (domain.User, error) {
	t, release := ur.db.acquire()
	defer release()

	user, exists := t.users[userID]
	if !exists {
		return domain.User{}, domain.ErrUserNotFound
	}

	return user, nil
}

func (ur *UserRepo) UserByEmail(_ context.Context, email string) (domain.User, error) {
	t, release := ur.db.acquire()
	defer release()

	for _, user := range t.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}

	return domain.User{}, domain.ErrUserNotFound
}
