package domain

import "strings"

type UserID int64

type User struct {
	ID          UserID
	Email       string
	FirstName   string
	LastName    string
	IsSuperuser bool
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}

	return name
}

// Principal is the authenticated caller of a service operation.
type Principal struct {
	UserID      UserID
	IsSuperuser bool
}
