package domain

import "time"

type TeamID int64

type Role string

const (
	RoleNone    Role = ""
	RoleMember  Role = "member"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleManager, RoleAdmin:
		return true
	}

	return false
}

type Team struct {
	ID          TeamID
	Name        string
	Description string
	InviteCode  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership is the role-bearing link between a user and a team.
type Membership struct {
	UserID    UserID
	TeamID    TeamID
	Role      Role
	CreatedAt time.Time
}

type TeamMember struct {
	User     User
	Role     Role
	JoinedAt time.Time
}

type TeamWithMembers struct {
	Team
	Members []TeamMember
}
