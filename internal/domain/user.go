package domain

import "time"

// Role is a user's role within the bot.
type Role string

const (
	RoleAthlete Role = "athlete"
	RoleCoach   Role = "coach"
)

// User is a Telegram user known to the bot.
type User struct {
	ID         int64
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	Language   string
	Role       Role
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DisplayName picks the friendliest non-empty identifier for UI texts.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Unknown"
}

// IsCoach reports whether the user has the coach role.
func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}
