package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/berendovychRB/easy-track/internal/domain"
)

const userColumns = `id, telegram_id, username, first_name, last_name, language, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u          domain.User
		role       string
		activeInt  int
		createdSec int64
		updatedSec int64
	)
	if err := row.Scan(
		&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
		&u.Language, &role, &activeInt, &createdSec, &updatedSec,
	); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Active = activeInt != 0
	u.CreatedAt = fromUnix(createdSec)
	u.UpdatedAt = fromUnix(updatedSec)
	return &u, nil
}

// GetOrCreateUser returns the user for a Telegram id, creating an athlete row
// with defaults on first contact. Name fields are refreshed on every call so
// the stored profile follows Telegram.
func (s *Store) GetOrCreateUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*domain.User, error) {
	now := unix(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username   = excluded.username,
			first_name = excluded.first_name,
			last_name  = excluded.last_name,
			updated_at = excluded.updated_at`,
		telegramID, username, firstName, lastName, now, now,
	)
	if err != nil {
		return nil, err
	}
	return s.UserByTelegramID(ctx, telegramID)
}

// UserByTelegramID returns a user by Telegram id.
func (s *Store) UserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// UserByID returns a user by internal id.
func (s *Store) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// UserByUsername returns a user by Telegram username, case-insensitively and
// with an optional leading "@".
func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// SetUserLanguage updates the user's interface language.
func (s *Store) SetUserLanguage(ctx context.Context, userID int64, language string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET language = ?, updated_at = ? WHERE id = ?`,
		language, unix(time.Now()), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetUserRole updates the user's role.
func (s *Store) SetUserRole(ctx context.Context, userID int64, role domain.Role) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), unix(time.Now()), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
