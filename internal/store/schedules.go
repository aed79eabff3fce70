package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/berendovychRB/easy-track/internal/domain"
)

const scheduleColumns = `id, user_id, day_of_week, minute_of_day, timezone, is_active, created_at, updated_at`

func scanSchedule(row interface{ Scan(...any) error }) (*domain.NotificationSchedule, error) {
	var (
		n          domain.NotificationSchedule
		activeInt  int
		createdSec int64
		updatedSec int64
	)
	if err := row.Scan(
		&n.ID, &n.UserID, &n.Day, &n.Minute, &n.Timezone,
		&activeInt, &createdSec, &updatedSec,
	); err != nil {
		return nil, err
	}
	n.Active = activeInt != 0
	n.CreatedAt = fromUnix(createdSec)
	n.UpdatedAt = fromUnix(updatedSec)
	return &n, nil
}

// CreateSchedule stores a new reminder rule. day is domain.EveryDay or
// int(time.Weekday); minute is minutes since midnight. The unique index on
// (user_id, day_of_week, minute_of_day) is the duplicate guard, so two
// concurrent creates can never both insert.
func (s *Store) CreateSchedule(ctx context.Context, userID int64, day, minute int, timezone string) (*domain.NotificationSchedule, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	now := unix(time.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_schedules (user_id, day_of_week, minute_of_day, timezone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, day, minute, timezone, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSchedule
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.NotificationSchedule{
		ID:        id,
		UserID:    userID,
		Day:       day,
		Minute:    minute,
		Timezone:  timezone,
		Active:    true,
		CreatedAt: fromUnix(now),
		UpdatedAt: fromUnix(now),
	}, nil
}

// ListSchedules returns all of a user's schedules, active and inactive,
// in insertion order.
func (s *Store) ListSchedules(ctx context.Context, userID int64) ([]domain.NotificationSchedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scheduleColumns+`
		FROM notification_schedules
		WHERE user_id = ?
		ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.NotificationSchedule
	for rows.Next() {
		n, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *n)
	}
	return res, rows.Err()
}

// ScheduleByID returns one schedule, scoped to its owner.
func (s *Store) ScheduleByID(ctx context.Context, userID, scheduleID int64) (*domain.NotificationSchedule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+scheduleColumns+`
		FROM notification_schedules
		WHERE id = ? AND user_id = ?`,
		scheduleID, userID,
	)
	n, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduleNotFound
	}
	return n, err
}

// SetScheduleActive toggles a schedule. Ownership is enforced in the WHERE
// clause: toggling someone else's schedule reports ErrScheduleNotFound. The
// toggle is idempotent.
func (s *Store) SetScheduleActive(ctx context.Context, userID, scheduleID int64, active bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notification_schedules
		SET is_active = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		boolToInt(active), unix(time.Now()), scheduleID, userID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// DeleteSchedule hard-deletes a schedule and reports whether a row was
// removed. Day and time are never edited in place; users delete and recreate.
func (s *Store) DeleteSchedule(ctx context.Context, userID, scheduleID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM notification_schedules
		WHERE id = ? AND user_id = ?`,
		scheduleID, userID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DueSchedules returns every active schedule due at exactly the given weekday
// and minute of day: minute equality is exact, day matches the specific
// weekday or the every-day sentinel. A delayed sweep past the minute means
// the reminder is skipped for that day; there is no catch-up. Owner chat id
// and language are joined in for delivery.
func (s *Store) DueSchedules(ctx context.Context, day time.Weekday, minute int) ([]domain.NotificationSchedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.user_id, n.day_of_week, n.minute_of_day, n.timezone, n.is_active, n.created_at, n.updated_at,
		       u.telegram_id, u.language
		FROM notification_schedules n
		JOIN users u ON u.id = n.user_id
		WHERE n.is_active = 1
		  AND n.minute_of_day = ?
		  AND (n.day_of_week = ? OR n.day_of_week = ?)`,
		minute, int(day), domain.EveryDay,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.NotificationSchedule
	for rows.Next() {
		var (
			n          domain.NotificationSchedule
			activeInt  int
			createdSec int64
			updatedSec int64
		)
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Day, &n.Minute, &n.Timezone,
			&activeInt, &createdSec, &updatedSec,
			&n.OwnerChatID, &n.OwnerLanguage,
		); err != nil {
			return nil, err
		}
		n.Active = activeInt != 0
		n.CreatedAt = fromUnix(createdSec)
		n.UpdatedAt = fromUnix(updatedSec)
		res = append(res, n)
	}
	return res, rows.Err()
}
