package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/berendovychRB/easy-track/internal/domain"
)

// AddAthlete puts an athlete under a coach's supervision, reactivating a
// previously removed link if one exists.
func (s *Store) AddAthlete(ctx context.Context, coachID, athleteID int64) error {
	now := unix(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coach_athletes (coach_id, athlete_id, is_active, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(coach_id, athlete_id) DO UPDATE SET
			is_active  = 1,
			updated_at = excluded.updated_at`,
		coachID, athleteID, now, now,
	)
	return err
}

// RemoveAthlete deactivates the supervision link and reports whether an
// active link existed.
func (s *Store) RemoveAthlete(ctx context.Context, coachID, athleteID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE coach_athletes
		SET is_active = 0, updated_at = ?
		WHERE coach_id = ? AND athlete_id = ? AND is_active = 1`,
		unix(time.Now()), coachID, athleteID,
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

// CoachAthletes returns the users an active coach link points at.
func (s *Store) CoachAthletes(ctx context.Context, coachID int64) ([]domain.User, error) {
	return s.linkedUsers(ctx, `
		SELECT `+prefixedUserColumns+`
		FROM users u
		JOIN coach_athletes ca ON ca.athlete_id = u.id
		WHERE ca.coach_id = ? AND ca.is_active = 1
		ORDER BY u.first_name, u.username`, coachID)
}

// AthleteCoaches returns the coaches actively supervising an athlete.
func (s *Store) AthleteCoaches(ctx context.Context, athleteID int64) ([]domain.User, error) {
	return s.linkedUsers(ctx, `
		SELECT `+prefixedUserColumns+`
		FROM users u
		JOIN coach_athletes ca ON ca.coach_id = u.id
		WHERE ca.athlete_id = ? AND ca.is_active = 1
		ORDER BY u.first_name, u.username`, athleteID)
}

const prefixedUserColumns = `u.id, u.telegram_id, u.username, u.first_name, u.last_name, u.language, u.role, u.is_active, u.created_at, u.updated_at`

func (s *Store) linkedUsers(ctx context.Context, query string, arg int64) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

// IsCoachOf reports whether coach actively supervises athlete.
func (s *Store) IsCoachOf(ctx context.Context, coachID, athleteID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM coach_athletes
		WHERE coach_id = ? AND athlete_id = ? AND is_active = 1`,
		coachID, athleteID,
	).Scan(&n)
	return n > 0, err
}

// CreateCoachRequest creates a pending supervision request with a 7-day
// expiry. A pending duplicate reports ErrDuplicateRequest; an existing active
// link reports ErrAlreadyLinked.
func (s *Store) CreateCoachRequest(ctx context.Context, coachID, athleteID int64, message string) (*domain.CoachRequest, error) {
	linked, err := s.IsCoachOf(ctx, coachID, athleteID)
	if err != nil {
		return nil, err
	}
	if linked {
		return nil, ErrAlreadyLinked
	}

	var pending int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM coach_requests
		WHERE coach_id = ? AND athlete_id = ? AND status = ?`,
		coachID, athleteID, string(domain.RequestPending),
	).Scan(&pending)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, ErrDuplicateRequest
	}

	now := time.Now()
	expires := now.Add(domain.RequestTTL)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO coach_requests (coach_id, athlete_id, message, status, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		coachID, athleteID, message, string(domain.RequestPending),
		unix(expires), unix(now), unix(now),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.CoachRequest{
		ID:        id,
		CoachID:   coachID,
		AthleteID: athleteID,
		Message:   message,
		Status:    domain.RequestPending,
		ExpiresAt: expires.UTC(),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// PendingRequestsForAthlete returns pending requests addressed to the
// athlete, with the requesting coach joined in for rendering.
func (s *Store) PendingRequestsForAthlete(ctx context.Context, athleteID int64) ([]domain.CoachRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.coach_id, r.athlete_id, r.message, r.status, r.expires_at, r.created_at, r.updated_at,
		       `+prefixedUserColumns+`
		FROM coach_requests r
		JOIN users u ON u.id = r.coach_id
		WHERE r.athlete_id = ? AND r.status = ?
		ORDER BY r.created_at`,
		athleteID, string(domain.RequestPending),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.CoachRequest
	for rows.Next() {
		var (
			r          domain.CoachRequest
			status     string
			expiresSec int64
			createdSec int64
			updatedSec int64
			coach      domain.User
			coachRole  string
			coachAct   int
			coachCre   int64
			coachUpd   int64
		)
		if err := rows.Scan(
			&r.ID, &r.CoachID, &r.AthleteID, &r.Message, &status, &expiresSec, &createdSec, &updatedSec,
			&coach.ID, &coach.TelegramID, &coach.Username, &coach.FirstName, &coach.LastName,
			&coach.Language, &coachRole, &coachAct, &coachCre, &coachUpd,
		); err != nil {
			return nil, err
		}
		r.Status = domain.CoachRequestStatus(status)
		r.ExpiresAt = fromUnix(expiresSec)
		r.CreatedAt = fromUnix(createdSec)
		r.UpdatedAt = fromUnix(updatedSec)
		coach.Role = domain.Role(coachRole)
		coach.Active = coachAct != 0
		coach.CreatedAt = fromUnix(coachCre)
		coach.UpdatedAt = fromUnix(coachUpd)
		r.Coach = &coach
		res = append(res, r)
	}
	return res, rows.Err()
}

// resolveRequest flips a pending request's status, scoped to the athlete it
// is addressed to.
func (s *Store) resolveRequest(ctx context.Context, requestID, athleteID int64, to domain.CoachRequestStatus) (*domain.CoachRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, coach_id, athlete_id, message, status, expires_at, created_at, updated_at
		FROM coach_requests
		WHERE id = ? AND athlete_id = ? AND status = ?`,
		requestID, athleteID, string(domain.RequestPending),
	)
	var (
		r          domain.CoachRequest
		status     string
		expiresSec int64
		createdSec int64
		updatedSec int64
	)
	err := row.Scan(&r.ID, &r.CoachID, &r.AthleteID, &r.Message, &status, &expiresSec, &createdSec, &updatedSec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Status = to
	r.ExpiresAt = fromUnix(expiresSec)
	r.CreatedAt = fromUnix(createdSec)
	r.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE coach_requests SET status = ?, updated_at = ? WHERE id = ?`,
		string(to), unix(time.Now()), requestID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// AcceptRequest accepts a pending request and establishes the supervision
// link in the same call.
func (s *Store) AcceptRequest(ctx context.Context, requestID, athleteID int64) (*domain.CoachRequest, error) {
	r, err := s.resolveRequest(ctx, requestID, athleteID, domain.RequestAccepted)
	if err != nil {
		return nil, err
	}
	if err := s.AddAthlete(ctx, r.CoachID, r.AthleteID); err != nil {
		return nil, err
	}
	return r, nil
}

// RejectRequest rejects a pending request.
func (s *Store) RejectRequest(ctx context.Context, requestID, athleteID int64) (*domain.CoachRequest, error) {
	return s.resolveRequest(ctx, requestID, athleteID, domain.RequestRejected)
}

// ExpireOldRequests marks pending requests past their expiry as expired and
// returns how many were flipped. Run daily by the maintenance job.
func (s *Store) ExpireOldRequests(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE coach_requests
		SET status = ?, updated_at = ?
		WHERE status = ? AND expires_at < ?`,
		string(domain.RequestExpired), unix(time.Now()),
		string(domain.RequestPending), unix(time.Now()),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CoachPrefs returns the coach's per-type notification switches. Types
// without a stored row default to enabled.
func (s *Store) CoachPrefs(ctx context.Context, coachID int64) (map[domain.CoachNotificationType]bool, error) {
	prefs := make(map[domain.CoachNotificationType]bool, len(domain.AllCoachNotificationTypes))
	for _, t := range domain.AllCoachNotificationTypes {
		prefs[t] = true
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT notification_type, is_enabled
		FROM coach_notification_prefs
		WHERE coach_id = ?`,
		coachID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t       string
			enabled int
		)
		if err := rows.Scan(&t, &enabled); err != nil {
			return nil, err
		}
		prefs[domain.CoachNotificationType(t)] = enabled != 0
	}
	return prefs, rows.Err()
}

// SetCoachPref upserts one notification preference.
func (s *Store) SetCoachPref(ctx context.Context, coachID int64, t domain.CoachNotificationType, enabled bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coach_notification_prefs (coach_id, notification_type, is_enabled, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(coach_id, notification_type) DO UPDATE SET
			is_enabled = excluded.is_enabled`,
		coachID, string(t), boolToInt(enabled), unix(time.Now()),
	)
	return err
}

// CoachNotificationEnabled reports whether the coach receives the given type.
func (s *Store) CoachNotificationEnabled(ctx context.Context, coachID int64, t domain.CoachNotificationType) (bool, error) {
	prefs, err := s.CoachPrefs(ctx, coachID)
	if err != nil {
		return false, err
	}
	return prefs[t], nil
}

// QueueCoachNotification enqueues a message for the scheduler to deliver on
// its next tick.
func (s *Store) QueueCoachNotification(ctx context.Context, n *domain.CoachNotification) error {
	if n.ScheduledAt.IsZero() {
		n.ScheduledAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO coach_notification_queue
			(coach_id, athlete_id, notification_type, message, measurement_id, scheduled_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.CoachID, n.AthleteID, string(n.Type), n.Message, n.MeasurementID,
		unix(n.ScheduledAt), unix(time.Now()),
	)
	if err != nil {
		return err
	}
	n.ID, err = res.LastInsertId()
	return err
}

// PendingCoachNotifications returns unsent queue rows whose scheduled time
// has arrived, oldest first, with the coach's chat id joined in.
func (s *Store) PendingCoachNotifications(ctx context.Context, now time.Time, limit int) ([]domain.CoachNotification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.coach_id, q.athlete_id, q.notification_type, q.message,
		       q.measurement_id, q.scheduled_at, q.is_sent, q.sent_at, q.created_at,
		       u.telegram_id
		FROM coach_notification_queue q
		JOIN users u ON u.id = q.coach_id
		WHERE q.is_sent = 0 AND q.scheduled_at <= ?
		ORDER BY q.scheduled_at, q.id
		LIMIT ?`,
		unix(now), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCoachNotifications(rows, true)
}

// MarkCoachNotificationSent flags a queue row as delivered.
func (s *Store) MarkCoachNotificationSent(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE coach_notification_queue
		SET is_sent = 1, sent_at = ?
		WHERE id = ?`,
		unix(time.Now()), id,
	)
	return err
}

// CoachNotificationHistory returns the coach's most recent sent
// notifications, newest first.
func (s *Store) CoachNotificationHistory(ctx context.Context, coachID int64, limit int) ([]domain.CoachNotification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, coach_id, athlete_id, notification_type, message,
		       measurement_id, scheduled_at, is_sent, sent_at, created_at
		FROM coach_notification_queue
		WHERE coach_id = ? AND is_sent = 1
		ORDER BY sent_at DESC, id DESC
		LIMIT ?`,
		coachID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCoachNotifications(rows, false)
}

// CleanupSentNotifications deletes sent queue rows older than the cutoff and
// returns how many were removed. Run daily by the maintenance job.
func (s *Store) CleanupSentNotifications(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM coach_notification_queue
		WHERE is_sent = 1 AND sent_at < ?`,
		unix(olderThan),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanCoachNotifications(rows *sql.Rows, withChatID bool) ([]domain.CoachNotification, error) {
	var res []domain.CoachNotification
	for rows.Next() {
		var (
			n        domain.CoachNotification
			t        string
			schedSec int64
			sentInt  int
			sentNS   sql.NullInt64
			creSec   int64
		)
		dest := []any{
			&n.ID, &n.CoachID, &n.AthleteID, &t, &n.Message,
			&n.MeasurementID, &schedSec, &sentInt, &sentNS, &creSec,
		}
		if withChatID {
			dest = append(dest, &n.CoachChatID)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		n.Type = domain.CoachNotificationType(t)
		n.ScheduledAt = fromUnix(schedSec)
		n.Sent = sentInt != 0
		n.SentAt = fromNullInt64(sentNS)
		n.CreatedAt = fromUnix(creSec)
		res = append(res, n)
	}
	return res, rows.Err()
}
