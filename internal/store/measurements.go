package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/berendovychRB/easy-track/internal/domain"
)

// seedMeasurementTypes inserts the system catalog on first start. Reruns are
// no-ops thanks to the (name, created_by_user_id) unique index.
func (s *Store) seedMeasurementTypes(ctx context.Context) error {
	now := unix(time.Now())
	for _, mt := range domain.DefaultMeasurementTypes {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO measurement_types (name, unit, created_at)
			VALUES (?, ?, ?)`,
			mt.Name, mt.Unit, now,
		)
		if err != nil {
			return fmt.Errorf("seed type %s: %w", mt.Name, err)
		}
	}
	return nil
}

const typeColumns = `id, name, unit, description, is_active, is_custom, created_by_user_id, created_at`

func scanType(row interface{ Scan(...any) error }) (*domain.MeasurementType, error) {
	var (
		mt         domain.MeasurementType
		activeInt  int
		customInt  int
		createdSec int64
	)
	if err := row.Scan(
		&mt.ID, &mt.Name, &mt.Unit, &mt.Description,
		&activeInt, &customInt, &mt.CreatedBy, &createdSec,
	); err != nil {
		return nil, err
	}
	mt.Active = activeInt != 0
	mt.Custom = customInt != 0
	mt.CreatedAt = fromUnix(createdSec)
	return &mt, nil
}

// TypeByID returns a measurement type by id.
func (s *Store) TypeByID(ctx context.Context, id int64) (*domain.MeasurementType, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+typeColumns+` FROM measurement_types WHERE id = ?`, id)
	mt, err := scanType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTypeNotFound
	}
	return mt, err
}

// CreateCustomType creates a user-owned measurement type. The name must be
// unique among system types and the user's own custom types.
func (s *Store) CreateCustomType(ctx context.Context, userID int64, name, unit, description string) (*domain.MeasurementType, error) {
	var clash int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM measurement_types
		WHERE name = ? COLLATE NOCASE AND created_by_user_id IN (0, ?)`,
		name, userID,
	).Scan(&clash)
	if err != nil {
		return nil, err
	}
	if clash > 0 {
		return nil, ErrDuplicateType
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO measurement_types (name, unit, description, is_custom, created_by_user_id, created_at)
		VALUES (?, ?, ?, 1, ?, ?)`,
		name, unit, description, userID, unix(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateType
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.TypeByID(ctx, id)
}

// DeleteCustomType removes a custom type owned by the user, along with its
// tracking row. System types cannot be deleted, and a type with recorded
// measurements reports ErrTypeInUse so history stays intact.
func (s *Store) DeleteCustomType(ctx context.Context, userID, typeID int64) error {
	var recorded int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM measurements WHERE measurement_type_id = ?`,
		typeID,
	).Scan(&recorded)
	if err != nil {
		return err
	}
	if recorded > 0 {
		return ErrTypeInUse
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM user_measurement_types
		WHERE user_id = ? AND measurement_type_id = ?`,
		userID, typeID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM measurement_types
		WHERE id = ? AND is_custom = 1 AND created_by_user_id = ?`,
		typeID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTypeNotFound
	}
	return nil
}

// TrackedTypes returns the measurement types a user is actively tracking,
// in the order they were enabled.
func (s *Store) TrackedTypes(ctx context.Context, userID int64) ([]domain.TrackedType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT umt.id, umt.user_id, umt.is_active, umt.created_at, umt.updated_at,
		       mt.id, mt.name, mt.unit, mt.description, mt.is_active, mt.is_custom, mt.created_by_user_id, mt.created_at
		FROM user_measurement_types umt
		JOIN measurement_types mt ON mt.id = umt.measurement_type_id
		WHERE umt.user_id = ? AND umt.is_active = 1
		ORDER BY umt.created_at, umt.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.TrackedType
	for rows.Next() {
		var (
			tt        domain.TrackedType
			ttActive  int
			ttCreated int64
			ttUpdated int64
			mtActive  int
			mtCustom  int
			mtCreated int64
		)
		if err := rows.Scan(
			&tt.ID, &tt.UserID, &ttActive, &ttCreated, &ttUpdated,
			&tt.Type.ID, &tt.Type.Name, &tt.Type.Unit, &tt.Type.Description,
			&mtActive, &mtCustom, &tt.Type.CreatedBy, &mtCreated,
		); err != nil {
			return nil, err
		}
		tt.Active = ttActive != 0
		tt.CreatedAt = fromUnix(ttCreated)
		tt.UpdatedAt = fromUnix(ttUpdated)
		tt.Type.Active = mtActive != 0
		tt.Type.Custom = mtCustom != 0
		tt.Type.CreatedAt = fromUnix(mtCreated)
		res = append(res, tt)
	}
	return res, rows.Err()
}

// AvailableTypes returns active types (system plus the user's custom ones)
// the user is not currently tracking.
func (s *Store) AvailableTypes(ctx context.Context, userID int64) ([]domain.MeasurementType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+typeColumns+` FROM measurement_types mt
		WHERE mt.is_active = 1
		  AND mt.created_by_user_id IN (0, ?)
		  AND NOT EXISTS (
			SELECT 1 FROM user_measurement_types umt
			WHERE umt.user_id = ? AND umt.measurement_type_id = mt.id AND umt.is_active = 1
		  )
		ORDER BY mt.is_custom, mt.id`,
		userID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.MeasurementType
	for rows.Next() {
		mt, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *mt)
	}
	return res, rows.Err()
}

// TrackType enables a measurement type for the user, reactivating a
// previously disabled row if one exists.
func (s *Store) TrackType(ctx context.Context, userID, typeID int64) error {
	if _, err := s.TypeByID(ctx, typeID); err != nil {
		return err
	}
	now := unix(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_measurement_types (user_id, measurement_type_id, is_active, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(user_id, measurement_type_id) DO UPDATE SET
			is_active  = 1,
			updated_at = excluded.updated_at`,
		userID, typeID, now, now,
	)
	return err
}

// UntrackType disables a tracked type; recorded measurements stay.
func (s *Store) UntrackType(ctx context.Context, userID, typeID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_measurement_types
		SET is_active = 0, updated_at = ?
		WHERE user_id = ? AND measurement_type_id = ? AND is_active = 1`,
		unix(time.Now()), userID, typeID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTypeNotFound
	}
	return nil
}

// CreateMeasurement stores a recorded value. measuredAt defaults to now.
func (s *Store) CreateMeasurement(ctx context.Context, userID, typeID int64, value float64, measuredAt time.Time, notes string) (*domain.Measurement, error) {
	if measuredAt.IsZero() {
		measuredAt = time.Now()
	}
	now := unix(time.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO measurements (user_id, measurement_type_id, value, measured_at, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, typeID, value, unix(measuredAt), notes, now, now,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.Measurement{
		ID:         id,
		UserID:     userID,
		TypeID:     typeID,
		Value:      value,
		MeasuredAt: measuredAt.UTC(),
		Notes:      notes,
		CreatedAt:  fromUnix(now),
		UpdatedAt:  fromUnix(now),
	}, nil
}

const measurementColumns = `
	m.id, m.user_id, m.measurement_type_id, m.value, m.measured_at, m.notes, m.created_at, m.updated_at,
	mt.id, mt.name, mt.unit, mt.description, mt.is_active, mt.is_custom, mt.created_by_user_id, mt.created_at`

func scanMeasurement(row interface{ Scan(...any) error }) (*domain.Measurement, error) {
	var (
		m           domain.Measurement
		mt          domain.MeasurementType
		measuredSec int64
		createdSec  int64
		updatedSec  int64
		mtActive    int
		mtCustom    int
		mtCreated   int64
	)
	if err := row.Scan(
		&m.ID, &m.UserID, &m.TypeID, &m.Value, &measuredSec, &m.Notes, &createdSec, &updatedSec,
		&mt.ID, &mt.Name, &mt.Unit, &mt.Description, &mtActive, &mtCustom, &mt.CreatedBy, &mtCreated,
	); err != nil {
		return nil, err
	}
	m.MeasuredAt = fromUnix(measuredSec)
	m.CreatedAt = fromUnix(createdSec)
	m.UpdatedAt = fromUnix(updatedSec)
	mt.Active = mtActive != 0
	mt.Custom = mtCustom != 0
	mt.CreatedAt = fromUnix(mtCreated)
	m.Type = &mt
	return &m, nil
}

// LatestMeasurement returns the most recent measurement of one type, or
// (nil, nil) when the user has none.
func (s *Store) LatestMeasurement(ctx context.Context, userID, typeID int64) (*domain.Measurement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+measurementColumns+`
		FROM measurements m
		JOIN measurement_types mt ON mt.id = m.measurement_type_id
		WHERE m.user_id = ? AND m.measurement_type_id = ?
		ORDER BY m.measured_at DESC, m.id DESC
		LIMIT 1`,
		userID, typeID,
	)
	m, err := scanMeasurement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// MeasurementHistory returns measurements of one type within the last `days`
// days, oldest first. days <= 0 means all time.
func (s *Store) MeasurementHistory(ctx context.Context, userID, typeID int64, days int) ([]domain.Measurement, error) {
	var cutoff int64
	if days > 0 {
		cutoff = unix(time.Now().AddDate(0, 0, -days))
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+measurementColumns+`
		FROM measurements m
		JOIN measurement_types mt ON mt.id = m.measurement_type_id
		WHERE m.user_id = ? AND m.measurement_type_id = ? AND m.measured_at >= ?
		ORDER BY m.measured_at, m.id`,
		userID, typeID, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *m)
	}
	return res, rows.Err()
}

// MeasurementsSince returns all of a user's measurements within the last
// `days` days, newest first, for the by-date view.
func (s *Store) MeasurementsSince(ctx context.Context, userID int64, days int) ([]domain.Measurement, error) {
	var cutoff int64
	if days > 0 {
		cutoff = unix(time.Now().AddDate(0, 0, -days))
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+measurementColumns+`
		FROM measurements m
		JOIN measurement_types mt ON mt.id = m.measurement_type_id
		WHERE m.user_id = ? AND m.measured_at >= ?
		ORDER BY m.measured_at DESC, m.id DESC`,
		userID, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *m)
	}
	return res, rows.Err()
}

// MeasurementStats aggregates count/avg/min/max for one type.
func (s *Store) MeasurementStats(ctx context.Context, userID, typeID int64) (*domain.MeasurementStats, error) {
	var (
		count int
		avg   sql.NullFloat64
		min   sql.NullFloat64
		max   sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(id), AVG(value), MIN(value), MAX(value)
		FROM measurements
		WHERE user_id = ? AND measurement_type_id = ?`,
		userID, typeID,
	).Scan(&count, &avg, &min, &max)
	if err != nil {
		return nil, err
	}
	return &domain.MeasurementStats{
		Count:   count,
		Average: avg.Float64,
		Min:     min.Float64,
		Max:     max.Float64,
	}, nil
}
