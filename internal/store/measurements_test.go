package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSeedMeasurementTypes_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Open already seeded once; a second seed must not duplicate rows.
	if err := s.seedMeasurementTypes(ctx); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	userID := makeUser(t, s, 100, "alice")
	available, err := s.AvailableTypes(ctx, userID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if len(available) != 8 {
		t.Fatalf("want 8 system types, got %d", len(available))
	}
}

func TestTrackAndUntrackType(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	userID := makeUser(t, s, 100, "alice")

	available, err := s.AvailableTypes(ctx, userID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	weight := available[0]

	if err := s.TrackType(ctx, userID, weight.ID); err != nil {
		t.Fatalf("track: %v", err)
	}
	tracked, err := s.TrackedTypes(ctx, userID)
	if err != nil {
		t.Fatalf("tracked: %v", err)
	}
	if len(tracked) != 1 || tracked[0].Type.ID != weight.ID {
		t.Fatalf("want tracked %d, got %+v", weight.ID, tracked)
	}

	// A tracked type disappears from the available list.
	available, err = s.AvailableTypes(ctx, userID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	for _, mt := range available {
		if mt.ID == weight.ID {
			t.Fatal("tracked type still listed as available")
		}
	}

	if err := s.UntrackType(ctx, userID, weight.ID); err != nil {
		t.Fatalf("untrack: %v", err)
	}
	if err := s.UntrackType(ctx, userID, weight.ID); !errors.Is(err, ErrTypeNotFound) {
		t.Fatalf("second untrack: want ErrTypeNotFound, got %v", err)
	}

	// Re-tracking reactivates the old row.
	if err := s.TrackType(ctx, userID, weight.ID); err != nil {
		t.Fatalf("retrack: %v", err)
	}
}

func TestCreateCustomType_NameClashes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	aliceID := makeUser(t, s, 100, "alice")
	bobID := makeUser(t, s, 200, "bob")

	if _, err := s.CreateCustomType(ctx, aliceID, "Forearm", "cm", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Case-insensitive clash with the user's own type.
	if _, err := s.CreateCustomType(ctx, aliceID, "forearm", "cm", ""); !errors.Is(err, ErrDuplicateType) {
		t.Fatalf("own clash: want ErrDuplicateType, got %v", err)
	}
	// Clash with a system type name.
	if _, err := s.CreateCustomType(ctx, aliceID, "weight", "kg", ""); !errors.Is(err, ErrDuplicateType) {
		t.Fatalf("system clash: want ErrDuplicateType, got %v", err)
	}
	// Another user may reuse the name.
	if _, err := s.CreateCustomType(ctx, bobID, "Forearm", "cm", ""); err != nil {
		t.Fatalf("other user: %v", err)
	}
}

func TestCustomType_InvisibleToOthers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	aliceID := makeUser(t, s, 100, "alice")
	bobID := makeUser(t, s, 200, "bob")

	mt, err := s.CreateCustomType(ctx, aliceID, "Forearm", "cm", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	available, err := s.AvailableTypes(ctx, bobID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	for _, a := range available {
		if a.ID == mt.ID {
			t.Fatal("custom type leaked to another user")
		}
	}
}

func TestDeleteCustomType(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	aliceID := makeUser(t, s, 100, "alice")
	bobID := makeUser(t, s, 200, "bob")

	mt, err := s.CreateCustomType(ctx, aliceID, "Forearm", "cm", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.TrackType(ctx, aliceID, mt.ID); err != nil {
		t.Fatalf("track: %v", err)
	}

	// Only the owner can delete, and system types never qualify.
	if err := s.DeleteCustomType(ctx, bobID, mt.ID); !errors.Is(err, ErrTypeNotFound) {
		t.Fatalf("foreign delete: want ErrTypeNotFound, got %v", err)
	}
	available, err := s.AvailableTypes(ctx, aliceID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if err := s.DeleteCustomType(ctx, aliceID, available[0].ID); !errors.Is(err, ErrTypeNotFound) {
		t.Fatalf("system delete: want ErrTypeNotFound, got %v", err)
	}

	// A type with recorded measurements is protected.
	if _, err := s.CreateMeasurement(ctx, aliceID, mt.ID, 30, time.Now(), ""); err != nil {
		t.Fatalf("measure: %v", err)
	}
	if err := s.DeleteCustomType(ctx, aliceID, mt.ID); !errors.Is(err, ErrTypeInUse) {
		t.Fatalf("in-use delete: want ErrTypeInUse, got %v", err)
	}

	// An unused type deletes cleanly, tracking row included.
	empty, err := s.CreateCustomType(ctx, aliceID, "Calf", "cm", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.TrackType(ctx, aliceID, empty.ID); err != nil {
		t.Fatalf("track: %v", err)
	}
	if err := s.DeleteCustomType(ctx, aliceID, empty.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.TypeByID(ctx, empty.ID); !errors.Is(err, ErrTypeNotFound) {
		t.Fatalf("deleted type still readable: %v", err)
	}
}

func TestMeasurements_LatestHistoryStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	userID := makeUser(t, s, 100, "alice")

	available, err := s.AvailableTypes(ctx, userID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	weight := available[0]

	latest, err := s.LatestMeasurement(ctx, userID, weight.ID)
	if err != nil || latest != nil {
		t.Fatalf("empty latest: want (nil, nil), got (%v, %v)", latest, err)
	}

	now := time.Now()
	values := []float64{84, 83.5, 82.8}
	for i, v := range values {
		at := now.AddDate(0, 0, -(len(values) - 1 - i))
		if _, err := s.CreateMeasurement(ctx, userID, weight.ID, v, at, ""); err != nil {
			t.Fatalf("create %v: %v", v, err)
		}
	}

	latest, err = s.LatestMeasurement(ctx, userID, weight.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Value != 82.8 {
		t.Fatalf("want latest 82.8, got %v", latest.Value)
	}
	if latest.Type == nil || latest.Type.Name != weight.Name {
		t.Fatalf("type not joined: %+v", latest)
	}

	history, err := s.MeasurementHistory(ctx, userID, weight.ID, 30)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 || history[0].Value != 84 {
		t.Fatalf("want oldest-first history of 3, got %+v", history)
	}

	stats, err := s.MeasurementStats(ctx, userID, weight.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Count != 3 || stats.Min != 82.8 || stats.Max != 84 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
