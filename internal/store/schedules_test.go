package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/berendovychRB/easy-track/internal/domain"
)

func TestCreateSchedule_DuplicateRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	userID := makeUser(t, s, 100, "alice")

	if _, err := s.CreateSchedule(ctx, userID, int(time.Monday), 8*60, "Europe/Kyiv"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.CreateSchedule(ctx, userID, int(time.Monday), 8*60, "Europe/Kyiv")
	if !errors.Is(err, ErrDuplicateSchedule) {
		t.Fatalf("want ErrDuplicateSchedule, got %v", err)
	}

	// Same slot for a different user is fine.
	otherID := makeUser(t, s, 200, "bob")
	if _, err := s.CreateSchedule(ctx, otherID, int(time.Monday), 8*60, ""); err != nil {
		t.Fatalf("other user create: %v", err)
	}
}

func TestCreateSchedule_ConcurrentDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	userID := makeUser(t, s, 100, "alice")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CreateSchedule(ctx, userID, domain.EveryDay, 7*60+30, "")
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrDuplicateSchedule):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("want exactly one successful create, got %d", created)
	}
}

func TestDueSchedules_ExactMinuteOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	userID := makeUser(t, s, 100, "alice")

	if _, err := s.CreateSchedule(ctx, userID, int(time.Friday), 8*60, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	due, err := s.DueSchedules(ctx, time.Friday, 8*60)
	if err != nil {
		t.Fatalf("due sweep: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("want 1 due at 08:00 Friday, got %d", len(due))
	}
	if due[0].OwnerChatID != 100 {
		t.Fatalf("owner chat id not joined: %+v", due[0])
	}

	// One minute later the schedule is simply not due; there is no catch-up.
	due, err = s.DueSchedules(ctx, time.Friday, 8*60+1)
	if err != nil {
		t.Fatalf("due sweep: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("want 0 due at 08:01, got %d", len(due))
	}

	// Wrong day, same minute.
	due, err = s.DueSchedules(ctx, time.Saturday, 8*60)
	if err != nil {
		t.Fatalf("due sweep: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("want 0 due on Saturday, got %d", len(due))
	}
}

func TestDueSchedules_DailyAndWeekdayBothFire(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	userID := makeUser(t, s, 100, "alice")

	if _, err := s.CreateSchedule(ctx, userID, domain.EveryDay, 8*60, ""); err != nil {
		t.Fatalf("daily create: %v", err)
	}
	if _, err := s.CreateSchedule(ctx, userID, int(time.Friday), 8*60, ""); err != nil {
		t.Fatalf("friday create: %v", err)
	}

	// Both rows match on Friday 08:00; they are distinct schedules and are
	// not deduplicated.
	due, err := s.DueSchedules(ctx, time.Friday, 8*60)
	if err != nil {
		t.Fatalf("due sweep: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("want both schedules due on Friday, got %d", len(due))
	}

	// On Monday only the daily row matches.
	due, err = s.DueSchedules(ctx, time.Monday, 8*60)
	if err != nil {
		t.Fatalf("due sweep: %v", err)
	}
	if len(due) != 1 || due[0].Day != domain.EveryDay {
		t.Fatalf("want only the daily schedule on Monday, got %+v", due)
	}
}

func TestDueSchedules_InactiveExcluded(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	userID := makeUser(t, s, 100, "alice")

	sch, err := s.CreateSchedule(ctx, userID, domain.EveryDay, 8*60, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetScheduleActive(ctx, userID, sch.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	due, err := s.DueSchedules(ctx, time.Monday, 8*60)
	if err != nil {
		t.Fatalf("due sweep: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("paused schedule must not fire, got %d due", len(due))
	}

	// Resuming brings it back.
	if err := s.SetScheduleActive(ctx, userID, sch.ID, true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	due, err = s.DueSchedules(ctx, time.Monday, 8*60)
	if err != nil {
		t.Fatalf("due sweep: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("resumed schedule must fire, got %d due", len(due))
	}
}

func TestSetScheduleActive_OwnershipEnforced(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	aliceID := makeUser(t, s, 100, "alice")
	bobID := makeUser(t, s, 200, "bob")

	sch, err := s.CreateSchedule(ctx, aliceID, domain.EveryDay, 8*60, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.SetScheduleActive(ctx, bobID, sch.ID, false); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("want ErrScheduleNotFound for foreign toggle, got %v", err)
	}
	if _, err := s.ScheduleByID(ctx, bobID, sch.ID); !errors.Is(err, ErrScheduleNotFound) {
		t.Fatalf("want ErrScheduleNotFound for foreign read, got %v", err)
	}
	if deleted, err := s.DeleteSchedule(ctx, bobID, sch.ID); err != nil || deleted {
		t.Fatalf("foreign delete must be a no-op, got deleted=%v err=%v", deleted, err)
	}

	// The owner still sees it active.
	got, err := s.ScheduleByID(ctx, aliceID, sch.ID)
	if err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if !got.Active {
		t.Fatal("foreign toggle must not change the schedule")
	}
}

func TestDeleteSchedule(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	userID := makeUser(t, s, 100, "alice")

	sch, err := s.CreateSchedule(ctx, userID, int(time.Sunday), 21*60+15, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := s.DeleteSchedule(ctx, userID, sch.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = s.DeleteSchedule(ctx, userID, sch.ID)
	if err != nil || deleted {
		t.Fatalf("second delete must report false, got deleted=%v err=%v", deleted, err)
	}

	// The slot is free again after a hard delete.
	if _, err := s.CreateSchedule(ctx, userID, int(time.Sunday), 21*60+15, ""); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
}

func TestListSchedules_InsertionOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	userID := makeUser(t, s, 100, "alice")

	for _, minute := range []int{9 * 60, 7 * 60, 21 * 60} {
		if _, err := s.CreateSchedule(ctx, userID, domain.EveryDay, minute, ""); err != nil {
			t.Fatalf("create %d: %v", minute, err)
		}
	}
	list, err := s.ListSchedules(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("want 3 schedules, got %d", len(list))
	}
	wantMinutes := []int{9 * 60, 7 * 60, 21 * 60}
	for i, sch := range list {
		if sch.Minute != wantMinutes[i] {
			t.Fatalf("position %d: want minute %d, got %d", i, wantMinutes[i], sch.Minute)
		}
	}
}
