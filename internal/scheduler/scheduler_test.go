package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/berendovychRB/easy-track/internal/domain"
	"github.com/berendovychRB/easy-track/internal/i18n"
)

type fakeRepo struct {
	mu        sync.Mutex
	schedules []domain.NotificationSchedule
	queue     []domain.CoachNotification
	sweeps    []sweep
	marked    []int64
}

type sweep struct {
	day    time.Weekday
	minute int
}

func (f *fakeRepo) DueSchedules(_ context.Context, day time.Weekday, minute int) ([]domain.NotificationSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps = append(f.sweeps, sweep{day, minute})
	var due []domain.NotificationSchedule
	for _, sch := range f.schedules {
		if sch.Matches(day, minute) {
			due = append(due, sch)
		}
	}
	return due, nil
}

func (f *fakeRepo) PendingCoachNotifications(_ context.Context, _ time.Time, _ int) ([]domain.CoachNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CoachNotification(nil), f.queue...), nil
}

func (f *fakeRepo) MarkCoachNotificationSent(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeRepo) sweepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sweeps)
}

type sentMsg struct {
	chatID   int64
	text     string
	markdown bool
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMsg
	failFor map[int64]bool
}

func (f *fakeSender) send(chatID int64, text string, markdown bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[chatID] {
		return errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, sentMsg{chatID, text, markdown})
	return nil
}

func (f *fakeSender) SendMessage(chatID int64, text string) error {
	return f.send(chatID, text, false)
}

func (f *fakeSender) SendMarkdown(chatID int64, text string) error {
	return f.send(chatID, text, true)
}

func newTestScheduler(t *testing.T, repo *fakeRepo, sender *fakeSender, now time.Time) *Scheduler {
	t.Helper()
	tr, err := i18n.New()
	if err != nil {
		t.Fatalf("load translations: %v", err)
	}
	s := New(repo, zap.NewNop(), sender, tr, time.UTC)
	s.now = func() time.Time { return now }
	return s
}

func TestTick_SendsDueReminders(t *testing.T) {
	// 2026-01-09 is a Friday.
	now := time.Date(2026, time.January, 9, 8, 0, 30, 0, time.UTC)
	repo := &fakeRepo{
		schedules: []domain.NotificationSchedule{
			{ID: 1, Day: domain.EveryDay, Minute: 8 * 60, Active: true, OwnerChatID: 10, OwnerLanguage: "en"},
			{ID: 2, Day: int(time.Friday), Minute: 8 * 60, Active: true, OwnerChatID: 20, OwnerLanguage: "uk"},
			{ID: 3, Day: int(time.Monday), Minute: 8 * 60, Active: true, OwnerChatID: 30, OwnerLanguage: "en"},
			{ID: 4, Day: domain.EveryDay, Minute: 9 * 60, Active: true, OwnerChatID: 40, OwnerLanguage: "en"},
		},
	}
	sender := &fakeSender{}
	s := newTestScheduler(t, repo, sender, now)

	s.tick(context.Background())

	if len(repo.sweeps) != 1 || repo.sweeps[0].day != time.Friday || repo.sweeps[0].minute != 8*60 {
		t.Fatalf("unexpected sweep: %+v", repo.sweeps)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("want 2 reminders, got %d: %+v", len(sender.sent), sender.sent)
	}
	if sender.sent[0].chatID != 10 || sender.sent[1].chatID != 20 {
		t.Fatalf("wrong recipients: %+v", sender.sent)
	}
	if sender.sent[0].text == sender.sent[1].text {
		t.Fatal("reminder text must follow the owner's language")
	}
}

func TestTick_FailedDeliveryContinues(t *testing.T) {
	now := time.Date(2026, time.January, 9, 8, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		schedules: []domain.NotificationSchedule{
			{ID: 1, Day: domain.EveryDay, Minute: 8 * 60, Active: true, OwnerChatID: 10, OwnerLanguage: "en"},
			{ID: 2, Day: domain.EveryDay, Minute: 8 * 60, Active: true, OwnerChatID: 20, OwnerLanguage: "en"},
		},
		queue: []domain.CoachNotification{
			{ID: 7, CoachChatID: 30, Message: "note"},
		},
	}
	sender := &fakeSender{failFor: map[int64]bool{10: true}}
	s := newTestScheduler(t, repo, sender, now)

	s.tick(context.Background())

	// The failing chat is skipped, the rest of the batch and the coach queue
	// still go out.
	if len(sender.sent) != 2 {
		t.Fatalf("want 2 deliveries, got %+v", sender.sent)
	}
	if sender.sent[0].chatID != 20 || sender.sent[1].chatID != 30 {
		t.Fatalf("wrong recipients: %+v", sender.sent)
	}
}

func TestTick_FlushesCoachQueue(t *testing.T) {
	now := time.Date(2026, time.January, 9, 12, 34, 0, 0, time.UTC)
	repo := &fakeRepo{
		queue: []domain.CoachNotification{
			{ID: 1, CoachChatID: 10, Message: "first"},
			{ID: 2, CoachChatID: 20, Message: "second"},
		},
	}
	sender := &fakeSender{failFor: map[int64]bool{20: true}}
	s := newTestScheduler(t, repo, sender, now)

	s.tick(context.Background())

	if len(sender.sent) != 1 || !sender.sent[0].markdown || sender.sent[0].text != "first" {
		t.Fatalf("unexpected deliveries: %+v", sender.sent)
	}
	// Only the delivered notification is marked; the failed one stays queued
	// for the next tick.
	if len(repo.marked) != 1 || repo.marked[0] != 1 {
		t.Fatalf("unexpected marks: %+v", repo.marked)
	}
}

func TestStartStop(t *testing.T) {
	repo := &fakeRepo{}
	sender := &fakeSender{}
	s := newTestScheduler(t, repo, sender, time.Date(2026, time.January, 9, 8, 0, 0, 0, time.UTC))
	s.interval = 5 * time.Millisecond

	s.Start()
	s.Start() // second start is a no-op

	deadline := time.Now().Add(time.Second)
	for repo.sweepCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduler never ticked")
		}
		time.Sleep(time.Millisecond)
	}

	s.Stop()
	after := repo.sweepCount()
	time.Sleep(20 * time.Millisecond)
	if repo.sweepCount() != after {
		t.Fatal("scheduler ticked after Stop")
	}

	s.Stop() // stopping a stopped scheduler is a no-op
}
