package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/berendovychRB/easy-track/internal/domain"
	"github.com/berendovychRB/easy-track/internal/i18n"
)

// Repo is the slice of storage the scheduler needs each tick.
type Repo interface {
	DueSchedules(ctx context.Context, day time.Weekday, minute int) ([]domain.NotificationSchedule, error)
	PendingCoachNotifications(ctx context.Context, now time.Time, limit int) ([]domain.CoachNotification, error)
	MarkCoachNotificationSent(ctx context.Context, id int64) error
}

// Sender delivers rendered messages. telegram.Router implements it; its
// underlying HTTP client bounds each send with a timeout, so a hung delivery
// surfaces here as an ordinary error.
type Sender interface {
	SendMessage(chatID int64, text string) error
	SendMarkdown(chatID int64, text string) error
}

const (
	tickInterval   = time.Minute
	coachBatchSize = 100
)

// Scheduler polls the store once a minute and fires reminders whose day and
// minute match the wall clock exactly. Delivery is best-effort, at most once
// per matching minute: a failed send is logged and retried only at the
// schedule's next occurrence, and a tick delayed past the minute skips that
// day entirely.
type Scheduler struct {
	repo       Repo
	log        *zap.Logger
	sender     Sender
	translator *i18n.Translator
	loc        *time.Location
	interval   time.Duration
	now        func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a stopped scheduler. loc is the wall clock used to derive the
// current weekday and minute; nil means UTC.
func New(repo Repo, log *zap.Logger, sender Sender, translator *i18n.Translator, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		repo:       repo,
		log:        log,
		sender:     sender,
		translator: translator,
		loc:        loc,
		interval:   tickInterval,
		now:        time.Now,
	}
}

// Start launches the background loop. Starting a running scheduler is a
// logged no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Warn("scheduler already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(s.stopCh, s.doneCh)
	s.log.Info("scheduler started")
}

// Stop halts the loop. The inter-tick sleep is cancelled promptly, but a
// tick already in flight is allowed to finish before Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick(context.Background())
		}
	}
}

// tick performs one due-check-and-deliver cycle. A failing delivery never
// aborts the rest of the batch.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().In(s.loc)
	day := now.Weekday()
	minute := now.Hour()*60 + now.Minute()

	s.sendReminders(ctx, now, day, minute)
	s.flushCoachQueue(ctx, now)
}

func (s *Scheduler) sendReminders(ctx context.Context, now time.Time, day time.Weekday, minute int) {
	due, err := s.repo.DueSchedules(ctx, day, minute)
	if err != nil {
		s.log.Error("due sweep failed", zap.Error(err))
		return
	}
	for i := range due {
		sch := &due[i]
		text := s.translator.Get(sch.OwnerLanguage, "notifications.reminder_message")
		if err := s.sender.SendMessage(sch.OwnerChatID, text); err != nil {
			s.log.Error("reminder delivery failed",
				zap.Error(err),
				zap.Int64("scheduleID", sch.ID),
				zap.Int64("chatID", sch.OwnerChatID),
				zap.Time("tick", now),
			)
			continue
		}
		s.log.Info("reminder sent",
			zap.Int64("scheduleID", sch.ID),
			zap.Int64("chatID", sch.OwnerChatID),
		)
	}
}

func (s *Scheduler) flushCoachQueue(ctx context.Context, now time.Time) {
	pending, err := s.repo.PendingCoachNotifications(ctx, now, coachBatchSize)
	if err != nil {
		s.log.Error("coach queue read failed", zap.Error(err))
		return
	}
	for i := range pending {
		n := &pending[i]
		if err := s.sender.SendMarkdown(n.CoachChatID, n.Message); err != nil {
			s.log.Error("coach notification delivery failed",
				zap.Error(err),
				zap.Int64("notificationID", n.ID),
				zap.Int64("chatID", n.CoachChatID),
			)
			continue
		}
		if err := s.repo.MarkCoachNotificationSent(ctx, n.ID); err != nil {
			s.log.Error("mark sent failed", zap.Error(err), zap.Int64("notificationID", n.ID))
		}
	}
}
