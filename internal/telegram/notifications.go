package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/berendovychRB/easy-track/internal/domain"
	"github.com/berendovychRB/easy-track/internal/store"
)

func (r *Router) handleNotifications(ctx context.Context, chatID int64, u *domain.User) {
	schedules, err := r.repo.ListSchedules(ctx, u.ID)
	if err != nil {
		r.log.Error("list schedules failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}

	var b strings.Builder
	b.WriteString(r.t(u, "notifications.title"))
	b.WriteString("\n\n")
	if len(schedules) == 0 {
		b.WriteString(r.t(u, "notifications.none"))
	} else {
		b.WriteString(r.t(u, "notifications.list_hint"))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, sch := range schedules {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				r.scheduleLabel(u, &sch), fmt.Sprintf("notif:view:%d", sch.ID)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "notifications.add"), "notif:add"),
		),
		r.backButton(u),
	)
	r.sendWithKeyboard(chatID, b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// scheduleLabel renders "✅ Every day, 08:00" style button text.
func (r *Router) scheduleLabel(u *domain.User, sch *domain.NotificationSchedule) string {
	mark := "✅"
	if !sch.Active {
		mark = "⏸"
	}
	return fmt.Sprintf("%s %s, %s", mark, r.t(u, "days."+sch.DayKey()), domain.FormatMinutes(sch.Minute))
}

func (r *Router) handleAddNotification(_ context.Context, chatID int64, u *domain.User) {
	r.sendWithKeyboard(chatID, r.t(u, "notifications.choose_frequency"), r.frequencyKeyboard(u))
}

// handleNotificationFrequency records the chosen day and asks for the time.
// freq is "daily" or a weekday number, Sunday being 0.
func (r *Router) handleNotificationFrequency(_ context.Context, chatID int64, u *domain.User, freq string) {
	day := domain.EveryDay
	if freq != "daily" {
		d, err := strconv.Atoi(freq)
		if err != nil || d < 0 || d > 6 {
			r.sendText(chatID, r.t(u, "errors.generic"))
			return
		}
		day = d
	}
	r.setPending(chatID, pending{step: stepNotifTime, day: day})
	r.sendText(chatID, r.t(u, "notifications.enter_time"))
}

func (r *Router) handleNotificationTime(ctx context.Context, chatID int64, u *domain.User, p pending, text string) {
	minute, err := domain.ParseTimeOfDay(text)
	if err != nil {
		r.sendText(chatID, r.t(u, "notifications.invalid_time"))
		return
	}
	r.clearPending(chatID)

	sch, err := r.repo.CreateSchedule(ctx, u.ID, p.day, minute, "")
	if err != nil {
		if errors.Is(err, store.ErrDuplicateSchedule) {
			r.sendText(chatID, r.t(u, "notifications.duplicate"))
			r.handleNotifications(ctx, chatID, u)
			return
		}
		r.log.Error("create schedule failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	r.sendText(chatID, r.tf(u, "notifications.created", map[string]string{
		"day":  r.t(u, "days."+sch.DayKey()),
		"time": domain.FormatMinutes(sch.Minute),
	}))
	r.handleNotifications(ctx, chatID, u)
}

func (r *Router) handleNotificationDetail(ctx context.Context, chatID int64, u *domain.User, scheduleID int64) {
	sch, err := r.repo.ScheduleByID(ctx, u.ID, scheduleID)
	if err != nil {
		if errors.Is(err, store.ErrScheduleNotFound) {
			r.sendText(chatID, r.t(u, "errors.not_found"))
			return
		}
		r.log.Error("schedule lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	stateKey := "notifications.state_active"
	if !sch.Active {
		stateKey = "notifications.state_paused"
	}
	text := r.tf(u, "notifications.detail", map[string]string{
		"day":   r.t(u, "days."+sch.DayKey()),
		"time":  domain.FormatMinutes(sch.Minute),
		"state": r.t(u, stateKey),
	})
	r.sendWithKeyboard(chatID, text, r.notificationDetailKeyboard(u, sch))
}

func (r *Router) handleToggleNotification(ctx context.Context, chatID int64, u *domain.User, scheduleID int64) {
	sch, err := r.repo.ScheduleByID(ctx, u.ID, scheduleID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.not_found"))
		return
	}
	if err := r.repo.SetScheduleActive(ctx, u.ID, scheduleID, !sch.Active); err != nil {
		r.log.Error("toggle schedule failed", zap.Error(err), zap.Int64("scheduleID", scheduleID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	key := "notifications.paused"
	if !sch.Active {
		key = "notifications.resumed"
	}
	r.sendText(chatID, r.t(u, key))
	r.handleNotificationDetail(ctx, chatID, u, scheduleID)
}

func (r *Router) handleDeleteNotification(ctx context.Context, chatID int64, u *domain.User, scheduleID int64) {
	deleted, err := r.repo.DeleteSchedule(ctx, u.ID, scheduleID)
	if err != nil {
		r.log.Error("delete schedule failed", zap.Error(err), zap.Int64("scheduleID", scheduleID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if !deleted {
		r.sendText(chatID, r.t(u, "errors.not_found"))
		return
	}
	r.sendText(chatID, r.t(u, "notifications.deleted"))
	r.handleNotifications(ctx, chatID, u)
}
