package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/berendovychRB/easy-track/internal/domain"
)

func (r *Router) mainMenuKeyboard(u *domain.User, pendingRequests int) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.add_measurement"), "menu:add"),
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.progress"), "menu:progress"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.statistics"), "menu:stats"),
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.history"), "menu:history"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.manage_types"), "menu:types"),
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.notifications"), "menu:notifs"),
		},
	}
	if pendingRequests > 0 {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s (%d)", r.t(u, "menu.coach_requests"), pendingRequests),
				"coach:requests",
			),
		})
	}
	coachBtn := tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.become_coach"), "menu:become_coach")
	if u.IsCoach() {
		coachBtn = tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.coach_panel"), "menu:coach")
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		coachBtn,
		tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.my_coaches"), "menu:coaches"),
	})
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.language"), "menu:lang"),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (r *Router) backKeyboard(u *domain.User) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.back"), "menu:main"),
		),
	)
}

func (r *Router) backButton(u *domain.User) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.back"), "menu:main"),
	)
}

func (r *Router) languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.tr.LanguageName("en"), "lang:en"),
			tgbotapi.NewInlineKeyboardButtonData(r.tr.LanguageName("uk"), "lang:uk"),
		),
	)
}

// typeButtons renders one button per tracked type, two per row.
func (r *Router) typeButtons(u *domain.User, tracked []domain.TrackedType, prefix string) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, tt := range tracked {
		label := fmt.Sprintf("%s (%s)", r.tr.TypeName(u.Language, tt.Type.Name), tt.Type.Unit)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", prefix, tt.Type.ID)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func (r *Router) frequencyKeyboard(u *domain.User) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData(r.t(u, "days.every_day"), "notif:freq:daily")},
	}
	dayKeys := []struct {
		key string
		day int
	}{
		{"days.monday", 1}, {"days.tuesday", 2}, {"days.wednesday", 3},
		{"days.thursday", 4}, {"days.friday", 5}, {"days.saturday", 6},
		{"days.sunday", 0},
	}
	var row []tgbotapi.InlineKeyboardButton
	for _, d := range dayKeys {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			r.t(u, d.key), fmt.Sprintf("notif:freq:%d", d.day)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, r.backButton(u))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (r *Router) notificationDetailKeyboard(u *domain.User, sch *domain.NotificationSchedule) tgbotapi.InlineKeyboardMarkup {
	toggleKey := "notifications.deactivate"
	if !sch.Active {
		toggleKey = "notifications.activate"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, toggleKey), fmt.Sprintf("notif:toggle:%d", sch.ID)),
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "notifications.delete"), fmt.Sprintf("notif:delete:%d", sch.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "menu.back"), "menu:notifs"),
		),
	)
}

func (r *Router) coachPanelKeyboard(u *domain.User) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "coach.my_athletes"), "coach:athletes"),
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "coach.add_athlete"), "coach:addath"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "coach.remove_athlete"), "coach:removeath"),
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "coach.notification_settings"), "coach:prefs"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "coach.notification_history"), "coach:history"),
		),
		r.backButton(u),
	)
}
