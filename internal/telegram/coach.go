package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/berendovychRB/easy-track/internal/domain"
	"github.com/berendovychRB/easy-track/internal/store"
)

const coachHistoryLimit = 20

func (r *Router) handleBecomeCoach(ctx context.Context, chatID int64, u *domain.User) {
	if u.IsCoach() {
		r.handleCoachPanel(ctx, chatID, u)
		return
	}
	if err := r.repo.SetUserRole(ctx, u.ID, domain.RoleCoach); err != nil {
		r.log.Error("set role failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	u.Role = domain.RoleCoach
	r.sendText(chatID, r.t(u, "coach.welcome"))
	r.handleCoachPanel(ctx, chatID, u)
}

func (r *Router) handleCoachPanel(_ context.Context, chatID int64, u *domain.User) {
	if !u.IsCoach() {
		r.sendText(chatID, r.t(u, "coach.not_a_coach"))
		return
	}
	r.sendWithKeyboard(chatID, r.t(u, "coach.panel_title"), r.coachPanelKeyboard(u))
}

func (r *Router) handleCoachAthletes(ctx context.Context, chatID int64, u *domain.User) {
	athletes, err := r.repo.CoachAthletes(ctx, u.ID)
	if err != nil {
		r.log.Error("athletes lookup failed", zap.Error(err), zap.Int64("coachID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(athletes) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "coach.no_athletes"), r.backKeyboard(u))
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, a := range athletes {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.DisplayName(), fmt.Sprintf("coach:athlete:%d", a.ID)),
		))
	}
	rows = append(rows, r.backButton(u))
	r.sendWithKeyboard(chatID, r.t(u, "coach.athletes_title"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleAthleteDetail shows a supervised athlete's measurements from the last
// week. Supervision is re-checked so a stale keyboard cannot leak data after
// the athlete unlinks.
func (r *Router) handleAthleteDetail(ctx context.Context, chatID int64, u *domain.User, athleteID int64) {
	linked, err := r.repo.IsCoachOf(ctx, u.ID, athleteID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if !linked {
		r.sendText(chatID, r.t(u, "coach.not_linked"))
		return
	}
	athlete, err := r.repo.UserByID(ctx, athleteID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	measurements, err := r.repo.MeasurementsSince(ctx, athleteID, 7)
	if err != nil {
		r.log.Error("athlete measurements lookup failed", zap.Error(err), zap.Int64("athleteID", athleteID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}

	var b strings.Builder
	b.WriteString(r.tf(u, "coach.athlete_title", map[string]string{"name": athlete.DisplayName()}))
	b.WriteString("\n\n")
	if len(measurements) == 0 {
		b.WriteString(r.t(u, "coach.athlete_no_data"))
	} else {
		currentDay := ""
		for _, m := range measurements {
			day := m.MeasuredAt.Format(dateFormat)
			if day != currentDay {
				currentDay = day
				fmt.Fprintf(&b, "📅 %s\n", day)
			}
			fmt.Fprintf(&b, "  • %s: %s %s\n",
				r.tr.TypeName(u.Language, m.Type.Name), formatValue(m.Value), m.Type.Unit)
		}
	}
	r.sendWithKeyboard(chatID, b.String(), r.backKeyboard(u))
}

// --- Adding an athlete: ask for a username, then send a request ---

func (r *Router) handleAddAthlete(_ context.Context, chatID int64, u *domain.User) {
	if !u.IsCoach() {
		r.sendText(chatID, r.t(u, "coach.not_a_coach"))
		return
	}
	r.setPending(chatID, pending{step: stepAthleteName})
	r.sendText(chatID, r.t(u, "coach.enter_username"))
}

func (r *Router) handleAthleteUsername(ctx context.Context, chatID int64, u *domain.User, text string) {
	r.clearPending(chatID)

	athlete, err := r.repo.UserByUsername(ctx, text)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			r.sendText(chatID, r.t(u, "coach.user_not_found"))
			return
		}
		r.log.Error("user lookup failed", zap.Error(err))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if athlete.ID == u.ID {
		r.sendText(chatID, r.t(u, "coach.cannot_add_self"))
		return
	}

	req, err := r.repo.CreateCoachRequest(ctx, u.ID, athlete.ID, "")
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyLinked):
			r.sendText(chatID, r.t(u, "coach.already_linked"))
		case errors.Is(err, store.ErrDuplicateRequest):
			r.sendText(chatID, r.t(u, "coach.request_pending"))
		default:
			r.log.Error("create request failed", zap.Error(err), zap.Int64("coachID", u.ID))
			r.sendText(chatID, r.t(u, "errors.generic"))
		}
		return
	}

	r.sendText(chatID, r.tf(u, "coach.request_sent", map[string]string{"name": athlete.DisplayName()}))

	// Ping the athlete right away in their own language.
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				r.tr.Get(athlete.Language, "coach.request_accept"), fmt.Sprintf("coach:accept:%d", req.ID)),
			tgbotapi.NewInlineKeyboardButtonData(
				r.tr.Get(athlete.Language, "coach.request_reject"), fmt.Sprintf("coach:reject:%d", req.ID)),
		),
	)
	notice := r.tr.Getf(athlete.Language, "coach.request_received", map[string]string{"name": u.DisplayName()})
	r.sendWithKeyboard(athlete.TelegramID, notice, kb)
}

// --- Removing an athlete ---

func (r *Router) handleRemoveAthleteMenu(ctx context.Context, chatID int64, u *domain.User) {
	athletes, err := r.repo.CoachAthletes(ctx, u.ID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(athletes) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "coach.no_athletes"), r.backKeyboard(u))
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, a := range athletes {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(a.DisplayName(), fmt.Sprintf("coach:removeath:%d", a.ID)),
		))
	}
	rows = append(rows, r.backButton(u))
	r.sendWithKeyboard(chatID, r.t(u, "coach.choose_to_remove"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (r *Router) handleRemoveAthleteConfirm(ctx context.Context, chatID int64, u *domain.User, athleteID int64) {
	athlete, err := r.repo.UserByID(ctx, athleteID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	removed, err := r.repo.RemoveAthlete(ctx, u.ID, athleteID)
	if err != nil {
		r.log.Error("remove athlete failed", zap.Error(err), zap.Int64("coachID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if !removed {
		r.sendText(chatID, r.t(u, "coach.not_linked"))
		return
	}
	r.sendText(chatID, r.tf(u, "coach.athlete_removed", map[string]string{"name": athlete.DisplayName()}))
	r.sendMainMenu(ctx, chatID, u)
}

// --- Athlete side: my coaches ---

func (r *Router) handleMyCoaches(ctx context.Context, chatID int64, u *domain.User) {
	coaches, err := r.repo.AthleteCoaches(ctx, u.ID)
	if err != nil {
		r.log.Error("coaches lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(coaches) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "coach.no_coaches"), r.backKeyboard(u))
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range coaches {
		label := r.tf(u, "coach.leave_button", map[string]string{"name": c.DisplayName()})
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("coach:leave:%d", c.ID)),
		))
	}
	rows = append(rows, r.backButton(u))
	r.sendWithKeyboard(chatID, r.t(u, "coach.my_coaches_title"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (r *Router) handleLeaveCoach(ctx context.Context, chatID int64, u *domain.User, coachID int64) {
	removed, err := r.repo.RemoveAthlete(ctx, coachID, u.ID)
	if err != nil {
		r.log.Error("leave coach failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if !removed {
		r.sendText(chatID, r.t(u, "coach.not_linked"))
		return
	}
	r.sendText(chatID, r.t(u, "coach.left_coach"))
	r.queueLinkNotification(ctx, coachID, u, domain.NotifyAthleteLeft, "coach.notifications.athlete_left")
	r.sendMainMenu(ctx, chatID, u)
}

// --- Athlete side: pending requests ---

func (r *Router) handleCoachRequests(ctx context.Context, chatID int64, u *domain.User) {
	requests, err := r.repo.PendingRequestsForAthlete(ctx, u.ID)
	if err != nil {
		r.log.Error("pending requests lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(requests) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "coach.no_requests"), r.backKeyboard(u))
		return
	}
	for _, req := range requests {
		name := "?"
		if req.Coach != nil {
			name = req.Coach.DisplayName()
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(r.t(u, "coach.request_accept"), fmt.Sprintf("coach:accept:%d", req.ID)),
				tgbotapi.NewInlineKeyboardButtonData(r.t(u, "coach.request_reject"), fmt.Sprintf("coach:reject:%d", req.ID)),
			),
		)
		text := r.tf(u, "coach.request_line", map[string]string{
			"name": name,
			"date": req.ExpiresAt.Format(dateFormat),
		})
		r.sendWithKeyboard(chatID, text, kb)
	}
}

func (r *Router) handleAcceptRequest(ctx context.Context, chatID int64, u *domain.User, requestID int64) {
	req, err := r.repo.AcceptRequest(ctx, requestID, u.ID)
	if err != nil {
		if errors.Is(err, store.ErrRequestNotFound) {
			r.sendText(chatID, r.t(u, "coach.request_gone"))
			return
		}
		r.log.Error("accept request failed", zap.Error(err), zap.Int64("requestID", requestID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	r.sendText(chatID, r.t(u, "coach.request_accepted"))
	r.queueLinkNotification(ctx, req.CoachID, u, domain.NotifyAthleteJoined, "coach.notifications.athlete_joined")
	r.sendMainMenu(ctx, chatID, u)
}

func (r *Router) handleRejectRequest(ctx context.Context, chatID int64, u *domain.User, requestID int64) {
	_, err := r.repo.RejectRequest(ctx, requestID, u.ID)
	if err != nil {
		if errors.Is(err, store.ErrRequestNotFound) {
			r.sendText(chatID, r.t(u, "coach.request_gone"))
			return
		}
		r.log.Error("reject request failed", zap.Error(err), zap.Int64("requestID", requestID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	r.sendText(chatID, r.t(u, "coach.request_rejected"))
	r.sendMainMenu(ctx, chatID, u)
}

// --- Coach notification preferences and history ---

func (r *Router) handleCoachPrefs(ctx context.Context, chatID int64, u *domain.User) {
	prefs, err := r.repo.CoachPrefs(ctx, u.ID)
	if err != nil {
		r.log.Error("prefs lookup failed", zap.Error(err), zap.Int64("coachID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range domain.AllCoachNotificationTypes {
		mark := "✅"
		if !prefs[t] {
			mark = "🔕"
		}
		label := fmt.Sprintf("%s %s", mark, r.t(u, "coach.pref."+string(t)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "coach:pref:"+string(t)),
		))
	}
	rows = append(rows, r.backButton(u))
	r.sendWithKeyboard(chatID, r.t(u, "coach.prefs_title"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (r *Router) handleToggleCoachPref(ctx context.Context, chatID int64, u *domain.User, raw string) {
	t := domain.CoachNotificationType(raw)
	valid := false
	for _, known := range domain.AllCoachNotificationTypes {
		if t == known {
			valid = true
			break
		}
	}
	if !valid {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	enabled, err := r.repo.CoachNotificationEnabled(ctx, u.ID, t)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if err := r.repo.SetCoachPref(ctx, u.ID, t, !enabled); err != nil {
		r.log.Error("set pref failed", zap.Error(err), zap.Int64("coachID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	r.handleCoachPrefs(ctx, chatID, u)
}

func (r *Router) handleCoachHistory(ctx context.Context, chatID int64, u *domain.User) {
	history, err := r.repo.CoachNotificationHistory(ctx, u.ID, coachHistoryLimit)
	if err != nil {
		r.log.Error("history lookup failed", zap.Error(err), zap.Int64("coachID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(history) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "coach.history_empty"), r.backKeyboard(u))
		return
	}
	var b strings.Builder
	b.WriteString(r.t(u, "coach.history_title"))
	b.WriteString("\n")
	for _, n := range history {
		b.WriteString("\n")
		if n.SentAt != nil {
			fmt.Fprintf(&b, "%s — ", n.SentAt.Format(dateFormat))
		}
		b.WriteString(n.Message)
		b.WriteString("\n")
	}
	r.sendWithKeyboard(chatID, b.String(), r.backKeyboard(u))
}

// --- Queuing helpers ---

// notifyCoachesOfMeasurement queues a note for every supervising coach who
// has the measurement-added notification enabled. Delivery happens on the
// scheduler's next tick. Queue failures are logged and never surface to the
// athlete.
func (r *Router) notifyCoachesOfMeasurement(ctx context.Context, athlete *domain.User, m *domain.Measurement, mt *domain.MeasurementType) {
	coaches, err := r.repo.AthleteCoaches(ctx, athlete.ID)
	if err != nil {
		r.log.Error("coaches lookup failed", zap.Error(err), zap.Int64("athleteID", athlete.ID))
		return
	}
	for _, coach := range coaches {
		enabled, err := r.repo.CoachNotificationEnabled(ctx, coach.ID, domain.NotifyMeasurementAdded)
		if err != nil || !enabled {
			continue
		}
		// Message text is rendered at queue time in the coach's language.
		msg := r.tr.Getf(coach.Language, "coach.notifications.measurement_added", map[string]string{
			"athlete": athlete.DisplayName(),
			"type":    r.tr.TypeName(coach.Language, mt.Name),
			"value":   formatValue(m.Value),
			"unit":    mt.Unit,
		})
		n := &domain.CoachNotification{
			CoachID:       coach.ID,
			AthleteID:     athlete.ID,
			Type:          domain.NotifyMeasurementAdded,
			Message:       msg,
			MeasurementID: m.ID,
		}
		if err := r.repo.QueueCoachNotification(ctx, n); err != nil {
			r.log.Error("queue coach notification failed", zap.Error(err), zap.Int64("coachID", coach.ID))
		}
	}
}

// queueLinkNotification queues a joined/left note for one coach, honoring
// their preference for that type.
func (r *Router) queueLinkNotification(ctx context.Context, coachID int64, athlete *domain.User, t domain.CoachNotificationType, key string) {
	coach, err := r.repo.UserByID(ctx, coachID)
	if err != nil {
		r.log.Error("coach lookup failed", zap.Error(err), zap.Int64("coachID", coachID))
		return
	}
	enabled, err := r.repo.CoachNotificationEnabled(ctx, coachID, t)
	if err != nil || !enabled {
		return
	}
	n := &domain.CoachNotification{
		CoachID:   coachID,
		AthleteID: athlete.ID,
		Type:      t,
		Message:   r.tr.Getf(coach.Language, key, map[string]string{"athlete": athlete.DisplayName()}),
	}
	if err := r.repo.QueueCoachNotification(ctx, n); err != nil {
		r.log.Error("queue coach notification failed", zap.Error(err), zap.Int64("coachID", coachID))
	}
}
