package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/berendovychRB/easy-track/internal/domain"
	"github.com/berendovychRB/easy-track/internal/store"
)

const dateFormat = "02.01.2006"

// --- Add measurement flow ---

func (r *Router) handleAddMeasurement(ctx context.Context, chatID int64, u *domain.User) {
	tracked, err := r.repo.TrackedTypes(ctx, u.ID)
	if err != nil {
		r.log.Error("tracked types lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(tracked) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "measurements.no_types"), r.backKeyboard(u))
		return
	}
	rows := r.typeButtons(u, tracked, "measure:")
	rows = append(rows, r.backButton(u))
	r.sendWithKeyboard(chatID, r.t(u, "measurements.choose_type"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (r *Router) handleMeasureType(ctx context.Context, chatID int64, u *domain.User, typeID int64) {
	mt, err := r.repo.TypeByID(ctx, typeID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	prompt := r.tf(u, "measurements.enter_value", map[string]string{
		"type": r.tr.TypeName(u.Language, mt.Name),
		"unit": mt.Unit,
	})
	if last, err := r.repo.LatestMeasurement(ctx, u.ID, typeID); err == nil && last != nil {
		prompt += "\n" + r.tf(u, "measurements.previous", map[string]string{
			"value": formatValue(last.Value),
			"unit":  mt.Unit,
			"date":  last.MeasuredAt.Format(dateFormat),
		})
	}
	r.setPending(chatID, pending{step: stepMeasureValue, typeID: typeID})
	r.sendText(chatID, prompt)
}

func (r *Router) handleMeasurementValue(ctx context.Context, chatID int64, u *domain.User, p pending, text string) {
	value, err := domain.ParseMeasurementValue(text)
	if err != nil {
		r.sendText(chatID, r.t(u, "measurements.invalid_value"))
		return
	}
	r.clearPending(chatID)

	mt, err := r.repo.TypeByID(ctx, p.typeID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	m, err := r.repo.CreateMeasurement(ctx, u.ID, p.typeID, value, time.Now(), "")
	if err != nil {
		r.log.Error("create measurement failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	r.notifyCoachesOfMeasurement(ctx, u, m, mt)

	r.sendText(chatID, r.tf(u, "measurements.saved", map[string]string{
		"type":  r.tr.TypeName(u.Language, mt.Name),
		"value": formatValue(value),
		"unit":  mt.Unit,
	}))
	r.sendMainMenu(ctx, chatID, u)
}

// --- Manage types ---

func (r *Router) handleManageTypes(ctx context.Context, chatID int64, u *domain.User) {
	tracked, err := r.repo.TrackedTypes(ctx, u.ID)
	if err != nil {
		r.log.Error("tracked types lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}

	var b strings.Builder
	b.WriteString(r.t(u, "types.title"))
	b.WriteString("\n\n")
	if len(tracked) == 0 {
		b.WriteString(r.t(u, "types.none_tracked"))
	} else {
		for _, tt := range tracked {
			fmt.Fprintf(&b, "• %s (%s)\n", r.tr.TypeName(u.Language, tt.Type.Name), tt.Type.Unit)
		}
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "types.add"), "types:add"),
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "types.remove"), "types:remove"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "types.create_custom"), "types:custom"),
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "types.delete_custom"), "types:delete"),
		),
		r.backButton(u),
	)
	r.sendWithKeyboard(chatID, b.String(), kb)
}

func (r *Router) handleAddTypes(ctx context.Context, chatID int64, u *domain.User) {
	available, err := r.repo.AvailableTypes(ctx, u.ID)
	if err != nil {
		r.log.Error("available types lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(available) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "types.nothing_to_add"), r.backKeyboard(u))
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, mt := range available {
		label := fmt.Sprintf("%s (%s)", r.tr.TypeName(u.Language, mt.Name), mt.Unit)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("types:add:%d", mt.ID)),
		))
	}
	rows = append(rows, r.backButton(u))
	r.sendWithKeyboard(chatID, r.t(u, "types.choose_to_add"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (r *Router) handleAddTypeConfirm(ctx context.Context, chatID int64, u *domain.User, typeID int64) {
	mt, err := r.repo.TypeByID(ctx, typeID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if err := r.repo.TrackType(ctx, u.ID, typeID); err != nil {
		r.log.Error("track type failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	r.sendText(chatID, r.tf(u, "types.added", map[string]string{
		"type": r.tr.TypeName(u.Language, mt.Name),
	}))
	r.handleManageTypes(ctx, chatID, u)
}

func (r *Router) handleRemoveTypes(ctx context.Context, chatID int64, u *domain.User) {
	tracked, err := r.repo.TrackedTypes(ctx, u.ID)
	if err != nil {
		r.log.Error("tracked types lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(tracked) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "types.none_tracked"), r.backKeyboard(u))
		return
	}
	rows := r.typeButtons(u, tracked, "types:remove:")
	rows = append(rows, r.backButton(u))
	r.sendWithKeyboard(chatID, r.t(u, "types.choose_to_remove"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (r *Router) handleRemoveTypeConfirm(ctx context.Context, chatID int64, u *domain.User, typeID int64) {
	mt, err := r.repo.TypeByID(ctx, typeID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if err := r.repo.UntrackType(ctx, u.ID, typeID); err != nil {
		r.sendText(chatID, r.t(u, "errors.not_found"))
		return
	}
	r.sendText(chatID, r.tf(u, "types.removed", map[string]string{
		"type": r.tr.TypeName(u.Language, mt.Name),
	}))
	r.handleManageTypes(ctx, chatID, u)
}

// --- Custom type wizard: name -> unit -> optional description ---

func (r *Router) handleCreateCustomType(_ context.Context, chatID int64, u *domain.User) {
	r.setPending(chatID, pending{step: stepCustomName})
	r.sendText(chatID, r.t(u, "types.custom_name_prompt"))
}

func (r *Router) handleCustomTypeName(ctx context.Context, chatID int64, u *domain.User, text string) {
	name := strings.TrimSpace(text)
	if name == "" || len(name) > 100 {
		r.sendText(chatID, r.t(u, "types.custom_name_invalid"))
		return
	}
	r.setPending(chatID, pending{step: stepCustomUnit, name: name})
	r.sendText(chatID, r.t(u, "types.custom_unit_prompt"))
}

func (r *Router) handleCustomTypeUnit(_ context.Context, chatID int64, u *domain.User, p pending, text string) {
	unit := strings.TrimSpace(text)
	if unit == "" || len(unit) > 20 {
		r.sendText(chatID, r.t(u, "types.custom_unit_invalid"))
		return
	}
	r.setPending(chatID, pending{step: stepCustomDesc, name: p.name, unit: unit})
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "types.custom_skip"), "types:skipdesc"),
		),
	)
	r.sendWithKeyboard(chatID, r.t(u, "types.custom_description_prompt"), kb)
}

func (r *Router) handleCustomTypeDescription(ctx context.Context, chatID int64, u *domain.User, p pending, text string) {
	r.createCustomType(ctx, chatID, u, p.name, p.unit, strings.TrimSpace(text))
}

func (r *Router) handleSkipDescription(ctx context.Context, chatID int64, u *domain.User) {
	p := r.getPending(chatID)
	if p.step != stepCustomDesc {
		r.sendMainMenu(ctx, chatID, u)
		return
	}
	r.createCustomType(ctx, chatID, u, p.name, p.unit, "")
}

func (r *Router) createCustomType(ctx context.Context, chatID int64, u *domain.User, name, unit, description string) {
	r.clearPending(chatID)
	mt, err := r.repo.CreateCustomType(ctx, u.ID, name, unit, description)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateType) {
			r.sendText(chatID, r.t(u, "types.custom_name_taken"))
			return
		}
		r.log.Error("create custom type failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	// Custom types are tracked immediately; creating one and then hunting for
	// it in the add list would be a pointless extra step.
	if err := r.repo.TrackType(ctx, u.ID, mt.ID); err != nil {
		r.log.Error("track custom type failed", zap.Error(err), zap.Int64("userID", u.ID))
	}
	r.sendText(chatID, r.tf(u, "types.custom_created", map[string]string{
		"type": mt.Name,
		"unit": mt.Unit,
	}))
	r.handleManageTypes(ctx, chatID, u)
}

// handleDeleteCustomTypes lists the user's own custom types for permanent
// deletion. Tracked and untracked custom types both qualify.
func (r *Router) handleDeleteCustomTypes(ctx context.Context, chatID int64, u *domain.User) {
	tracked, err := r.repo.TrackedTypes(ctx, u.ID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	available, err := r.repo.AvailableTypes(ctx, u.ID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}

	var own []domain.MeasurementType
	for _, tt := range tracked {
		if tt.Type.Custom && tt.Type.CreatedBy == u.ID {
			own = append(own, tt.Type)
		}
	}
	for _, mt := range available {
		if mt.Custom && mt.CreatedBy == u.ID {
			own = append(own, mt)
		}
	}
	if len(own) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "types.no_custom"), r.backKeyboard(u))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, mt := range own {
		label := fmt.Sprintf("%s (%s)", mt.Name, mt.Unit)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("types:delete:%d", mt.ID)),
		))
	}
	rows = append(rows, r.backButton(u))
	r.sendWithKeyboard(chatID, r.t(u, "types.choose_to_delete"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (r *Router) handleDeleteCustomTypeConfirm(ctx context.Context, chatID int64, u *domain.User, typeID int64) {
	if err := r.repo.DeleteCustomType(ctx, u.ID, typeID); err != nil {
		switch {
		case errors.Is(err, store.ErrTypeInUse):
			r.sendText(chatID, r.t(u, "types.delete_in_use"))
		case errors.Is(err, store.ErrTypeNotFound):
			r.sendText(chatID, r.t(u, "errors.not_found"))
		default:
			r.log.Error("delete custom type failed", zap.Error(err), zap.Int64("userID", u.ID))
			r.sendText(chatID, r.t(u, "errors.generic"))
		}
		return
	}
	r.sendText(chatID, r.t(u, "types.deleted_custom"))
	r.handleManageTypes(ctx, chatID, u)
}

// --- Progress / statistics / history ---

func (r *Router) handleProgress(ctx context.Context, chatID int64, u *domain.User) {
	tracked, err := r.repo.TrackedTypes(ctx, u.ID)
	if err != nil {
		r.log.Error("tracked types lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(tracked) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "measurements.no_types"), r.backKeyboard(u))
		return
	}
	rows := r.typeButtons(u, tracked, "progress:")
	rows = append(rows, r.backButton(u))
	r.sendWithKeyboard(chatID, r.t(u, "progress.choose_type"), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (r *Router) handleProgressDetail(ctx context.Context, chatID int64, u *domain.User, typeID int64) {
	mt, err := r.repo.TypeByID(ctx, typeID)
	if err != nil {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	history, err := r.repo.MeasurementHistory(ctx, u.ID, typeID, 30)
	if err != nil {
		r.log.Error("history lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(history) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "progress.none"), r.backKeyboard(u))
		return
	}

	var b strings.Builder
	b.WriteString(r.tf(u, "progress.title", map[string]string{
		"type": r.tr.TypeName(u.Language, mt.Name),
	}))
	b.WriteString("\n\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s — %s %s\n", m.MeasuredAt.Format(dateFormat), formatValue(m.Value), mt.Unit)
	}
	first, last := history[0], history[len(history)-1]
	diff := last.Value - first.Value
	sign := "+"
	if diff < 0 {
		sign = ""
	}
	b.WriteString("\n")
	b.WriteString(r.tf(u, "progress.change", map[string]string{
		"diff": sign + formatValue(diff),
		"unit": mt.Unit,
	}))
	r.sendWithKeyboard(chatID, b.String(), r.backKeyboard(u))
}

func (r *Router) handleStatistics(ctx context.Context, chatID int64, u *domain.User) {
	tracked, err := r.repo.TrackedTypes(ctx, u.ID)
	if err != nil {
		r.log.Error("tracked types lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(tracked) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "measurements.no_types"), r.backKeyboard(u))
		return
	}

	var b strings.Builder
	b.WriteString(r.t(u, "stats.title"))
	b.WriteString("\n")
	empty := true
	for _, tt := range tracked {
		stats, err := r.repo.MeasurementStats(ctx, u.ID, tt.Type.ID)
		if err != nil {
			r.log.Error("stats lookup failed", zap.Error(err), zap.Int64("typeID", tt.Type.ID))
			continue
		}
		if stats.Count == 0 {
			continue
		}
		empty = false
		b.WriteString("\n")
		b.WriteString(r.tf(u, "stats.line", map[string]string{
			"type":  r.tr.TypeName(u.Language, tt.Type.Name),
			"count": fmt.Sprintf("%d", stats.Count),
			"avg":   formatValue(stats.Average),
			"min":   formatValue(stats.Min),
			"max":   formatValue(stats.Max),
			"unit":  tt.Type.Unit,
		}))
		b.WriteString("\n")
	}
	if empty {
		r.sendWithKeyboard(chatID, r.t(u, "stats.none"), r.backKeyboard(u))
		return
	}
	r.sendWithKeyboard(chatID, b.String(), r.backKeyboard(u))
}

func (r *Router) handleHistoryMenu(_ context.Context, chatID int64, u *domain.User) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "history.week"), "hist:7"),
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "history.month"), "hist:30"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.t(u, "history.all_time"), "hist:0"),
		),
		r.backButton(u),
	)
	r.sendWithKeyboard(chatID, r.t(u, "history.choose_period"), kb)
}

func (r *Router) handleHistory(ctx context.Context, chatID int64, u *domain.User, days int) {
	measurements, err := r.repo.MeasurementsSince(ctx, u.ID, days)
	if err != nil {
		r.log.Error("history lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if len(measurements) == 0 {
		r.sendWithKeyboard(chatID, r.t(u, "history.none"), r.backKeyboard(u))
		return
	}

	// Group by calendar day; the query returns newest first, so days appear
	// newest first as well.
	var b strings.Builder
	b.WriteString(r.t(u, "history.title"))
	b.WriteString("\n")
	currentDay := ""
	for _, m := range measurements {
		day := m.MeasuredAt.Format(dateFormat)
		if day != currentDay {
			currentDay = day
			fmt.Fprintf(&b, "\n📅 %s\n", day)
		}
		fmt.Fprintf(&b, "  • %s: %s %s\n",
			r.tr.TypeName(u.Language, m.Type.Name), formatValue(m.Value), m.Type.Unit)
	}
	r.sendWithKeyboard(chatID, b.String(), r.backKeyboard(u))
}

func formatValue(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
