package telegram

import (
	"context"

	"go.uber.org/zap"

	"github.com/berendovychRB/easy-track/internal/domain"
)

func (r *Router) handleStart(ctx context.Context, chatID int64, u *domain.User) {
	r.sendText(chatID, r.tf(u, "start.welcome", map[string]string{"name": u.DisplayName()}))
	r.sendMainMenu(ctx, chatID, u)
}

// sendMainMenu renders the main menu; a badge with the number of pending
// coach requests is shown when the athlete has any.
func (r *Router) sendMainMenu(ctx context.Context, chatID int64, u *domain.User) {
	requests, err := r.repo.PendingRequestsForAthlete(ctx, u.ID)
	if err != nil {
		r.log.Error("pending requests lookup failed", zap.Error(err), zap.Int64("userID", u.ID))
		// The menu is still usable without the badge.
	}
	r.sendWithKeyboard(chatID, r.t(u, "menu.title"), r.mainMenuKeyboard(u, len(requests)))
}

// --- Language ---

func (r *Router) handleLanguageMenu(_ context.Context, chatID int64, u *domain.User) {
	r.sendWithKeyboard(chatID, r.t(u, "language.choose"), r.languageKeyboard())
}

func (r *Router) handleSetLanguage(ctx context.Context, chatID int64, u *domain.User, lang string) {
	if !r.tr.Supported(lang) {
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	if err := r.repo.SetUserLanguage(ctx, u.ID, lang); err != nil {
		r.log.Error("set language failed", zap.Error(err), zap.Int64("userID", u.ID))
		r.sendText(chatID, r.t(u, "errors.generic"))
		return
	}
	u.Language = lang
	r.sendText(chatID, r.t(u, "language.updated"))
	r.sendMainMenu(ctx, chatID, u)
}

// --- Free-form dispatcher (wizard text inputs) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, u *domain.User, text string) {
	p := r.getPending(chatID)
	switch p.step {
	case stepMeasureValue:
		r.handleMeasurementValue(ctx, chatID, u, p, text)
	case stepCustomName:
		r.handleCustomTypeName(ctx, chatID, u, text)
	case stepCustomUnit:
		r.handleCustomTypeUnit(ctx, chatID, u, p, text)
	case stepCustomDesc:
		r.handleCustomTypeDescription(ctx, chatID, u, p, text)
	case stepNotifTime:
		r.handleNotificationTime(ctx, chatID, u, p, text)
	case stepAthleteName:
		r.handleAthleteUsername(ctx, chatID, u, text)
	default:
		// No wizard in progress; nudge back to the menu.
		r.sendMainMenu(ctx, chatID, u)
	}
}
