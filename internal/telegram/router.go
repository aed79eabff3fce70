package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/berendovychRB/easy-track/internal/domain"
	"github.com/berendovychRB/easy-track/internal/i18n"
	"github.com/berendovychRB/easy-track/internal/store"
)

// Pending steps used in conversational flows.
const (
	stepMeasureValue = "await_measure_value"
	stepCustomName   = "await_custom_name"
	stepCustomUnit   = "await_custom_unit"
	stepCustomDesc   = "await_custom_desc"
	stepNotifTime    = "await_notif_time"
	stepAthleteName  = "await_athlete_username"
)

// pending carries the in-memory state of a chat's current wizard.
type pending struct {
	step   string
	typeID int64
	day    int
	name   string
	unit   string
}

// Router wires Telegram updates to handlers and holds minimal in-memory
// wizard state.
type Router struct {
	bot  *tgbotapi.BotAPI
	log  *zap.Logger
	repo *store.Store
	tr   *i18n.Translator

	mu    sync.RWMutex
	state map[int64]pending // chatID -> pending wizard step
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo *store.Store, tr *i18n.Translator) *Router {
	return &Router{
		bot:   bot,
		log:   log,
		repo:  repo,
		tr:    tr,
		state: make(map[int64]pending),
	}
}

func (r *Router) setPending(chatID int64, p pending) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = p
}

func (r *Router) getPending(chatID int64) pending {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		u, err := r.ensureUser(ctx, msg.From, chatID)
		if err != nil {
			r.log.Error("ensure user failed", zap.Error(err), zap.Int64("chatID", chatID))
			return
		}

		switch {
		case strings.HasPrefix(text, "/start"):
			r.clearPending(chatID)
			r.handleStart(ctx, chatID, u)
		case strings.HasPrefix(text, "/menu"):
			r.clearPending(chatID)
			r.sendMainMenu(ctx, chatID, u)
		default:
			r.handleFreeForm(ctx, chatID, u, text)
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Message == nil {
			return
		}
		chatID := cb.Message.Chat.ID

		u, err := r.ensureUser(ctx, cb.From, chatID)
		if err != nil {
			r.log.Error("ensure user failed", zap.Error(err), zap.Int64("chatID", chatID))
			return
		}
		_ = r.answerCallback(cb.ID)
		r.handleCallback(ctx, chatID, u, cb.Data)
	}
}

// handleCallback dispatches inline-button presses by data prefix.
func (r *Router) handleCallback(ctx context.Context, chatID int64, u *domain.User, data string) {
	switch {
	case data == "menu:main":
		r.clearPending(chatID)
		r.sendMainMenu(ctx, chatID, u)
	case data == "menu:add":
		r.handleAddMeasurement(ctx, chatID, u)
	case data == "menu:types":
		r.handleManageTypes(ctx, chatID, u)
	case data == "menu:progress":
		r.handleProgress(ctx, chatID, u)
	case data == "menu:stats":
		r.handleStatistics(ctx, chatID, u)
	case data == "menu:history":
		r.handleHistoryMenu(ctx, chatID, u)
	case data == "menu:notifs":
		r.handleNotifications(ctx, chatID, u)
	case data == "menu:lang":
		r.handleLanguageMenu(ctx, chatID, u)
	case data == "menu:become_coach":
		r.handleBecomeCoach(ctx, chatID, u)
	case data == "menu:coach":
		r.handleCoachPanel(ctx, chatID, u)
	case data == "menu:coaches":
		r.handleMyCoaches(ctx, chatID, u)

	case strings.HasPrefix(data, "lang:"):
		r.handleSetLanguage(ctx, chatID, u, strings.TrimPrefix(data, "lang:"))

	case strings.HasPrefix(data, "measure:"):
		r.handleMeasureType(ctx, chatID, u, parseID(data, "measure:"))

	case data == "types:add":
		r.handleAddTypes(ctx, chatID, u)
	case strings.HasPrefix(data, "types:add:"):
		r.handleAddTypeConfirm(ctx, chatID, u, parseID(data, "types:add:"))
	case data == "types:remove":
		r.handleRemoveTypes(ctx, chatID, u)
	case strings.HasPrefix(data, "types:remove:"):
		r.handleRemoveTypeConfirm(ctx, chatID, u, parseID(data, "types:remove:"))
	case strings.HasPrefix(data, "types:delete:"):
		r.handleDeleteCustomTypeConfirm(ctx, chatID, u, parseID(data, "types:delete:"))
	case data == "types:delete":
		r.handleDeleteCustomTypes(ctx, chatID, u)
	case data == "types:custom":
		r.handleCreateCustomType(ctx, chatID, u)
	case data == "types:skipdesc":
		r.handleSkipDescription(ctx, chatID, u)

	case strings.HasPrefix(data, "progress:"):
		r.handleProgressDetail(ctx, chatID, u, parseID(data, "progress:"))

	case strings.HasPrefix(data, "hist:"):
		days, _ := strconv.Atoi(strings.TrimPrefix(data, "hist:"))
		r.handleHistory(ctx, chatID, u, days)

	case data == "notif:add":
		r.handleAddNotification(ctx, chatID, u)
	case strings.HasPrefix(data, "notif:freq:"):
		r.handleNotificationFrequency(ctx, chatID, u, strings.TrimPrefix(data, "notif:freq:"))
	case strings.HasPrefix(data, "notif:view:"):
		r.handleNotificationDetail(ctx, chatID, u, parseID(data, "notif:view:"))
	case strings.HasPrefix(data, "notif:toggle:"):
		r.handleToggleNotification(ctx, chatID, u, parseID(data, "notif:toggle:"))
	case strings.HasPrefix(data, "notif:delete:"):
		r.handleDeleteNotification(ctx, chatID, u, parseID(data, "notif:delete:"))

	case data == "coach:athletes":
		r.handleCoachAthletes(ctx, chatID, u)
	case strings.HasPrefix(data, "coach:athlete:"):
		r.handleAthleteDetail(ctx, chatID, u, parseID(data, "coach:athlete:"))
	case data == "coach:addath":
		r.handleAddAthlete(ctx, chatID, u)
	case data == "coach:removeath":
		r.handleRemoveAthleteMenu(ctx, chatID, u)
	case strings.HasPrefix(data, "coach:removeath:"):
		r.handleRemoveAthleteConfirm(ctx, chatID, u, parseID(data, "coach:removeath:"))
	case strings.HasPrefix(data, "coach:leave:"):
		r.handleLeaveCoach(ctx, chatID, u, parseID(data, "coach:leave:"))
	case data == "coach:requests":
		r.handleCoachRequests(ctx, chatID, u)
	case strings.HasPrefix(data, "coach:accept:"):
		r.handleAcceptRequest(ctx, chatID, u, parseID(data, "coach:accept:"))
	case strings.HasPrefix(data, "coach:reject:"):
		r.handleRejectRequest(ctx, chatID, u, parseID(data, "coach:reject:"))
	case data == "coach:prefs":
		r.handleCoachPrefs(ctx, chatID, u)
	case strings.HasPrefix(data, "coach:pref:"):
		r.handleToggleCoachPref(ctx, chatID, u, strings.TrimPrefix(data, "coach:pref:"))
	case data == "coach:history":
		r.handleCoachHistory(ctx, chatID, u)

	default:
		// Unknown callback data, likely from an outdated keyboard. Ignore.
		r.log.Debug("unknown callback", zap.String("data", data))
	}
}

// ensureUser loads or creates the user row for an incoming update.
func (r *Router) ensureUser(ctx context.Context, from *tgbotapi.User, chatID int64) (*domain.User, error) {
	if from == nil {
		return r.repo.UserByTelegramID(ctx, chatID)
	}
	return r.repo.GetOrCreateUser(ctx, from.ID, from.UserName, from.FirstName, from.LastName)
}

// SendMessage sends a plain text message. This makes Router satisfy
// scheduler.Sender.
func (r *Router) SendMessage(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendMarkdown sends a Markdown-formatted message.
func (r *Router) SendMarkdown(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := r.bot.Send(msg)
	return err
}

func (r *Router) sendText(chatID int64, text string) {
	if err := r.SendMessage(chatID, text); err != nil {
		r.log.Warn("send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}

func (r *Router) answerCallback(id string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, ""))
	return err
}

// t and tf are translation shorthands bound to the user's language.
func (r *Router) t(u *domain.User, key string) string {
	return r.tr.Get(u.Language, key)
}

func (r *Router) tf(u *domain.User, key string, vars map[string]string) string {
	return r.tr.Getf(u.Language, key, vars)
}

func parseID(data, prefix string) int64 {
	id, _ := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	return id
}
