package telegram

import (
	"context"
	"runtime/debug"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/appstate"
	"github.com/spec-kit/aftercare-bot/internal/observability"
	"github.com/spec-kit/aftercare-bot/internal/service"
)

// Router dispatches inbound updates to command, callback and stage-text
// handlers. Updates from the same user are serialized by a per-user mutex;
// different users are handled concurrently.
type Router struct {
	bot          *Bot
	users        *service.UserService
	conversation *service.Conversation
	broadcasts   *service.BroadcastService
	access       *service.AccessService
	analytics    *service.AnalyticsService
	appointments *service.AppointmentService
	backup       *service.BackupService
	state        *appstate.State
	metrics      *observability.Metrics
	dedupe       *Dedupe
	logger       *zap.Logger

	locks userLocks
}

// RouterDependencies bundles everything the router needs.
type RouterDependencies struct {
	Bot          *Bot
	Users        *service.UserService
	Conversation *service.Conversation
	Broadcasts   *service.BroadcastService
	Access       *service.AccessService
	Analytics    *service.AnalyticsService
	Appointments *service.AppointmentService
	Backup       *service.BackupService
	State        *appstate.State
	Metrics      *observability.Metrics
	Dedupe       *Dedupe
	Logger       *zap.Logger
}

// NewRouter constructs the router.
func NewRouter(deps RouterDependencies) *Router {
	return &Router{
		bot:          deps.Bot,
		users:        deps.Users,
		conversation: deps.Conversation,
		broadcasts:   deps.Broadcasts,
		access:       deps.Access,
		analytics:    deps.Analytics,
		appointments: deps.Appointments,
		backup:       deps.Backup,
		state:        deps.State,
		metrics:      deps.Metrics,
		dedupe:       deps.Dedupe,
		logger:       deps.Logger,
	}
}

// Run consumes the long-polling update channel until the context ends.
func (r *Router) Run(ctx context.Context, pollTimeoutSeconds int) {
	updates := r.bot.UpdatesChan(pollTimeoutSeconds)
	r.logger.Info("update loop started")
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go r.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one update with panic recovery. Exported so the
// webhook transport can feed updates through the same path.
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic in update handler",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))
			r.state.LogSystem("panic", "update handler panicked")
			if chatID := updateChatID(update); chatID != 0 {
				_, _ = r.bot.SendMessage(ctx, chatID, genericErrorText)
			}
		}
	}()

	if r.dedupe.Seen(ctx, update.UpdateID) {
		return
	}

	from := updateFrom(update)
	if from == nil {
		return
	}

	// Serialize handling per user so a multi-step wizard cannot be
	// corrupted by rapid-fire messages from the same chat.
	unlock := r.locks.lock(from.ID)
	defer unlock()

	user, created, err := r.users.EnsureUser(ctx, service.Profile{
		ID:        from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	})
	if err != nil {
		r.logger.Error("ensure user failed", zap.Int64("user_id", from.ID), zap.Error(err))
		r.state.LogSystem("db_error", "failed to load user record")
		if chatID := updateChatID(update); chatID != 0 {
			_, _ = r.bot.SendMessage(ctx, chatID, genericErrorText)
		}
		return
	}
	if created {
		r.state.LogSystem("user_created", "new user "+user.DisplayName())
	}

	switch {
	case update.CallbackQuery != nil:
		r.handleCallback(ctx, user, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		r.metrics.RecordUpdate("cmd_" + update.Message.Command())
		r.handleCommand(ctx, user, update.Message)
	case update.Message != nil && update.Message.Text != "":
		r.metrics.RecordUpdate("text")
		if err := r.conversation.HandleText(ctx, user, update.Message.Text); err != nil {
			r.metrics.RecordError("text", "INTERNAL_ERROR")
			r.logger.Error("text handler failed", zap.Int64("user_id", user.ID), zap.Error(err))
			r.state.LogSystem("handler_error", "text handler failed")
			_, _ = r.bot.SendMessage(ctx, user.ID, genericErrorText)
		}
	}
}

func updateFrom(update tgbotapi.Update) *tgbotapi.User {
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From
	}
	if update.Message != nil {
		return update.Message.From
	}
	return nil
}

func updateChatID(update tgbotapi.Update) int64 {
	if update.Message != nil && update.Message.Chat != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil {
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

// userLocks is a keyed mutex set; entries live for the process lifetime,
// which is acceptable at this bot's audience scale.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*sync.Mutex)
	}
	userMu, ok := l.locks[userID]
	if !ok {
		userMu = &sync.Mutex{}
		l.locks[userID] = userMu
	}
	l.mu.Unlock()

	userMu.Lock()
	return userMu.Unlock
}
