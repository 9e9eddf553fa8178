package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/appstate"
	"github.com/spec-kit/aftercare-bot/internal/config"
	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/internal/events"
	"github.com/spec-kit/aftercare-bot/internal/repository"
	"github.com/spec-kit/aftercare-bot/pkg/util"
)

// BroadcastService sends one message to every user matching an audience,
// sequentially, with at most one run active system-wide. Per-recipient send
// failures are counted and never abort the run; recipients who blocked the
// bot are pruned from the store.
type BroadcastService struct {
	users      repository.UserRepository
	state      *appstate.State
	sender     Sender
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.BroadcastConfig

	wg sync.WaitGroup
}

// BroadcastDependencies bundles inputs for the broadcast service.
type BroadcastDependencies struct {
	UserRepo   repository.UserRepository
	State      *appstate.State
	Sender     Sender
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Config     config.BroadcastConfig
}

// NewBroadcastService constructs the service.
func NewBroadcastService(deps BroadcastDependencies) *BroadcastService {
	return &BroadcastService{
		users:      deps.UserRepo,
		state:      deps.State,
		sender:     deps.Sender,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        deps.Config,
	}
}

// Start validates and launches a broadcast run in the background. It returns
// a CONFLICT error when a run is already active and a VALIDATION_FAILED
// error when the audience matches nobody; in both cases no run is started.
func (s *BroadcastService) Start(ctx context.Context, adminID int64, audience domain.Audience, text string) error {
	status := s.state.Broadcast
	if !status.Begin(adminID, text) {
		return util.NewConflict("broadcast already active", nil)
	}

	recipients, err := s.users.ListByAudience(ctx, audience)
	if err != nil {
		status.Abort()
		s.state.LogSystem("broadcast_error", fmt.Sprintf("audience query failed: %v", err))
		return util.NewInternalError(err)
	}
	if len(recipients) == 0 {
		status.Abort()
		total, countErr := s.users.CountAll(ctx)
		if countErr != nil {
			total = 0
		}
		diagnostic := fmt.Sprintf(
			"📭 Аудитория «%s»: 0 из %d пользователей (0%%). Рассылка не запущена.",
			audience.Title(), total)
		if _, sendErr := s.sender.SendMessage(ctx, adminID, diagnostic); sendErr != nil {
			s.logger.Warn("broadcast diagnostic send failed", zap.Error(sendErr))
		}
		return util.NewValidationError("audience is empty", map[string]any{"audience": string(audience)})
	}

	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.Background())
	status.SetRun(runID, len(recipients), cancel)

	statusText := fmt.Sprintf("📨 Рассылка запущена: %d получателей…", len(recipients))
	statusMsgID, err := s.sender.SendMessage(ctx, adminID, statusText)
	if err != nil {
		// Progress stays invisible but the run proceeds.
		s.logger.Warn("broadcast status message failed", zap.Error(err))
		statusMsgID = 0
	}

	s.state.LogAction("broadcast_started",
		fmt.Sprintf("admin %d started broadcast %s to %d users", adminID, runID, len(recipients)))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(runCtx, adminID, statusMsgID, runID, recipients)
	}()
	return nil
}

// Cancel stops the active run at its next iteration boundary. In-flight
// sends are never interrupted.
func (s *BroadcastService) Cancel(adminID int64) bool {
	if !s.state.Broadcast.Cancel() {
		return false
	}
	s.state.LogAction("broadcast_cancelled", fmt.Sprintf("admin %d cancelled broadcast", adminID))
	return true
}

// Wait blocks until any in-flight run completes. Used on shutdown and in tests.
func (s *BroadcastService) Wait() {
	s.wg.Wait()
}

func (s *BroadcastService) run(ctx context.Context, adminID int64, statusMsgID int, runID string, recipients []domain.User) {
	status := s.state.Broadcast
	progressEvery := s.cfg.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = 5
	}
	delay := s.cfg.SendDelay()
	cancelled := false

	for i := range recipients {
		if ctx.Err() != nil || !status.Active() {
			cancelled = true
			break
		}
		recipient := &recipients[i]

		if recipient.ID == adminID {
			// Self-skip still counts toward the accounting invariant.
			status.RecordSuccess()
		} else if _, err := s.sender.SendMessage(ctx, recipient.ID, status.Snapshot().Text); err != nil {
			status.RecordFailed()
			if errors.Is(err, domain.ErrRecipientBlocked) {
				s.pruneBlocked(ctx, recipient.ID)
			} else {
				s.logger.Warn("broadcast send failed",
					zap.Int64("user_id", recipient.ID), zap.Error(err))
			}
		} else {
			status.RecordSuccess()
		}

		last := i == len(recipients)-1
		if statusMsgID != 0 && ((i+1)%progressEvery == 0 || last) {
			s.editStatus(ctx, adminID, statusMsgID, progressText(status.Snapshot()))
		}
		if !last && delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}
	}

	status.Finish()
	snap := status.Snapshot()
	if statusMsgID != 0 {
		s.editStatus(context.Background(), adminID, statusMsgID, summaryText(snap, cancelled))
	}
	s.state.LogAction("broadcast_finished",
		fmt.Sprintf("broadcast %s: %d/%d delivered, %d failed", runID, snap.Success, snap.Total, snap.Failed))
	s.logger.Info("broadcast finished",
		zap.String("run_id", runID),
		zap.Int("total", snap.Total),
		zap.Int("success", snap.Success),
		zap.Int("failed", snap.Failed),
		zap.Bool("cancelled", cancelled))

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(context.Background(), events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventBroadcastFinished,
			UserID:    adminID,
			Timestamp: time.Now(),
			Payload: events.BroadcastFinishedPayload{
				RunID:     runID,
				Total:     snap.Total,
				Success:   snap.Success,
				Failed:    snap.Failed,
				Elapsed:   snap.FinishedAt.Sub(snap.StartedAt),
				Cancelled: cancelled,
			},
		})
	}
}

// pruneBlocked removes the record of a recipient who blocked the bot.
// A secondary failure to delete is logged, not fatal.
func (s *BroadcastService) pruneBlocked(ctx context.Context, userID int64) {
	if err := s.users.Delete(ctx, userID); err != nil {
		s.logger.Warn("failed to prune blocked user", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	s.state.LogSystem("user_pruned", fmt.Sprintf("user %d blocked the bot, record removed", userID))
}

func (s *BroadcastService) editStatus(ctx context.Context, adminID int64, messageID int, text string) {
	if err := s.sender.EditMessage(ctx, adminID, messageID, text); err != nil {
		s.logger.Debug("broadcast progress edit failed", zap.Error(err))
	}
}

func progressText(snap appstate.BroadcastSnapshot) string {
	done := snap.Success + snap.Failed
	elapsed := time.Since(snap.StartedAt)
	var remaining time.Duration
	if done > 0 {
		remaining = time.Duration(float64(elapsed) / float64(done) * float64(snap.Total-done))
	}
	return fmt.Sprintf(
		"📨 Рассылка: %d/%d\n✅ Доставлено: %d\n❌ Ошибок: %d\n⏱ Прошло: %ds, осталось ~%ds",
		done, snap.Total, snap.Success, snap.Failed,
		int(elapsed.Seconds()), int(remaining.Seconds()))
}

func summaryText(snap appstate.BroadcastSnapshot, cancelled bool) string {
	header := "✅ Рассылка завершена"
	if cancelled {
		header = "⏹ Рассылка остановлена"
	}
	rate := 0
	if snap.Total > 0 {
		rate = snap.Success * 100 / snap.Total
	}
	return fmt.Sprintf(
		"%s\n\nВсего: %d\nДоставлено: %d (%d%%)\nОшибок: %d\nВремя: %ds",
		header, snap.Total, snap.Success, rate, snap.Failed,
		int(snap.FinishedAt.Sub(snap.StartedAt).Seconds()))
}
