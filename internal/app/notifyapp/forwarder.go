package notifyapp

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/repo"
)

type Sender interface {
	SendNotification(ctx context.Context, chatID int64, n model.Notification) error
}

// Forwarder pushes notifications received from the bus to the recipient's
// linked Telegram chat. Recipients without a chat are skipped.
type Forwarder struct {
	accounts repo.AccountStore
	sender   Sender
	logger   *zap.Logger
}

func NewForwarder(accounts repo.AccountStore, sender Sender, logger *zap.Logger) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forwarder{accounts: accounts, sender: sender, logger: logger}
}

// Handle never returns an error; failures are logged and the effect is
// dropped, the inbox copy stays authoritative.
func (f *Forwarder) Handle(ctx context.Context, effect model.Effect) {
	n := effect.Notification
	if n == nil {
		return
	}
	fields := []zap.Field{
		zap.String("effect_id", effect.ID),
		zap.String("kind", string(n.Kind)),
		zap.Int64("recipient_id", n.RecipientID),
	}

	account, err := f.accounts.Get(ctx, n.RecipientID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			f.logger.Debug("notification recipient not found", fields...)
			return
		}
		f.logger.Warn("load notification recipient", append(fields, zap.Error(err))...)
		return
	}
	if account.TelegramChatID == nil {
		f.logger.Debug("recipient has no telegram chat", fields...)
		return
	}
	if f.sender == nil {
		f.logger.Info("telegram disabled, notification not pushed", fields...)
		return
	}

	if err := f.sender.SendNotification(ctx, *account.TelegramChatID, *n); err != nil {
		f.logger.Warn("push notification failed", append(fields, zap.Error(err))...)
	}
}
