// Package notify holds identity.Notifier implementations.
package notify

import (
	"context"

	"github.com/cotiza/backend/internal/domain/identity"
	"github.com/cotiza/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogNotifier writes account links to the log instead of sending email
type LogNotifier struct {
	logger *zap.Logger
}

var _ identity.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that logs through base
func NewLogNotifier(base *zap.Logger) *LogNotifier {
	if base == nil {
		base = zap.NewNop()
	}
	return &LogNotifier{logger: base.Named("notify")}
}

// SendVerification logs the verification link
func (n *LogNotifier) SendVerification(ctx context.Context, msg identity.Notification) error {
	n.log(ctx, "verification email", msg)
	return nil
}

// SendPasswordReset logs the password reset link
func (n *LogNotifier) SendPasswordReset(ctx context.Context, msg identity.Notification) error {
	n.log(ctx, "password reset email", msg)
	return nil
}

func (n *LogNotifier) log(ctx context.Context, kind string, msg identity.Notification) {
	fields := []zap.Field{
		zap.String("user_id", msg.UserID),
		zap.String("to", msg.Email),
		zap.String("link", msg.Link),
	}
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	n.logger.Info(kind, fields...)
}
