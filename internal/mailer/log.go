package mailer

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/driveauth/internal/config"
)

// logSender writes outgoing mail to the log instead of delivering it.
type logSender struct {
	from string
}

func init() {
	Register("log", func(cfg config.MailConfig) (Sender, error) {
		return &logSender{from: cfg.From}, nil
	})
}

func (s *logSender) Send(ctx context.Context, msg *Message) error {
	logutil.GetLogger(ctx).Info("mail delivery skipped, logging message",
		zap.String("from", s.from),
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}
