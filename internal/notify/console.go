package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var _ Sender = (*ConsoleSender)(nil)

// ConsoleSender пишет письма в лог вместо отправки; для разработки и тестов
type ConsoleSender struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

func NewConsoleSender(logger *zap.Logger) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) Deliver(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Info("Email (console)",
		zap.String("to", msg.To.String()),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Inline)),
		zap.String("text", msg.Text))

	s.mu.Lock()
	s.sent = append(s.sent, *msg)
	s.mu.Unlock()
	return nil
}

// Sent копия отправленных писем
func (s *ConsoleSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
