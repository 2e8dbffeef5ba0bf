package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/Freeeeeet/smartclass/internal/service"
	"go.uber.org/zap"
)

// Sender транспорт писем
type Sender interface {
	Deliver(ctx context.Context, msg *Message) error
}

var _ service.Notifier = (*EmailNotifier)(nil)

// EmailNotifier рисует QR-код и отправляет письмо преподавателю
type EmailNotifier struct {
	sender Sender
	logger *zap.Logger
}

func NewEmailNotifier(sender Sender, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{sender: sender, logger: logger}
}

func (n *EmailNotifier) Send(ctx context.Context, code *model.ClassQRCode, to service.Recipient, class service.ScheduleContext) error {
	if to.Email == "" {
		return fmt.Errorf("recipient %q has no email", to.Name)
	}

	png, err := RenderQRCard(code.Payload, class.Subject+" "+class.StartTime+"-"+class.EndTime)
	if err != nil {
		return fmt.Errorf("render qr card: %w", err)
	}

	msg, err := BuildMessage(code, to, class, png)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	if err := n.sender.Deliver(ctx, msg); err != nil {
		return err
	}

	n.logger.Debug("Email delivered",
		zap.String("to", to.Email),
		zap.String("qr_code_id", code.ID),
		zap.String("subject", msg.Subject))
	return nil
}
