package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/Freeeeeet/smartclass/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// maxReportLines ограничение строк с ошибками в одном сообщении
const maxReportLines = 15

var _ service.TickObserver = (*TelegramReporter)(nil)

// TelegramReporter присылает оператору сводку по тикам с ошибками
type TelegramReporter struct {
	bot    *bot.Bot
	chatID int64
	logger *zap.Logger
}

func NewTelegramReporter(token string, chatID int64, logger *zap.Logger, opts ...bot.Option) (*TelegramReporter, error) {
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramReporter{bot: b, chatID: chatID, logger: logger}, nil
}

// ObserveTick отправляет сводку, только если в тике были проблемы
func (r *TelegramReporter) ObserveTick(ctx context.Context, report *service.TickReport) {
	if report == nil || !report.HasProblems() {
		return
	}

	_, err := r.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    r.chatID,
		Text:      FormatTickSummary(report),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		r.logger.Error("Failed to send tick summary to telegram",
			zap.Int64("chat_id", r.chatID),
			zap.Error(err))
	}
}

// FormatTickSummary HTML-сводка тика для Telegram
func FormatTickSummary(report *service.TickReport) string {
	var sb strings.Builder

	sb.WriteString("⚠️ <b>QR scheduler</b> ")
	sb.WriteString(report.StartedAt.Format("Mon 15:04"))
	sb.WriteString("\n")

	if report.Err != nil {
		sb.WriteString("Tick skipped: ")
		sb.WriteString(html.EscapeString(report.Err.Error()))
		return sb.String()
	}

	fmt.Fprintf(&sb, "Matched: %d · sent: %d · suppressed: %d\n",
		report.Matched,
		report.Count(model.OutcomeSent),
		report.Count(model.OutcomeSuppressed))

	lines := 0
	for _, res := range report.Results {
		var label string
		switch res.Outcome {
		case model.OutcomeIssuanceFailed:
			label = "❌ not issued"
		case model.OutcomeDeliveryFailed:
			label = "📭 not delivered"
		case model.OutcomeUnresolvedReference:
			label = "❓ unresolved"
		default:
			continue
		}

		if lines == maxReportLines {
			sb.WriteString("…\n")
			break
		}
		lines++

		fmt.Fprintf(&sb, "%s <b>%s</b> (%s)", label, html.EscapeString(res.Subject), html.EscapeString(res.ScheduleID))
		if res.Err != nil {
			fmt.Fprintf(&sb, ": <i>%s</i>", html.EscapeString(res.Err.Error()))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
