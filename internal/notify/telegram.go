package notify

import (
	"context"
	"fmt"
	"strings"

	"lead-intake/internal/models"
	"lead-intake/internal/util"
)

// MessageSender is the part of the Telegram client the notifier needs
type MessageSender interface {
	Configured() bool
	SendMessage(ctx context.Context, text, parseMode string) error
}

// TelegramNotifier forwards each lead as one chat message
type TelegramNotifier struct {
	sender MessageSender
}

func NewTelegramNotifier(sender MessageSender) *TelegramNotifier {
	return &TelegramNotifier{sender: sender}
}

func (n *TelegramNotifier) Name() string {
	return "telegram"
}

func (n *TelegramNotifier) Configured() bool {
	return n.sender != nil && n.sender.Configured()
}

func (n *TelegramNotifier) Send(ctx context.Context, lead *models.Lead) error {
	if err := n.sender.SendMessage(ctx, FormatLeadMessage(lead), "HTML"); err != nil {
		return fmt.Errorf("telegram delivery: %w", err)
	}
	return nil
}

// FormatLeadMessage renders the chat text. User-supplied fields are
// HTML-escaped because the message is sent with parse_mode=HTML.
func FormatLeadMessage(lead *models.Lead) string {
	var b strings.Builder
	b.WriteString("🆕 Yangi lead\n\n")
	b.WriteString("👤 Ism: ")
	b.WriteString(util.SanitizeInput(lead.Name))
	b.WriteString("\n📞 Telefon: ")
	b.WriteString(util.SanitizeInput(lead.Phone))
	b.WriteString("\n📝 Izoh: ")
	b.WriteString(util.SanitizeInput(lead.Message))
	return b.String()
}
