package telegram

import (
	"context"
	"fmt"
	"strings"

	"archifigureapi/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func EscapeMessage(message string) string {
	r := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return r.Replace(message)
}

// Notifier posts auto-save events into an admin chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewNotifier(token string, chatID int64) (*Notifier, error) {
	return NewNotifierWithEndpoint(token, tgbotapi.APIEndpoint, chatID)
}

func NewNotifierWithEndpoint(token, endpoint string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID}, nil
}

func FormatModelSaved(project *models.Project, model *models.ProjectModel) string {
	name := ""
	if model.Name != nil {
		name = *model.Name
	}
	return fmt.Sprintf("*New model saved*\nProject: %s\nName: %s\nResolution: %d\n%s",
		EscapeMessage(project.Name),
		EscapeMessage(name),
		model.Resolution,
		EscapeMessage(model.ModelURL),
	)
}

func (n *Notifier) NotifyModelSaved(ctx context.Context, project *models.Project, model *models.ProjectModel) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatModelSaved(project, model))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	_, err := n.bot.Send(msg)
	return err
}
