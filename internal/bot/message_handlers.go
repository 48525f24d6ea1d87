package bot

import (
	"briefly/internal/article"
	"briefly/internal/domain"
	"briefly/internal/summarizer"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	maxMessageRunes   = 4096
	recentRequestsMax = 5

	usageText = `Send me an article and I will summarize it.

/brief <text> - 2-3 sentence summary
/detailed <text> - summary covering all main points
/bullets <text> - 5-7 key points

Plain text without a command gets a brief summary.`

	invalidRequestText  = "Missing API key or text"
	providerErrorText   = "Failed to fetch from Gemini API"
	noSummaryText       = "No summary was produced."
	journalDisabledText = "Request journal is disabled."
)

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	command, args := parseCommand(message.Text)

	// Chat messages are often pasted from web pages.
	args = article.PlainText(args)

	switch command {
	case "/start", "/help":
		return b.reply(ctx, message, usageText)
	case "/stats":
		return b.handleStatsCommand(ctx, message)
	case "", "/brief":
		return b.handleSummarize(ctx, message, summarizer.StyleBrief, args)
	case "/detailed":
		return b.handleSummarize(ctx, message, summarizer.StyleDetailed, args)
	case "/bullets":
		return b.handleSummarize(ctx, message, summarizer.StyleBullets, args)
	default:
		return b.reply(ctx, message, usageText)
	}
}

func (b *Bot) handleSummarize(
	ctx context.Context,
	message *models.Message,
	style summarizer.Style,
	text string,
) error {
	start := time.Now()
	record := domain.SummaryRequest{
		CreatedAt: start,
		Source:    domain.SourceTelegram,
		Style:     string(style),
		TextChars: utf8.RuneCountInString(text),
	}

	if b.summarizer == nil || text == "" {
		record.Status = http.StatusBadRequest
		b.record(ctx, record, start)

		return b.reply(ctx, message, invalidRequestText)
	}

	var errs []error

	if _, err := b.sender.SendChatAction(ctx, &tgbot.SendChatActionParams{
		ChatID: message.Chat.ID,
		Action: models.ChatActionTyping,
	}); err != nil {
		errs = append(errs, fmt.Errorf("send chat action: %w", err))
	}

	summary, err := b.summarizer.Summarize(ctx, summarizer.Input{Text: text, Style: style})

	var replyText string
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("summarize: %w", err))
		record.Status = http.StatusInternalServerError
		replyText = providerErrorText
	case summary == nil || strings.TrimSpace(*summary) == "":
		record.Status = http.StatusOK
		replyText = noSummaryText
	default:
		record.Status = http.StatusOK
		record.SummaryChars = utf8.RuneCountInString(*summary)
		replyText = *summary
	}

	b.record(ctx, record, start)

	if replyErr := b.reply(ctx, message, replyText); replyErr != nil {
		errs = append(errs, fmt.Errorf("reply: %w", replyErr))
	}

	return errors.Join(errs...)
}

func (b *Bot) handleStatsCommand(ctx context.Context, message *models.Message) error {
	if b.journal == nil {
		return b.reply(ctx, message, journalDisabledText)
	}

	count, err := b.journal.CountRequests(ctx)
	if err != nil {
		return fmt.Errorf("count requests: %w", err)
	}

	recent, err := b.journal.GetRecentRequests(ctx, recentRequestsMax)
	if err != nil {
		return fmt.Errorf("get recent requests: %w", err)
	}

	return b.reply(ctx, message, formatStats(count, recent))
}

func (b *Bot) record(ctx context.Context, r domain.SummaryRequest, start time.Time) {
	if b.journal == nil {
		return
	}

	r.Duration = time.Since(start)

	if err := b.journal.RecordRequest(context.WithoutCancel(ctx), r); err != nil {
		b.log.ErrorContext(ctx, "Failed to record request",
			"error", err,
			"source", r.Source,
			"status", r.Status)
	}
}

func (b *Bot) reply(ctx context.Context, message *models.Message, text string) error {
	_, err := b.sender.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    message.Chat.ID,
		Text:      formatReply(text, maxMessageRunes),
		ParseMode: models.ParseModeMarkdown,
		ReplyParameters: &models.ReplyParameters{
			MessageID: message.ID,
		},
	})

	return err
}

// parseCommand splits "/cmd@bot_name args" into a lowercase command and its
// trimmed arguments. Text without a leading slash has an empty command.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}

	command, args := text, ""
	if end := strings.IndexFunc(text, unicode.IsSpace); end >= 0 {
		command, args = text[:end], text[end:]
	}

	command, _, _ = strings.Cut(command, "@")

	return strings.ToLower(command), strings.TrimSpace(args)
}

func formatStats(count int64, recent []domain.SummaryRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Requests in journal: %d", count)

	if len(recent) == 0 {
		return b.String()
	}

	b.WriteString("\n\nLatest:")
	for _, r := range recent {
		fmt.Fprintf(
			&b,
			"\n%s · %s · %s · %d · %s",
			r.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"),
			r.Source,
			r.Style,
			r.Status,
			r.Duration.Round(time.Millisecond),
		)
	}

	return b.String()
}
