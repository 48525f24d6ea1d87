package bot

import (
	"briefly/internal/domain"
	"briefly/internal/summarizer"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const updateProcessingTimeout = 90 * time.Second

// Journal records handled requests and exposes them for /stats.
type Journal interface {
	RecordRequest(ctx context.Context, r domain.SummaryRequest) error
	CountRequests(ctx context.Context) (int64, error)
	GetRecentRequests(ctx context.Context, limit int) ([]domain.SummaryRequest, error)
}

type sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tgbot.SendChatActionParams) (bool, error)
}

type Bot struct {
	api          *tgbot.Bot
	sender       sender
	summarizer   summarizer.Summarizer
	journal      Journal
	allowedUsers []int64
	log          *slog.Logger
}

// New connects to the Bot API. A nil summarizer makes every summary request
// fail with the missing key message; a nil journal disables /stats.
func New(
	token string,
	s summarizer.Summarizer,
	journal Journal,
	allowedUsers []int64,
	log *slog.Logger,
) (*Bot, error) {
	b := &Bot{
		summarizer:   s,
		journal:      journal,
		allowedUsers: allowedUsers,
		log:          log,
	}

	api, err := tgbot.New(strings.TrimSpace(token), tgbot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	b.api = api
	b.sender = api

	return b, nil
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.api.Start(ctx)
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}

	message := update.Message

	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	if !b.userAllowed(message.From.ID) {
		b.log.DebugContext(updateCtx, "User is not allowed",
			"userID", message.From.ID,
			"chatID", message.Chat.ID,
			"username", message.From.Username,
			"chatType", message.Chat.Type)

		return
	}

	if err := b.handleMessage(updateCtx, message); err != nil {
		b.log.ErrorContext(updateCtx, "Failed to handle message",
			"error", err,
			"chatID", message.Chat.ID,
			"userID", message.From.ID,
			"chatType", message.Chat.Type,
			"messageID", message.ID)
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}
