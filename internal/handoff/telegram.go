package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"realia_backend/platform/config"
	"realia_backend/platform/logger"
)

// ThreadChannel opens, posts to and archives external discussion threads.
type ThreadChannel interface {
	OpenThread(ctx context.Context, title, alert string) (int64, error)
	Post(ctx context.Context, threadID int64, text string) error
	CloseThread(ctx context.Context, threadID int64) error
}

// TelegramChannel implements ThreadChannel on forum topics of a supergroup.
// One topic per handoff.
type TelegramChannel struct {
	bot    *tgbotapi.BotAPI
	chatID string
	log    *logger.Logger
}

// NewTelegramChannel connects the bot. Returns nil (disabled) when no token
// is configured; the manager treats a nil channel as thread-open failure,
// leaving handoffs pending.
func NewTelegramChannel(cfg config.TelegramConfig, log *logger.Logger) (*TelegramChannel, error) {
	if cfg.GetTelegramBotToken() == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.GetTelegramBotToken())
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramChannel{bot: bot, chatID: cfg.GetTelegramChatID(), log: log}, nil
}

// OpenThread creates a forum topic and posts the alert message into it.
// The forum endpoints postdate the library's typed API, so they go through
// MakeRequest directly.
func (c *TelegramChannel) OpenThread(ctx context.Context, title, alert string) (int64, error) {
	params := tgbotapi.Params{}
	params.AddNonEmpty("chat_id", c.chatID)
	params.AddNonEmpty("name", title)

	resp, err := c.bot.MakeRequest("createForumTopic", params)
	if err != nil {
		return 0, fmt.Errorf("create forum topic: %w", err)
	}

	var topic struct {
		MessageThreadID int64 `json:"message_thread_id"`
	}
	if err := json.Unmarshal(resp.Result, &topic); err != nil {
		return 0, fmt.Errorf("decode forum topic: %w", err)
	}

	if err := c.Post(ctx, topic.MessageThreadID, alert); err != nil {
		return 0, err
	}
	return topic.MessageThreadID, nil
}

// Post sends a message into a topic.
func (c *TelegramChannel) Post(_ context.Context, threadID int64, text string) error {
	params := tgbotapi.Params{}
	params.AddNonEmpty("chat_id", c.chatID)
	params.AddNonEmpty("message_thread_id", strconv.FormatInt(threadID, 10))
	params.AddNonEmpty("text", text)

	if _, err := c.bot.MakeRequest("sendMessage", params); err != nil {
		return fmt.Errorf("send to topic: %w", err)
	}
	return nil
}

// CloseThread archives a topic. Failure is logged, not fatal: the handoff
// itself is already completed.
func (c *TelegramChannel) CloseThread(_ context.Context, threadID int64) error {
	params := tgbotapi.Params{}
	params.AddNonEmpty("chat_id", c.chatID)
	params.AddNonEmpty("message_thread_id", strconv.FormatInt(threadID, 10))

	if _, err := c.bot.MakeRequest("closeForumTopic", params); err != nil {
		return fmt.Errorf("close forum topic: %w", err)
	}
	return nil
}
