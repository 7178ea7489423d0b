package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"saave-bot/internal/chat"
	"saave-bot/internal/config"
	"saave-bot/internal/quote"
)

// Deps are the services a Bot drives conversations with.
type Deps struct {
	Engine    *quote.Engine
	Documents DocumentService
	Dialogs   DialogStore
	Records   chat.Store
	Ledger    Ledger
}

type Bot struct {
	bot     *tgbotapi.BotAPI
	logger  *zap.Logger
	cfg     *config.Config
	engine  *quote.Engine
	dialogs DialogStore
	ledger  Ledger
	docs    chat.DocumentGenerator
	store   chat.Store

	mu      sync.Mutex
	runners map[int64]*chat.Runner
}

func New(token string, deps Deps, logger *zap.Logger, cfg *config.Config) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Info("Bot authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))

	return NewWithAPI(botAPI, deps, logger, cfg), nil
}

// NewWithAPI builds a Bot around an already authorized API client.
func NewWithAPI(botAPI *tgbotapi.BotAPI, deps Deps, logger *zap.Logger, cfg *config.Config) *Bot {
	b := &Bot{
		bot:     botAPI,
		logger:  logger,
		cfg:     cfg,
		engine:  deps.Engine,
		dialogs: deps.Dialogs,
		ledger:  deps.Ledger,
		runners: make(map[int64]*chat.Runner),
	}

	var limiter RateLimiter
	if deps.Ledger != nil {
		limiter = deps.Ledger
	}
	b.docs = &documentGenerator{
		service: deps.Documents,
		limiter: limiter,
		catalog: deps.Engine.Catalog(),
		limit:   cfg.Download.RateLimit,
		window:  cfg.Download.RateWindow,
		logger:  logger,
	}
	b.store = &quotationStore{
		records: deps.Records,
		ledger:  deps.Ledger,
		notify:  b.NotifyNewQuotation,
		logger:  logger,
	}
	return b
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			b.bot.StopReceivingUpdates()
			b.Wait()
			return nil

		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

// Wait blocks until the background work of every conversation is done.
func (b *Bot) Wait() {
	b.mu.Lock()
	runners := make([]*chat.Runner, 0, len(b.runners))
	for _, r := range b.runners {
		runners = append(runners, r)
	}
	b.mu.Unlock()

	for _, r := range runners {
		r.Wait()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.processMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.processCallback(ctx, update.CallbackQuery)
	}
}

// runner returns the conversation of a chat, restoring it from the dialog
// store on first contact.
func (b *Bot) runner(ctx context.Context, chatID int64) *chat.Runner {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r, ok := b.runners[chatID]; ok {
		return r
	}

	var session *chat.Session
	state, err := b.dialogs.LoadDialog(ctx, chatID)
	if err != nil {
		b.logger.Warn("Failed to restore dialog, starting fresh",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
	if state != nil {
		session = chat.RestoreSession(*state, b.engine)
	} else {
		session = chat.NewSession(b.engine)
	}

	r := chat.NewRunner(chatID, session, b.docs, b.store, b.logger,
		chat.OnUpdate(b.flushChat),
		chat.OnDocument(b.sendDocument),
	)
	b.runners[chatID] = r
	return r
}

// flushChat delivers messages appended by background effects.
func (b *Bot) flushChat(chatID int64) {
	b.mu.Lock()
	r, ok := b.runners[chatID]
	b.mu.Unlock()
	if !ok {
		return
	}
	b.flush(context.Background(), r)
}

// flush sends the bot messages the user has not seen yet and saves the dialog.
func (b *Bot) flush(ctx context.Context, r *chat.Runner) {
	session := r.Session()
	pending := session.Drain()
	prompt := session.Prompt()
	step := session.Step()

	for _, m := range pending {
		if m.Sender != chat.SenderBot {
			continue
		}
		msg := renderMessage(r.ChatID(), m)
		if m.Text == prompt.Text && !m.HasOptions() {
			decoratePrompt(&msg, step)
		}
		b.sendMessage(msg)
	}

	b.saveDialog(ctx, r)
}

// resendPrompt repeats the pending question.
func (b *Bot) resendPrompt(ctx context.Context, r *chat.Runner) {
	session := r.Session()
	prompt := session.Prompt()
	if prompt.Text == "" {
		return
	}
	msg := renderMessage(r.ChatID(), prompt)
	if !prompt.HasOptions() {
		decoratePrompt(&msg, session.Step())
	}
	b.sendMessage(msg)
}

func (b *Bot) saveDialog(ctx context.Context, r *chat.Runner) {
	if err := b.dialogs.SaveDialog(ctx, r.ChatID(), r.Session().Snapshot()); err != nil {
		b.logger.Error("Failed to save dialog",
			zap.Int64("chat_id", r.ChatID()),
			zap.Error(err))
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := b.bot.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.String("text", msg.Text),
			zap.Error(err))
	}
}

func (b *Bot) sendError(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "❌ "+text)
	b.sendMessage(msg)
}

func (b *Bot) sendDocument(chatID int64, doc *chat.Document) error {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  doc.Filename,
		Bytes: doc.Content,
	})
	msg.Caption = documentCaption

	if _, err := b.bot.Send(msg); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}
