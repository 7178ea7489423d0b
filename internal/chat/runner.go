package chat

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"saave-bot/internal/quote"
)

type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

type DocumentGenerator interface {
	GenerateDocument(ctx context.Context, chatID int64, q quote.Quotation) (*Document, error)
}

type Store interface {
	SaveRecord(ctx context.Context, chatID int64, record quote.Record) error
	ClearRecord(ctx context.Context, chatID int64) error
}

// Runner drives a Session for one chat and executes the effects its
// transitions request. Effects run in the background and never block input.
type Runner struct {
	chatID  int64
	session *Session
	docs    DocumentGenerator
	store   Store
	logger  *zap.Logger
	now     func() time.Time

	onUpdate   func(chatID int64)
	onDocument func(chatID int64, doc *Document) error

	downloading atomic.Bool
	wg          sync.WaitGroup

	// storeMu orders record writes against clears.
	storeMu sync.Mutex
}

type RunnerOption func(*Runner)

// OnUpdate is called after a background effect appended to the transcript.
func OnUpdate(fn func(chatID int64)) RunnerOption {
	return func(r *Runner) { r.onUpdate = fn }
}

// OnDocument delivers every generated document. A delivery error is reported
// to the user like a generation failure.
func OnDocument(fn func(chatID int64, doc *Document) error) RunnerOption {
	return func(r *Runner) { r.onDocument = fn }
}

func NewRunner(chatID int64, session *Session, docs DocumentGenerator, store Store, logger *zap.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		chatID:  chatID,
		session: session,
		docs:    docs,
		store:   store,
		logger:  logger.With(zap.Int64("chat_id", chatID)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Session() *Session { return r.session }

func (r *Runner) ChatID() int64 { return r.chatID }

func (r *Runner) Start(ctx context.Context) Result {
	return r.handle(ctx, r.session.Start())
}

func (r *Runner) Select(ctx context.Context, value string) Result {
	return r.handle(ctx, r.session.Select(value))
}

func (r *Runner) Submit(ctx context.Context, text string) Result {
	return r.handle(ctx, r.session.Submit(text))
}

func (r *Runner) Restart(ctx context.Context) Result {
	return r.handle(ctx, r.session.Restart())
}

// Wait blocks until every background effect has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Downloading reports whether a document request is in flight.
func (r *Runner) Downloading() bool {
	return r.downloading.Load()
}

func (r *Runner) handle(ctx context.Context, res Result) Result {
	// effects outlive the update that triggered them
	ctx = context.WithoutCancel(ctx)

	for _, effect := range res.Effects {
		switch effect.Kind {
		case EffectPersist:
			r.persist(ctx, effect.Generation, *effect.Quotation)
		case EffectClear:
			r.clear(ctx)
		case EffectDownload:
			r.download(ctx, effect.Generation, *effect.Quotation)
		}
	}
	return res
}

// persist writes the record unless the conversation was restarted before
// the write could start. A write already running finishes before any clear.
func (r *Runner) persist(ctx context.Context, gen uint64, q quote.Quotation) {
	if r.store == nil {
		return
	}
	record := quote.NewRecord(q, r.now())

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.storeMu.Lock()
		defer r.storeMu.Unlock()

		if r.session.Generation() != gen {
			r.logger.Debug("Skipping persist of a restarted conversation",
				zap.String("quotation_id", q.ID))
			return
		}
		if err := r.store.SaveRecord(ctx, r.chatID, record); err != nil {
			r.logger.Error("Failed to persist quotation",
				zap.String("quotation_id", q.ID),
				zap.Error(err))
			r.notify(gen, fmt.Sprintf(TextPersistFailed, err.Error()))
		}
	}()
}

func (r *Runner) clear(ctx context.Context) {
	if r.store == nil {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.storeMu.Lock()
		defer r.storeMu.Unlock()

		if err := r.store.ClearRecord(ctx, r.chatID); err != nil {
			r.logger.Warn("Failed to clear persisted quotation", zap.Error(err))
		}
	}()
}

func (r *Runner) download(ctx context.Context, gen uint64, q quote.Quotation) {
	if !r.downloading.CompareAndSwap(false, true) {
		r.logger.Debug("Document already in progress", zap.String("quotation_id", q.ID))
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.downloading.Store(false)

		doc, err := r.docs.GenerateDocument(ctx, r.chatID, q)
		if err != nil {
			r.logger.Error("Failed to generate document",
				zap.String("quotation_id", q.ID),
				zap.Error(err))
			r.notify(gen, fmt.Sprintf(TextDocumentFailed, err.Error()))
			return
		}

		if r.onDocument != nil {
			if err := r.onDocument(r.chatID, doc); err != nil {
				r.logger.Error("Failed to deliver document",
					zap.String("quotation_id", q.ID),
					zap.Error(err))
				r.notify(gen, fmt.Sprintf(TextDocumentFailed, err.Error()))
				return
			}
		}
		r.logger.Info("Document generated",
			zap.String("quotation_id", q.ID),
			zap.String("filename", doc.Filename),
			zap.Int("size", len(doc.Content)))
		r.notify(gen, TextDocumentReady)
	}()
}

// notify reports the outcome of an effect to the conversation that requested
// it. Outcomes of a conversation that was restarted since are dropped.
func (r *Runner) notify(gen uint64, text string) {
	if !r.session.NotifyIfCurrent(gen, text) {
		r.logger.Debug("Dropping message for a restarted conversation", zap.String("text", text))
		return
	}
	r.updated()
}

func (r *Runner) updated() {
	if r.onUpdate != nil {
		r.onUpdate(r.chatID)
	}
}
