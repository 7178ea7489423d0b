package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"saave-bot/internal/chat"
	"saave-bot/internal/config"
	"saave-bot/internal/quote"
	"saave-bot/internal/storage"
	"saave-bot/pkg/api"
)

const (
	testChatID    int64 = 5
	testAdminID   int64 = 900
	testChannelID int64 = -100
)

type sentRequest struct {
	Method   string
	Values   url.Values
	Filename string
}

// fakeTelegram answers Bot API calls and records them.
type fakeTelegram struct {
	mu       sync.Mutex
	requests []sentRequest
	srv      *httptest.Server
}

func newFakeTelegram(t *testing.T) *fakeTelegram {
	t.Helper()
	f := &fakeTelegram{}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeTelegram) handle(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	_ = r.ParseMultipartForm(32 << 20)

	req := sentRequest{Method: method, Values: r.Form}
	if r.MultipartForm != nil {
		for _, files := range r.MultipartForm.File {
			if len(files) > 0 {
				req.Filename = files[0].Filename
			}
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if method == "getMe" {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"SAAVE","username":"saave_bot"}}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`))
}

func (f *fakeTelegram) Requests(method string) []sentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentRequest
	for _, r := range f.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeTelegram) Texts(chatID int64) []string {
	var out []string
	for _, r := range f.Requests("sendMessage") {
		if r.Values.Get("chat_id") == formatID(chatID) {
			out = append(out, r.Values.Get("text"))
		}
	}
	return out
}

func (f *fakeTelegram) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
}

func formatID(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}

type memoryDialogs struct {
	mu     sync.Mutex
	states map[int64]chat.State
}

func newMemoryDialogs() *memoryDialogs {
	return &memoryDialogs{states: make(map[int64]chat.State)}
}

func (m *memoryDialogs) SaveDialog(ctx context.Context, chatID int64, state chat.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[chatID] = state
	return nil
}

func (m *memoryDialogs) LoadDialog(ctx context.Context, chatID int64) (*chat.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[chatID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (m *memoryDialogs) State(chatID int64) chat.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[chatID]
}

type memoryRecords struct {
	mu      sync.Mutex
	records map[int64]quote.Record
	err     error
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{records: make(map[int64]quote.Record)}
}

func (m *memoryRecords) SaveRecord(ctx context.Context, chatID int64, record quote.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records[chatID] = record
	return nil
}

func (m *memoryRecords) ClearRecord(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, chatID)
	return nil
}

type fakeLedger struct {
	mu       sync.Mutex
	saved    []quote.Quotation
	statuses map[string]string
	limited  bool
	checks   int
	err      error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{statuses: map[string]string{"q-1": storage.StatusNew}}
}

func (f *fakeLedger) SaveQuotation(ctx context.Context, chatID int64, q quote.Quotation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, q)
	return nil
}

func (f *fakeLedger) UpdateQuotationStatus(ctx context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.statuses[id]; !ok {
		return storage.ErrQuotationNotFound
	}
	f.statuses[id] = status
	return nil
}

func (f *fakeLedger) GetQuotationStatistics(ctx context.Context) (*storage.QuotationStatistics, error) {
	return &storage.QuotationStatistics{
		TotalCount:   3,
		TotalAmount:  45906591,
		TodayCount:   1,
		TodayAmount:  15302197,
		AverageArea:  71.5,
		StatusCounts: map[string]int{storage.StatusNew: 2, storage.StatusWon: 1},
	}, nil
}

func (f *fakeLedger) ExportQuotationsToExcel(ctx context.Context) ([]byte, error) {
	return []byte("xlsx"), nil
}

func (f *fakeLedger) ExportQuotationToExcel(ctx context.Context, id string) ([]byte, error) {
	if _, ok := f.statuses[id]; !ok {
		return nil, storage.ErrQuotationNotFound
	}
	return []byte("xlsx"), nil
}

func (f *fakeLedger) CheckRateLimit(ctx context.Context, userID int64, action string, limit int64, window time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return f.limited, nil
}

func (f *fakeLedger) Saved() []quote.Quotation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]quote.Quotation(nil), f.saved...)
}

type fakeDocService struct {
	mu   sync.Mutex
	last *api.DocumentRequest
	err  error
}

func (f *fakeDocService) GenerateDocument(ctx context.Context, req api.DocumentRequest) (*api.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = &req
	if f.err != nil {
		return nil, f.err
	}
	return &api.Document{
		Filename:    api.DefaultFilename(req.Name),
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.7"),
	}, nil
}

type testEnv struct {
	bot      *Bot
	telegram *fakeTelegram
	dialogs  *memoryDialogs
	records  *memoryRecords
	ledger   *fakeLedger
	docs     *fakeDocService
}

func newTestEngine(t *testing.T) *quote.Engine {
	t.Helper()
	issued := time.Date(2025, 3, 5, 10, 30, 0, 0, time.UTC)
	engine, err := quote.NewEngine(quote.DefaultCatalog(), quote.DefaultRates(),
		quote.WithClock(func() time.Time { return issued }))
	require.NoError(t, err)
	return engine
}

func newTestEnv(t *testing.T, dialogs *memoryDialogs) *testEnv {
	t.Helper()

	telegram := newFakeTelegram(t)
	botAPI, err := tgbotapi.NewBotAPIWithAPIEndpoint("test-token", telegram.srv.URL+"/bot%s/%s")
	require.NoError(t, err)
	telegram.Reset()

	if dialogs == nil {
		dialogs = newMemoryDialogs()
	}
	env := &testEnv{
		telegram: telegram,
		dialogs:  dialogs,
		records:  newMemoryRecords(),
		ledger:   newFakeLedger(),
		docs:     &fakeDocService{},
	}

	cfg := &config.Config{
		Admin:    config.Admin{IDs: []int64{testAdminID}, ChannelID: testChannelID},
		Download: config.Download{RateLimit: 5, RateWindow: time.Hour},
	}
	env.bot = NewWithAPI(botAPI, Deps{
		Engine:    newTestEngine(t),
		Documents: env.docs,
		Dialogs:   env.dialogs,
		Records:   env.records,
		Ledger:    env.ledger,
	}, zaptest.NewLogger(t), cfg)

	return env
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-" + data,
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 2,
			Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		},
	}}
}

func TestConversationOverTelegram(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	b := env.bot

	b.handleUpdate(ctx, textUpdate(testChatID, "/start"))

	sent := env.telegram.Requests("sendMessage")
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].Values.Get("reply_markup"), `"callback_data":"si"`)
	assert.Equal(t, chat.StepQuestions, env.dialogs.State(testChatID).Step)

	for _, value := range []string{"si", "queen", "0", quote.ValueNone, "media"} {
		b.handleUpdate(ctx, callbackUpdate(testChatID, value))
	}
	assert.Len(t, env.telegram.Requests("answerCallbackQuery"), 5)
	assert.Len(t, env.telegram.Requests("editMessageReplyMarkup"), 5)
	assert.Equal(t, chat.StepUserName, env.dialogs.State(testChatID).Step)

	b.handleUpdate(ctx, textUpdate(testChatID, "Ana Gomez"))
	sent = env.telegram.Requests("sendMessage")
	assert.Contains(t, sent[len(sent)-1].Values.Get("reply_markup"), "request_contact")

	b.handleUpdate(ctx, textUpdate(testChatID, "300 123 4567"))
	b.handleUpdate(ctx, textUpdate(testChatID, "ana@example.com"))
	b.Wait()

	saved := env.ledger.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, 71.5, saved[0].Area.Total)
	assert.Equal(t, "+573001234567", saved[0].Client.Phone)
	assert.Contains(t, env.records.records, testChatID)
	require.NotEmpty(t, env.telegram.Texts(testChannelID))
	assert.Contains(t, env.telegram.Texts(testChannelID)[0], "Nueva cotización")

	texts := env.telegram.Texts(testChatID)
	assert.Contains(t, strings.Join(texts, "\n"), "15.302.197")
	assert.Equal(t, chat.StepFinal, env.dialogs.State(testChatID).Step)

	b.handleUpdate(ctx, callbackUpdate(testChatID, chat.ActionDownload))
	b.Wait()

	docs := env.telegram.Requests("sendDocument")
	require.Len(t, docs, 1)
	assert.Equal(t, "cotizacion_Ana_Gomez.pdf", docs[0].Filename)
	texts = env.telegram.Texts(testChatID)
	assert.Equal(t, chat.TextDocumentReady, texts[len(texts)-1])
	assert.Equal(t, 1, env.ledger.checks)
}

func TestTypedLetterSelectsOption(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.bot.handleUpdate(ctx, textUpdate(testChatID, "hola"))
	assert.Equal(t, chat.StepQuestions, env.dialogs.State(testChatID).Step)

	env.bot.handleUpdate(ctx, textUpdate(testChatID, "a"))
	state := env.dialogs.State(testChatID)
	assert.Equal(t, 1, state.Question)
	assert.Equal(t, quote.ValueYes, state.Responses.Lot)

	env.telegram.Reset()
	env.bot.handleUpdate(ctx, textUpdate(testChatID, "no entiendo"))
	texts := env.telegram.Texts(testChatID)
	require.Len(t, texts, 2)
	assert.Equal(t, textChooseOption, texts[0])
	assert.Equal(t, 1, env.dialogs.State(testChatID).Question)
}

func TestStaleCallbackRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.bot.handleUpdate(ctx, textUpdate(testChatID, "/start"))
	env.telegram.Reset()

	env.bot.handleUpdate(ctx, callbackUpdate(testChatID, "queen"))

	answers := env.telegram.Requests("answerCallbackQuery")
	require.Len(t, answers, 1)
	assert.Equal(t, textOptionUnavailable, answers[0].Values.Get("text"))
	assert.Empty(t, env.telegram.Requests("sendMessage"))
	assert.Empty(t, env.telegram.Requests("editMessageReplyMarkup"))
}

func TestDialogRestoredOnFirstContact(t *testing.T) {
	engine := newTestEngine(t)
	session := chat.NewSession(engine)
	session.Start()
	require.True(t, session.Select(quote.ValueYes).Accepted)
	session.Drain()

	dialogs := newMemoryDialogs()
	require.NoError(t, dialogs.SaveDialog(context.Background(), testChatID, session.Snapshot()))

	env := newTestEnv(t, dialogs)
	env.bot.handleUpdate(context.Background(), textUpdate(testChatID, "/start"))

	texts := env.telegram.Texts(testChatID)
	require.Len(t, texts, 1)
	assert.Equal(t, engine.Catalog().MainQuestions()[1].Text(), texts[0])
}

func TestCancelRestartsConversation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.bot.handleUpdate(ctx, textUpdate(testChatID, "/start"))
	env.bot.handleUpdate(ctx, callbackUpdate(testChatID, quote.ValueYes))
	env.telegram.Reset()

	env.bot.handleUpdate(ctx, textUpdate(testChatID, "/cancel"))
	env.bot.Wait()

	state := env.dialogs.State(testChatID)
	assert.Equal(t, chat.StepQuestions, state.Step)
	assert.Equal(t, 0, state.Question)
	assert.Empty(t, state.Responses.Lot)
	assert.Len(t, env.telegram.Texts(testChatID), 2)
}

func TestAdminCommands(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.bot.handleUpdate(ctx, textUpdate(testChatID, "/stats"))
	assert.Equal(t, []string{"❌ " + textUnknownCommand}, env.telegram.Texts(testChatID))

	env.bot.handleUpdate(ctx, textUpdate(testAdminID, "/stats"))
	texts := env.telegram.Texts(testAdminID)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "📌 Total: 3 ($45.906.591)")
	assert.Contains(t, texts[0], "🆕 Nuevas: 2")

	env.bot.handleUpdate(ctx, textUpdate(testAdminID, "/status q-1 won"))
	assert.Equal(t, storage.StatusWon, env.ledger.statuses["q-1"])
	texts = env.telegram.Texts(testAdminID)
	assert.Contains(t, texts[len(texts)-1], "Ganada")

	env.bot.handleUpdate(ctx, textUpdate(testAdminID, "/status q-1 archived"))
	texts = env.telegram.Texts(testAdminID)
	assert.Contains(t, texts[len(texts)-1], "Estado no válido")

	env.bot.handleUpdate(ctx, textUpdate(testAdminID, "/status missing won"))
	texts = env.telegram.Texts(testAdminID)
	assert.Contains(t, texts[len(texts)-1], "no encontrada")

	env.bot.handleUpdate(ctx, textUpdate(testAdminID, "/export"))
	env.bot.handleUpdate(ctx, textUpdate(testAdminID, "/export q-1"))
	docs := env.telegram.Requests("sendDocument")
	require.Len(t, docs, 2)
	assert.True(t, strings.HasPrefix(docs[0].Filename, "cotizaciones_"))
	assert.Equal(t, "cotizacion_q-1.xlsx", docs[1].Filename)
}

func TestNewDocumentRequest(t *testing.T) {
	engine := newTestEngine(t)
	q := engine.ComputeQuotation(
		quote.ClientInfo{Name: "Ana", Phone: "+573001234567", Email: "ana@example.com"},
		quote.ResponseSet{Lot: quote.ValueYes, PrincipalRoom: "queen", ExtraSpaces: []string{quote.ValueNone}, MaterialGrade: "media"},
		0,
	)

	req := NewDocumentRequest(engine.Catalog(), q)

	assert.Equal(t, "pdf", req.Format)
	assert.Equal(t, "Ana", req.Name)
	assert.Equal(t, "4.657.582", req.Architectural)
	assert.Equal(t, "15.302.197", req.Total)
	assert.Equal(t, q.TotalInWords, req.TotalInWords)
	assert.Equal(t, "media", req.MaterialGrade)
	assert.Equal(t, "Neiva, 05 de marzo de 2025", req.Date)
	assert.Equal(t, "143.000.000", req.ConstructionCost)
	assert.Equal(t, "71,5 m²", req.AreaFormatted)
	assert.Equal(t, 71.5, req.AreaTotal)
	assert.Equal(t, "Ninguna", req.AdditionalRoomsSummary)
}

func TestDocumentGenerator(t *testing.T) {
	engine := newTestEngine(t)
	q := engine.ComputeQuotation(quote.ClientInfo{Name: "Ana"}, quote.ResponseSet{}, 0)

	tests := []struct {
		name    string
		limited bool
		err     error
		wantErr string
	}{
		{name: "success"},
		{name: "rate limited", limited: true, wantErr: textDocumentLimited},
		{name: "service reason", err: &api.Error{StatusCode: 400, Reason: "Falta el nombre"}, wantErr: "Falta el nombre"},
		{name: "unreachable", err: errors.New("dial tcp: connection refused"), wantErr: textServiceDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newFakeLedger()
			ledger.limited = tt.limited
			service := &fakeDocService{err: tt.err}
			g := &documentGenerator{
				service: service,
				limiter: ledger,
				catalog: engine.Catalog(),
				limit:   5,
				window:  time.Hour,
				logger:  zaptest.NewLogger(t),
			}

			doc, err := g.GenerateDocument(context.Background(), testChatID, q)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "cotizacion_Ana.pdf", doc.Filename)
			assert.Equal(t, []byte("%PDF-1.7"), doc.Content)
		})
	}
}

func TestQuotationStore(t *testing.T) {
	engine := newTestEngine(t)
	q := engine.ComputeQuotation(quote.ClientInfo{Name: "Ana"}, quote.ResponseSet{}, 0)
	record := quote.NewRecord(q, time.Now())

	t.Run("ledger failure does not fail the save", func(t *testing.T) {
		records := newMemoryRecords()
		ledger := newFakeLedger()
		ledger.err = errors.New("postgres down")
		var notified int
		s := &quotationStore{
			records: records,
			ledger:  ledger,
			notify:  func(ctx context.Context, chatID int64, q quote.Quotation) { notified++ },
			logger:  zaptest.NewLogger(t),
		}

		require.NoError(t, s.SaveRecord(context.Background(), testChatID, record))
		assert.Contains(t, records.records, testChatID)
		assert.Equal(t, 1, notified)
	})

	t.Run("record failure is reported", func(t *testing.T) {
		records := newMemoryRecords()
		records.err = errors.New("redis down")
		ledger := newFakeLedger()
		s := &quotationStore{records: records, ledger: ledger, logger: zaptest.NewLogger(t)}

		err := s.SaveRecord(context.Background(), testChatID, record)
		require.Error(t, err)
		assert.Equal(t, textStorageDown, err.Error())
		assert.Empty(t, ledger.Saved())
	})
}

func TestMatchOption(t *testing.T) {
	options := quote.DefaultCatalog().Lot.Options

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"A", quote.ValueYes, true},
		{"b)", "no_proceso", true},
		{" si ", quote.ValueYes, true},
		{"Sí", quote.ValueYes, true},
		{"A) Sí", quote.ValueYes, true},
		{"C", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			opt, ok := matchOption(options, tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, opt.Value)
		})
	}
}

func TestRenderMessage(t *testing.T) {
	options := quote.DefaultCatalog().Lot.Options
	msg := renderMessage(testChatID, chat.Message{Sender: chat.SenderBot, Text: "¿Tienes lote?", Options: options})

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, len(options))
	assert.Equal(t, "A) Sí", markup.InlineKeyboard[0][0].Text)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, quote.ValueYes, *markup.InlineKeyboard[0][0].CallbackData)

	plain := renderMessage(testChatID, chat.Message{Sender: chat.SenderBot, Text: "¿Tu teléfono?"})
	assert.Nil(t, plain.ReplyMarkup)
	decoratePrompt(&plain, chat.StepUserPhone)
	_, ok = plain.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	assert.True(t, ok)
}

func TestFormatQuotationNotification(t *testing.T) {
	engine := newTestEngine(t)
	q := engine.ComputeQuotation(
		quote.ClientInfo{Name: "Ana", Phone: "+573001234567", Email: "ana@example.com"},
		quote.ResponseSet{Lot: quote.ValueYes, PrincipalRoom: "queen", MaterialGrade: "media"},
		0,
	)

	text := FormatQuotationNotification(testChatID, q)
	assert.Contains(t, text, "Cliente: Ana")
	assert.Contains(t, text, "Área: 71,5 m²")
	assert.Contains(t, text, "Total diseño: $15.302.197")
	assert.Contains(t, text, "Chat: 5")
}
