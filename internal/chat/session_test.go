package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saave-bot/internal/quote"
)

func newTestEngine(t *testing.T) *quote.Engine {
	t.Helper()
	engine, err := quote.NewEngine(quote.DefaultCatalog(), quote.DefaultRates())
	require.NoError(t, err)
	return engine
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(newTestEngine(t))
	require.True(t, s.Start().Accepted)
	return s
}

func mustSelect(t *testing.T, s *Session, values ...string) {
	t.Helper()
	for _, v := range values {
		res := s.Select(v)
		require.True(t, res.Accepted, "select %q in step %s", v, s.Step())
	}
}

func mustSubmit(t *testing.T, s *Session, texts ...string) Result {
	t.Helper()
	var res Result
	for _, text := range texts {
		res = s.Submit(text)
		require.True(t, res.Accepted, "submit %q in step %s", text, s.Step())
	}
	return res
}

func values(opts []quote.Option) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Value)
	}
	return out
}

func TestSessionStart(t *testing.T) {
	s := NewSession(newTestEngine(t))
	assert.Equal(t, StepGreeting, s.Step())
	assert.True(t, s.Select("si").Ignored)

	require.True(t, s.Start().Accepted)
	assert.Equal(t, StepQuestions, s.Step())
	assert.Equal(t, []string{"si", "no_proceso"}, values(s.Offered()))

	msgs := s.Drain()
	require.Len(t, msgs, 2)
	assert.Equal(t, SenderBot, msgs[0].Sender)
	assert.Contains(t, msgs[0].Text, "SAAVE Arquitectos")
	assert.Equal(t, "¿Tiene lote?", msgs[1].Text)
	assert.True(t, msgs[1].HasOptions())
	assert.Empty(t, s.Drain())

	assert.True(t, s.Start().Ignored)
}

func TestSessionFullFlow(t *testing.T) {
	s := newTestSession(t)

	mustSelect(t, s, "si", "queen", "0")
	assert.Equal(t, StepExtraSpaces, s.Step())

	mustSelect(t, s, quote.ValueNone)
	assert.Equal(t, StepMaterialGrade, s.Step())

	mustSelect(t, s, "media")
	assert.Equal(t, StepUserName, s.Step())
	assert.Empty(t, s.Offered())
	assert.Equal(t, "Por favor, dime tu nombre completo:", s.Prompt().Text)

	res := mustSubmit(t, s, "Ana Gómez", "300 123 4567", "ana@example.com")
	assert.Equal(t, StepFinal, s.Step())
	assert.Equal(t, []string{ActionDownload, ActionSummary, ActionRestart}, values(s.Offered()))

	require.Len(t, res.Effects, 1)
	assert.Equal(t, EffectPersist, res.Effects[0].Kind)
	q := res.Effects[0].Quotation
	require.NotNil(t, q)
	assert.Equal(t, 71.5, q.Area.Total)
	assert.Equal(t, "4.657.582", quote.FormatCurrency(q.Stage1.Architectural))
	assert.Equal(t, quote.ClientInfo{Name: "Ana Gómez", Phone: "+573001234567", Email: "ana@example.com"}, q.Client)

	cached := s.Quotation()
	require.NotNil(t, cached)
	assert.Equal(t, q.ID, cached.ID)

	transcript := s.Transcript()
	var texts []string
	for _, m := range transcript {
		texts = append(texts, m.Text)
	}
	assert.Contains(t, texts, "Perfecto, tu proyecto incluirá solo los espacios básicos.")
	assert.Contains(t, texts, "Seleccionaste: Media: COP $2'000.000")
	assert.Contains(t, texts, q.Text())
	assert.Equal(t, "¿Te gustaría descargar el documento oficial de cotización?", transcript[len(transcript)-1].Text)
}

func TestSessionFinalActions(t *testing.T) {
	s := newTestSession(t)
	mustSelect(t, s, "si", "doble", "0", quote.ValueNone, "alta")
	mustSubmit(t, s, "Luis", "3001112233", "luis@example.com")
	s.Drain()

	res := s.Select(ActionSummary)
	require.True(t, res.Accepted)
	assert.Empty(t, res.Effects)
	msgs := s.Drain()
	require.Len(t, msgs, 2)
	assert.Equal(t, "📋 Solo conservar resumen", msgs[0].Text)
	assert.Contains(t, msgs[1].Text, "Aquí tienes un resumen de tu cotización")

	res = s.Select(ActionDownload)
	require.True(t, res.Accepted)
	require.Len(t, res.Effects, 1)
	assert.Equal(t, EffectDownload, res.Effects[0].Kind)
	assert.Equal(t, s.Quotation().ID, res.Effects[0].Quotation.ID)
	assert.Equal(t, StepFinal, s.Step())
}

func TestSessionRoomLoop(t *testing.T) {
	s := newTestSession(t)
	mustSelect(t, s, "no_proceso", "king", "2")

	assert.Equal(t, StepRoomQuestions, s.Step())
	assert.Equal(t, "Habitación 1 - ¿Qué tipo de cama le gustaría?", s.Prompt().Text)
	assert.True(t, s.Select("king").Ignored, "king is not a secondary room bed")

	mustSelect(t, s, "queen")
	assert.Equal(t, "Habitación 1 - ¿Tiene baño propio?", s.Prompt().Text)
	mustSelect(t, s, "si")
	assert.Equal(t, "Habitación 2 - ¿Qué tipo de cama le gustaría?", s.Prompt().Text)
	mustSelect(t, s, "sencilla", "no")

	assert.Equal(t, StepExtraSpaces, s.Step())
	r := s.Responses()
	assert.Equal(t, 2, r.AdditionalRooms)
	assert.Equal(t, []quote.RoomResponse{{Bed: "queen", Bathroom: "si"}, {Bed: "sencilla", Bathroom: "no"}}, r.Rooms)

	mustSelect(t, s, "estudio", quote.ValueFinish, "basica")
	res := mustSubmit(t, s, "Ana", "3000000000", "a@b.co")
	q := res.Effects[0].Quotation
	assert.Equal(t, 53.5+24.75+21.5+13.5+14, q.Area.Total)
}

func TestSessionExtraSpaces(t *testing.T) {
	s := newTestSession(t)
	mustSelect(t, s, "si", "queen", "0")

	initial := values(s.Offered())
	assert.Len(t, initial, 13)
	assert.Contains(t, initial, quote.ValueNone)
	assert.NotContains(t, initial, quote.ValueFinish)

	mustSelect(t, s, "estudio")
	assert.Equal(t, StepExtraSpaces, s.Step())
	offered := values(s.Offered())
	assert.NotContains(t, offered, "estudio")
	assert.Contains(t, offered, quote.ValueFinish)
	assert.Contains(t, offered, quote.ValueNone)
	assert.Equal(t, "¿Deseas agregar otro espacio adicional?", s.Prompt().Text)

	assert.True(t, s.Select("estudio").Ignored)
	mustSelect(t, s, "sauna")
	assert.Equal(t, []string{"estudio", "sauna"}, s.Responses().ExtraSpaces)

	mustSelect(t, s, quote.ValueNone)
	assert.Equal(t, StepMaterialGrade, s.Step())
	assert.Empty(t, s.Responses().ExtraSpaces)
}

func TestSessionExtraSpacesExhausted(t *testing.T) {
	s := newTestSession(t)
	mustSelect(t, s, "si", "queen", "0")

	c := quote.DefaultCatalog()
	for _, opt := range c.ExtraSpaces.Options {
		if opt.Value == quote.ValueNone {
			continue
		}
		mustSelect(t, s, opt.Value)
	}

	assert.Equal(t, StepMaterialGrade, s.Step())
	assert.Len(t, s.Responses().ExtraSpaces, 12)
}

func TestSessionIgnoresInvalidInput(t *testing.T) {
	s := newTestSession(t)
	before := s.Snapshot()

	assert.True(t, s.Select("queen").Ignored)
	assert.True(t, s.Select("").Ignored)
	assert.True(t, s.Submit("hola").Ignored)
	assert.Equal(t, before, s.Snapshot())
}

func TestSessionBlankTextReprompts(t *testing.T) {
	s := newTestSession(t)
	mustSelect(t, s, "si", "queen", "0", quote.ValueNone, "media")
	before := s.Snapshot()

	for _, text := range []string{"", "   ", "\t\n"} {
		res := s.Submit(text)
		assert.True(t, res.Reprompt)
		assert.False(t, res.Accepted)
	}
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, StepUserName, s.Step())
	assert.True(t, s.Select("media").Ignored)
}

func TestSessionRecordsTrimmedText(t *testing.T) {
	s := newTestSession(t)
	mustSelect(t, s, "si", "queen", "0", quote.ValueNone, "media")
	mustSubmit(t, s, "  Ana Gómez \n")

	var heard []string
	for _, m := range s.Transcript() {
		if m.Sender == SenderUser {
			heard = append(heard, m.Text)
		}
	}
	require.NotEmpty(t, heard)
	assert.Equal(t, "Ana Gómez", heard[len(heard)-1])
	assert.Equal(t, "Ana Gómez", s.Client().Name)
}

func TestSessionNotifyIfCurrent(t *testing.T) {
	s := newTestSession(t)
	gen := s.Generation()

	assert.True(t, s.NotifyIfCurrent(gen, "listo"))
	assert.Equal(t, "listo", s.Transcript()[len(s.Transcript())-1].Text)

	res := s.Restart()
	require.True(t, res.Accepted)
	assert.Equal(t, gen+1, s.Generation())
	assert.Equal(t, gen+1, res.Effects[0].Generation)

	before := len(s.Transcript())
	assert.False(t, s.NotifyIfCurrent(gen, "tarde"))
	assert.Len(t, s.Transcript(), before)
}

func TestSessionRestart(t *testing.T) {
	s := newTestSession(t)
	first := s.Transcript()

	mustSelect(t, s, "si", "queen", "1", "doble", "si", "sauna", quote.ValueFinish, "alta")
	mustSubmit(t, s, "Ana", "3001234567", "ana@example.com")

	res := s.Select(ActionRestart)
	require.True(t, res.Accepted)
	require.Len(t, res.Effects, 1)
	assert.Equal(t, EffectClear, res.Effects[0].Kind)
	assert.Equal(t, uint64(1), res.Effects[0].Generation)

	assert.Equal(t, StepQuestions, s.Step())
	assert.Nil(t, s.Quotation())
	assert.Equal(t, quote.ResponseSet{}, s.Responses())
	assert.Equal(t, quote.ClientInfo{}, s.Client())

	snap := s.Snapshot()
	assert.Zero(t, snap.Question)
	assert.Zero(t, snap.RoomQuestion)
	assert.Zero(t, snap.AdditionalRooms)

	again := s.Transcript()
	require.Len(t, again, len(first))
	for i := range first {
		assert.Equal(t, first[i].Text, again[i].Text)
		assert.Equal(t, first[i].Options, again[i].Options)
	}
	assert.Len(t, s.Drain(), 2)
}

func TestSessionNotReentrant(t *testing.T) {
	s := newTestSession(t)

	s.mu.Lock()
	assert.True(t, s.Select("si").Ignored)
	assert.True(t, s.Submit("Ana").Ignored)
	assert.True(t, s.Restart().Ignored)
	s.mu.Unlock()

	assert.True(t, s.Select("si").Accepted)
}

func TestSessionSnapshotRestore(t *testing.T) {
	engine := newTestEngine(t)
	s := NewSession(engine)
	s.Start()
	mustSelect(t, s, "si", "queen", "1", "doble")

	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)

	var state State
	require.NoError(t, json.Unmarshal(data, &state))
	restored := RestoreSession(state, engine)

	assert.Equal(t, StepRoomQuestions, restored.Step())
	assert.Equal(t, s.Offered(), restored.Offered())
	mustSelect(t, restored, "si")
	assert.Equal(t, StepExtraSpaces, restored.Step())
	assert.Equal(t, quote.RoomResponse{Bed: "doble", Bathroom: "si"}, restored.Responses().Room(1))
}

func TestAppendDistinct(t *testing.T) {
	var list []Message
	var ok bool

	list, ok = appendDistinct(list, Message{Sender: SenderBot, Text: "hola"})
	assert.True(t, ok)
	list, ok = appendDistinct(list, Message{Sender: SenderBot, Text: "hola"})
	assert.False(t, ok)
	list, ok = appendDistinct(list, Message{Sender: SenderUser, Text: "hola"})
	assert.True(t, ok)
	list, ok = appendDistinct(list, Message{Sender: SenderBot, Text: "hola"})
	assert.True(t, ok)

	assert.Len(t, list, 3)
}

func TestNormalizePhoneNumber(t *testing.T) {
	tests := map[string]string{
		"300 123 4567":     "+573001234567",
		"(601) 234-5678":   "+576012345678",
		"573001234567":     "+573001234567",
		"+57 300 123 4567": "+573001234567",
		"+1 555 010 9999":  "+15550109999",
		"  12345  ":        "12345",
		"sin teléfono":     "sin teléfono",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePhoneNumber(in), in)
	}
}
