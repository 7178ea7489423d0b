package chat

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"saave-bot/internal/quote"
)

type EffectKind string

const (
	EffectPersist  EffectKind = "persist"
	EffectClear    EffectKind = "clear"
	EffectDownload EffectKind = "download"
)

// Effect is a side effect requested by a transition. The session never
// performs it itself.
type Effect struct {
	Kind      EffectKind
	Quotation *quote.Quotation
	// Generation is the restart count of the session when the effect was
	// requested.
	Generation uint64
}

type Result struct {
	// Accepted is set when the input caused a transition.
	Accepted bool
	// Ignored is set for inputs that do not apply to the current step or
	// arrive while another transition is running.
	Ignored bool
	// Reprompt asks the caller to show Prompt again.
	Reprompt bool
	Effects  []Effect
}

var ignored = Result{Ignored: true}

// State is the serialisable state of a session.
type State struct {
	Step            Step              `json:"step"`
	Question        int               `json:"current_question"`
	RoomQuestion    int               `json:"current_room_question"`
	AdditionalRooms int               `json:"additional_rooms"`
	Responses       quote.ResponseSet `json:"responses"`
	Client          quote.ClientInfo  `json:"user_data"`
	Prompt          Message           `json:"prompt"`
	Offered         []quote.Option    `json:"offered,omitempty"`
	Quotation       *quote.Quotation  `json:"quotation,omitempty"`
	Transcript      []Message         `json:"messages"`
	Drained         int               `json:"drained"`
}

func (st State) clone() State {
	c := st
	c.Responses = st.Responses.Clone()
	c.Prompt.Options = append([]quote.Option(nil), st.Prompt.Options...)
	c.Offered = append([]quote.Option(nil), st.Offered...)
	c.Transcript = cloneMessages(st.Transcript)
	if st.Quotation != nil {
		q := *st.Quotation
		c.Quotation = &q
	}
	return c
}

// Session is one quotation conversation. It is safe for concurrent use but
// processes a single input at a time.
type Session struct {
	mu      sync.Mutex
	catalog *quote.Catalog
	engine  *quote.Engine
	now     func() time.Time
	state   State

	// generation counts restarts; it is not part of the snapshot.
	generation atomic.Uint64
}

type SessionOption func(*Session)

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func NewSession(engine *quote.Engine, opts ...SessionOption) *Session {
	s := &Session{
		catalog: engine.Catalog(),
		engine:  engine,
		now:     time.Now,
		state:   State{Step: StepGreeting},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RestoreSession rebuilds a session from a snapshot.
func RestoreSession(state State, engine *quote.Engine, opts ...SessionOption) *Session {
	s := NewSession(engine, opts...)
	s.state = state.clone()
	if s.state.Step == "" {
		s.state.Step = StepGreeting
	}
	if s.state.Drained > len(s.state.Transcript) {
		s.state.Drained = len(s.state.Transcript)
	}
	return s
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Step
}

// Offered returns the options that Select currently accepts.
func (s *Session) Offered() []quote.Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]quote.Option(nil), s.state.Offered...)
}

// Prompt returns the question the session is waiting on.
func (s *Session) Prompt() Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.state.Prompt
	p.Options = append([]quote.Option(nil), p.Options...)
	return p
}

func (s *Session) Quotation() *quote.Quotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Quotation == nil {
		return nil
	}
	q := *s.state.Quotation
	return &q
}

func (s *Session) Responses() quote.ResponseSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Responses.Clone()
}

func (s *Session) Client() quote.ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Client
}

func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessages(s.state.Transcript)
}

// Drain returns the messages appended since the previous call.
func (s *Session) Drain() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := cloneMessages(s.state.Transcript[s.state.Drained:])
	s.state.Drained = len(s.state.Transcript)
	return pending
}

// Start emits the greeting and the first question. It only applies to a
// session that has not started yet.
func (s *Session) Start() Result {
	if !s.mu.TryLock() {
		return ignored
	}
	defer s.mu.Unlock()

	if s.state.Step != StepGreeting {
		return ignored
	}
	s.start()
	return Result{Accepted: true}
}

// Restart drops everything collected so far and starts over.
func (s *Session) Restart() Result {
	if !s.mu.TryLock() {
		return ignored
	}
	defer s.mu.Unlock()

	s.restart()
	return s.accept(Effect{Kind: EffectClear})
}

// Generation reports how many times the session has been restarted.
func (s *Session) Generation() uint64 {
	return s.generation.Load()
}

// NotifyIfCurrent appends a bot message outside of a transition, such as the
// outcome of an asynchronous effect. It does nothing if the session has been
// restarted since generation gen.
func (s *Session) NotifyIfCurrent(gen uint64, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation.Load() != gen {
		return false
	}
	s.say(text)
	return true
}

// Select answers the current question with one of the offered option values.
func (s *Session) Select(value string) Result {
	if !s.mu.TryLock() {
		return ignored
	}
	defer s.mu.Unlock()

	if s.state.Step.AcceptsText() || s.state.Step == StepGreeting {
		return ignored
	}
	opt, ok := s.offered(value)
	if !ok {
		return ignored
	}

	if s.state.Step == StepFinal && opt.Value == ActionRestart {
		s.restart()
		return s.accept(Effect{Kind: EffectClear})
	}

	s.hear(opt.Label)

	var effects []Effect
	switch s.state.Step {
	case StepQuestions:
		s.answerMainQuestion(opt)
	case StepRoomQuestions:
		s.answerRoomQuestion(opt)
	case StepExtraSpaces:
		s.answerExtraSpace(opt)
	case StepMaterialGrade:
		s.answerMaterialGrade(opt)
	case StepFinal:
		effects = s.answerFinalAction(opt)
	}

	return s.accept(effects...)
}

// Submit answers a free-text question. Blank input is not recorded.
func (s *Session) Submit(text string) Result {
	if !s.mu.TryLock() {
		return ignored
	}
	defer s.mu.Unlock()

	if !s.state.Step.AcceptsText() {
		return ignored
	}
	value := strings.TrimSpace(text)
	if value == "" {
		return Result{Reprompt: true}
	}

	s.hear(value)

	switch s.state.Step {
	case StepUserName:
		s.state.Client.Name = value
		s.ask(textAskPhone, nil)
		s.state.Step = StepUserPhone
	case StepUserPhone:
		s.state.Client.Phone = NormalizePhoneNumber(value)
		s.ask(textAskEmail, nil)
		s.state.Step = StepUserEmail
	case StepUserEmail:
		s.state.Client.Email = value
		q := s.complete()
		return s.accept(Effect{Kind: EffectPersist, Quotation: q})
	}

	return Result{Accepted: true}
}

func (s *Session) start() {
	s.say(textGreeting)
	s.state.Step = StepQuestions
	s.state.Question = 0
	q := s.catalog.MainQuestions()[0]
	s.ask(q.Text(), q.Options)
}

func (s *Session) restart() {
	s.generation.Add(1)
	s.state = State{Step: StepGreeting}
	s.start()
}

// accept stamps effects with the current generation.
func (s *Session) accept(effects ...Effect) Result {
	gen := s.generation.Load()
	for i := range effects {
		effects[i].Generation = gen
	}
	return Result{Accepted: true, Effects: effects}
}

func (s *Session) offered(value string) (quote.Option, bool) {
	for _, opt := range s.state.Offered {
		if opt.Value == value {
			return opt, true
		}
	}
	return quote.Option{}, false
}

func (s *Session) answerMainQuestion(opt quote.Option) {
	main := s.catalog.MainQuestions()

	switch s.state.Question {
	case 0:
		s.state.Responses.Lot = opt.Value
	case 1:
		s.state.Responses.PrincipalRoom = opt.Value
	case 2:
		count, _ := strconv.Atoi(opt.Value)
		if count < 0 {
			count = 0
		}
		s.state.AdditionalRooms = count
		s.state.Responses.AdditionalRooms = count
		s.state.Responses.Rooms = nil
		if count > 0 {
			s.state.Step = StepRoomQuestions
			s.state.RoomQuestion = 0
			s.ask(s.catalog.RoomBed.Text(1), s.catalog.RoomBed.Options)
			return
		}
		s.showExtraSpaces()
		return
	}

	s.state.Question++
	next := main[s.state.Question]
	s.ask(next.Text(), next.Options)
}

func (s *Session) answerRoomQuestion(opt quote.Option) {
	room := s.state.RoomQuestion/2 + 1
	answers := s.state.Responses.Room(room)

	if s.state.RoomQuestion%2 == 0 {
		answers.Bed = opt.Value
		s.state.Responses.SetRoom(room, answers)
		s.state.RoomQuestion++
		s.ask(s.catalog.RoomBathroom.Text(room), s.catalog.RoomBathroom.Options)
		return
	}

	answers.Bathroom = opt.Value
	s.state.Responses.SetRoom(room, answers)
	if room < s.state.AdditionalRooms {
		s.state.RoomQuestion++
		s.ask(s.catalog.RoomBed.Text(room+1), s.catalog.RoomBed.Options)
		return
	}
	s.showExtraSpaces()
}

func (s *Session) showExtraSpaces() {
	s.state.Step = StepExtraSpaces
	s.ask(s.catalog.ExtraSpaces.Text(), s.catalog.ExtraSpaces.Options)
}

func (s *Session) answerExtraSpace(opt quote.Option) {
	switch opt.Value {
	case quote.ValueFinish:
		s.showMaterialGrade()
		return
	case quote.ValueNone:
		s.state.Responses.ExtraSpaces = []string{}
		s.say(textOnlyBasicSpaces)
		s.showMaterialGrade()
		return
	}

	if !s.state.Responses.HasExtraSpace(opt.Value) {
		s.state.Responses.ExtraSpaces = append(s.state.Responses.ExtraSpaces, opt.Value)
	}
	s.say(fmt.Sprintf(textSpaceAdded, opt.Label))

	// "ninguno" stays on offer so the client can still drop every extra
	var remaining []quote.Option
	left := 0
	for _, space := range s.catalog.ExtraSpaces.Options {
		if s.state.Responses.HasExtraSpace(space.Value) {
			continue
		}
		if space.Value != quote.ValueNone {
			left++
		}
		remaining = append(remaining, space)
	}
	if left == 0 {
		s.showMaterialGrade()
		return
	}
	s.ask(textAnotherSpace, append(remaining, finishOption))
}

func (s *Session) showMaterialGrade() {
	s.state.Step = StepMaterialGrade
	s.ask(s.catalog.MaterialGrade.Text(), s.catalog.MaterialGrade.Options)
}

func (s *Session) answerMaterialGrade(opt quote.Option) {
	s.state.Responses.MaterialGrade = opt.Value
	s.say(fmt.Sprintf(textGradeSelected, opt.Label))
	s.say(textConfigured)
	s.state.Step = StepUserName
	s.ask(textAskName, nil)
}

// complete computes the quotation once and offers the final actions.
func (s *Session) complete() *quote.Quotation {
	s.say(textGenerating)

	if s.state.Quotation == nil {
		q := s.engine.ComputeQuotation(s.state.Client, s.state.Responses, s.state.AdditionalRooms)
		s.state.Quotation = &q
	}
	s.say(s.state.Quotation.Text())

	s.state.Step = StepFinal
	s.ask(textAskDownload, finalOptions)

	q := *s.state.Quotation
	return &q
}

func (s *Session) answerFinalAction(opt quote.Option) []Effect {
	if s.state.Quotation == nil {
		return nil
	}
	q := *s.state.Quotation

	switch opt.Value {
	case ActionDownload:
		return []Effect{{Kind: EffectDownload, Quotation: &q}}
	case ActionSummary:
		s.say(q.SummaryText())
	}
	return nil
}

// ask emits a question and makes its options the accepted set.
func (s *Session) ask(text string, options []quote.Option) {
	opts := append([]quote.Option(nil), options...)
	msg := Message{Sender: SenderBot, Text: text, Options: opts, Time: s.now()}
	s.state.Prompt = msg
	s.state.Offered = opts
	s.state.Transcript, _ = appendDistinct(s.state.Transcript, msg)
}

func (s *Session) say(text string) {
	msg := Message{Sender: SenderBot, Text: text, Time: s.now()}
	s.state.Transcript, _ = appendDistinct(s.state.Transcript, msg)
}

func (s *Session) hear(text string) {
	msg := Message{Sender: SenderUser, Text: text, Time: s.now()}
	s.state.Transcript, _ = appendDistinct(s.state.Transcript, msg)
}
