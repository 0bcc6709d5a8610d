package survey

import (
	"context"
	"fmt"
	"strings"

	"github.com/arashpd/surveybot/core/logger"
	"log/slog"
)

// Gateway persists one finished record as an ordered row of fields.
type Gateway interface {
	Append(ctx context.Context, fields []string) error
}

// Options tunes engine behaviour that is deployment copy, not flow logic.
type Options struct {
	// WelcomeImage optionally decorates the welcome prompt with a photo.
	WelcomeImage string
}

// Engine drives the conversation state machine. All session mutation
// happens here, under the store's per-identity lock, so concurrent updates
// for the same respondent are applied one at a time.
type Engine struct {
	store        *Store
	catalog      *Catalog
	gateway      Gateway
	welcomeImage string
}

// NewEngine wires the state machine to its session store, question catalog
// and persistence gateway.
func NewEngine(store *Store, catalog *Catalog, gateway Gateway, opts Options) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("survey: nil store")
	}
	if catalog == nil {
		return nil, fmt.Errorf("survey: nil catalog")
	}
	if gateway == nil {
		return nil, fmt.Errorf("survey: nil gateway")
	}
	return &Engine{
		store:        store,
		catalog:      catalog,
		gateway:      gateway,
		welcomeImage: opts.WelcomeImage,
	}, nil
}

// InProgress reports whether the identity has an active conversation.
func (e *Engine) InProgress(identity int64) bool {
	return e.store.InProgress(identity)
}

// Start opens a fresh conversation for the identity, replacing any
// in-flight one, and returns the welcome prompt.
func (e *Engine) Start(ctx context.Context, identity int64) ([]Action, error) {
	unlock := e.store.Lock(identity)
	defer unlock()

	e.store.Put(&Session{Identity: identity, State: StateAwaitingName})
	logger.SVCSurvey.Info("session started",
		slog.String("event", "session.start"),
		slog.Int64("user_id", identity),
		slog.String("state", string(StateAwaitingName)),
	)

	return e.welcomeActions(), nil
}

// Handle applies one decoded event to the identity's session and returns
// the outbound actions. Events that do not fit the current state are
// ignored and produce no actions.
func (e *Engine) Handle(ctx context.Context, identity int64, ev Event) ([]Action, error) {
	unlock := e.store.Lock(identity)
	defer unlock()

	sess := e.store.Get(identity)

	switch ev := ev.(type) {
	case Begin:
		return e.handleBegin(identity, sess)
	case Cancel:
		return e.handleCancel(identity, sess)
	case Text:
		return e.handleText(ctx, identity, sess, ev.Text)
	case SelectCategory:
		return e.handleSelectCategory(identity, sess, ev.Key)
	case SelectOption:
		return e.handleSelectOption(ctx, identity, sess, ev.Label)
	case Navigate:
		return e.handleNavigate(identity, sess, ev.Delta)
	case Submit:
		return e.handleSubmit(ctx, identity, sess)
	case Unrecognized:
		e.logIgnored(identity, sess, "token:"+ev.Token)
		return nil, nil
	default:
		return nil, nil
	}
}

func (e *Engine) handleBegin(identity int64, sess *Session) ([]Action, error) {
	if sess == nil {
		sess = &Session{Identity: identity, State: StateAwaitingName}
		e.store.Put(sess)
	}
	switch sess.State {
	case StateAwaitingName:
		return []Action{SendText{Text: "Great! First, what is your name?"}}, nil
	case StateAwaitingCategory:
		return e.categoryActions(sess), nil
	case StateAwaitingAnswer:
		return e.questionActions(sess), nil
	}
	return nil, nil
}

func (e *Engine) handleCancel(identity int64, sess *Session) ([]Action, error) {
	if sess == nil {
		return []Action{SendText{Text: "Nothing to cancel. Send /start to begin a survey."}}, nil
	}
	e.store.Remove(identity)
	logger.SVCSurvey.Info("session cancelled",
		slog.String("event", "session.cancel"),
		slog.Int64("user_id", identity),
		slog.String("state", string(sess.State)),
		slog.Int("answered", sess.Answered()),
	)
	return []Action{SendText{Text: "Survey cancelled. Your answers were discarded. 👋"}}, nil
}

func (e *Engine) handleText(ctx context.Context, identity int64, sess *Session, text string) ([]Action, error) {
	if sess == nil {
		e.logIgnored(identity, nil, "text without session")
		return nil, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	switch sess.State {
	case StateAwaitingName:
		sess.Name = text
		sess.State = StateAwaitingCategory
		logger.SVCSurvey.Info("session advanced",
			slog.String("event", "session.advanced"),
			slog.Int64("user_id", identity),
			slog.String("state", string(sess.State)),
		)
		return e.categoryActions(sess), nil

	case StateAwaitingAnswer:
		qs, err := e.catalog.Questions(sess.Category)
		if err != nil {
			return e.failSession(identity, sess, err)
		}
		if len(qs[sess.QuestionIndex].Options) > 0 {
			// Button questions take button answers only.
			e.logIgnored(identity, sess, "text on option question")
			return nil, nil
		}
		return e.recordAnswer(ctx, identity, sess, text)

	default:
		e.logIgnored(identity, sess, "text in "+string(sess.State))
		return nil, nil
	}
}

func (e *Engine) handleSelectCategory(identity int64, sess *Session, key string) ([]Action, error) {
	if sess == nil || sess.State != StateAwaitingCategory {
		e.logIgnored(identity, sess, "category out of turn")
		return nil, nil
	}

	qs, err := e.catalog.Questions(key)
	if err != nil {
		return e.failSession(identity, sess, err)
	}

	sess.Category = key
	sess.Answers = make([]string, len(qs))
	sess.QuestionIndex = 0
	sess.State = StateAwaitingAnswer

	logger.SVCSurvey.Info("category selected",
		slog.String("event", "session.category"),
		slog.Int64("user_id", identity),
		slog.String("category", key),
		slog.Int("questions_total", len(qs)),
	)
	return e.questionActions(sess), nil
}

func (e *Engine) handleSelectOption(ctx context.Context, identity int64, sess *Session, label string) ([]Action, error) {
	if sess == nil || sess.State != StateAwaitingAnswer {
		e.logIgnored(identity, sess, "option out of turn")
		return nil, nil
	}

	qs, err := e.catalog.Questions(sess.Category)
	if err != nil {
		return e.failSession(identity, sess, err)
	}
	if !optionAllowed(qs[sess.QuestionIndex], label) {
		e.logIgnored(identity, sess, "unknown option")
		return nil, nil
	}
	return e.recordAnswer(ctx, identity, sess, label)
}

// recordAnswer writes the answer for the current question and decides what
// comes next: the following question, the first gap left behind by
// navigation, or the terminal submit once every slot is filled.
func (e *Engine) recordAnswer(ctx context.Context, identity int64, sess *Session, value string) ([]Action, error) {
	sess.Answers[sess.QuestionIndex] = value

	if sess.QuestionIndex < len(sess.Answers)-1 {
		sess.QuestionIndex++
		return e.questionActions(sess), nil
	}

	if sess.Complete() {
		return e.submit(ctx, identity, sess)
	}

	sess.QuestionIndex = sess.FirstUnanswered()
	actions := []Action{SendText{Text: "Almost there! A few questions are still unanswered."}}
	return append(actions, e.questionActions(sess)...), nil
}

func (e *Engine) handleNavigate(identity int64, sess *Session, delta int) ([]Action, error) {
	if sess == nil || sess.State != StateAwaitingAnswer {
		e.logIgnored(identity, sess, "navigation out of turn")
		return nil, nil
	}

	next := sess.QuestionIndex + delta
	if next < 0 {
		next = 0
	}
	if next > len(sess.Answers)-1 {
		next = len(sess.Answers) - 1
	}
	sess.QuestionIndex = next
	return e.questionActions(sess), nil
}

func (e *Engine) handleSubmit(ctx context.Context, identity int64, sess *Session) ([]Action, error) {
	if sess == nil || sess.State != StateAwaitingAnswer {
		// A finished session is already gone; a late submit click lands here.
		e.logIgnored(identity, sess, "submit out of turn")
		return nil, nil
	}

	if !sess.Complete() {
		sess.QuestionIndex = sess.FirstUnanswered()
		actions := []Action{SendText{Text: "A few questions are still unanswered."}}
		return append(actions, e.questionActions(sess)...), nil
	}
	return e.submit(ctx, identity, sess)
}

// submit assembles the record and hands it to the gateway. The session is
// removed before the gateway call so a duplicate click cannot trigger a
// second append. The record is gone either way; only the confirmation
// depends on the outcome.
func (e *Engine) submit(ctx context.Context, identity int64, sess *Session) ([]Action, error) {
	fields := make([]string, 0, len(sess.Answers)+2)
	fields = append(fields, sess.Name, sess.Category)
	fields = append(fields, sess.Answers...)

	e.store.Remove(identity)

	if err := e.gateway.Append(ctx, fields); err != nil {
		logger.SVCSurvey.Error("record append failed",
			slog.String("event", "session.submit"),
			slog.String("status", "fail"),
			slog.Int64("user_id", identity),
			slog.String("category", sess.Category),
			slog.String("err", err.Error()),
		)
		return []Action{SendText{Text: "Sorry, your answers could not be saved. Please try again later. 😔"}},
			fmt.Errorf("survey: persist record: %w", err)
	}

	logger.SVCSurvey.Info("record persisted",
		slog.String("event", "session.submit"),
		slog.String("status", "ok"),
		slog.Int64("user_id", identity),
		slog.String("category", sess.Category),
		slog.Int("fields", len(fields)),
	)
	return []Action{SendText{Text: "✅ Thank you, " + sess.Name + "! Your answers have been recorded."}}, nil
}

// failSession discards a session whose category no longer resolves in the
// catalog. Selection keys come from the catalog itself, so this is a data
// consistency bug, fatal for the session but not for the process.
func (e *Engine) failSession(identity int64, sess *Session, err error) ([]Action, error) {
	e.store.Remove(identity)
	logger.SVCSurvey.Error("session failed",
		slog.String("event", "session.fail"),
		slog.Int64("user_id", identity),
		slog.String("category", sess.Category),
		slog.String("err", err.Error()),
	)
	return []Action{SendText{Text: "Something went wrong with this survey. Please send /start to try again."}},
		err
}

func (e *Engine) logIgnored(identity int64, sess *Session, reason string) {
	if !logger.ShouldSampleDebug() {
		return
	}
	st := "none"
	if sess != nil {
		st = string(sess.State)
	}
	logger.SVCSurvey.Debug("event ignored",
		slog.String("event", "session.ignored"),
		slog.Int64("user_id", identity),
		slog.String("state", st),
		slog.String("reason", reason),
	)
}

func (e *Engine) welcomeActions() []Action {
	text := "👋 Welcome! This short survey takes about a minute.\nTap the button below to begin."
	buttons := [][]Button{{{Label: "📝 Begin", Key: "start"}}}
	if e.welcomeImage != "" {
		return []Action{SendImage{Ref: e.welcomeImage, Caption: text, Buttons: buttons}}
	}
	return []Action{SendText{Text: text, Buttons: buttons}}
}

func (e *Engine) categoryActions(sess *Session) []Action {
	cats := e.catalog.Categories()
	buttons := make([][]Button, 0, (len(cats)+1)/2)
	var row []Button
	for _, cat := range cats {
		row = append(row, Button{Label: cat.Title, Key: "type", Data: cat.Key})
		if len(row) == 2 {
			buttons = append(buttons, row)
			row = nil
		}
	}
	if len(row) > 0 {
		buttons = append(buttons, row)
	}

	text := fmt.Sprintf("Nice to meet you, %s! Please pick a category:", sess.Name)
	return []Action{SendText{Text: text, Buttons: buttons}}
}

// questionActions renders the prompt at the session's cursor, including the
// buffered answer when the respondent navigated back to a question they
// already answered.
func (e *Engine) questionActions(sess *Session) []Action {
	qs, err := e.catalog.Questions(sess.Category)
	if err != nil {
		// Callers validate the category before getting here.
		return []Action{SendText{Text: "Something went wrong with this survey. Please send /start to try again."}}
	}

	q := qs[sess.QuestionIndex]
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d of %d\n\n%s", sess.QuestionIndex+1, len(qs), q.Prompt)
	if prev := sess.Answers[sess.QuestionIndex]; prev != "" {
		fmt.Fprintf(&b, "\n\nYour current answer: %s", prev)
	}
	if len(q.Options) == 0 {
		b.WriteString("\n\nType your answer as a message.")
	}

	var buttons [][]Button
	for _, opt := range q.Options {
		buttons = append(buttons, []Button{{Label: opt, Key: "ans", Data: opt}})
	}
	if len(qs) > 1 {
		buttons = append(buttons, []Button{
			{Label: "⬅️ Previous", Key: "prev"},
			{Label: "Next ➡️", Key: "next"},
		})
	}
	if sess.Complete() {
		buttons = append(buttons, []Button{{Label: "✅ Submit", Key: "submit"}})
	}

	return []Action{SendText{Text: b.String(), Buttons: buttons}}
}

func optionAllowed(q Question, label string) bool {
	if len(q.Options) == 0 {
		return false
	}
	for _, opt := range q.Options {
		if opt == label {
			return true
		}
	}
	return false
}
