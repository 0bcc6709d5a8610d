package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

type fakeGateway struct {
	mu   sync.Mutex
	rows [][]string
	err  error
}

func (g *fakeGateway) Append(ctx context.Context, fields []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	row := make([]string, len(fields))
	copy(row, fields)
	g.rows = append(g.rows, row)
	return nil
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rows)
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := NewCatalog([]Category{
		{
			Key:   "hero",
			Title: "Hero",
			Questions: []Question{
				{Prompt: "hero question one", Options: []string{"O1", "Z1"}},
				{Prompt: "hero question two", Options: []string{"O2", "Z2"}},
				{Prompt: "hero question three", Options: []string{"O3", "Z3"}},
				{Prompt: "hero question four", Options: []string{"O4", "Z4"}},
			},
		},
		{
			Key:   "villain",
			Title: "Villain",
			Questions: []Question{
				{Prompt: "villain question one", Options: []string{"V1"}},
				{Prompt: "villain question two"},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return cat
}

func newTestEngine(t *testing.T, gw Gateway) (*Engine, *Store) {
	t.Helper()
	store := NewStore()
	eng, err := NewEngine(store, testCatalog(t), gw, Options{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng, store
}

func handle(t *testing.T, eng *Engine, identity int64, ev Event) []Action {
	t.Helper()
	actions, err := eng.Handle(context.Background(), identity, ev)
	if err != nil {
		t.Fatalf("Handle(%T): %v", ev, err)
	}
	return actions
}

func actionsText(actions []Action) string {
	var b strings.Builder
	for _, a := range actions {
		switch a := a.(type) {
		case SendText:
			b.WriteString(a.Text)
		case SendImage:
			b.WriteString(a.Caption)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestFullFlowPersistsRecord(t *testing.T) {
	gw := &fakeGateway{}
	eng, store := newTestEngine(t, gw)
	const id int64 = 1

	if _, err := eng.Start(context.Background(), id); err != nil {
		t.Fatalf("Start: %v", err)
	}
	handle(t, eng, id, Begin{})
	handle(t, eng, id, Text{Text: "  Alex  "})
	handle(t, eng, id, SelectCategory{Key: "hero"})
	for _, opt := range []string{"O1", "O2", "O3"} {
		handle(t, eng, id, SelectOption{Label: opt})
	}
	actions := handle(t, eng, id, SelectOption{Label: "O4"})

	want := []string{"Alex", "hero", "O1", "O2", "O3", "O4"}
	if gw.count() != 1 {
		t.Fatalf("rows = %d, want 1", gw.count())
	}
	for i, f := range want {
		if gw.rows[0][i] != f {
			t.Fatalf("row = %v, want %v", gw.rows[0], want)
		}
	}
	if !strings.Contains(actionsText(actions), "Alex") {
		t.Errorf("confirmation does not mention respondent: %q", actionsText(actions))
	}
	if store.InProgress(id) {
		t.Error("session still present after submit")
	}
}

func TestAnswersSizedAtCategorySelection(t *testing.T) {
	eng, store := newTestEngine(t, &fakeGateway{})
	const id int64 = 2

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})

	if sess := store.Get(id); len(sess.Answers) != 0 || sess.Category != "" {
		t.Fatalf("answers allocated before category selection: %+v", sess)
	}

	handle(t, eng, id, SelectCategory{Key: "hero"})
	sess := store.Get(id)
	if len(sess.Answers) != 4 {
		t.Fatalf("answers len = %d, want 4", len(sess.Answers))
	}
	if sess.State != StateAwaitingAnswer || sess.QuestionIndex != 0 {
		t.Fatalf("unexpected session after category: %+v", sess)
	}
}

func TestRevisitShowsBufferedAnswer(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeGateway{})
	const id int64 = 3

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "hero"})
	handle(t, eng, id, SelectOption{Label: "O1"})

	actions := handle(t, eng, id, Navigate{Delta: -1})
	text := actionsText(actions)
	if !strings.Contains(text, "Your current answer: O1") {
		t.Errorf("revisit prompt missing buffered answer: %q", text)
	}
	if !strings.Contains(text, "hero question one") {
		t.Errorf("revisit prompt shows wrong question: %q", text)
	}
}

func TestChangedAnswerIsPersisted(t *testing.T) {
	gw := &fakeGateway{}
	eng, _ := newTestEngine(t, gw)
	const id int64 = 4

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "hero"})
	handle(t, eng, id, SelectOption{Label: "O1"})
	handle(t, eng, id, SelectOption{Label: "O2"})

	// Back to the first question, change the answer, then finish.
	handle(t, eng, id, Navigate{Delta: -1})
	handle(t, eng, id, Navigate{Delta: -1})
	handle(t, eng, id, SelectOption{Label: "Z1"})
	handle(t, eng, id, SelectOption{Label: "O2"})
	handle(t, eng, id, SelectOption{Label: "O3"})
	handle(t, eng, id, SelectOption{Label: "O4"})

	if gw.count() != 1 {
		t.Fatalf("rows = %d, want 1", gw.count())
	}
	if got := gw.rows[0][2]; got != "Z1" {
		t.Errorf("first answer = %q, want changed value Z1", got)
	}
}

func TestNavigationClampedToBounds(t *testing.T) {
	eng, store := newTestEngine(t, &fakeGateway{})
	const id int64 = 5

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "hero"})

	actions := handle(t, eng, id, Navigate{Delta: -1})
	if idx := store.Get(id).QuestionIndex; idx != 0 {
		t.Fatalf("index after prev at first = %d, want 0", idx)
	}
	if !strings.Contains(actionsText(actions), "Question 1 of 4") {
		t.Errorf("expected first question re-render, got %q", actionsText(actions))
	}

	for i := 0; i < 10; i++ {
		handle(t, eng, id, Navigate{Delta: 1})
	}
	if idx := store.Get(id).QuestionIndex; idx != 3 {
		t.Fatalf("index after repeated next = %d, want 3", idx)
	}
}

func TestCancelDiscardsEverything(t *testing.T) {
	gw := &fakeGateway{}
	eng, store := newTestEngine(t, gw)
	const id int64 = 6

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "hero"})
	handle(t, eng, id, SelectOption{Label: "O1"})
	handle(t, eng, id, Cancel{})

	if gw.count() != 0 {
		t.Fatalf("rows = %d, want 0 after cancel", gw.count())
	}
	if store.InProgress(id) {
		t.Fatal("session survived cancel")
	}

	// A fresh start must not leak prior answers.
	_, _ = eng.Start(context.Background(), id)
	sess := store.Get(id)
	if sess.Name != "" || sess.Category != "" || len(sess.Answers) != 0 {
		t.Errorf("fresh session carries old data: %+v", sess)
	}
}

func TestSubmitIsExactlyOnce(t *testing.T) {
	gw := &fakeGateway{}
	eng, _ := newTestEngine(t, gw)
	const id int64 = 7

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "hero"})
	for _, opt := range []string{"O1", "O2", "O3", "O4"} {
		handle(t, eng, id, SelectOption{Label: opt})
	}
	if gw.count() != 1 {
		t.Fatalf("rows = %d, want 1", gw.count())
	}

	// A late submit click after the session is gone must do nothing.
	actions := handle(t, eng, id, Submit{})
	if len(actions) != 0 {
		t.Errorf("late submit produced actions: %v", actions)
	}
	if gw.count() != 1 {
		t.Errorf("rows = %d after duplicate submit, want 1", gw.count())
	}
}

func TestExplicitSubmitRequiresAllAnswers(t *testing.T) {
	gw := &fakeGateway{}
	eng, store := newTestEngine(t, gw)
	const id int64 = 8

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "hero"})
	handle(t, eng, id, SelectOption{Label: "O1"})
	handle(t, eng, id, Navigate{Delta: 1})

	handle(t, eng, id, Submit{})
	if gw.count() != 0 {
		t.Fatalf("incomplete submit persisted a record")
	}
	if idx := store.Get(id).QuestionIndex; idx != 1 {
		t.Errorf("cursor = %d, want first unanswered 1", idx)
	}
}

func TestCategoryIsolation(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeGateway{})
	const id int64 = 9

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "hero"})

	for i := 0; i < 4; i++ {
		actions := handle(t, eng, id, Navigate{Delta: 1})
		text := actionsText(actions)
		if strings.Contains(text, "villain") {
			t.Fatalf("hero session rendered villain content: %q", text)
		}
		if !strings.Contains(text, "hero question") {
			t.Fatalf("hero session missing hero content: %q", text)
		}
	}

	// Category is locked in; a second selection is ignored.
	handle(t, eng, id, SelectCategory{Key: "villain"})
	actions := handle(t, eng, id, Navigate{Delta: 0})
	if strings.Contains(actionsText(actions), "villain") {
		t.Error("category switched mid-flow")
	}
}

func TestFreeTextQuestionTakesTypedAnswer(t *testing.T) {
	gw := &fakeGateway{}
	eng, _ := newTestEngine(t, gw)
	const id int64 = 10

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "villain"})
	handle(t, eng, id, SelectOption{Label: "V1"})
	handle(t, eng, id, Text{Text: "  long story  "})

	if gw.count() != 1 {
		t.Fatalf("rows = %d, want 1", gw.count())
	}
	want := []string{"Sam", "villain", "V1", "long story"}
	for i, f := range want {
		if gw.rows[0][i] != f {
			t.Fatalf("row = %v, want %v", gw.rows[0], want)
		}
	}
}

func TestTextIgnoredOnOptionQuestion(t *testing.T) {
	eng, store := newTestEngine(t, &fakeGateway{})
	const id int64 = 11

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "hero"})

	actions := handle(t, eng, id, Text{Text: "typed instead of clicking"})
	if len(actions) != 0 {
		t.Errorf("text on option question produced actions: %v", actions)
	}
	if sess := store.Get(id); sess.Answers[0] != "" {
		t.Errorf("typed text recorded as answer: %q", sess.Answers[0])
	}
}

func TestOutOfTurnAndUnknownEventsIgnored(t *testing.T) {
	eng, store := newTestEngine(t, &fakeGateway{})
	const id int64 = 12

	// No session at all.
	if actions := handle(t, eng, id, SelectOption{Label: "O1"}); len(actions) != 0 {
		t.Errorf("mid-flow event without session produced actions: %v", actions)
	}

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})

	before := *store.Get(id)
	for _, ev := range []Event{
		SelectOption{Label: "O1"},
		Navigate{Delta: 1},
		Submit{},
		Unrecognized{Token: "bogus"},
	} {
		if actions := handle(t, eng, id, ev); len(actions) != 0 {
			t.Errorf("%T out of turn produced actions", ev)
		}
	}
	after := store.Get(id)
	if after.State != before.State || after.QuestionIndex != before.QuestionIndex {
		t.Errorf("ignored events mutated session: before %+v after %+v", before, *after)
	}
}

func TestUnknownCategoryFailsSession(t *testing.T) {
	eng, store := newTestEngine(t, &fakeGateway{})
	const id int64 = 13

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})

	actions, err := eng.Handle(context.Background(), id, SelectCategory{Key: "ghost"})
	if !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("err = %v, want ErrCategoryNotFound", err)
	}
	if len(actions) == 0 {
		t.Error("respondent not informed about the failed session")
	}
	if store.InProgress(id) {
		t.Error("failed session not discarded")
	}
}

func TestPersistenceFailureDiscardsSession(t *testing.T) {
	gw := &fakeGateway{err: fmt.Errorf("append quota exceeded")}
	eng, store := newTestEngine(t, gw)
	const id int64 = 14

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "hero"})
	for _, opt := range []string{"O1", "O2", "O3"} {
		handle(t, eng, id, SelectOption{Label: opt})
	}

	actions, err := eng.Handle(context.Background(), id, SelectOption{Label: "O4"})
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if !strings.Contains(actionsText(actions), "could not be saved") {
		t.Errorf("respondent not told about save failure: %q", actionsText(actions))
	}
	if store.InProgress(id) {
		t.Error("session survived failed persistence")
	}
}

func TestStartReplacesInFlightSession(t *testing.T) {
	eng, store := newTestEngine(t, &fakeGateway{})
	const id int64 = 15

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "hero"})
	handle(t, eng, id, SelectOption{Label: "O1"})

	_, _ = eng.Start(context.Background(), id)
	sess := store.Get(id)
	if sess.State != StateAwaitingName || sess.Name != "" || len(sess.Answers) != 0 {
		t.Errorf("restart kept old session data: %+v", sess)
	}
}

func TestConcurrentClicksPersistOnce(t *testing.T) {
	gw := &fakeGateway{}
	eng, _ := newTestEngine(t, gw)
	const id int64 = 16

	_, _ = eng.Start(context.Background(), id)
	handle(t, eng, id, Text{Text: "Sam"})
	handle(t, eng, id, SelectCategory{Key: "hero"})
	for _, opt := range []string{"O1", "O2", "O3"} {
		handle(t, eng, id, SelectOption{Label: opt})
	}

	// Simulate a double click on the final answer button.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = eng.Handle(context.Background(), id, SelectOption{Label: "O4"})
		}()
	}
	wg.Wait()

	if gw.count() != 1 {
		t.Fatalf("rows = %d after double click, want 1", gw.count())
	}
}
