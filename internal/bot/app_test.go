package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/arashpd/surveybot/internal/survey"
)

type flakyGateway struct{ err error }

func (g *flakyGateway) Append(ctx context.Context, fields []string) error { return g.err }

func TestCountingGatewayCounters(t *testing.T) {
	gw := &flakyGateway{}
	counting := &countingGateway{inner: gw}

	if err := counting.Append(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	gw.err = errors.New("boom")
	if err := counting.Append(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected failure to propagate")
	}

	if got := counting.submitted.Load(); got != 1 {
		t.Errorf("submitted = %d, want 1", got)
	}
	if got := counting.failed.Load(); got != 1 {
		t.Errorf("failed = %d, want 1", got)
	}
}

func TestBuildMarkup(t *testing.T) {
	if buildMarkup(nil) != nil {
		t.Error("empty rows should produce no markup")
	}

	markup := buildMarkup([][]survey.Button{
		{{Label: "A", Key: "ans", Data: "A"}, {Label: "B", Key: "ans", Data: "B"}},
		{{Label: "Next", Key: "next"}},
	})
	if markup == nil {
		t.Fatal("markup is nil")
	}
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.InlineKeyboard))
	}
	if len(markup.InlineKeyboard[0]) != 2 || len(markup.InlineKeyboard[1]) != 1 {
		t.Errorf("row sizes = %d, %d; want 2, 1",
			len(markup.InlineKeyboard[0]), len(markup.InlineKeyboard[1]))
	}
	if markup.InlineKeyboard[0][0].Text != "A" {
		t.Errorf("button text = %q, want A", markup.InlineKeyboard[0][0].Text)
	}
}
