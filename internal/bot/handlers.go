package bot

import (
	"fmt"

	"github.com/arashpd/surveybot/core/buildinfo"
	coretelegram "github.com/arashpd/surveybot/core/telegram"
	"github.com/arashpd/surveybot/core/telegram/callbacks"
	"github.com/arashpd/surveybot/core/telegram/commands"
	"github.com/arashpd/surveybot/core/telegram/format"
	tghelpers "github.com/arashpd/surveybot/core/telegram/helpers"
	"github.com/arashpd/surveybot/core/telegram/keyboard"
	"github.com/arashpd/surveybot/internal/survey"

	tele "gopkg.in/telebot.v4"
)

// callbackKeys lists every callback token the engine understands. All of
// them funnel into the same decode-then-handle path.
var callbackKeys = []string{
	"start",
	"type", "num",
	"ans",
	"prev", "prev_q",
	"next", "next_q",
	"submit", "final_submit",
	"cancel",
}

func (a *App) registerHandlers(reg *coretelegram.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Start the survey",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Cancel the current survey",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "How this bot works",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Runtime statistics",
		AdminOnly:   true,
		Hidden:      true,
	})

	for _, key := range callbackKeys {
		if err := reg.RegisterCallback(key, a.handleCallback); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	actions, err := a.engine.Start(ctx, c.Sender().ID)
	if perr := a.perform(c, actions); perr != nil && err == nil {
		err = perr
	}
	return err
}

func (a *App) handleCancel(c tele.Context) error {
	return a.dispatch(c, survey.Cancel{})
}

func (a *App) handleHelp(c tele.Context) error {
	return sendPlain(c,
		"This bot runs a short survey: your name, a category, and a few questions.\n\n"+
			"/start begins a new survey (and restarts an unfinished one)\n"+
			"/cancel discards your current answers")
}

func (a *App) handleStats(c tele.Context) error {
	version, err := format.EscapeMarkdown(buildinfo.Version, format.MarkdownV1)
	if err != nil {
		version = buildinfo.Version
	}
	return tghelpers.SendMD(c, fmt.Sprintf(
		"*surveybot* %s\ncommit: `%s`\nactive sessions: %d\nsubmitted: %d\nfailed saves: %d",
		version, buildinfo.Commit, a.store.Len(),
		a.records.submitted.Load(), a.records.failed.Load()))
}

func (a *App) handleCallback(c tele.Context) error {
	key := callbacks.CallbackKey(c)
	payload := callbacks.CallbackPayload(c)
	return a.dispatch(c, survey.ParseEvent(key, payload))
}

// dispatch feeds one decoded event into the engine and renders whatever
// actions come back. Engine errors surface after the respondent has been
// told what happened.
func (a *App) dispatch(c tele.Context, ev survey.Event) error {
	ctx := tghelpers.BuildContext(c)
	actions, err := a.engine.Handle(ctx, c.Sender().ID, ev)
	if perr := a.perform(c, actions); perr != nil && err == nil {
		err = perr
	}
	return err
}

func (a *App) perform(c tele.Context, actions []survey.Action) error {
	// A button press edits the triggering prompt in place when the reply is
	// a single message; everything else goes out as fresh sends.
	editInPlace := c.Callback() != nil && len(actions) == 1

	var firstErr error
	for _, action := range actions {
		var err error
		switch action := action.(type) {
		case survey.SendText:
			markup := buildMarkup(action.Buttons)
			switch {
			case editInPlace:
				err = tghelpers.EditOrSend(c, action.Text, markup)
			case markup != nil:
				err = tghelpers.SendKeyboard(c, action.Text, markup)
			default:
				err = tghelpers.SendText(c, action.Text)
			}
		case survey.SendImage:
			if markup := buildMarkup(action.Buttons); markup != nil {
				err = tghelpers.SendPhoto(c, action.Ref, action.Caption, markup)
			} else {
				err = tghelpers.SendPhoto(c, action.Ref, action.Caption)
			}
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildMarkup(rows [][]survey.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	btnRows := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btns = append(btns, keyboard.InlineBtn{Text: b.Label, Unique: b.Key, Data: b.Data})
		}
		btnRows = append(btnRows, btns)
	}
	return keyboard.InlineButtonsRows(btnRows...)
}

func sendPlain(c tele.Context, text string) error {
	return tghelpers.SendText(c, text)
}
