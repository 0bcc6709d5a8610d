package survey

import "strings"

// Event is a decoded inbound update. The set of variants is closed; the
// engine matches them exhaustively against the session's current state.
type Event interface{ isEvent() }

// Begin is the welcome-screen button press that opens the flow.
type Begin struct{}

// Text is a plain message from the respondent.
type Text struct{ Text string }

// SelectCategory is a category button press at the branch point.
type SelectCategory struct{ Key string }

// SelectOption is an answer button press for the current question.
type SelectOption struct{ Label string }

// Navigate moves the question cursor by Delta, clamped to the list bounds.
type Navigate struct{ Delta int }

// Submit is an explicit request to finish and persist the record.
type Submit struct{}

// Cancel discards the session without persisting anything.
type Cancel struct{}

// Unrecognized wraps a callback token no other variant matched.
type Unrecognized struct{ Token string }

func (Begin) isEvent()          {}
func (Text) isEvent()           {}
func (SelectCategory) isEvent() {}
func (SelectOption) isEvent()   {}
func (Navigate) isEvent()       {}
func (Submit) isEvent()         {}
func (Cancel) isEvent()         {}
func (Unrecognized) isEvent()   {}

// ParseEvent decodes a callback key and payload into an Event.
// Keys arrive either split (key "type", payload "hero") or fused into the
// key itself ("type_hero"), depending on how the button was built.
func ParseEvent(key, payload string) Event {
	key = strings.TrimSpace(key)
	payload = strings.TrimSpace(payload)

	if payload == "" {
		for _, prefix := range []string{"type_", "num_", "ans_"} {
			if rest, ok := strings.CutPrefix(key, prefix); ok && rest != "" {
				key, payload = strings.TrimSuffix(prefix, "_"), rest
				break
			}
		}
	}

	switch key {
	case "start":
		return Begin{}
	case "type", "num":
		if payload == "" {
			return Unrecognized{Token: key}
		}
		return SelectCategory{Key: payload}
	case "ans":
		if payload == "" {
			return Unrecognized{Token: key}
		}
		return SelectOption{Label: payload}
	case "prev", "prev_q":
		return Navigate{Delta: -1}
	case "next", "next_q":
		return Navigate{Delta: 1}
	case "submit", "final_submit":
		return Submit{}
	case "cancel":
		return Cancel{}
	}

	token := key
	if payload != "" {
		token = key + "|" + payload
	}
	return Unrecognized{Token: token}
}
