package survey

// Action is an outbound instruction for the transport layer. The engine
// only decides what to say; delivery stays outside.
type Action interface{ isAction() }

// Button is a labeled inline button carrying a callback key and payload.
type Button struct {
	Label string
	Key   string
	Data  string
}

// SendText delivers a text prompt, optionally with inline button rows.
type SendText struct {
	Text    string
	Buttons [][]Button
}

// SendImage delivers a photo with a caption. Decorative only; transports
// without photo support may fall back to the caption as plain text.
type SendImage struct {
	Ref     string
	Caption string
	Buttons [][]Button
}

func (SendText) isAction()  {}
func (SendImage) isAction() {}
