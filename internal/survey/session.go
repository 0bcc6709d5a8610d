package survey

// State identifies the step a conversation is waiting on.
type State string

const (
	// StateAwaitingName waits for the respondent's name as free text.
	StateAwaitingName State = "awaiting_name"
	// StateAwaitingCategory waits for a category button press.
	StateAwaitingCategory State = "awaiting_category"
	// StateAwaitingAnswer waits for an answer to the current question.
	StateAwaitingAnswer State = "awaiting_answer"
)

// Session is the mutable conversation record for one respondent identity.
// Category and Answers stay unset until the category branch fires; Answers
// is then sized to the category's question count and never resized. An
// empty string in Answers marks a slot not answered yet.
type Session struct {
	Identity int64
	State    State

	Name     string
	Category string

	QuestionIndex int
	Answers       []string
}

// Answered counts the filled answer slots.
func (s *Session) Answered() int {
	n := 0
	for _, a := range s.Answers {
		if a != "" {
			n++
		}
	}
	return n
}

// Complete reports whether every answer slot is filled.
func (s *Session) Complete() bool {
	if len(s.Answers) == 0 {
		return false
	}
	return s.Answered() == len(s.Answers)
}

// FirstUnanswered returns the index of the first empty answer slot, or -1
// when the session is complete.
func (s *Session) FirstUnanswered() int {
	for i, a := range s.Answers {
		if a == "" {
			return i
		}
	}
	return -1
}
