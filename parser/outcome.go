package parser

// ParseOutcome is the result of one scan. It is built fresh on every call
// and never modified afterwards.
type ParseOutcome struct {
	State ParseState
	// Hint is the continuation prompt text, empty when State is Ok.
	Hint  string
	Words []string
	// WordIndex and WordCursor locate the cursor: the word it is in and
	// the offset inside that word (escape markers excluded).
	WordIndex  int
	WordCursor int
	// RawWordStart and RawWordLen span the cursor word in the input,
	// in runes.
	RawWordStart int
	RawWordLen   int
	// OpeningQuote is the quote left open at the end of the buffer, or 0.
	OpeningQuote rune
}

// Word returns the word under the cursor.
func (o *ParseOutcome) Word() string {
	if o.WordIndex < 0 || o.WordIndex >= len(o.Words) {
		return ""
	}
	return o.Words[o.WordIndex]
}

// Message is the human readable reason for the state.
func (o *ParseOutcome) Message() string {
	return o.State.Message()
}
