package parser

import "fmt"

// ParseState is the completeness verdict of one scan.
type ParseState int

const (
	Ok ParseState = iota
	LineContinues
	NewLine
	Quoted
	MultilineComment
	RoundBracketBalanceFailed
	SquareBracketBalanceFailed
	SemicolonRequired
)

var stateNames = map[ParseState]string{
	Ok:                         "Ok",
	LineContinues:              "LineContinues",
	NewLine:                    "NewLine",
	Quoted:                     "Quoted",
	MultilineComment:           "MultilineComment",
	RoundBracketBalanceFailed:  "RoundBracketBalanceFailed",
	SquareBracketBalanceFailed: "SquareBracketBalanceFailed",
	SemicolonRequired:          "SemicolonRequired",
}

var stateMessages = map[ParseState]string{
	Ok:                         "ok",
	LineContinues:              "Line continues",
	NewLine:                    "Escaped new line",
	Quoted:                     "Missing closing quote",
	MultilineComment:           "Missing end of comment",
	RoundBracketBalanceFailed:  "Round brackets balance fails",
	SquareBracketBalanceFailed: "Square brackets balance fails",
	SemicolonRequired:          "Missing semicolon at the end",
}

func (s ParseState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Message is the human readable reason for a continuation.
func (s ParseState) Message() string {
	return stateMessages[s]
}

// Complete reports whether the buffer can be submitted.
func (s ParseState) Complete() bool {
	return s == Ok
}

func (s ParseState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ParseState) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown parse state %q", text)
}

// Mode selects which checks a scan performs.
type Mode int

const (
	// Interactive runs every check, including the terminator check.
	Interactive Mode = iota
	// CompletionProbe skips the terminator check; it is used to find the
	// word under the cursor.
	CompletionProbe
)

func quoteHint(q rune) string {
	switch q {
	case '\'':
		return "quote"
	case '"':
		return "dquote"
	case '`':
		return "`"
	default:
		return string(q)
	}
}
