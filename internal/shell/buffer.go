package shell

import (
	"strings"

	"github.com/sqls-server/sqlsh/parser"
)

// lineBuffer accumulates input lines until the scanner reports a
// complete statement.
type lineBuffer struct {
	lines []string
	last  *parser.ParseOutcome
}

// Feed appends line and rescans the whole buffer. When the buffer is
// complete it is returned and the buffer starts over.
func (b *lineBuffer) Feed(scanner *parser.Scanner, line string) (string, bool, *parser.ParseOutcome) {
	if len(b.lines) == 0 && strings.TrimSpace(line) == "" {
		return "", false, nil
	}
	b.lines = append(b.lines, line)
	text := b.String()
	outcome := scanner.Scan(text, len([]rune(text)), parser.Interactive)
	if outcome.State == parser.NewLine {
		// the escaped newline joins the next line
		b.lines[len(b.lines)-1] = strings.TrimSuffix(line, `\`)
	}
	if outcome.State.Complete() {
		b.Reset()
		return text, true, outcome
	}
	b.last = outcome
	return "", false, outcome
}

func (b *lineBuffer) String() string {
	return strings.Join(b.lines, "\n")
}

func (b *lineBuffer) Empty() bool {
	return len(b.lines) == 0
}

// Pending is the outcome of the last incomplete scan, nil when empty.
func (b *lineBuffer) Pending() *parser.ParseOutcome {
	if b.Empty() {
		return nil
	}
	return b.last
}

func (b *lineBuffer) Reset() {
	b.lines = nil
	b.last = nil
}
