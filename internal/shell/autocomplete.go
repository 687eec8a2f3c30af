package shell

import (
	"context"
	"strings"

	"github.com/sqls-server/sqlsh/internal/completer"
)

// autoCompleter adapts the completion engine to readline. readline
// inserts suffixes of the word before the cursor, so candidates that do
// not extend the typed text are dropped.
type autoCompleter struct {
	shell *Shell
	ctx   context.Context
}

func (a *autoCompleter) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	if a.shell.buf.Empty() && isCommandLine(string(line[:pos])) && !strings.ContainsAny(string(line[:pos]), " \t") {
		return commandSuffixes(strings.TrimLeft(string(line[:pos]), " \t"))
	}

	pending := a.shell.pendingText()
	offset := len([]rune(pending))
	buffer := pending + string(line)
	comp := a.shell.session.Completer()
	start, candidates := comp.CompleteContext(a.ctx, buffer, offset+pos)
	if start < offset {
		start = offset
	}
	typed := string([]rune(buffer)[start : offset+pos])
	// the typed case is kept; the database folds unquoted names the same way
	return suffixes(completer.FilterFolded(comp.Dialect(), candidates, typed), typed), len([]rune(typed))
}

func suffixes(candidates []completer.Candidate, typed string) [][]rune {
	n := len([]rune(typed))
	res := make([][]rune, 0, len(candidates))
	for _, c := range candidates {
		suffix := []rune(c.Value)[n:]
		if c.Terminal {
			suffix = append(suffix, ' ')
		}
		res = append(res, suffix)
	}
	return res
}

func commandSuffixes(typed string) ([][]rune, int) {
	res := [][]rune{}
	for _, name := range commandNames() {
		if strings.HasPrefix(name, typed) {
			res = append(res, []rune(name[len(typed):]+" "))
		}
	}
	return res, len([]rune(typed))
}
