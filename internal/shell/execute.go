package shell

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/sqls-server/sqlsh/internal/database"
	"github.com/sqls-server/sqlsh/parser"
)

// passThrough are the commands whose argument is a statement.
var passThrough = []string{"!sql", "!all"}

// submit runs a complete buffer: either a shell command or one or more
// statements.
func (s *Shell) submit(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "!") {
		name, rest := splitCommand(trimmed)
		if !isPassThrough(name) {
			return s.runCommand(ctx, name, rest)
		}
		text = rest
	}
	return s.executeStatements(ctx, text)
}

func isPassThrough(name string) bool {
	for _, p := range passThrough {
		if strings.EqualFold(name, p) {
			return true
		}
	}
	return false
}

func (s *Shell) executeStatements(ctx context.Context, text string) error {
	scanner := s.session.Scanner()
	stmts := scanner.Split(text)
	if len(stmts) == 0 {
		return nil
	}
	repo, err := s.session.Repository()
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := execute(ctx, s.out, scanner, repo, stmt); err != nil {
			return err
		}
	}
	return nil
}

func execute(ctx context.Context, w io.Writer, scanner *parser.Scanner, repo database.DBRepository, stmt string) error {
	var prefix string
	if words := scanner.Scan(stmt, 0, parser.CompletionProbe).Words; len(words) > 0 {
		prefix = words[0]
	}
	keyword, isQuery := database.QueryExecType(prefix, stmt)
	log.Printf("execute %s statement", keyword)
	if isQuery {
		rows, err := repo.Query(ctx, stmt)
		if err != nil {
			return err
		}
		rs, err := database.ReadResult(rows)
		if err != nil {
			return err
		}
		return renderResultSet(w, rs)
	}
	result, err := repo.Exec(ctx, stmt)
	if err != nil {
		return err
	}
	return renderExecResult(w, result)
}

// splitCommand separates "!name rest" into its parts.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	i := strings.IndexFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n'
	})
	if i < 0 {
		return strings.TrimSuffix(line, ";"), ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

// incompleteError is returned when input ends inside a statement.
type incompleteError struct {
	outcome *parser.ParseOutcome
}

func (e *incompleteError) Error() string {
	return fmt.Sprintf("incomplete statement at end of input: %s", e.outcome.Message())
}
