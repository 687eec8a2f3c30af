package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/sqls-server/sqlsh/internal/config"
)

type Shell struct {
	cfg     *config.Config
	session *Session
	buf     lineBuffer
	out     io.Writer
	errOut  io.Writer
}

func New(cfg *config.Config, out, errOut io.Writer) *Shell {
	return &Shell{
		cfg:     cfg,
		session: NewSession(cfg.Shell),
		out:     out,
		errOut:  errOut,
	}
}

func (s *Shell) Session() *Session {
	return s.session
}

func (s *Shell) Close() error {
	return s.session.Close()
}

// Start reads from stdin: interactively on a terminal, as a batch
// otherwise.
func (s *Shell) Start(ctx context.Context) error {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return s.Run(ctx)
	}
	return s.RunBatch(ctx, os.Stdin)
}

func (s *Shell) prompt() string {
	if pending := s.buf.Pending(); pending != nil {
		return s.cfg.Shell.ContinuationPromptFor(pending.Hint)
	}
	return s.cfg.Shell.Prompt
}

// Run is the interactive read loop.
func (s *Shell) Run(ctx context.Context) error {
	historyFile, err := config.ExpandPath(s.cfg.Shell.HistoryFile)
	if err != nil {
		return err
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.cfg.Shell.Prompt,
		HistoryFile:     historyFile,
		AutoComplete:    &autoCompleter{shell: s, ctx: ctx},
		InterruptPrompt: "^C",
		EOFPrompt:       "!quit",
	})
	if err != nil {
		return fmt.Errorf("cannot initialize line editor, %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(s.out, "sqlsh: connected to %s, type !help for commands\n", s.connectionLabel())
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.buf.Reset()
			rl.SetPrompt(s.prompt())
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.accept(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			s.printError(err)
		}
		rl.SetPrompt(s.prompt())
	}
}

// RunBatch reads statements from r until EOF, stopping at the first
// failure. Input that ends inside a statement is an error.
func (s *Shell) RunBatch(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := s.accept(ctx, scanner.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("cannot read input, %w", err)
	}
	if pending := s.buf.Pending(); pending != nil {
		return &incompleteError{outcome: pending}
	}
	return nil
}

// accept feeds one input line and runs the buffer once it is complete.
func (s *Shell) accept(ctx context.Context, line string) error {
	text, ready, _ := s.buf.Feed(s.session.Scanner(), line)
	if !ready {
		return nil
	}
	return s.submit(ctx, text)
}

func (s *Shell) printError(err error) {
	fmt.Fprintf(s.errOut, "Error: %s\n", err)
	if isNotConnected(err) {
		fmt.Fprintln(s.errOut, "Use !connect <alias> to open a connection")
	}
	log.Printf("shell: %s", err)
}

func (s *Shell) connectionLabel() string {
	if name := s.session.Name(); name != "" {
		return name
	}
	return "nothing"
}

// pendingText is the incomplete statement typed so far, each line
// followed by a newline.
func (s *Shell) pendingText() string {
	if s.buf.Empty() {
		return ""
	}
	return s.buf.String() + "\n"
}

func isCommandLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "!")
}
