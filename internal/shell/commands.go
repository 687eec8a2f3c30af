package shell

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sqls-server/sqlsh/dialect"
)

// errQuit ends the read loop.
var errQuit = errors.New("quit")

type command struct {
	name  string
	usage string
	help  string
	run   func(s *Shell, ctx context.Context, args string) error
}

var commands []*command

func init() {
	commands = []*command{
		{name: "!quit", help: "Exit the shell", run: (*Shell).cmdQuit},
		{name: "!exit", help: "Exit the shell", run: (*Shell).cmdQuit},
		{name: "!connect", usage: "<alias>", help: "Connect to a configured connection", run: (*Shell).cmdConnect},
		{name: "!refresh", help: "Reload schema metadata for completion", run: (*Shell).cmdRefresh},
		{name: "!dialect", usage: "[name]", help: "Show or force the SQL dialect", run: (*Shell).cmdDialect},
		{name: "!tables", usage: "[schema]", help: "List tables", run: (*Shell).cmdTables},
		{name: "!describe", usage: "<[schema.]table>", help: "Describe the columns of a table", run: (*Shell).cmdDescribe},
		{name: "!help", help: "Show this help message", run: (*Shell).cmdHelp},
		{name: "!sql", usage: "<statement>", help: "Execute a statement"},
		{name: "!all", usage: "<statement>", help: "Execute a statement"},
	}
}

func lookupCommand(name string) (*command, bool) {
	for _, c := range commands {
		if strings.EqualFold(c.name, name) {
			return c, true
		}
	}
	return nil, false
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.name)
	}
	return names
}

func (s *Shell) runCommand(ctx context.Context, name, args string) error {
	c, ok := lookupCommand(name)
	if !ok || c.run == nil {
		return fmt.Errorf("unknown command %s, type !help for commands", name)
	}
	return c.run(s, ctx, strings.TrimSuffix(args, ";"))
}

func (s *Shell) cmdQuit(ctx context.Context, args string) error {
	return errQuit
}

func (s *Shell) cmdConnect(ctx context.Context, args string) error {
	alias := strings.TrimSpace(args)
	dbCfg, ok := s.cfg.Connection(alias)
	if !ok {
		if alias == "" {
			return errors.New("no connection configured")
		}
		return fmt.Errorf("connection %s not found", alias)
	}
	if err := s.session.Connect(ctx, dbCfg); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Connected to %s (dialect %s)\n", dbCfg.Name(), s.session.Dialect().Name)
	return nil
}

func (s *Shell) cmdRefresh(ctx context.Context, args string) error {
	s.session.Cache().Clear()
	fmt.Fprintln(s.out, "Schema metadata cleared")
	return nil
}

func (s *Shell) cmdDialect(ctx context.Context, args string) error {
	name := strings.TrimSpace(args)
	if name == "" {
		d := s.session.Dialect()
		fmt.Fprintf(s.out, "%s (quote %c%c, case %s)\n", d.Name, d.OpenQuote, d.CloseQuote, d.CaseFold)
		fmt.Fprintf(s.out, "available: %s\n", strings.Join(dialect.Names(), ", "))
		return nil
	}
	d := s.session.SetDialect(name)
	fmt.Fprintf(s.out, "Dialect set to %s\n", d.Name)
	return nil
}

func (s *Shell) cmdTables(ctx context.Context, args string) error {
	if _, err := s.session.Repository(); err != nil {
		return err
	}
	snap := s.session.Cache().Snapshot(ctx)
	schemas := snap.Schemas()
	if schema := strings.TrimSpace(args); schema != "" {
		if _, ok := snap.Tables(schema); !ok {
			return fmt.Errorf("schema %s not found", schema)
		}
		schemas = []string{schema}
	}
	rows := [][]string{}
	for _, schema := range schemas {
		tables, _ := snap.Tables(schema)
		for _, table := range tables {
			rows = append(rows, []string{schema, table})
		}
	}
	if err := renderTable(s.out, []string{"Schema", "Table"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%d rows in set\n\n", len(rows))
	return nil
}

func (s *Shell) cmdDescribe(ctx context.Context, args string) error {
	target := strings.TrimSpace(args)
	if target == "" {
		return errors.New("usage: !describe <[schema.]table>")
	}
	repo, err := s.session.Repository()
	if err != nil {
		return err
	}
	d := s.session.Dialect()
	var schema, table string
	if i := strings.LastIndex(target, "."); i >= 0 {
		schema, table = unquoteName(d, target[:i]), unquoteName(d, target[i+1:])
	} else {
		table = unquoteName(d, target)
		if schema, err = repo.CurrentSchema(ctx); err != nil {
			return err
		}
	}
	descs, err := repo.DescribeTable(ctx, schema, table)
	if err != nil {
		return err
	}
	if len(descs) == 0 {
		return fmt.Errorf("table %s.%s not found", schema, table)
	}
	return renderColumnDescs(s.out, descs)
}

func unquoteName(d *dialect.Dialect, raw string) string {
	name, quoted := d.Unquote(raw)
	if quoted {
		return name
	}
	return d.Fold(name)
}

func (s *Shell) cmdHelp(ctx context.Context, args string) error {
	sorted := append([]*command(nil), commands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].name < sorted[j].name
	})
	fmt.Fprintln(s.out, "Commands:")
	for _, c := range sorted {
		fmt.Fprintf(s.out, "  %-28s %s\n", strings.TrimSpace(c.name+" "+c.usage), c.help)
	}
	fmt.Fprintln(s.out, "")
	fmt.Fprintln(s.out, "Statements end with a semicolon; press Tab to complete names.")
	return nil
}
