package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	fp := filepath.Join(dir, name)
	if err := os.WriteFile(fp, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return fp
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yml", "shell:\n  prompt: 'pg> '\n")
	complete := writeFile(t, dir, "complete.sql", "select ';' from t;\n-- done\nselect 2;\n")
	block := writeFile(t, dir, "block.sql", "create function f() returns int as $$ select 1; $$ language sql;\n")
	incomplete := writeFile(t, dir, "incomplete.sql", "select *\n  from t\n")
	literal := writeFile(t, dir, "literal.sql", "select 'abc;\n")

	cases := []struct {
		name     string
		files    []string
		want     []string
		wantCode int
	}{
		{
			name:  "complete files",
			files: []string{complete, block},
			want: []string{
				complete + ": Ok, 2 statements",
				block + ": Ok, 1 statements",
			},
		},
		{
			name:  "incomplete files",
			files: []string{complete, incomplete, literal},
			want: []string{
				complete + ": Ok, 2 statements",
				incomplete + ": SemicolonRequired (Missing semicolon at the end)",
				literal + ": Quoted (Missing closing quote)",
			},
			wantCode: 1,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			out := new(bytes.Buffer)
			app := newApp()
			app.Writer = out
			app.ErrWriter = new(bytes.Buffer)
			args := append([]string{name, "--config", cfgPath, "--dialect", "PostgreSQL", "check"}, tt.files...)
			err := app.Run(args)

			if tt.wantCode == 0 && err != nil {
				t.Fatalf("unexpected error, %s", err)
			}
			if tt.wantCode != 0 {
				var exitErr cli.ExitCoder
				if !errors.As(err, &exitErr) {
					t.Fatalf("want exit error, got %v", err)
				}
				if exitErr.ExitCode() != tt.wantCode {
					t.Errorf("want exit code %d, got %d", tt.wantCode, exitErr.ExitCode())
				}
			}
			got := out.String()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output does not contain %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestCheck_NoFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yml", "shell:\n  prompt: 'pg> '\n")

	app := newApp()
	app.Writer = new(bytes.Buffer)
	app.ErrWriter = new(bytes.Buffer)
	err := app.Run([]string{name, "--config", cfgPath, "check"})
	var exitErr cli.ExitCoder
	if !errors.As(err, &exitErr) {
		t.Fatalf("want exit error, got %v", err)
	}
	if exitErr.ExitCode() != 2 {
		t.Errorf("want exit code 2, got %d", exitErr.ExitCode())
	}
}

func TestBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yml", "connections:\n  - alias: nodriver\n    dataSourceName: x\n")

	app := newApp()
	app.Writer = new(bytes.Buffer)
	app.ErrWriter = new(bytes.Buffer)
	err := app.Run([]string{name, "--config", cfgPath, "check", cfgPath})
	if err == nil {
		t.Fatal("want error, got nil")
	}
	if !strings.HasPrefix(err.Error(), "cannot read specified config, failed validation") {
		t.Errorf("unexpected error, %s", err)
	}
}

func TestPing(t *testing.T) {
	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "ping.db")
	cfgPath := writeFile(t, dir, "config.yml", "connections:\n  - alias: local\n    driver: sqlite3\n    dataSourceName: '"+dsn+"'\n")

	out := new(bytes.Buffer)
	app := newApp()
	app.Writer = out
	app.ErrWriter = new(bytes.Buffer)
	if err := app.Run([]string{name, "--config", cfgPath, "ping"}); err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	if got, want := strings.TrimSpace(out.String()), "Success connection local (dialect SQLite)"; got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}
