package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/urfave/cli/v2"

	"github.com/sqls-server/sqlsh/internal/config"
	"github.com/sqls-server/sqlsh/internal/rpc"
	"github.com/sqls-server/sqlsh/internal/shell"
	"github.com/sqls-server/sqlsh/parser"
)

const name = "sqlsh"

const version = "0.1.0"

var revision = "HEAD"

func main() {
	if err := realMain(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
	os.Exit(0)
}

func newApp() *cli.App {
	return &cli.App{
		Name:    name,
		Version: fmt.Sprintf("Version:%s, Revision:%s\n", version, revision),
		Usage:   "An interactive SQL shell with dialect aware completion.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log",
				Aliases: []string{"l"},
				Usage:   "Log to this file.",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Specifies an alternative per-user configuration file.",
			},
			&cli.StringFlag{
				Name:  "connect",
				Usage: "Connect to this configured connection on start.",
			},
			&cli.StringFlag{
				Name:    "dialect",
				Aliases: []string{"d"},
				Usage:   "Force a built-in SQL dialect.",
			},
			&cli.BoolFlag{
				Name:    "trace",
				Aliases: []string{"t"},
				Usage:   "Print all requests and responses of the serve command.",
			},
		},
		Commands: cli.Commands{
			{
				Name:   "shell",
				Usage:  "start the interactive shell (default)",
				Action: runShell,
			},
			{
				Name:      "check",
				Usage:     "report whether SQL files are complete",
				ArgsUsage: "<file>...",
				Action:    runCheck,
			},
			{
				Name:   "ping",
				Usage:  "test a configured connection",
				Action: testConnection,
			},
			{
				Name:   "serve",
				Usage:  "serve scanning and completion over JSON-RPC on stdio",
				Action: serve,
			},
			{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "edit config",
				Action: func(c *cli.Context) error {
					editorEnv := os.Getenv("EDITOR")
					if editorEnv == "" {
						editorEnv = "vim"
					}
					if err := config.CreateSample(config.YamlConfigPath); err != nil {
						return err
					}
					return openEditor(editorEnv, config.YamlConfigPath)
				},
			},
		},
		Action: runShell,
		// exit codes are handled by main
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func realMain(args []string) error {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "Print version.",
	}
	cli.HelpFlag = &cli.BoolFlag{
		Name:    "help",
		Aliases: []string{"h"},
		Usage:   "Print help.",
	}

	err := newApp().Run(args)
	if err != nil {
		return err
	}

	return nil
}

// setupLog writes the log to fallback and, with --log, also to that file.
func setupLog(c *cli.Context, fallback io.Writer) (io.Writer, func(), error) {
	logfile := c.String("log")
	if logfile == "" {
		log.SetOutput(fallback)
		return fallback, func() {}, nil
	}
	f, err := os.OpenFile(logfile, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0660)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file, %w", err)
	}
	logWriter := io.MultiWriter(fallback, f)
	log.SetOutput(logWriter)
	return logWriter, func() { f.Close() }, nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if configFile := c.String("config"); configFile != "" {
		specific, err := config.GetConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("cannot read specified config, %w", err)
		}
		cfg = specific
	} else {
		defaults, err := config.GetDefaultConfig()
		switch {
		case errors.Is(err, config.ErrNotFoundConfig):
			cfg = config.Default()
		case err != nil:
			return nil, fmt.Errorf("cannot read default config, %w", err)
		default:
			cfg = defaults
		}
	}
	if d := c.String("dialect"); d != "" {
		cfg.Shell.Dialect = d
	}
	return cfg, nil
}

func runShell(c *cli.Context) error {
	_, closeLog, err := setupLog(c, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	sh := shell.New(cfg, c.App.Writer, c.App.ErrWriter)
	defer sh.Close()

	ctx := context.Background()
	if alias := c.String("connect"); alias != "" {
		dbCfg, ok := cfg.Connection(alias)
		if !ok {
			return fmt.Errorf("connection %s not found", alias)
		}
		if err := sh.Session().Connect(ctx, dbCfg); err != nil {
			return err
		}
	}
	return sh.Start(ctx)
}

// runCheck scans each file as a whole buffer and fails when any of them
// ends inside a statement.
func runCheck(c *cli.Context) error {
	_, closeLog, err := setupLog(c, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.NArg() == 0 {
		return cli.Exit("check needs at least one file", 2)
	}
	scanner := shell.NewSession(cfg.Shell).Scanner()

	failed := 0
	for _, fp := range c.Args().Slice() {
		b, err := os.ReadFile(fp)
		if err != nil {
			return fmt.Errorf("cannot read %s, %w", fp, err)
		}
		text := string(b)
		outcome := scanner.Scan(text, len([]rune(text)), parser.Interactive)
		if !outcome.State.Complete() {
			failed++
			fmt.Fprintf(c.App.Writer, "%s: %s (%s)\n", fp, outcome.State, outcome.Message())
			continue
		}
		fmt.Fprintf(c.App.Writer, "%s: %s, %d statements\n", fp, outcome.State, len(scanner.Split(text)))
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files are incomplete", failed, c.NArg()), 1)
	}
	return nil
}

// testConnection opens the --connect connection, or the first one, and
// reports the dialect detected from its metadata.
func testConnection(c *cli.Context) error {
	_, closeLog, err := setupLog(c, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	dbCfg, ok := cfg.Connection(c.String("connect"))
	if !ok {
		return errors.New("no connection configured")
	}
	session := shell.NewSession(cfg.Shell)
	defer session.Close()
	if err := session.Connect(context.Background(), dbCfg); err != nil {
		return fmt.Errorf("failed connection, %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Success connection %s (dialect %s)\n", dbCfg.Name(), session.Dialect().Name)
	return nil
}

func serve(c *cli.Context) error {
	logWriter, closeLog, err := setupLog(c, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	server := rpc.NewServer(cfg)
	defer func() {
		if err := server.Session().Close(); err != nil {
			log.Println(err)
		}
	}()
	if alias := c.String("connect"); alias != "" {
		dbCfg, ok := cfg.Connection(alias)
		if !ok {
			return fmt.Errorf("connection %s not found", alias)
		}
		if err := server.Session().Connect(context.Background(), dbCfg); err != nil {
			return err
		}
	}
	h := jsonrpc2.HandlerWithError(server.Handle)

	var connOpt []jsonrpc2.ConnOpt
	if c.Bool("trace") {
		connOpt = append(connOpt, jsonrpc2.LogMessages(log.New(logWriter, "", 0)))
	}

	log.Println("sqlsh: reading on stdin, writing on stdout")
	<-jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewBufferedStream(stdrwc{}, jsonrpc2.VSCodeObjectCodec{}),
		h,
		connOpt...,
	).DisconnectNotify()
	log.Println("sqlsh: connections closed")

	return nil
}

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

func openEditor(program string, args ...string) error {
	if len(args) > 0 {
		if err := os.MkdirAll(filepath.Dir(args[0]), 0755); err != nil {
			return fmt.Errorf("cannot create config directory, %w", err)
		}
	}
	cmd := exec.CommandContext(context.Background(), program, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
