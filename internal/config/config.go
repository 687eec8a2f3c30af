package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sqls-server/sqlsh/internal/database"
	"gopkg.in/yaml.v2"
)

const AppName = "sqlsh"

var (
	ErrNotFoundConfig = errors.New("no config file found")

	YamlConfigPath = filepath.Join(getXDGConfigPath(runtime.GOOS), "config.yml")
)

const (
	DefaultPrompt             = "sqlsh> "
	DefaultContinuationPrompt = "{hint}> "
	DefaultHistoryFile        = "~/.sqlsh_history"
)

var DefaultCommentMarkers = []string{"#", "--"}

type Config struct {
	Connections []*database.DBConfig `json:"connections" yaml:"connections"`
	Shell       ShellConfig          `json:"shell" yaml:"shell"`
}

type ShellConfig struct {
	Prompt string `json:"prompt" yaml:"prompt"`
	// ContinuationPrompt is shown while a statement is incomplete;
	// {hint} is replaced with what the statement is waiting for.
	ContinuationPrompt string   `json:"continuationPrompt" yaml:"continuationPrompt"`
	HistoryFile        string   `json:"historyFile" yaml:"historyFile"`
	CommentMarkers     []string `json:"commentMarkers" yaml:"commentMarkers"`
	// Dialect forces a built-in dialect by product name.
	Dialect           string `json:"dialect" yaml:"dialect"`
	StrictTermination *bool  `json:"strictTermination" yaml:"strictTermination"`
}

// Strict reports whether statements must end with a semicolon. It
// defaults to true.
func (s *ShellConfig) Strict() bool {
	return s.StrictTermination == nil || *s.StrictTermination
}

// ContinuationPromptFor renders the continuation prompt for hint.
func (s *ShellConfig) ContinuationPromptFor(hint string) string {
	return strings.ReplaceAll(s.ContinuationPrompt, "{hint}", hint)
}

func newConfig() *Config {
	return &Config{}
}

// GetConfig loads and validates the config file at fp.
func GetConfig(fp string) (*Config, error) {
	cfg := newConfig()
	expandPath, err := ExpandPath(fp)
	if err != nil {
		return nil, err
	}
	if err := cfg.Load(expandPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetDefaultConfig loads the config file from the user config
// directory. ErrNotFoundConfig is returned when there is none.
func GetDefaultConfig() (*Config, error) {
	if !IsFileExist(YamlConfigPath) {
		return nil, ErrNotFoundConfig
	}
	return GetConfig(YamlConfigPath)
}

// Default is the configuration used when no file exists.
func Default() *Config {
	cfg := newConfig()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) Load(fp string) error {
	if !IsFileExist(fp) {
		return ErrNotFoundConfig
	}

	b, err := os.ReadFile(fp)
	if err != nil {
		return fmt.Errorf("cannot read config, %w", err)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed unmarshal yaml, %w", err)
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("failed validation, %w", err)
	}
	c.applyDefaults()
	return nil
}

func (c *Config) Validate() error {
	for _, con := range c.Connections {
		if err := con.Validate(); err != nil {
			return err
		}
	}
	for _, m := range c.Shell.CommentMarkers {
		if strings.TrimSpace(m) == "" {
			return errors.New("invalid: shell.commentMarkers")
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Shell.Prompt == "" {
		c.Shell.Prompt = DefaultPrompt
	}
	if c.Shell.ContinuationPrompt == "" {
		c.Shell.ContinuationPrompt = DefaultContinuationPrompt
	}
	if c.Shell.HistoryFile == "" {
		c.Shell.HistoryFile = DefaultHistoryFile
	}
	if c.Shell.CommentMarkers == nil {
		c.Shell.CommentMarkers = append([]string(nil), DefaultCommentMarkers...)
	}
}

// Connection returns the connection named alias. An empty alias selects
// the first connection.
func (c *Config) Connection(alias string) (*database.DBConfig, bool) {
	for _, con := range c.Connections {
		if alias == "" || con.Name() == alias {
			return con, true
		}
	}
	return nil, false
}

// CreateSample writes a commented starting point to fp unless a file
// already exists there.
func CreateSample(fp string) error {
	if IsFileExist(fp) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(fp), 0700); err != nil {
		return fmt.Errorf("cannot create directory, %w", err)
	}
	if err := os.WriteFile(fp, []byte(sampleConfig), 0600); err != nil {
		return fmt.Errorf("cannot create config, %w", err)
	}
	return nil
}

const sampleConfig = `# sqlsh configuration
connections:
  - alias: local_sqlite
    driver: sqlite3
    dataSourceName: "file:sample.db"
  # - alias: local_pg
  #   driver: postgresql
  #   proto: tcp
  #   user: postgres
  #   passwd: postgres
  #   host: 127.0.0.1
  #   port: 5432
  #   dbName: postgres
  #   params:
  #     sslmode: disable
shell:
  prompt: "sqlsh> "
  continuationPrompt: "{hint}> "
  historyFile: ~/.sqlsh_history
  commentMarkers: ["#", "--"]
  strictTermination: true
`

func IsFileExist(fPath string) bool {
	_, err := os.Stat(fPath)
	return err == nil || !os.IsNotExist(err)
}

// ExpandPath replaces a leading ~ with the home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot get home directory, %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func getXDGConfigPath(goos string) string {
	var dir string
	switch {
	case goos == "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "Application Data")
		}
	case os.Getenv("XDG_CONFIG_HOME") != "":
		dir = os.Getenv("XDG_CONFIG_HOME")
	default:
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, AppName)
}
