package shell

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sqls-server/sqlsh/dialect"
	"github.com/sqls-server/sqlsh/internal/completer"
	"github.com/sqls-server/sqlsh/internal/config"
	"github.com/sqls-server/sqlsh/internal/database"
	"github.com/sqls-server/sqlsh/parser"
)

// Session is the connection state of a shell: the open connection, its
// dialect, the schema cache and the scanner and completer built for
// that dialect.
type Session struct {
	mu sync.Mutex

	conn    *database.DBConnection
	repo    database.DBRepository
	dbCfg   *database.DBConfig
	dialect *dialect.Dialect
	forced  string
	opts    []parser.Option

	cache     *database.SchemaCache
	scanner   *parser.Scanner
	completer *completer.Completer
}

func NewSession(shellCfg config.ShellConfig) *Session {
	var opts []parser.Option
	if shellCfg.CommentMarkers != nil {
		opts = append(opts, parser.WithShellComments(shellCfg.CommentMarkers...))
	}
	if !shellCfg.Strict() {
		opts = append(opts, parser.WithoutTerminator())
	}
	s := &Session{
		forced: shellCfg.Dialect,
		opts:   opts,
		cache:  database.NewSchemaCache(nil),
	}
	s.dialect = dialect.Default()
	if s.forced != "" {
		s.dialect = dialect.Lookup(s.forced)
	}
	s.rebuild()
	return s
}

func (s *Session) rebuild() {
	s.scanner = parser.NewScanner(s.dialect, s.opts...)
	s.completer = completer.NewCompleter(s.dialect, s.cache, s.opts...)
}

// Connect opens dbCfg and makes it the current connection. The
// previous connection is closed only once the new one is usable.
func (s *Session) Connect(ctx context.Context, dbCfg *database.DBConfig) error {
	conn, err := database.Open(dbCfg)
	if err != nil {
		return fmt.Errorf("cannot connect to %s, %w", dbCfg.Name(), err)
	}
	repo, err := database.CreateRepository(conn.Driver, conn.Conn)
	if err != nil {
		conn.Close()
		return err
	}
	s.Attach(ctx, dbCfg, conn, repo)
	log.Printf("connected to %s (%s)", dbCfg.Name(), repo.ProductName())
	return nil
}

// Attach installs an already open connection.
func (s *Session) Attach(ctx context.Context, dbCfg *database.DBConfig, conn *database.DBConnection, repo database.DBRepository) {
	d := s.resolveDialect(ctx, repo)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Printf("cannot close previous connection, %s", err)
		}
	}
	s.conn = conn
	s.repo = repo
	s.dbCfg = dbCfg
	s.dialect = d
	s.cache.Reset(repo)
	s.rebuild()
}

func (s *Session) resolveDialect(ctx context.Context, repo database.DBRepository) *dialect.Dialect {
	if s.forced != "" {
		return dialect.Lookup(s.forced)
	}
	meta, err := repo.Metadata(ctx)
	if err != nil {
		log.Printf("dialect: cannot read metadata of %s, %s", repo.ProductName(), err)
		return dialect.ForDriver(repo.Driver())
	}
	d, err := dialect.FromMetadata(*meta)
	if err != nil {
		log.Printf("dialect: %s; using %s", err, d.Name)
	}
	return d
}

// SetDialect forces the built-in dialect matching name.
func (s *Session) SetDialect(name string) *dialect.Dialect {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced = name
	s.dialect = dialect.Lookup(name)
	s.rebuild()
	return s.dialect
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Reset(nil)
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn, s.repo, s.dbCfg = nil, nil, nil
	return err
}

func (s *Session) Repository() (database.DBRepository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo == nil {
		return nil, database.ErrNotConnected
	}
	return s.repo, nil
}

// Name is the current connection name, empty when disconnected.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dbCfg == nil {
		return ""
	}
	return s.dbCfg.Name()
}

func (s *Session) Dialect() *dialect.Dialect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialect
}

func (s *Session) Scanner() *parser.Scanner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanner
}

func (s *Session) Completer() *completer.Completer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completer
}

func (s *Session) Cache() *database.SchemaCache {
	return s.cache
}

func isNotConnected(err error) bool {
	return errors.Is(err, database.ErrNotConnected)
}
