package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/sqls-server/sqlsh/dialect"
	"github.com/sqls-server/sqlsh/internal/completer"
	"github.com/sqls-server/sqlsh/internal/config"
	"github.com/sqls-server/sqlsh/internal/shell"
	"github.com/sqls-server/sqlsh/parser"
)

// Server exposes the scanner and the completion engine of one session
// to editors over JSON-RPC.
type Server struct {
	cfg     *config.Config
	session *shell.Session
}

func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{
		cfg:     cfg,
		session: shell.NewSession(cfg.Shell),
	}
}

func (s *Server) Session() *shell.Session {
	return s.session
}

func panicf(r interface{}, format string, v ...interface{}) error {
	if r != nil {
		// Same as net/http
		const size = 64 << 10
		buf := make([]byte, size)
		buf = buf[:runtime.Stack(buf, false)]
		id := fmt.Sprintf(format, v...)
		log.Printf("panic serving %s: %v\n%s", id, r, string(buf))
		return fmt.Errorf("unexpected panic: %v", r)
	}
	return nil
}

func (s *Server) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result interface{}, err error) {
	// Prevent any uncaught panics from taking the entire server down.
	defer func() {
		if perr := panicf(recover(), "%v", req.Method); perr != nil {
			err = perr
		}
	}()

	switch req.Method {
	case MethodInitialize:
		return s.handleInitialize(ctx, conn, req)
	case "initialized", "exit":
		return
	case MethodShutdown:
		return s.handleShutdown(ctx, conn, req)
	case MethodScan:
		return s.handleScan(ctx, conn, req)
	case MethodSplit:
		return s.handleSplit(ctx, conn, req)
	case MethodComplete:
		return s.handleComplete(ctx, conn, req)
	case MethodConnect:
		return s.handleConnect(ctx, conn, req)
	case MethodDialect:
		return s.handleDialect(ctx, conn, req)
	case MethodRefresh:
		s.session.Cache().Clear()
		return nil, nil
	}

	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not supported: %s", req.Method)}
}

func unmarshalParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func (s *Server) handleInitialize(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result interface{}, err error) {
	var params InitializeParams
	if req.Params != nil {
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
	}
	if params.Connection != "" {
		if err := s.connect(ctx, params.Connection); err != nil {
			return nil, err
		}
	}
	if params.Dialect != "" {
		s.session.SetDialect(params.Dialect)
	}
	return InitializeResult{
		Dialect:    s.session.Dialect().Name,
		Dialects:   dialect.Names(),
		Connection: s.session.Name(),
		Methods: []string{
			MethodScan,
			MethodSplit,
			MethodComplete,
			MethodConnect,
			MethodDialect,
			MethodRefresh,
		},
	}, nil
}

func (s *Server) handleShutdown(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result interface{}, err error) {
	if err := s.session.Close(); err != nil {
		log.Printf("close session, %s", err)
	}
	return nil, nil
}

func (s *Server) handleScan(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result interface{}, err error) {
	var params ScanParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	mode, err := parseMode(params.Mode)
	if err != nil {
		return nil, err
	}
	cursor := cursorOf(params.Text, params.Cursor)
	outcome := s.session.Scanner().Scan(params.Text, cursor, mode)
	res := ScanResult{
		State:      outcome.State,
		Hint:       outcome.Hint,
		Message:    outcome.Message(),
		Words:      outcome.Words,
		WordIndex:  outcome.WordIndex,
		WordCursor: outcome.WordCursor,
		WordStart:  outcome.RawWordStart,
		WordLength: outcome.RawWordLen,
	}
	if res.Words == nil {
		res.Words = []string{}
	}
	if outcome.OpeningQuote != 0 {
		res.OpeningQuote = string(outcome.OpeningQuote)
	}
	return res, nil
}

func (s *Server) handleSplit(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result interface{}, err error) {
	var params SplitParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	stmts := s.session.Scanner().Split(params.Text)
	if stmts == nil {
		stmts = []string{}
	}
	return stmts, nil
}

func (s *Server) handleComplete(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result interface{}, err error) {
	var params CompleteParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	cursor := cursorOf(params.Text, params.Cursor)
	comp := s.session.Completer()
	start, candidates := comp.CompleteContext(ctx, params.Text, cursor)
	if params.Prefix {
		typed := string([]rune(params.Text)[start:cursor])
		candidates = completer.FilterFolded(comp.Dialect(), candidates, typed)
	}
	items := make([]CompletionItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, CompletionItem{
			Label:    c.Display,
			Value:    c.Value,
			Kind:     c.Category.String(),
			Detail:   c.Description,
			Terminal: c.Terminal,
		})
	}
	return CompleteResult{Start: start, Items: items}, nil
}

func (s *Server) handleConnect(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result interface{}, err error) {
	var params ConnectParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	if err := s.connect(ctx, params.Alias); err != nil {
		return nil, err
	}
	return dialectResult(s.session.Dialect()), nil
}

func (s *Server) connect(ctx context.Context, alias string) error {
	dbCfg, ok := s.cfg.Connection(alias)
	if !ok {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: fmt.Sprintf("connection %s not found", alias)}
	}
	return s.session.Connect(ctx, dbCfg)
}

func (s *Server) handleDialect(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (result interface{}, err error) {
	var params DialectParams
	if req.Params != nil {
		if err := unmarshalParams(req, &params); err != nil {
			return nil, err
		}
	}
	if params.Name != "" {
		s.session.SetDialect(params.Name)
	}
	return dialectResult(s.session.Dialect()), nil
}

func dialectResult(d *dialect.Dialect) DialectResult {
	return DialectResult{
		Name:       d.Name,
		OpenQuote:  string(d.OpenQuote),
		CloseQuote: string(d.CloseQuote),
		CaseFold:   d.CaseFold.String(),
	}
}

func parseMode(mode string) (parser.Mode, error) {
	switch mode {
	case "", "interactive":
		return parser.Interactive, nil
	case "completion":
		return parser.CompletionProbe, nil
	}
	return 0, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: fmt.Sprintf("unknown scan mode %q", mode)}
}

// cursorOf defaults the cursor to the end of text and clamps it.
func cursorOf(text string, cursor *int) int {
	n := len([]rune(text))
	if cursor == nil || *cursor > n {
		return n
	}
	if *cursor < 0 {
		return 0
	}
	return *cursor
}
