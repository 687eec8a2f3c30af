package rpc

import "github.com/sqls-server/sqlsh/parser"

const (
	MethodInitialize = "initialize"
	MethodShutdown   = "shutdown"
	MethodScan       = "sqlsh/scan"
	MethodSplit      = "sqlsh/split"
	MethodComplete   = "sqlsh/complete"
	MethodConnect    = "sqlsh/connect"
	MethodDialect    = "sqlsh/dialect"
	MethodRefresh    = "sqlsh/refresh"
)

type InitializeParams struct {
	// Connection is the alias to open, empty for none.
	Connection string `json:"connection,omitempty"`
	Dialect    string `json:"dialect,omitempty"`
}

type InitializeResult struct {
	Dialect    string   `json:"dialect"`
	Dialects   []string `json:"dialects"`
	Connection string   `json:"connection,omitempty"`
	Methods    []string `json:"methods"`
}

type ScanParams struct {
	Text   string `json:"text"`
	Cursor *int   `json:"cursor,omitempty"`
	// Mode is "interactive" (default) or "completion".
	Mode string `json:"mode,omitempty"`
}

type ScanResult struct {
	State        parser.ParseState `json:"state"`
	Hint         string            `json:"hint,omitempty"`
	Message      string            `json:"message"`
	Words        []string          `json:"words"`
	WordIndex    int               `json:"wordIndex"`
	WordCursor   int               `json:"wordCursor"`
	WordStart    int               `json:"wordStart"`
	WordLength   int               `json:"wordLength"`
	OpeningQuote string            `json:"openingQuote,omitempty"`
}

type SplitParams struct {
	Text string `json:"text"`
}

type CompleteParams struct {
	Text   string `json:"text"`
	Cursor *int   `json:"cursor,omitempty"`
	// Prefix drops candidates that do not start with the word before the
	// cursor, compared as typed or folded to the dialect's case.
	Prefix bool `json:"prefix,omitempty"`
}

type CompletionItem struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Kind     string `json:"kind"`
	Detail   string `json:"detail,omitempty"`
	Terminal bool   `json:"terminal"`
}

type CompleteResult struct {
	Start int              `json:"start"`
	Items []CompletionItem `json:"items"`
}

type ConnectParams struct {
	Alias string `json:"alias"`
}

type DialectParams struct {
	Name string `json:"name"`
}

type DialectResult struct {
	Name       string `json:"name"`
	OpenQuote  string `json:"openQuote"`
	CloseQuote string `json:"closeQuote"`
	CaseFold   string `json:"caseFold"`
}
