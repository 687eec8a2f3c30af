package parser

import (
	"log"
	"unicode"

	"github.com/sqls-server/sqlsh/dialect"
)

const defaultEscape = '\\'

// DefaultShellComments are the comment markers of the shell itself. They
// only introduce a comment at the very start of the first line.
var DefaultShellComments = []string{"#", "--"}

type Option func(*Scanner)

func WithShellComments(markers ...string) Option {
	return func(s *Scanner) {
		s.shellComments = markers
	}
}

// WithEscape sets the escape character; 0 disables escaping.
func WithEscape(r rune) Option {
	return func(s *Scanner) {
		s.escape = r
	}
}

// WithoutTerminator makes a balanced buffer complete without a trailing
// statement terminator.
func WithoutTerminator() Option {
	return func(s *Scanner) {
		s.noTerminator = true
	}
}

// Scanner decides whether an input buffer holds a complete statement.
// It keeps no state between calls and is safe for concurrent use.
type Scanner struct {
	dialect       *dialect.Dialect
	shellComments []string
	escape        rune
	noTerminator  bool
}

func NewScanner(d *dialect.Dialect, opts ...Option) *Scanner {
	if d == nil {
		d = dialect.Default()
	}
	s := &Scanner{
		dialect:       d,
		shellComments: DefaultShellComments,
		escape:        defaultEscape,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scanner) Dialect() *dialect.Dialect {
	return s.dialect
}

// Scan tokenizes line from the start and reports its state. cursor is a
// rune offset into line and is clamped to the line bounds.
func (s *Scanner) Scan(line string, cursor int, mode Mode) (outcome *ParseOutcome) {
	buf := []rune(line)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(buf) {
		cursor = len(buf)
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scanner: internal fault, %v; falling back to plain tokenizer", r)
			outcome = tokenize(buf, cursor)
		}
	}()

	st := s.run(buf, cursor, mode)
	return st.outcome()
}

func (s *Scanner) run(buf []rune, cursor int, mode Mode) *scan {
	st := &scan{
		Scanner:      s,
		buf:          buf,
		cursor:       cursor,
		mode:         mode,
		curStart:     -1,
		quoteStart:   -1,
		lineComment:  -1,
		blockComment: -1,
		lastCode:     -1,
		wordIndex:    -1,
		rawLen:       -1,
	}
	for i, c := range buf {
		if i == cursor {
			st.capture(i)
		}
		switch {
		case st.quoteStart >= 0:
			st.inQuote(i, c)
		case st.blockComment >= 0:
			if i-st.blockComment > 2 && c == '/' && buf[i-1] == '*' {
				st.blockComment = -1
			}
		case st.lineComment >= 0:
			if c == '\n' {
				st.lineComment = -1
			}
		case st.isQuoteStart(i, c):
			st.openQuote(i, c)
		case st.isBlockCommentStart(i):
			st.flush(i, false)
			st.blockComment = i
		case st.isLineCommentStart(i):
			st.flush(i, false)
			st.lineComment = i
		default:
			st.code(i, c)
		}
	}
	st.finish()
	return st
}

type scan struct {
	*Scanner
	buf    []rune
	cursor int
	mode   Mode

	words     []string
	starts    []int
	cur       []rune
	curStart  int
	curQuoted bool
	prev      string

	quoteStart   int
	lineComment  int
	blockComment int

	round, roundOrphan   int
	square, squareOrphan int
	lastCode             int

	wordIndex  int
	wordCursor int
	rawStart   int
	rawLen     int

	block codeBlock
	semis []int
	terms []terminator
}

type terminator struct {
	pos   int
	block bool
}

type codeBlock struct {
	open     string
	depth    int
	prologue bool
	seen     bool
}

func (b *codeBlock) observe(cb *dialect.CodeBlocks, prev, word string) {
	switch {
	case b.depth > 0 && cb.IsEnd(b.open, prev, word):
		b.depth--
	case b.depth > 0 && cb.IsStart(word):
		if b.prologue {
			b.prologue = false
		} else if cb.Nested {
			b.depth++
		}
	case b.depth == 0 && cb.IsStart(word):
		b.open, b.depth, b.seen = word, 1, true
	case b.depth == 0 && cb.IsPrologue != nil && cb.IsPrologue(word):
		b.open, b.depth, b.prologue, b.seen = word, 1, true, true
	}
}

func (st *scan) capture(i int) {
	st.wordIndex = len(st.words)
	st.wordCursor = len(st.cur)
	st.rawStart = i
	if st.curStart >= 0 {
		st.rawStart = st.curStart
	}
	st.rawLen = -1
}

func (st *scan) isQuoteStart(i int, c rune) bool {
	if st.isEscaped(i) {
		return false
	}
	switch c {
	case '\'', '"', '`':
		return true
	}
	return c == st.dialect.OpenQuote && c != '('
}

func (st *scan) openQuote(i int, c rune) {
	st.quoteStart = i
	st.lastCode = i
	if st.curStart < 0 {
		st.curStart = i
	}
	st.curQuoted = true
	if c == st.dialect.OpenQuote {
		st.cur = append(st.cur, c)
	}
}

func (st *scan) inQuote(i int, c rune) {
	open := st.buf[st.quoteStart]
	closing := open
	identifier := open == st.dialect.OpenQuote
	if identifier {
		closing = st.dialect.CloseQuote
	}
	if c == closing && !st.isEscaped(i) {
		st.quoteStart = -1
		st.lastCode = i
		if identifier {
			st.cur = append(st.cur, c)
			return
		}
		st.flush(i+1, true)
		return
	}
	if !st.isEscapeChar(i) {
		st.cur = append(st.cur, c)
	}
}

func (st *scan) code(i int, c rune) {
	st.balance(c)
	if !unicode.IsSpace(c) {
		st.lastCode = i
	}
	if c == ';' && !st.isEscaped(i) {
		st.semis = append(st.semis, i)
	}
	if st.isDelimiter(i, c) {
		st.flush(i, false)
		return
	}
	if st.isEscapeChar(i) {
		return
	}
	if st.curStart < 0 {
		st.curStart = i
	}
	st.cur = append(st.cur, c)
}

func (st *scan) balance(c rune) {
	switch c {
	case '(':
		st.round++
	case ')':
		if st.round > 0 {
			st.round--
		} else {
			st.roundOrphan++
		}
	case '[':
		if st.dialect.OpenQuote != '[' {
			st.square++
		}
	case ']':
		if st.dialect.OpenQuote != '[' {
			if st.square > 0 {
				st.square--
			} else {
				st.squareOrphan++
			}
		}
	}
}

func (st *scan) isDelimiter(i int, c rune) bool {
	if st.isEscaped(i) {
		return false
	}
	switch c {
	case '(', ')', ',':
		return true
	}
	return unicode.IsSpace(c)
}

// flush ends the current word. end is the rune offset just past the
// word; force keeps an empty word, as produced by an empty literal.
func (st *scan) flush(end int, force bool) {
	if len(st.cur) == 0 && !force {
		st.curStart = -1
		return
	}
	start := st.curStart
	if start < 0 {
		start = end
	}
	word := string(st.cur)
	if st.wordIndex == len(st.words) && st.rawLen < 0 {
		st.rawLen = end - st.rawStart
	}
	st.words = append(st.words, word)
	st.starts = append(st.starts, start)
	st.observe(word, st.curQuoted)
	st.cur = st.cur[:0]
	st.curStart = -1
	st.curQuoted = false
}

// observe follows code blocks and settles pending terminators once the
// word carrying them is known to sit outside any block.
func (st *scan) observe(word string, quoted bool) {
	if word == "" {
		return
	}
	if cb := st.dialect.CodeBlocks; cb != nil && !quoted {
		st.block.observe(cb, st.prev, word)
	}
	if st.block.depth > 0 {
		st.semis = st.semis[:0]
	} else if len(st.semis) > 0 {
		for _, pos := range st.semis {
			st.terms = append(st.terms, terminator{pos: pos, block: st.block.seen})
		}
		st.semis = st.semis[:0]
		st.block.seen = false
	}
	st.prev = word
}

func (st *scan) finish() {
	end := len(st.buf)
	st.flush(end, st.cursor == end)
	if st.cursor == end {
		last := len(st.words) - 1
		st.wordIndex = last
		st.wordCursor = len([]rune(st.words[last]))
		st.rawStart = st.starts[last]
		st.rawLen = st.cursor - st.rawStart
	}
	if st.rawLen < 0 {
		st.rawLen = 0
	}
}

func (st *scan) isEscapeChar(i int) bool {
	return st.escape != 0 && i >= 0 && st.buf[i] == st.escape && !st.isEscaped(i)
}

func (st *scan) isEscaped(i int) bool {
	if st.escape == 0 {
		return false
	}
	n := 0
	for j := i - 1; j >= 0 && st.buf[j] == st.escape; j-- {
		n++
	}
	return n%2 == 1
}

func (st *scan) isBlockCommentStart(i int) bool {
	return i+1 < len(st.buf) && st.buf[i] == '/' && st.buf[i+1] == '*'
}

func (st *scan) isLineCommentStart(i int) bool {
	if st.atFirstLineStart(i) && hasMarkerAt(st.buf, i, st.shellComments) {
		return true
	}
	return hasMarkerAt(st.buf, i, st.dialect.OneLineComments)
}

func (st *scan) atFirstLineStart(i int) bool {
	for _, c := range st.buf[:i] {
		if c == '\n' || !unicode.IsSpace(c) {
			return false
		}
	}
	return true
}

// isSQL reports whether the buffer is a statement rather than a shell
// command or a leading comment. Only statements need a terminator.
func (st *scan) isSQL() bool {
	i := 0
	for i < len(st.buf) && unicode.IsSpace(st.buf[i]) {
		i++
	}
	if i == len(st.buf) {
		return false
	}
	if hasMarkerAt(st.buf, i, st.shellComments) || hasMarkerAt(st.buf, i, st.dialect.OneLineComments) {
		return false
	}
	if st.buf[i] != '!' {
		return true
	}
	return hasMarkerAt(st.buf, i, passThroughCommands)
}

var passThroughCommands = []string{"!sql", "!all"}

func (st *scan) state() (ParseState, string) {
	n := len(st.buf)
	if n > 0 && st.isEscapeChar(n-1) {
		return NewLine, "newline"
	}
	if st.quoteStart >= 0 {
		return Quoted, quoteHint(st.buf[st.quoteStart])
	}
	if !st.isSQL() {
		return Ok, ""
	}
	if st.blockComment >= 0 {
		return MultilineComment, "*/"
	}
	if st.square > 0 {
		return SquareBracketBalanceFailed, "]"
	}
	if st.squareOrphan > 0 {
		return SquareBracketBalanceFailed, "extra ']'"
	}
	if st.round > 0 {
		return RoundBracketBalanceFailed, ")"
	}
	if st.roundOrphan > 0 {
		return RoundBracketBalanceFailed, "extra ')'"
	}
	if st.mode == Interactive && !st.noTerminator {
		if st.block.depth > 0 {
			return SemicolonRequired, "semicolon"
		}
		if st.lastCode >= 0 && st.buf[st.lastCode] != ';' {
			return SemicolonRequired, "semicolon"
		}
	}
	return Ok, ""
}

func (st *scan) outcome() *ParseOutcome {
	state, hint := st.state()
	var opening rune
	if st.quoteStart >= 0 {
		opening = st.buf[st.quoteStart]
	}
	return &ParseOutcome{
		State:        state,
		Hint:         hint,
		Words:        st.words,
		WordIndex:    st.wordIndex,
		WordCursor:   st.wordCursor,
		RawWordStart: st.rawStart,
		RawWordLen:   st.rawLen,
		OpeningQuote: opening,
	}
}

func hasMarkerAt(buf []rune, i int, markers []string) bool {
	for _, m := range markers {
		if m == "" {
			continue
		}
		mr := []rune(m)
		if i+len(mr) > len(buf) {
			continue
		}
		match := true
		for j, r := range mr {
			if buf[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// tokenize is the plain whitespace tokenizer used when a scan faults. It
// tracks no zones and always reports Ok.
func tokenize(buf []rune, cursor int) *ParseOutcome {
	out := &ParseOutcome{State: Ok, WordIndex: -1}
	start := -1
	for i := 0; i <= len(buf); i++ {
		if i < len(buf) && !unicode.IsSpace(buf[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start < 0 {
			continue
		}
		if cursor >= start && cursor <= i && out.WordIndex < 0 {
			out.WordIndex = len(out.Words)
			out.WordCursor = cursor - start
			out.RawWordStart = start
			out.RawWordLen = i - start
		}
		out.Words = append(out.Words, string(buf[start:i]))
		start = -1
	}
	if out.WordIndex < 0 {
		out.Words = append(out.Words, "")
		out.WordIndex = len(out.Words) - 1
		out.RawWordStart = cursor
	}
	return out
}
