package ui

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// codeStyle colors fenced code in terminal replies. Only foreground
// attributes are used so the terminal background shows through.
const codeStyle = "monokai"

// highlighters maps a fence language to its *Highlighter. Unknown languages
// are stored as nil.
var highlighters sync.Map

// Highlighter colors single lines of one language.
type Highlighter struct {
	lexer chroma.Lexer
	style *chroma.Style
}

// NewHighlighter returns the highlighter for a fence language such as
// "python" or "bash", or nil if chroma has no lexer for it.
func NewHighlighter(lang string) *Highlighter {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return nil
	}
	if cached, ok := highlighters.Load(lang); ok {
		return cached.(*Highlighter)
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Match("snippet." + lang)
	}
	var h *Highlighter
	if lexer != nil {
		style := styles.Get(codeStyle)
		if style == nil {
			style = styles.Fallback
		}
		h = &Highlighter{lexer: chroma.Coalesce(lexer), style: style}
	}
	actual, _ := highlighters.LoadOrStore(lang, h)
	return actual.(*Highlighter)
}

// HighlightLine returns line with ANSI foreground colors applied. On any
// lexer error the line is returned as-is.
func (h *Highlighter) HighlightLine(line string) string {
	if h == nil {
		return line
	}
	tokens, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var b strings.Builder
	for tok := tokens(); tok != chroma.EOF; tok = tokens() {
		text := strings.TrimRight(tok.Value, "\n")
		if text == "" {
			continue
		}
		sgr := foregroundSGR(h.style.Get(tok.Type))
		if sgr == "" {
			b.WriteString(text)
			continue
		}
		b.WriteString("\x1b[" + sgr + "m" + text + "\x1b[0m")
	}
	return b.String()
}

// foregroundSGR converts a style entry to SGR parameters, ignoring its
// background.
func foregroundSGR(entry chroma.StyleEntry) string {
	var params []string
	if entry.Colour.IsSet() {
		params = append(params, "38;2;"+
			strconv.Itoa(int(entry.Colour.Red()))+";"+
			strconv.Itoa(int(entry.Colour.Green()))+";"+
			strconv.Itoa(int(entry.Colour.Blue())))
	}
	if entry.Bold == chroma.Yes {
		params = append(params, "1")
	}
	if entry.Italic == chroma.Yes {
		params = append(params, "3")
	}
	if entry.Underline == chroma.Yes {
		params = append(params, "4")
	}
	return strings.Join(params, ";")
}

// HighlightCodeBlocks highlights the bodies of fenced code blocks in a
// Markdown reply. Text outside fences and blocks in unknown languages are
// returned unchanged.
func HighlightCodeBlocks(text string) string {
	lines := strings.Split(text, "\n")
	var h *Highlighter
	inBlock := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				inBlock = false
				h = nil
			} else {
				inBlock = true
				h = NewHighlighter(strings.TrimPrefix(trimmed, "```"))
			}
			continue
		}
		if inBlock && h != nil {
			lines[i] = h.HighlightLine(line)
		}
	}
	return strings.Join(lines, "\n")
}

var sgrPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes SGR color sequences.
func StripANSI(s string) string {
	return sgrPattern.ReplaceAllString(s, "")
}
