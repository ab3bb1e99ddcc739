package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	bookLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:px|pt|%)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	bookParser = participle.MustBuild[Book](
		participle.Lexer(bookLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Book is the root AST node of a book markup file.
type Book struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'book' @Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section is either the font table or one page flow.
type Section struct {
	Fonts *FontsSection `parser:"  @@"`
	Page  *PageSection  `parser:"| @@"`
}

// FontsSection declares the fonts referenced by runs.
type FontsSection struct {
	Fonts []*FontDecl `parser:"'fonts' '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// FontDecl names a font and lists its loading properties (metrics, atlas, truetype, size ...).
type FontDecl struct {
	Pos        lexer.Position `parser:"" json:"-"`
	Name       string         `parser:"'font' @Ident"`
	Properties []*Property    `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Property uses colon syntax (key: value).
type Property struct {
	Key   string `parser:"@Ident ':'"`
	Value *Value `parser:"Newline* @@"`
}

// PageSection is a content flow laid out onto as many pages as it needs.
type PageSection struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Attrs []*Attr        `parser:"'page' @@*"`
	Items []*Item        `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Attr is a space separated key/value pair in a header (width 400, align left).
type Attr struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"@@"`
}

// Item is one unit of page content.
type Item struct {
	Para      *Para      `parser:"  @@"`
	Image     *ImageItem `parser:"| @@"`
	Stack     *StackItem `parser:"| @@"`
	Break     bool       `parser:"| @'br'"`
	PageBreak bool       `parser:"| @'pagebreak'"`
}

// Kind returns the human-readable item type.
func (it *Item) Kind() string {
	switch {
	case it == nil:
		return "unknown"
	case it.Para != nil:
		return "para"
	case it.Image != nil:
		return "image"
	case it.Stack != nil:
		return "item"
	case it.Break:
		return "br"
	case it.PageBreak:
		return "pagebreak"
	default:
		return "unknown"
	}
}

// Para is a paragraph of text runs.
type Para struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Attrs []*Attr        `parser:"'para' @@*"`
	Runs  []*Run         `parser:"'{' Newline* ( @@ Newline* )* '}'"`
}

// Run is a piece of paragraph content: literal text, a formatted span or a hard break.
type Run struct {
	Text  *StringLiteral `parser:"  @String"`
	Span  *Span          `parser:"| @@"`
	Break bool           `parser:"| @'br'"`
}

// Span applies formatting attributes (font, color, style) to nested runs.
type Span struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Attrs []*Attr        `parser:"'span' @@*"`
	Runs  []*Run         `parser:"'{' Newline* ( @@ Newline* )* '}'"`
}

// ImageItem places a static image.
type ImageItem struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Src   StringLiteral  `parser:"'image' @String"`
	Attrs []*Attr        `parser:"@@*"`
}

// StackItem places a live item icon whose state is resolved from data.
type StackItem struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Icon  StringLiteral  `parser:"'item' @String"`
	Attrs []*Attr        `parser:"@@*"`
}

// Value represents property and attribute values.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Ident  *string        `parser:"| @Ident"`
}

// Text returns the value as written, with strings unquoted.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses book markup from an io.Reader.
func Parse(r io.Reader) (*Book, error) {
	return bookParser.Parse("", r)
}

// ParseString parses book markup from a string.
func ParseString(input string) (*Book, error) {
	return bookParser.ParseString("", input)
}
