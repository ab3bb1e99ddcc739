package layout

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/ByLCY/fontbox/font"
	"github.com/ByLCY/fontbox/trace"
)

// Decoration 是文字装饰的位集合，可任意组合。
type Decoration uint8

const (
	Italic Decoration = 1 << iota
	Bold
	Underline
)

func (d Decoration) Has(x Decoration) bool { return d&x == x }

func (d Decoration) String() string {
	var parts []string
	if d.Has(Italic) {
		parts = append(parts, "italic")
	}
	if d.Has(Bold) {
		parts = append(parts, "bold")
	}
	if d.Has(Underline) {
		parts = append(parts, "underline")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseDecoration 解析 "bold"、"italic"、"underline"（大小写不敏感）。
func ParseDecoration(s string) (Decoration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "italic":
		return Italic, nil
	case "bold":
		return Bold, nil
	case "underline":
		return Underline, nil
	default:
		return 0, fmt.Errorf("未知的文字装饰：%s", s)
	}
}

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Black 是未指定颜色时使用的不透明黑色。
var Black = Color{A: 255}

func (c Color) NRGBA() color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

// Floats 返回 [0,1] 区间的分量。
func (c Color) Floats() (r, g, b, a float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255
}

// ParseColor 解析 #rgb、#rrggbb 与 #rrggbbaa。
func ParseColor(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) == 6 {
		v += "ff"
	}
	if len(v) != 8 {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

// TextFormat 是值类型，按字段比较；字体按句柄比较。
type TextFormat struct {
	Font        *font.Font
	Color       *Color
	Decorations Decoration
}

func (f TextFormat) Equal(o TextFormat) bool {
	if f.Font != o.Font || f.Decorations != o.Decorations {
		return false
	}
	if f.Color == nil || o.Color == nil {
		return f.Color == nil && o.Color == nil
	}
	return *f.Color == *o.Color
}

// ColorOrBlack 返回格式的颜色，未指定时为不透明黑色。
func (f TextFormat) ColorOrBlack() Color {
	if f.Color == nil {
		return Black
	}
	return *f.Color
}

func (f TextFormat) String() string {
	c := "default"
	if f.Color != nil {
		c = fmt.Sprintf("#%02x%02x%02x%02x", f.Color.R, f.Color.G, f.Color.B, f.Color.A)
	}
	return fmt.Sprintf("TextFormat{%s, %s, %s}", f.Font, c, f.Decorations)
}

// Span 作用于半开区间 [Start, End) 内的字符偏移。
type Span struct {
	Start  int
	End    int
	Format TextFormat
}

// TextFormatter 按偏移解析生效的格式：覆盖该偏移的最后一个 Span 胜出，否则使用 Base。
type TextFormatter struct {
	Base  TextFormat
	spans []Span
}

func NewTextFormatter(base TextFormat, spans ...Span) *TextFormatter {
	return &TextFormatter{Base: base, spans: append([]Span(nil), spans...)}
}

// Spans 返回 Span 的副本，顺序即声明顺序。
func (tf *TextFormatter) Spans() []Span {
	if tf == nil {
		return nil
	}
	return append([]Span(nil), tf.spans...)
}

func (tf *TextFormatter) Format(i int) TextFormat {
	if tf == nil {
		return TextFormat{}
	}
	for k := len(tf.spans) - 1; k >= 0; k-- {
		s := tf.spans[k]
		if i >= s.Start && i < s.End {
			return s.Format
		}
	}
	return tf.Base
}

// Slice 返回 [from, to) 子区间的格式器，偏移重新以 from 为 0。
func (tf *TextFormatter) Slice(from, to int) *TextFormatter {
	if tf == nil {
		return nil
	}
	out := &TextFormatter{Base: tf.Base}
	for _, s := range tf.spans {
		start, end := max(s.Start, from), min(s.End, to)
		if start >= end {
			continue
		}
		out.spans = append(out.spans, Span{Start: start - from, End: end - from, Format: s.Format})
	}
	return out
}

// check 对空 Span 与越界 Span 发出警告，它们对排版没有影响。
func (tf *TextFormatter) check(tr trace.Tracer, n int) {
	if tf == nil {
		return
	}
	for i, s := range tf.spans {
		switch {
		case s.Start >= s.End:
			tr.Warn("TextFormatter.check", "empty span", i, s.Start, s.End)
		case s.Start < 0 || s.End > n:
			tr.Warn("TextFormatter.check", "span out of range", i, s.Start, s.End, n)
		}
	}
}
