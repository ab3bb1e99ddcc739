package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/fontbox/render"
	"github.com/ByLCY/fontbox/trace"
)

// Unit 是可以写入页面的一段内容。
type Unit interface {
	Layout(tr trace.Tracer, w *PageWriter) error
}

// Element 是已经（或即将）放置在页面上的元素。
//
// Static 在构造时确定且不再改变：静态元素可以跨帧缓存，并会阻挡后续放置；
// 动态元素每帧重新求值，不参与碰撞检测。
type Element interface {
	Bounds() *ObjectBounds
	Static() bool
	Render(r render.Renderer, deco render.Decorations) error
}

// Align 决定行内剩余水平空间的分配方式。
type Align int

const (
	AlignInherit Align = iota // 沿用页面属性
	AlignLeft
	AlignCenter
	AlignRight
	AlignJustify
)

func (a Align) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return "inherit"
	}
}

func (a Align) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inherit":
		return AlignInherit, nil
	case "left", "start":
		return AlignLeft, nil
	case "center", "middle":
		return AlignCenter, nil
	case "right", "end":
		return AlignRight, nil
	case "justify":
		return AlignJustify, nil
	default:
		return AlignInherit, fmt.Errorf("未知的对齐方式：%s", s)
	}
}

// Float 决定图片是独占一块还是浮动在某一侧让文字环绕。
type Float int

const (
	FloatNone Float = iota
	FloatLeft
	FloatRight
)

func (f Float) String() string {
	switch f {
	case FloatLeft:
		return "left"
	case FloatRight:
		return "right"
	default:
		return "none"
	}
}

func (f Float) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func ParseFloat(s string) (Float, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FloatNone, nil
	case "left":
		return FloatLeft, nil
	case "right":
		return FloatRight, nil
	default:
		return FloatNone, fmt.Errorf("未知的浮动方式：%s", s)
	}
}

// PageBreak 强制换页。写在空页上时不产生空白页。
type PageBreak struct{}

func (PageBreak) Layout(tr trace.Tracer, w *PageWriter) error {
	if w.page.Len() == 0 {
		tr.Trace("PageBreak.Layout", "skip on empty page")
		return nil
	}
	return &Overflow{}
}

// Paragraph 是一段带格式的文本，由 PageWriter 拆成若干 Line。
type Paragraph struct {
	Runes     []rune
	Formatter *TextFormatter
	Align     Align
	ID        string
}

func NewParagraph(text string, base TextFormat, spans ...Span) *Paragraph {
	return &Paragraph{Runes: []rune(text), Formatter: NewTextFormatter(base, spans...)}
}

func (p *Paragraph) Layout(tr trace.Tracer, w *PageWriter) error {
	return w.writeParagraph(tr, p)
}

func (p *Paragraph) String() string { return string(p.Runes) }
