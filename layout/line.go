package layout

import (
	"github.com/ByLCY/fontbox/font"
	"github.com/ByLCY/fontbox/render"
	"github.com/ByLCY/fontbox/trace"
)

// Line 是排版完成的一行文字。构造后字符与格式即冻结。
type Line struct {
	Runes      []rune
	Formatter  *TextFormatter
	ID         string
	SpaceWidth float64

	bounds *ObjectBounds
}

func NewLine(runes []rune, formatter *TextFormatter, id string, bounds ObjectBounds, spaceWidth float64) *Line {
	return &Line{Runes: runes, Formatter: formatter, ID: id, SpaceWidth: spaceWidth, bounds: &bounds}
}

func (l *Line) Bounds() *ObjectBounds { return l.bounds }
func (l *Line) Static() bool          { return true }
func (l *Line) Text() string          { return string(l.Runes) }

// Layout 总是失败：行只能由 PageWriter 生成一次。
func (l *Line) Layout(tr trace.Tracer, w *PageWriter) error {
	return &LayoutError{Op: "Line.Layout", Content: l.Text(), Msg: "行已完成布局，不能重复布局"}
}

// Measure 按渲染时的游标规则计算行宽：空格前进 SpaceWidth，缺失的字形宽度为 0。
func (l *Line) Measure() float64 {
	x := 0.0
	for i, c := range l.Runes {
		if c == ' ' {
			x += l.SpaceWidth
			continue
		}
		f := l.Formatter.Format(i).Font
		if !f.Loaded() {
			continue
		}
		if g, ok := f.Metrics.Glyph(c); ok {
			x += float64(g.Width) * f.EffectiveScale()
		}
	}
	return x
}

// Render 从左到右绘制每个字形。只有字体变化时才重新绑定图集，颜色与装饰的变化不会。
func (l *Line) Render(r render.Renderer, deco render.Decorations) error {
	if len(l.Runes) == 0 || l.bounds == nil {
		return nil
	}
	var bind render.Binding
	defer bind.Release(r)

	cur := l.Formatter.Format(0)
	if err := bind.Switch(r, cur.Font, l.bounds.X, l.bounds.Y); err != nil {
		return err
	}
	x := 0.0
	for i, c := range l.Runes {
		if c == ' ' {
			x += l.SpaceWidth
			continue
		}
		if next := l.Formatter.Format(i); !next.Equal(cur) {
			if next.Font != cur.Font {
				if err := bind.Switch(r, next.Font, l.bounds.X, l.bounds.Y); err != nil {
					return err
				}
			}
			cur = next
		}
		m := cur.Font.Metrics
		g, ok := m.Glyph(c)
		if !ok {
			continue
		}
		if m.AtlasWidth() <= 0 || m.AtlasHeight() <= 0 {
			return &render.RenderError{Op: "Line.Render", Msg: "图集尺寸未知: " + cur.Font.Name}
		}
		r.SetColor(cur.ColorOrBlack().NRGBA())
		s := cur.Font.EffectiveScale()
		drawGlyph(r, deco, m, g, x, 0, s, cur.Decorations)
		if cur.Decorations.Has(Bold) {
			off := deco.BoldOffset * s
			drawGlyph(r, deco, m, g, x+off, off, s, cur.Decorations&^Underline)
		}
		x += float64(g.Width) * s
	}
	return nil
}

// drawGlyph 在行局部坐标 (x, y) 处绘制一个字形四边形。
// 斜体时顶边右移 k、底边左移 k。
func drawGlyph(r render.Renderer, deco render.Decorations, m *font.Metrics, g font.GlyphMetric, x, y, s float64, d Decoration) {
	aw, ah := float64(m.AtlasWidth()), float64(m.AtlasHeight())
	w, h := float64(g.Width)*s, float64(g.Height)*s
	var top, bottom float64
	if d.Has(Italic) {
		top, bottom = deco.ItalicShear*s, -deco.ItalicShear*s
	}
	u := float64(g.X) / aw
	v := float64(g.Y-g.Ascent) / ah
	r.DrawQuad(render.Quad{
		X: x, Y: y, Width: w, Height: h,
		TopShift: top, BottomShift: bottom,
		U0: u, V0: v,
		U1: u + float64(g.Width)/aw, V1: v + float64(g.Height)/ah,
	})
	if d.Has(Underline) {
		uy := y + h*deco.UnderlinePosition
		r.DrawLine(x, uy, x+w+top, uy)
	}
}
