package layout

import (
	"fmt"
	"image/color"

	"github.com/ByLCY/fontbox/font"
	"github.com/ByLCY/fontbox/render"
)

// testFont 构造一个所有字形同宽同高的字体；widths 中的条目覆盖单个字符的宽度。
func testFont(name string, w, h int, chars string, widths map[rune]int) *font.Font {
	glyphs := map[rune]font.GlyphMetric{}
	for i, r := range chars {
		gw := w
		if v, ok := widths[r]; ok {
			gw = v
		}
		glyphs[r] = font.GlyphMetric{Width: gw, Height: h, X: (i % 16) * 16, Y: (i / 16) * 16}
	}
	return &font.Font{Name: name, Atlas: name + ".png", Metrics: font.NewMetrics(256, 256, glyphs)}
}

type recordingTracer struct {
	traces [][]any
	warns  [][]any
	strict bool
}

func (r *recordingTracer) Trace(params ...any)        { r.traces = append(r.traces, params) }
func (r *recordingTracer) Warn(params ...any)         { r.warns = append(r.warns, params) }
func (r *recordingTracer) IgnoreInvalidSymbols() bool { return !r.strict }

// fakeRenderer 记录所有绘制调用，BindAtlas 只接受已登记的图集。
type fakeRenderer struct {
	atlases map[string]bool
	calls   []string
	quads   []render.Quad
	lines   [][4]float64
	colors  []color.NRGBA
	depth   int
}

func newFakeRenderer(atlases ...string) *fakeRenderer {
	r := &fakeRenderer{atlases: map[string]bool{}}
	for _, a := range atlases {
		r.atlases[a] = true
	}
	return r
}

func (r *fakeRenderer) BindAtlas(id string) error {
	if !r.atlases[id] {
		return &render.RenderError{Op: "BindAtlas", Msg: "unknown atlas " + id}
	}
	r.calls = append(r.calls, "bind:"+id)
	return nil
}

func (r *fakeRenderer) SetColor(c color.NRGBA) { r.colors = append(r.colors, c) }

func (r *fakeRenderer) DrawQuad(q render.Quad) {
	r.calls = append(r.calls, "quad")
	r.quads = append(r.quads, q)
}

func (r *fakeRenderer) DrawLine(x1, y1, x2, y2 float64) {
	r.calls = append(r.calls, "line")
	r.lines = append(r.lines, [4]float64{x1, y1, x2, y2})
}

func (r *fakeRenderer) PushTransform(dx, dy float64) {
	r.depth++
	r.calls = append(r.calls, fmt.Sprintf("push(%g,%g)", dx, dy))
}

func (r *fakeRenderer) PopTransform() {
	r.depth--
	r.calls = append(r.calls, "pop")
}

type staticBox struct {
	b ObjectBounds
}

func (s *staticBox) Bounds() *ObjectBounds                            { return &s.b }
func (s *staticBox) Static() bool                                     { return true }
func (s *staticBox) Render(render.Renderer, render.Decorations) error { return nil }

type dynamicBox struct {
	b ObjectBounds
}

func (d *dynamicBox) Bounds() *ObjectBounds                           { return &d.b }
func (d *dynamicBox) Static() bool                                    { return false }
func (d *dynamicBox) Render(render.Renderer, render.Decorations) error { return nil }

type fixedStack struct {
	icon  string
	count int
}

func (s fixedStack) Icon() string { return s.icon }
func (s fixedStack) Count() int   { return s.count }
