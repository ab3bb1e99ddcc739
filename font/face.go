package font

import (
	"image"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/fontbox/trace"
)

// AtlasGrid 描述图集的网格划分与收录的字符区间 [MinChar, MaxChar]。
type AtlasGrid struct {
	Width       int  `json:"width" yaml:"width"`
	Height      int  `json:"height" yaml:"height"`
	CharsPerRow int  `json:"charsPerRow" yaml:"chars-per-row"`
	MinChar     rune `json:"minChar" yaml:"min-char"`
	MaxChar     rune `json:"maxChar" yaml:"max-char"`
}

// CellSize 返回单元格边长：Width / CharsPerRow。
func (g AtlasGrid) CellSize() int { return g.Width / g.CharsPerRow }

// Cell 返回第 off 个字符所在单元格的左上角。
func (g AtlasGrid) Cell(off int) (x, y int) {
	cell := g.CellSize()
	return (off % g.CharsPerRow) * cell, (off / g.CharsPerRow) * cell
}

func (g AtlasGrid) validate(op string) error {
	if g.Width <= 0 || g.Height <= 0 {
		return fontErr(op, "图集尺寸无效 %dx%d", g.Width, g.Height)
	}
	if g.CharsPerRow <= 0 || g.CharsPerRow > g.Width {
		return fontErr(op, "每行字符数无效 %d", g.CharsPerRow)
	}
	if g.MinChar < 0 || g.MinChar > g.MaxChar {
		return fontErr(op, "字符区间无效 [%d, %d]", g.MinChar, g.MaxChar)
	}
	count := int(g.MaxChar-g.MinChar) + 1
	rows := (count + g.CharsPerRow - 1) / g.CharsPerRow
	if rows*g.CellSize() > g.Height {
		return fontErr(op, "图集高度 %d 容纳不下 %d 行字符", g.Height, rows)
	}
	return nil
}

// placement 是一个字形在图集中的落点，FromFace 与 RenderAtlas 共用。
type placement struct {
	r     rune
	glyph GlyphMetric
	dot   fixed.Point26_6
}

func place(tr trace.Tracer, op string, face font.Face, grid AtlasGrid) []placement {
	fm := face.Metrics()
	ascent := fixedToFloat(fm.Ascent)
	descent := fixedToFloat(fm.Descent)
	height := int(math.Ceil(ascent + descent))
	cell := grid.CellSize()

	out := make([]placement, 0, int(grid.MaxChar-grid.MinChar)+1)
	off := 0
	for r := grid.MinChar; r <= grid.MaxChar; r, off = r+1, off+1 {
		bounds, _, ok := face.GlyphBounds(r)
		if !ok {
			tr.Warn(op, "字体中没有该字符", r)
			continue
		}
		x, y := grid.Cell(off)

		// 左侧出血的字形整体右移，保证墨迹不越出单元格左边界。
		shift := 0
		if bearing := bounds.Min.X.Floor(); bearing < 0 {
			shift = -bearing
		}
		correction := fixedToFloat(bounds.Min.X) + float64(shift)
		width := int(math.Ceil(fixedToFloat(bounds.Max.X-bounds.Min.X) + correction))
		if width < 0 {
			width = 0
		}
		if width > cell || height > cell {
			tr.Warn(op, "字形超出单元格", r, width, height, cell)
		}

		g := GlyphMetric{
			Width:  width,
			Height: height,
			Ascent: int(ascent),
			X:      x,
			Y:      y + int(ascent),
		}
		tr.Trace(op, "placeGlyph", r, g.Width, g.Height, g.X, g.Y)
		out = append(out, placement{
			r:     r,
			glyph: g,
			dot:   fixed.Point26_6{X: fixed.I(x + shift), Y: fixed.I(y) + fm.Ascent},
		})
	}
	return out
}

// FromFace 从已经确定尺寸与渲染参数的字体面推导度量（路径 A）。
// face 同时承担“字体句柄”和“渲染上下文”。
func FromFace(tr trace.Tracer, face font.Face, grid AtlasGrid) (*Metrics, error) {
	const op = "FromFace"
	if tr == nil {
		return nil, fontErr(op, "tracer 不能为空")
	}
	if face == nil {
		return nil, fontErr(op, "face 不能为空")
	}
	if err := grid.validate(op); err != nil {
		return nil, err
	}
	m := newMetrics(grid.Width, grid.Height)
	for _, p := range place(tr, "font.FromFace", face, grid) {
		m.put(p.r, p.glyph)
	}
	tr.Trace("font.FromFace", m)
	return m, nil
}

// FromFont 以 OpenType 字体与字体面参数（尺寸、DPI、hinting）推导度量。
// 三个参数任意一个为空都视为前置条件违例。
func FromFont(tr trace.Tracer, f *opentype.Font, ctx *opentype.FaceOptions, grid AtlasGrid) (*Metrics, error) {
	const op = "FromFont"
	if tr == nil {
		return nil, fontErr(op, "tracer 不能为空")
	}
	if f == nil {
		return nil, fontErr(op, "font 不能为空")
	}
	if ctx == nil {
		return nil, fontErr(op, "ctx 不能为空")
	}
	face, err := opentype.NewFace(f, ctx)
	if err != nil {
		return nil, wrapErr(op, err, "无法创建字体面")
	}
	defer face.Close()
	return FromFace(tr, face, grid)
}

// RenderAtlas 按与 FromFace 相同的落点把字形绘制到 Alpha 图集中。
func RenderAtlas(face font.Face, grid AtlasGrid) (*image.Alpha, error) {
	const op = "RenderAtlas"
	if face == nil {
		return nil, fontErr(op, "face 不能为空")
	}
	if err := grid.validate(op); err != nil {
		return nil, err
	}
	dst := image.NewAlpha(image.Rect(0, 0, grid.Width, grid.Height))
	d := &font.Drawer{Dst: dst, Src: image.Opaque, Face: face}
	for _, p := range place(trace.Nop{}, "font.RenderAtlas", face, grid) {
		d.Dot = p.dot
		d.DrawString(string(p.r))
	}
	return dst, nil
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
