// Package font 负责字形度量表的构建：既可以从字体光栅器实时推导（FromFace / FromFont），
// 也可以从持久化的度量描述文件读取（FromDescriptor / FromResource）。
//
// 两条路径返回同一种只读的 Metrics，构建完成后可以在多个文档、多帧之间共享，无需加锁。
package font

import (
	"fmt"
	"sort"
)

// GlyphMetric 记录单个字形在图集中的位置与尺寸（图集像素坐标）。
// X 为字形左边缘，Y - Ascent 为字形顶边所在的行。
type GlyphMetric struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Ascent int `json:"ascent"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// Metrics 是字符码到字形度量的映射，外加图集尺寸。构建后只读。
type Metrics struct {
	glyphs      map[rune]GlyphMetric
	atlasWidth  int
	atlasHeight int
	lineHeight  int
}

func newMetrics(atlasWidth, atlasHeight int) *Metrics {
	return &Metrics{
		glyphs:      map[rune]GlyphMetric{},
		atlasWidth:  atlasWidth,
		atlasHeight: atlasHeight,
	}
}

// NewMetrics 用现成的字形表构建度量，供程序化生成的字体使用。glyphs 会被复制。
func NewMetrics(atlasWidth, atlasHeight int, glyphs map[rune]GlyphMetric) *Metrics {
	m := newMetrics(atlasWidth, atlasHeight)
	for r, g := range glyphs {
		m.put(r, g)
	}
	return m
}

// put 只在构建阶段使用。
func (m *Metrics) put(r rune, g GlyphMetric) {
	m.glyphs[r] = g
	if g.Height > m.lineHeight {
		m.lineHeight = g.Height
	}
}

// Glyph 返回字符 r 的度量；字体中没有该字符时 ok 为 false。
func (m *Metrics) Glyph(r rune) (GlyphMetric, bool) {
	g, ok := m.glyphs[r]
	return g, ok
}

// Len 返回字形数量。
func (m *Metrics) Len() int { return len(m.glyphs) }

// Runes 按码点升序返回所有已收录的字符。
func (m *Metrics) Runes() []rune {
	out := make([]rune, 0, len(m.glyphs))
	for r := range m.glyphs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *Metrics) AtlasWidth() int  { return m.atlasWidth }
func (m *Metrics) AtlasHeight() int { return m.atlasHeight }

// LineHeight 是所有字形中的最大高度，用于只含空格的行。
func (m *Metrics) LineHeight() int { return m.lineHeight }

func (m *Metrics) String() string {
	return fmt.Sprintf("Metrics{glyphs: %d, w: %d, h: %d}", len(m.glyphs), m.atlasWidth, m.atlasHeight)
}

// Font 是排版与渲染共用的字体句柄：度量表 + 渲染端的图集标识 + 缩放。
type Font struct {
	Name    string
	Atlas   string // 渲染端绑定图集时使用的标识
	Scale   float64
	Metrics *Metrics
}

// Loaded 判断字体是否可以被绑定渲染。
func (f *Font) Loaded() bool {
	return f != nil && f.Atlas != "" && f.Metrics != nil
}

// EffectiveScale 返回实际缩放，未设置时为 1。
func (f *Font) EffectiveScale() float64 {
	if f == nil || f.Scale <= 0 {
		return 1
	}
	return f.Scale
}

// LineHeight 返回缩放后的行高。
func (f *Font) LineHeight() float64 {
	if f == nil || f.Metrics == nil {
		return 0
	}
	return float64(f.Metrics.LineHeight()) * f.EffectiveScale()
}

func (f *Font) String() string {
	if f == nil {
		return "Font<nil>"
	}
	return fmt.Sprintf("Font{%s, atlas: %s, scale: %g}", f.Name, f.Atlas, f.EffectiveScale())
}
