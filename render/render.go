// Package render 定义排版核心依赖的最小绘制能力，以及行渲染时在字体切换之间传递的图集绑定状态。
//
// 具体的绘制后端（见 renderer/canvas）实现 Renderer；核心只通过这里的接口调用它。
package render

import (
	"fmt"
	"image/color"

	"github.com/ByLCY/fontbox/font"
)

// Renderer 是核心消费的全部绘制原语。
type Renderer interface {
	// BindAtlas 绑定图集，之后的 DrawQuad 从该图集取样。
	BindAtlas(id string) error
	SetColor(c color.NRGBA)
	DrawQuad(q Quad)
	DrawLine(x1, y1, x2, y2 float64)
	PushTransform(dx, dy float64)
	PopTransform()
}

// Quad 是一个带纹理的四边形：左上角 (X, Y)、尺寸 (Width, Height)，
// 顶边水平偏移 TopShift、底边水平偏移 BottomShift（用于斜体剪切），
// 以及图集中的归一化纹理坐标 [U0, U1] x [V0, V1]。
type Quad struct {
	X, Y          float64
	Width, Height float64
	TopShift      float64
	BottomShift   float64
	U0, V0        float64
	U1, V1        float64
}

// Decorations 保存文字装饰的数值常量。
type Decorations struct {
	ItalicShear       float64 `yaml:"italic-shear" json:"italicShear"`
	BoldOffset        float64 `yaml:"bold-offset" json:"boldOffset"`
	UnderlinePosition float64 `yaml:"underline-position" json:"underlinePosition"`
}

// DefaultDecorations 返回默认装饰常量：斜体剪切 5.55，粗体偏移 0.5，下划线位于字高 75% 处。
func DefaultDecorations() Decorations {
	return Decorations{ItalicShear: 5.55, BoldOffset: 0.5, UnderlinePosition: 0.75}
}

// RenderError 表示绘制原语在其依赖资源（图集、纹理）就绪前被调用。
type RenderError struct {
	Op  string
	Msg string
}

func (e *RenderError) Error() string { return fmt.Sprintf("render: %s: %s", e.Op, e.Msg) }

// Binding 记录当前绑定的字体。它是顺序的、不可重入的状态，
// 在一次行渲染内显式传递，而不是依赖全局的图形上下文。
type Binding struct {
	current *font.Font
	pushed  bool
}

// Current 返回当前绑定的字体，尚未绑定时为 nil。
func (b *Binding) Current() *font.Font { return b.current }

// Switch 切换到字体 f：仅在字体变化时重置变换并重新绑定图集，
// (dx, dy) 为切换后重新应用的平移。
func (b *Binding) Switch(r Renderer, f *font.Font, dx, dy float64) error {
	if b.current == f && b.pushed {
		return nil
	}
	if !f.Loaded() {
		return &RenderError{Op: "Binding.Switch", Msg: fmt.Sprintf("字体未加载: %s", f)}
	}
	if b.pushed {
		r.PopTransform()
		b.pushed = false
	}
	r.PushTransform(dx, dy)
	b.pushed = true
	if err := r.BindAtlas(f.Atlas); err != nil {
		return err
	}
	b.current = f
	return nil
}

// Release 弹出 Switch 压入的变换。
func (b *Binding) Release(r Renderer) {
	if b.pushed {
		r.PopTransform()
		b.pushed = false
	}
	b.current = nil
}
