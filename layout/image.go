package layout

import (
	"image/color"
	"strconv"

	"github.com/ByLCY/fontbox/render"
	"github.com/ByLCY/fontbox/trace"
)

var opaqueWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Image 是一张静态图片，Src 同时也是渲染端的图集标识。
type Image struct {
	Src    string
	Width  float64
	Height float64
	Align  Align
	Float  Float
	ID     string

	bounds *ObjectBounds
}

func (im *Image) Bounds() *ObjectBounds { return im.bounds }
func (im *Image) Static() bool          { return true }

func (im *Image) Layout(tr trace.Tracer, w *PageWriter) error {
	return w.placeImage(tr, im, im)
}

func (im *Image) Render(r render.Renderer, deco render.Decorations) error {
	if im.bounds == nil {
		return nil
	}
	return drawTexture(r, im.Src, *im.bounds)
}

func drawTexture(r render.Renderer, id string, b ObjectBounds) error {
	if err := r.BindAtlas(id); err != nil {
		return err
	}
	r.PushTransform(b.X, b.Y)
	defer r.PopTransform()
	r.SetColor(opaqueWhite)
	r.DrawQuad(render.Quad{Width: b.Width, Height: b.Height, U1: 1, V1: 1})
	return nil
}

// Stack 提供物品堆叠的实时状态，每帧渲染时读取。
type Stack interface {
	Icon() string
	Count() int
}

// ItemStackImage 是动态图片：图标与数量随状态变化，因此每帧重绘，
// 且不会阻挡之后放置的内容。
type ItemStackImage struct {
	Image
	Stack Stack
	// CountFormat 用于绘制数量角标，字体未加载时不绘制。
	CountFormat TextFormat
}

func NewItemStackImage(stack Stack, width, height float64, align Align, float Float) *ItemStackImage {
	return &ItemStackImage{Image: Image{Width: width, Height: height, Align: align, Float: float}, Stack: stack}
}

func (s *ItemStackImage) Static() bool { return false }

func (s *ItemStackImage) Layout(tr trace.Tracer, w *PageWriter) error {
	return w.placeImage(tr, s, &s.Image)
}

func (s *ItemStackImage) Render(r render.Renderer, deco render.Decorations) error {
	if s.bounds == nil || s.Stack == nil {
		return nil
	}
	icon := s.Stack.Icon()
	if icon == "" {
		return nil
	}
	if err := drawTexture(r, icon, *s.bounds); err != nil {
		return err
	}
	n := s.Stack.Count()
	if n <= 1 || !s.CountFormat.Font.Loaded() {
		return nil
	}
	label := NewLine([]rune(strconv.Itoa(n)), NewTextFormatter(s.CountFormat), "", ObjectBounds{}, 0)
	lw, lh := label.Measure(), s.CountFormat.Font.LineHeight()
	label.bounds = &ObjectBounds{X: s.bounds.Right() - lw, Y: s.bounds.Bottom() - lh, Width: lw, Height: lh}
	return label.Render(r, deco)
}
