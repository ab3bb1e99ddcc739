package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"math"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ByLCY/fontbox/book"
	"github.com/ByLCY/fontbox/render"
	"github.com/ByLCY/fontbox/renderer"
)

// 布局单位为 96 dpi 像素，canvas 使用毫米。
const mmPerPx = 25.4 / 96

func mm(px float64) float64 { return px * mmPerPx }

var opaqueWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Renderer 通过 github.com/tdewolff/canvas 把分页结果绘制为 PDF。
// 它实现 render.Renderer：图集与图片都是按标识绑定的纹理。
type Renderer struct {
	assets fs.FS
	blobs  map[string][]byte
	log    *slog.Logger

	textures map[string]image.Image
	tinted   map[tintKey]*image.NRGBA

	// 当前页的绘制状态
	ctx     *canvas.Context
	boundID string
	bound   image.Image
	color   color.NRGBA
	offsets [][2]float64
	ox, oy  float64
	err     error
}

var (
	_ render.Renderer   = (*Renderer)(nil)
	_ renderer.Renderer = (*Renderer)(nil)
)

type tintKey struct {
	id    string
	rect  image.Rectangle
	color color.NRGBA
}

// Options configures the canvas renderer.
type Options struct {
	// Assets 用于按路径读取图片与 metrics 字体的图集文件。
	Assets fs.FS
	// Images 是内置图片，通过 built-in:<name> 访问。
	Images map[string][]byte
	Logger *slog.Logger
}

// New creates a renderer. Path A atlases are registered from the build result in Render.
func New(opts Options) *Renderer {
	r := &Renderer{
		assets:   opts.Assets,
		blobs:    map[string][]byte{},
		log:      opts.Logger,
		textures: map[string]image.Image{},
		tinted:   map[tintKey]*image.NRGBA{},
		color:    opaqueWhite,
	}
	for name, data := range opts.Images {
		if name != "" && len(data) > 0 {
			r.blobs[name] = data
		}
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	return r
}

// Register 以 id 注册一张纹理，覆盖同名的已有纹理。
func (r *Renderer) Register(id string, img image.Image) {
	r.textures[id] = img
	for k := range r.tinted {
		if k.id == id {
			delete(r.tinted, k)
		}
	}
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(res *book.Result) ([]byte, error) {
	if res == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(res.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	for id, atlas := range res.Atlases {
		r.Register(id, atlas)
	}

	var buf bytes.Buffer
	first := res.Pages[0]
	writer := pdf.New(&buf, mm(first.Width), mm(first.Height), nil)
	writer.SetInfo(res.Name, "", "", "", "fontbox")
	for i, page := range res.Pages {
		if i > 0 {
			writer.NewPage(mm(page.Width), mm(page.Height))
		}
		c := canvas.New(mm(page.Width), mm(page.Height))
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
		r.begin(ctx)
		// 静态元素先于动态元素绘制
		for _, e := range page.AllElements() {
			if err := e.Render(r, res.Decorations); err != nil {
				return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
			}
			if r.err != nil {
				return nil, fmt.Errorf("第 %d 页: %w", i+1, r.err)
			}
		}
		c.RenderTo(writer)
		r.log.Debug("rendered page", "page", i+1, "elements", page.Len())
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) begin(ctx *canvas.Context) {
	r.ctx = ctx
	r.boundID, r.bound = "", nil
	r.color = opaqueWhite
	r.offsets = r.offsets[:0]
	r.ox, r.oy = 0, 0
	r.err = nil
}

// BindAtlas 依次在已注册纹理、built-in: 内置图片与 Assets 中查找 id。
func (r *Renderer) BindAtlas(id string) error {
	img, err := r.texture(id)
	if err != nil {
		return err
	}
	r.boundID, r.bound = id, img
	return nil
}

func (r *Renderer) texture(id string) (image.Image, error) {
	if img, ok := r.textures[id]; ok {
		return img, nil
	}
	var data []byte
	switch {
	case strings.HasPrefix(id, "built-in:"):
		blob, ok := r.blobs[strings.TrimPrefix(id, "built-in:")]
		if !ok {
			return nil, &render.RenderError{Op: "BindAtlas", Msg: "找不到内置图片资源 " + id}
		}
		data = blob
	case r.assets != nil:
		blob, err := fs.ReadFile(r.assets, id)
		if err != nil {
			return nil, &render.RenderError{Op: "BindAtlas", Msg: fmt.Sprintf("读取纹理 %s 失败: %v", id, err)}
		}
		data = blob
	default:
		return nil, &render.RenderError{Op: "BindAtlas", Msg: "未注册的纹理 " + id}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &render.RenderError{Op: "BindAtlas", Msg: fmt.Sprintf("解码纹理 %s 失败: %v", id, err)}
	}
	r.textures[id] = img
	return img, nil
}

func (r *Renderer) SetColor(c color.NRGBA) { r.color = c }

func (r *Renderer) PushTransform(dx, dy float64) {
	r.offsets = append(r.offsets, [2]float64{dx, dy})
	r.ox += dx
	r.oy += dy
}

func (r *Renderer) PopTransform() {
	n := len(r.offsets)
	if n == 0 {
		r.fail(&render.RenderError{Op: "PopTransform", Msg: "变换栈为空"})
		return
	}
	last := r.offsets[n-1]
	r.offsets = r.offsets[:n-1]
	r.ox -= last[0]
	r.oy -= last[1]
}

func (r *Renderer) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// DrawQuad 从当前纹理裁出 UV 区域，按当前颜色着色，必要时做水平错切，再以四边形尺寸贴到页面上。
func (r *Renderer) DrawQuad(q render.Quad) {
	if r.err != nil {
		return
	}
	if r.ctx == nil || r.bound == nil {
		r.fail(&render.RenderError{Op: "DrawQuad", Msg: "未绑定图集"})
		return
	}
	if q.Width <= 0 || q.Height <= 0 {
		return
	}
	sr := uvRect(r.bound.Bounds(), q)
	if sr.Empty() {
		return
	}
	img := r.tint(sr)
	k := float64(sr.Dx()) / q.Width // 每个布局像素对应的纹理像素
	x := r.ox + q.X
	if q.TopShift != 0 || q.BottomShift != 0 {
		var pad float64
		img, pad = shear(img, q.TopShift*k, q.BottomShift*k)
		x -= pad / k
	}
	r.ctx.DrawImage(mm(x), mm(r.oy+q.Y), img, canvas.DPMM(k/mmPerPx))
}

// DrawLine 以当前颜色绘制 1 像素宽的线段。
func (r *Renderer) DrawLine(x1, y1, x2, y2 float64) {
	if r.err != nil || r.ctx == nil {
		return
	}
	r.ctx.SetStrokeColor(r.color)
	r.ctx.SetStrokeWidth(mm(1))
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(mm(x2-x1), mm(y2-y1))
	r.ctx.DrawPath(mm(r.ox+x1), mm(r.oy+y1), p)
}

// uvRect 把归一化纹理坐标换算为纹理中的像素矩形。
func uvRect(b image.Rectangle, q render.Quad) image.Rectangle {
	w, h := float64(b.Dx()), float64(b.Dy())
	return image.Rect(
		b.Min.X+int(math.Floor(q.U0*w)),
		b.Min.Y+int(math.Floor(q.V0*h)),
		b.Min.X+int(math.Ceil(q.U1*w)),
		b.Min.Y+int(math.Ceil(q.V1*h)),
	).Intersect(b)
}

// tint 复制纹理区域 sr。当前颜色不是不透明白色时，纹理只提供覆盖率（alpha），颜色取自当前颜色。
func (r *Renderer) tint(sr image.Rectangle) *image.NRGBA {
	key := tintKey{id: r.boundID, rect: sr, color: r.color}
	if img, ok := r.tinted[key]; ok {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, sr.Dx(), sr.Dy()))
	if r.color == opaqueWhite {
		draw.Draw(dst, dst.Bounds(), r.bound, sr.Min, draw.Src)
	} else {
		draw.DrawMask(dst, dst.Bounds(), image.NewUniform(r.color), image.Point{}, r.bound, sr.Min, draw.Src)
	}
	r.tinted[key] = dst
	return dst
}

// shear 按行水平错切 src：顶行右移 top，底行右移 bottom（纹理像素）。
// 结果两侧各补 pad 像素，调用方需把绘制位置左移 pad。
func shear(src *image.NRGBA, top, bottom float64) (*image.NRGBA, float64) {
	b := src.Bounds()
	pad := math.Ceil(math.Max(math.Abs(top), math.Abs(bottom)))
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()+2*int(pad), b.Dy()))
	s2d := f64.Aff3{
		1, (bottom - top) / float64(b.Dy()), pad + top,
		0, 1, 0,
	}
	draw.BiLinear.Transform(dst, s2d, src, b, draw.Over, nil)
	return dst, pad
}
