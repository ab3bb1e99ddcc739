// Package book 把解析后的 book 标记转换为字体与排版单元，并借助 PageWriter 分页。
package book

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/fontbox/binding"
	"github.com/ByLCY/fontbox/config"
	"github.com/ByLCY/fontbox/dsl"
	"github.com/ByLCY/fontbox/font"
	"github.com/ByLCY/fontbox/layout"
	"github.com/ByLCY/fontbox/render"
	"github.com/ByLCY/fontbox/trace"
)

// BuildOptions 控制构建过程。零值可用。
type BuildOptions struct {
	// Assets 用于读取度量描述文件与 TrueType 字体，为空时使用当前目录。
	Assets fs.FS
	Tracer trace.Tracer
	Config *config.Config
}

// Result 是构建结果：分好的页面、加载的字体以及由 TrueType 字体生成的图集。
type Result struct {
	Name        string
	Pages       []*layout.Page
	Fonts       map[string]*font.Font
	Atlases     map[string]*image.Alpha
	Decorations render.Decorations
}

type builder struct {
	tr       trace.Tracer
	cfg      *config.Config
	data     any
	fonts    map[string]*font.Font
	fallback *font.Font
}

// Build 加载字体、生成内容单元并分页。data 为 ${} 插值与物品数量提供数据，可为空。
func Build(doc *dsl.Book, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("book 为空")
	}
	b := &builder{tr: opts.Tracer, cfg: opts.Config, data: data, fonts: map[string]*font.Font{}}
	if b.tr == nil {
		b.tr = trace.Nop{}
	}
	if b.cfg == nil {
		b.cfg = config.Default()
	}
	assets := opts.Assets
	if assets == nil {
		assets = os.DirFS(".")
	}

	res := &Result{
		Name:        doc.Name,
		Fonts:       b.fonts,
		Atlases:     map[string]*image.Alpha{},
		Decorations: b.cfg.Render,
	}
	for _, sec := range doc.Sections {
		if sec.Fonts == nil {
			continue
		}
		for _, decl := range sec.Fonts.Fonts {
			if _, dup := b.fonts[decl.Name]; dup {
				return nil, fmt.Errorf("%s: 字体 %s 重复声明", decl.Pos, decl.Name)
			}
			f, atlas, err := loadFont(b.tr, assets, b.cfg, decl)
			if err != nil {
				return nil, fmt.Errorf("%s: 加载字体 %s 失败: %w", decl.Pos, decl.Name, err)
			}
			b.fonts[decl.Name] = f
			if atlas != nil {
				res.Atlases[f.Atlas] = atlas
			}
			if b.fallback == nil {
				b.fallback = f
			}
			b.tr.Trace("book.Build", "font", f)
		}
	}

	for _, sec := range doc.Sections {
		if sec.Page == nil {
			continue
		}
		props, err := b.pageProperties(sec.Page)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sec.Page.Pos, err)
		}
		units, err := b.units(sec.Page, props)
		if err != nil {
			return nil, err
		}
		pages, err := Paginate(b.tr, props, units)
		if err != nil {
			return nil, err
		}
		res.Pages = append(res.Pages, pages...)
	}
	return res, nil
}

// Paginate 把 units 依次写入新页面，直到全部写完。
func Paginate(tr trace.Tracer, props layout.PageProperties, units []layout.Unit) ([]*layout.Page, error) {
	var pages []*layout.Page
	for len(units) > 0 {
		page := layout.NewPage(props)
		rest, err := layout.NewPageWriter(page).Write(tr, units...)
		if err != nil && !errors.Is(err, layout.ErrPageFull) {
			return nil, err
		}
		if err != nil && page.Len() == 0 {
			return nil, fmt.Errorf("第 %d 页无法放置任何内容", len(pages)+1)
		}
		if page.Len() > 0 {
			pages = append(pages, page)
		}
		units = rest
	}
	return pages, nil
}

func (b *builder) pageProperties(sec *dsl.PageSection) (layout.PageProperties, error) {
	props, err := b.cfg.Page.Properties()
	if err != nil {
		return props, err
	}
	for _, a := range sec.Attrs {
		v := a.Value.Text()
		switch a.Key {
		case "width", "height", "margin", "line-spacing", "space-width":
			l, err := layout.ParseLength(v)
			if err != nil {
				return props, fmt.Errorf("page %s: %w", a.Key, err)
			}
			if l.Unit == layout.UnitPercent {
				return props, fmt.Errorf("page %s 不支持百分比", a.Key)
			}
			px := l.Resolve(0)
			switch a.Key {
			case "width":
				props.Width = px
			case "height":
				props.Height = px
			case "margin":
				props.Margin = px
			case "line-spacing":
				props.LineSpacing = px
			case "space-width":
				props.SpaceWidth = px
			}
		case "align":
			al, err := layout.ParseAlign(v)
			if err != nil {
				return props, err
			}
			if al != layout.AlignInherit {
				props.Align = al
			}
		default:
			b.tr.Warn("book.pageProperties", "unknown attribute", a.Key)
		}
	}
	if props.Width <= 0 || props.Height <= 0 || 2*props.Margin >= props.Width || 2*props.Margin >= props.Height {
		return props, fmt.Errorf("页面尺寸无效: %gx%g margin %g", props.Width, props.Height, props.Margin)
	}
	return props, nil
}

func (b *builder) units(sec *dsl.PageSection, props layout.PageProperties) ([]layout.Unit, error) {
	var out []layout.Unit
	for _, it := range sec.Items {
		var (
			u   layout.Unit
			err error
		)
		switch {
		case it.Para != nil:
			u, err = b.paragraph(it.Para)
		case it.Image != nil:
			u, err = b.image(it.Image, props)
		case it.Stack != nil:
			u, err = b.stack(it.Stack, props)
		case it.Break:
			if b.fallback == nil {
				return nil, fmt.Errorf("br 需要至少声明一个字体")
			}
			u = layout.NewParagraph("\n", layout.TextFormat{Font: b.fallback})
		case it.PageBreak:
			u = layout.PageBreak{}
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// text 先插值再做 NFC 规范化，使组合字符与度量表中的预组合码位一致。
func (b *builder) text(s string) string {
	out, missing := binding.Expand(s, b.data)
	for _, path := range missing {
		b.tr.Warn("book.text", "unresolved binding", path)
	}
	return norm.NFC.String(out)
}

// applyFormat 用 font / color / style 属性覆盖 base，其余属性交给 other 处理。
func (b *builder) applyFormat(base layout.TextFormat, attrs []*dsl.Attr, other func(*dsl.Attr) error) (layout.TextFormat, error) {
	f := base
	for _, a := range attrs {
		v := a.Value.Text()
		switch a.Key {
		case "font":
			fnt, ok := b.fonts[v]
			if !ok {
				return f, fmt.Errorf("%s: 未声明的字体 %s", a.Pos, v)
			}
			f.Font = fnt
		case "color":
			c, err := layout.ParseColor(v)
			if err != nil {
				return f, fmt.Errorf("%s: %w", a.Pos, err)
			}
			f.Color = &c
		case "style":
			d, err := parseStyle(f.Decorations, v)
			if err != nil {
				return f, fmt.Errorf("%s: %w", a.Pos, err)
			}
			f.Decorations = d
		default:
			if other == nil {
				b.tr.Warn("book.applyFormat", "unknown attribute", a.Key)
				continue
			}
			if err := other(a); err != nil {
				return f, fmt.Errorf("%s: %w", a.Pos, err)
			}
		}
	}
	return f, nil
}

// parseStyle 在继承的装饰 d 上叠加 "bold"、"bold italic"、"bold|underline" 等写法，"none" 清除已有装饰。
func parseStyle(d layout.Decoration, s string) (layout.Decoration, error) {
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '|' || r == ',' }) {
		if strings.EqualFold(part, "none") || strings.EqualFold(part, "regular") {
			d = 0
			continue
		}
		x, err := layout.ParseDecoration(part)
		if err != nil {
			return 0, err
		}
		d |= x
	}
	return d, nil
}

func (b *builder) paragraph(p *dsl.Para) (*layout.Paragraph, error) {
	para := &layout.Paragraph{}
	base, err := b.applyFormat(layout.TextFormat{Font: b.fallback}, p.Attrs, func(a *dsl.Attr) error {
		switch a.Key {
		case "align":
			al, err := layout.ParseAlign(a.Value.Text())
			para.Align = al
			return err
		case "id":
			para.ID = a.Value.Text()
			return nil
		default:
			b.tr.Warn("book.paragraph", "unknown attribute", a.Key)
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	if base.Font == nil {
		return nil, fmt.Errorf("%s: 段落没有可用的字体", p.Pos)
	}
	var (
		sb    strings.Builder
		n     int
		spans []layout.Span
	)
	var walk func(runs []*dsl.Run, f layout.TextFormat) error
	walk = func(runs []*dsl.Run, f layout.TextFormat) error {
		for _, r := range runs {
			switch {
			case r.Text != nil:
				s := b.text(string(*r.Text))
				sb.WriteString(s)
				n += len([]rune(s))
			case r.Break:
				sb.WriteByte('\n')
				n++
			case r.Span != nil:
				sf, err := b.applyFormat(f, r.Span.Attrs, nil)
				if err != nil {
					return err
				}
				// 外层 span 先占位，内层 span 排在其后，从而覆盖外层格式。
				idx := len(spans)
				spans = append(spans, layout.Span{Start: n, Format: sf})
				if err := walk(r.Span.Runs, sf); err != nil {
					return err
				}
				spans[idx].End = n
			}
		}
		return nil
	}
	if err := walk(p.Runs, base); err != nil {
		return nil, err
	}
	live := spans[:0]
	for _, s := range spans {
		if s.End > s.Start {
			live = append(live, s)
		}
	}
	para.Runes = []rune(sb.String())
	para.Formatter = layout.NewTextFormatter(base, live...)
	return para, nil
}

// box 解析图片与物品共用的尺寸、对齐与浮动属性。百分比宽度相对内容区宽度，高度相对内容区高度。
type box struct {
	width, height float64
	align         layout.Align
	float         layout.Float
	id            string
}

func (b *builder) box(attrs []*dsl.Attr, props layout.PageProperties, extra func(*dsl.Attr) error) (box, error) {
	var bx box
	for _, a := range attrs {
		v := a.Value.Text()
		var err error
		switch a.Key {
		case "width", "height":
			var l layout.Length
			if l, err = layout.ParseLength(v); err != nil {
				break
			}
			if a.Key == "width" {
				bx.width = l.Resolve(props.Width - 2*props.Margin)
			} else {
				bx.height = l.Resolve(props.Height - 2*props.Margin)
			}
		case "align":
			bx.align, err = layout.ParseAlign(v)
		case "float":
			bx.float, err = layout.ParseFloat(v)
		case "id":
			bx.id = v
		default:
			if extra == nil {
				b.tr.Warn("book.box", "unknown attribute", a.Key)
				continue
			}
			err = extra(a)
		}
		if err != nil {
			return bx, fmt.Errorf("%s: %w", a.Pos, err)
		}
	}
	return bx, nil
}

func (b *builder) image(im *dsl.ImageItem, props layout.PageProperties) (*layout.Image, error) {
	bx, err := b.box(im.Attrs, props, nil)
	if err != nil {
		return nil, err
	}
	return &layout.Image{
		Src:    b.text(string(im.Src)),
		Width:  bx.width,
		Height: bx.height,
		Align:  bx.align,
		Float:  bx.float,
		ID:     bx.id,
	}, nil
}

func (b *builder) stack(it *dsl.StackItem, props layout.PageProperties) (*layout.ItemStackImage, error) {
	st := &dataStack{data: b.data, icon: string(it.Icon), count: 1}
	countFormat := layout.TextFormat{Font: b.fallback}
	var formatAttrs []*dsl.Attr
	bx, err := b.box(it.Attrs, props, func(a *dsl.Attr) error {
		switch a.Key {
		case "count":
			if a.Value.Number != nil {
				n, err := strconv.Atoi(*a.Value.Number)
				if err != nil {
					return fmt.Errorf("count 需要整数: %s", *a.Value.Number)
				}
				st.count = n
				return nil
			}
			st.countPath = a.Value.Text()
			return nil
		case "font", "color", "style":
			formatAttrs = append(formatAttrs, a)
			return nil
		default:
			b.tr.Warn("book.stack", "unknown attribute", a.Key)
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	if countFormat, err = b.applyFormat(countFormat, formatAttrs, nil); err != nil {
		return nil, err
	}
	s := layout.NewItemStackImage(st, bx.width, bx.height, bx.align, bx.float)
	s.ID = bx.id
	s.CountFormat = countFormat
	return s, nil
}
