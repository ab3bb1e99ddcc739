package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/ByLCY/fontbox/trace"
)

// PageWriter 在一页上做单遍前向排版：维护纵向游标，把段落拆成行、放置图片，
// 让文字绕开已放置的静态元素。页写满时返回 *Overflow。
type PageWriter struct {
	page   *Page
	props  PageProperties
	cursor float64
}

func NewPageWriter(page *Page) *PageWriter {
	props := page.Properties()
	return &PageWriter{page: page, props: props, cursor: props.Margin}
}

func (w *PageWriter) Page() *Page { return w.page }

// Cursor 返回下一行的顶边位置。
func (w *PageWriter) Cursor() float64 { return w.cursor }

func (w *PageWriter) contentLeft() float64   { return w.props.Margin }
func (w *PageWriter) contentRight() float64  { return w.props.Width - w.props.Margin }
func (w *PageWriter) contentBottom() float64 { return w.props.Height - w.props.Margin }

// Write 依次写入 units。页写满时返回未写入的内容（含被截断单元的剩余部分）
// 以及一个 Is(ErrPageFull) 的错误；其他错误直接返回。
func (w *PageWriter) Write(tr trace.Tracer, units ...Unit) ([]Unit, error) {
	if tr == nil {
		tr = trace.Nop{}
	}
	for i, u := range units {
		err := u.Layout(tr, w)
		if err == nil {
			continue
		}
		var of *Overflow
		if !errors.As(err, &of) {
			return nil, err
		}
		rest := make([]Unit, 0, len(units)-i)
		if of.Remainder != nil {
			rest = append(rest, of.Remainder)
		}
		rest = append(rest, units[i+1:]...)
		tr.Trace("PageWriter.Write", "page full", w.cursor, len(rest))
		return rest, err
	}
	return nil, nil
}

// span 返回纵向区间 [y, y+h) 内可供排字的水平区间 [left, right)。
// 每遇到一个遮挡的静态元素，就在它左右两侧中留出空间较大的一侧继续尝试。
// obstructed 表示区间被缩小过，below 是遮挡物中最靠上的底边。
func (w *PageWriter) span(y, h float64) (left, right float64, obstructed bool, below float64) {
	left, right = w.contentLeft(), w.contentRight()
	below = math.Inf(1)
	for right > left {
		e := w.page.IntersectsElement(ObjectBounds{X: left, Y: y, Width: right - left, Height: h})
		if e == nil {
			break
		}
		b := *e.Bounds()
		obstructed = true
		below = math.Min(below, b.Bottom())
		if b.X-left >= right-b.Right() {
			right = math.Max(b.X, left)
		} else {
			left = math.Min(b.Right(), right)
		}
	}
	return left, right, obstructed, below
}

// measure 预先计算每个字符的前进宽度与高度（已缩放）。
func (w *PageWriter) measure(tr trace.Tracer, p *Paragraph) (adv, hgt []float64, err error) {
	adv = make([]float64, len(p.Runes))
	hgt = make([]float64, len(p.Runes))
	for i, c := range p.Runes {
		switch c {
		case ' ':
			adv[i] = w.props.SpaceWidth
			continue
		case '\n':
			continue
		}
		f := p.Formatter.Format(i).Font
		if f == nil || f.Metrics == nil {
			return nil, nil, &LayoutError{Op: "PageWriter.measure", Content: string(p.Runes), Msg: fmt.Sprintf("偏移 %d 处没有可用字体", i)}
		}
		g, ok := f.Metrics.Glyph(c)
		if !ok {
			if !tr.IgnoreInvalidSymbols() {
				return nil, nil, &LayoutError{Op: "PageWriter.measure", Content: string(c), Msg: fmt.Sprintf("字体 %s 中没有字符 %U", f.Name, c)}
			}
			tr.Trace("PageWriter.measure", "skip invalid symbol", string(c), f.Name)
			continue
		}
		s := f.EffectiveScale()
		adv[i] = float64(g.Width) * s
		hgt[i] = float64(g.Height) * s
	}
	return adv, hgt, nil
}

// lineFit 是一次行填充的结果，[start, end) 已去掉行尾空格。
type lineFit struct {
	start, end int
	next       int
	width      float64
	height     float64
	spaces     int
	hard       bool // 以 '\n' 结束

	y, left, right float64
}

// fill 在宽度 avail 内按单词贪心填充一行。若一个单词在空行上也放不下则按字符拆开；
// 连一个字符都放不下时 ok 为 false。
func fill(runes []rune, adv, hgt []float64, pos int, avail float64) (f lineFit, ok bool) {
	f.start = pos
	x := 0.0
	words := 0
	i, end := pos, pos
	for i < len(runes) {
		c := runes[i]
		if c == '\n' {
			f.hard = true
			i++
			break
		}
		if c == ' ' {
			x += adv[i]
			i++
			end = i
			continue
		}
		j, ww, wh := i, 0.0, 0.0
		for j < len(runes) && runes[j] != ' ' && runes[j] != '\n' {
			ww += adv[j]
			wh = math.Max(wh, hgt[j])
			j++
		}
		if x+ww <= avail {
			x += ww
			f.height = math.Max(f.height, wh)
			i, end = j, j
			words++
			continue
		}
		if words > 0 {
			break
		}
		if x > 0 {
			// 行首空格占掉了首个单词的位置，丢弃后重新放置
			f.start, pos, x = i, i, 0
			continue
		}
		k := i
		for k < j && x+adv[k] <= avail {
			x += adv[k]
			f.height = math.Max(f.height, hgt[k])
			k++
		}
		if k == i {
			return f, false
		}
		i, end = k, k
		break
	}
	for end > pos && runes[end-1] == ' ' {
		end--
	}
	f.end, f.next = end, i
	for k := pos; k < end; k++ {
		f.width += adv[k]
		if runes[k] == ' ' {
			f.spaces++
		}
	}
	return f, true
}

// blankHeight 是不含字形的行（空行、纯空格行）的高度。
func blankHeight(p *Paragraph, pos int) float64 {
	return p.Formatter.Format(pos).Font.LineHeight()
}

// firstWordHeight 是从 pos 起第一个单词的最大字形高度，用作行高的初始估计。
func firstWordHeight(runes []rune, hgt []float64, pos int) float64 {
	i := pos
	for i < len(runes) && runes[i] == ' ' {
		i++
	}
	h := 0.0
	for ; i < len(runes) && runes[i] != ' ' && runes[i] != '\n'; i++ {
		h = math.Max(h, hgt[i])
	}
	return h
}

func (w *PageWriter) writeParagraph(tr trace.Tracer, p *Paragraph) error {
	n := len(p.Runes)
	if n == 0 {
		return nil
	}
	p.Formatter.check(tr, n)
	adv, hgt, err := w.measure(tr, p)
	if err != nil {
		return err
	}
	align := p.Align
	if align == AlignInherit {
		align = w.props.Align
	}
	pos := 0
	wrapped := false
	for pos < n {
		if wrapped {
			for pos < n && p.Runes[pos] == ' ' {
				pos++
			}
			if pos == n {
				break
			}
		}
		f, err := w.fitLine(tr, p, adv, hgt, pos)
		if err != nil {
			return err
		}
		if err := w.commitLine(tr, p, f, align, onlySpaces(p.Runes[f.next:])); err != nil {
			return err
		}
		wrapped = !f.hard
		pos = f.next
	}
	return nil
}

// fitLine 在当前游标处为 pos 开始的内容找到一行的位置与内容。
// 行高增长后会用新的高度重新计算可用区间；被遮挡而放不下时下移到遮挡物下方。
func (w *PageWriter) fitLine(tr trace.Tracer, p *Paragraph, adv, hgt []float64, pos int) (lineFit, error) {
	y := w.cursor
	h := firstWordHeight(p.Runes, hgt, pos)
	if h == 0 {
		h = blankHeight(p, pos)
	}
	for {
		if y+h > w.contentBottom() {
			return lineFit{}, w.paragraphOverflow(p, pos)
		}
		left, right, obstructed, below := w.span(y, h)
		f, ok := fill(p.Runes, adv, hgt, pos, right-left)
		if !ok {
			if obstructed {
				tr.Trace("PageWriter.fitLine", "move below obstruction", y, below)
				y = below
				continue
			}
			return lineFit{}, &LayoutError{
				Op:      "PageWriter.fitLine",
				Content: string(p.Runes[pos:]),
				Msg:     fmt.Sprintf("可用宽度 %g 放不下任何字符", right-left),
			}
		}
		lh := f.height
		if f.end == f.start {
			lh = blankHeight(p, pos)
		}
		if lh > h {
			h = lh
			continue
		}
		f.height, f.y, f.left, f.right = lh, y, left, right
		return f, nil
	}
}

func (w *PageWriter) commitLine(tr trace.Tracer, p *Paragraph, f lineFit, align Align, last bool) error {
	runes := p.Runes[f.start:f.end]
	sw := w.props.SpaceWidth
	avail := f.right - f.left
	x, width := f.left, f.width
	switch align {
	case AlignRight:
		x = f.right - f.width
	case AlignCenter:
		x = f.left + (avail-f.width)/2
	case AlignJustify:
		if !last && !f.hard && f.spaces > 0 && avail > f.width {
			sw += (avail - f.width) / float64(f.spaces)
			width = avail
		}
	}
	b := ObjectBounds{X: x, Y: f.y, Width: width, Height: f.height}
	if !w.page.InsidePage(b) {
		return &LayoutError{Op: "PageWriter.commitLine", Content: string(runes), Msg: "行超出页面范围 " + b.String()}
	}
	line := NewLine(runes, p.Formatter.Slice(f.start, f.end), p.ID, b, sw)
	w.page.Push(line)
	tr.Trace("PageWriter.commitLine", line.Text(), b)
	w.cursor = b.Bottom() + w.props.LineSpacing
	return nil
}

func (w *PageWriter) paragraphOverflow(p *Paragraph, pos int) error {
	if w.page.Len() == 0 {
		return &LayoutError{Op: "PageWriter.writeParagraph", Content: string(p.Runes[pos:]), Msg: "内容在空白页上也放不下"}
	}
	rest := &Paragraph{
		Runes:     p.Runes[pos:],
		Formatter: p.Formatter.Slice(pos, len(p.Runes)),
		Align:     p.Align,
		ID:        p.ID,
	}
	return &Overflow{Remainder: rest}
}

func onlySpaces(rs []rune) bool {
	for _, r := range rs {
		if r != ' ' {
			return false
		}
	}
	return true
}

type placeable interface {
	Unit
	Element
}

// placeImage 放置图片：不浮动的图片独占一块并推进游标；浮动图片贴在左/右边距，
// 与已有静态元素冲突时下移重试，不推进游标。
func (w *PageWriter) placeImage(tr trace.Tracer, e placeable, im *Image) error {
	if im.Width <= 0 || im.Height <= 0 {
		return &LayoutError{Op: "PageWriter.placeImage", Content: im.Src, Msg: fmt.Sprintf("图片尺寸无效 %gx%g", im.Width, im.Height)}
	}
	if im.Width > w.contentRight()-w.contentLeft() {
		return &LayoutError{Op: "PageWriter.placeImage", Content: im.Src, Msg: fmt.Sprintf("图片宽度 %g 超出可用宽度", im.Width)}
	}
	y := w.cursor
	for {
		if y+im.Height > w.contentBottom() {
			if w.page.Len() == 0 {
				return &LayoutError{Op: "PageWriter.placeImage", Content: im.Src, Msg: "图片在空白页上也放不下"}
			}
			return &Overflow{Remainder: e}
		}
		b, next, ok := w.imageSlot(im, y)
		if !ok {
			tr.Trace("PageWriter.placeImage", "defer", im.Src, y, next)
			y = next
			continue
		}
		if !w.page.InsidePage(b) {
			return &LayoutError{Op: "PageWriter.placeImage", Content: im.Src, Msg: "图片超出页面范围 " + b.String()}
		}
		im.bounds = &b
		w.page.Push(e)
		tr.Trace("PageWriter.placeImage", im.Src, im.Float, b)
		if im.Float == FloatNone {
			w.cursor = b.Bottom() + w.props.LineSpacing
		}
		return nil
	}
}

// imageSlot 尝试在纵向位置 y 为图片找到位置；失败时返回下一次尝试的 y。
func (w *PageWriter) imageSlot(im *Image, y float64) (b ObjectBounds, next float64, ok bool) {
	switch im.Float {
	case FloatLeft, FloatRight:
		x := w.contentLeft()
		if im.Float == FloatRight {
			x = w.contentRight() - im.Width
		}
		b = ObjectBounds{X: x, Y: y, Width: im.Width, Height: im.Height}
		if o := w.page.IntersectsElement(b); o != nil {
			return b, o.Bounds().Bottom(), false
		}
		return b, y, true
	}
	left, right, _, below := w.span(y, im.Height)
	if right-left < im.Width {
		return b, below, false
	}
	x := left
	align := im.Align
	if align == AlignInherit {
		align = w.props.Align
	}
	switch align {
	case AlignCenter:
		x = left + (right-left-im.Width)/2
	case AlignRight:
		x = right - im.Width
	}
	return ObjectBounds{X: x, Y: y, Width: im.Width, Height: im.Height}, y, true
}
