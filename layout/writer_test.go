package layout

import (
	"errors"
	"strings"
	"testing"
)

func lines(p *Page) []*Line {
	var out []*Line
	for _, e := range p.StaticElements() {
		if l, ok := e.(*Line); ok {
			out = append(out, l)
		}
	}
	return out
}

func TestWriteSingleGlyph(t *testing.T) {
	f := testFont("body", 10, 12, "A", nil)
	page := NewPage(PageProperties{Width: 100, Height: 100, SpaceWidth: 4, Align: AlignLeft})
	w := NewPageWriter(page)
	rest, err := w.Write(&recordingTracer{}, NewParagraph("A", TextFormat{Font: f}))
	if err != nil || rest != nil {
		t.Fatalf("Write 失败: rest=%v err=%v", rest, err)
	}
	ls := lines(page)
	if len(ls) != 1 || len(page.StaticElements()) != 1 {
		t.Fatalf("期望恰好一行，实际 %d", len(page.StaticElements()))
	}
	if got := *ls[0].Bounds(); got != (ObjectBounds{X: 0, Y: 0, Width: 10, Height: 12}) {
		t.Fatalf("行边界错误: %s", got)
	}
	if len(page.DynamicElements()) != 0 {
		t.Fatalf("不应有动态元素")
	}
}

// 浮动元素使可用宽度只剩 10，"ab" 中的 b 必须换到下一行。
func TestWriteWrapsAroundFloat(t *testing.T) {
	f := testFont("body", 8, 12, "ab", nil)
	page := NewPage(PageProperties{Width: 100, Height: 100, SpaceWidth: 4, Align: AlignLeft})
	w := NewPageWriter(page)
	float := &Image{Src: "float.png", Width: 90, Height: 20, Float: FloatLeft}
	if _, err := w.Write(&recordingTracer{}, float, NewParagraph("ab", TextFormat{Font: f})); err != nil {
		t.Fatalf("Write 失败: %v", err)
	}
	if w.Cursor() != 24 {
		t.Fatalf("浮动图片不应推进游标，两行后游标应为 24，实际 %g", w.Cursor())
	}
	ls := lines(page)
	if len(ls) != 2 {
		t.Fatalf("期望两行，实际 %d", len(ls))
	}
	if ls[0].Text() != "a" || ls[1].Text() != "b" {
		t.Fatalf("换行错误: %q %q", ls[0].Text(), ls[1].Text())
	}
	for _, l := range ls {
		b := *l.Bounds()
		if b.X != 90 || b.Right() > 100 {
			t.Fatalf("行应位于浮动元素右侧且不越界: %s", b)
		}
		if b.Intersects(*float.Bounds()) {
			t.Fatalf("行与浮动元素重叠: %s", b)
		}
	}
}

func TestWriteWordWrapAndAlign(t *testing.T) {
	f := testFont("body", 10, 10, "abcdefgh", nil)
	text := "ab cd ef gh"
	cases := []struct {
		align Align
		xs    []float64
		ws    []float64
	}{
		{AlignLeft, []float64{0, 0}, []float64{80, 20}},
		{AlignRight, []float64{10, 70}, []float64{80, 20}},
		{AlignCenter, []float64{5, 35}, []float64{80, 20}},
		{AlignJustify, []float64{0, 0}, []float64{90, 20}},
	}
	for _, tc := range cases {
		t.Run(tc.align.String(), func(t *testing.T) {
			page := NewPage(PageProperties{Width: 90, Height: 100, SpaceWidth: 10, LineSpacing: 2, Align: tc.align})
			w := NewPageWriter(page)
			if _, err := w.Write(&recordingTracer{}, NewParagraph(text, TextFormat{Font: f})); err != nil {
				t.Fatalf("Write 失败: %v", err)
			}
			ls := lines(page)
			if len(ls) != 2 || ls[0].Text() != "ab cd ef" || ls[1].Text() != "gh" {
				t.Fatalf("分行错误: %v", ls)
			}
			for i, l := range ls {
				b := *l.Bounds()
				if b.X != tc.xs[i] || b.Width != tc.ws[i] {
					t.Fatalf("第 %d 行边界错误: %s", i, b)
				}
			}
			if y := ls[1].Bounds().Y; y != 12 {
				t.Fatalf("第二行应位于 12（行高 10 + 行距 2），实际 %g", y)
			}
			if tc.align == AlignJustify {
				if ls[0].SpaceWidth != 15 {
					t.Fatalf("两端对齐应把剩余 10 分给 2 个空格，实际 %g", ls[0].SpaceWidth)
				}
				if ls[1].SpaceWidth != 10 {
					t.Fatalf("段落最后一行不应拉伸")
				}
				if got := ls[0].Measure(); got != 90 {
					t.Fatalf("拉伸后的行宽应等于可用宽度，实际 %g", got)
				}
			}
		})
	}
}

func TestWriteExplicitBreak(t *testing.T) {
	f := testFont("body", 10, 10, "ab", nil)
	page := NewPage(PageProperties{Width: 100, Height: 100, SpaceWidth: 5, Align: AlignJustify})
	w := NewPageWriter(page)
	if _, err := w.Write(nil, NewParagraph("a b\n\nb", TextFormat{Font: f})); err != nil {
		t.Fatalf("Write 失败: %v", err)
	}
	ls := lines(page)
	if len(ls) != 3 {
		t.Fatalf("期望 3 行（含空行），实际 %d", len(ls))
	}
	if ls[0].Text() != "a b" || ls[0].SpaceWidth != 5 {
		t.Fatalf("以换行符结束的行不应拉伸: %q %g", ls[0].Text(), ls[0].SpaceWidth)
	}
	if ls[1].Text() != "" || ls[1].Bounds().Height != 10 {
		t.Fatalf("空行应使用字体行高: %s", ls[1].Bounds())
	}
	if ls[2].Bounds().Y != 20 {
		t.Fatalf("第三行位置错误: %s", ls[2].Bounds())
	}
}

func TestWriteBreaksLongWord(t *testing.T) {
	f := testFont("body", 10, 10, "abcdef", nil)
	page := NewPage(PageProperties{Width: 25, Height: 100, SpaceWidth: 5})
	w := NewPageWriter(page)
	if _, err := w.Write(nil, NewParagraph("abcdef", TextFormat{Font: f})); err != nil {
		t.Fatalf("Write 失败: %v", err)
	}
	var got []string
	for _, l := range lines(page) {
		got = append(got, l.Text())
	}
	if strings.Join(got, "|") != "ab|cd|ef" {
		t.Fatalf("长单词应按字符拆开: %v", got)
	}
}

func TestWriteLeadingSpacesBeforeLongWord(t *testing.T) {
	f := testFont("body", 10, 10, "abc", nil)
	for _, text := range []string{"  abc", "a\n   abc"} {
		page := NewPage(PageProperties{Width: 25, Height: 100, SpaceWidth: 10, Align: AlignLeft})
		w := NewPageWriter(page)
		if _, err := w.Write(nil, NewParagraph(text, TextFormat{Font: f})); err != nil {
			t.Fatalf("%q: 行首空格不应导致布局失败: %v", text, err)
		}
		var got []string
		for _, l := range lines(page) {
			got = append(got, l.Text())
		}
		want := "ab|c"
		if strings.HasPrefix(text, "a\n") {
			want = "a|ab|c"
		}
		if strings.Join(got, "|") != want {
			t.Fatalf("%q: 期望 %s，实际 %v", text, want, got)
		}
	}
}

// 浮动元素旁只剩 30 宽，三个行首空格正好占满；丢弃空格后 "ab" 仍应排在浮动元素旁。
func TestWriteLeadingSpacesBesideFloat(t *testing.T) {
	f := testFont("body", 10, 10, "ab", nil)
	page := NewPage(PageProperties{Width: 40, Height: 100, SpaceWidth: 10, Align: AlignLeft})
	w := NewPageWriter(page)
	float := &Image{Src: "f.png", Width: 10, Height: 15, Float: FloatLeft}
	if _, err := w.Write(nil, float, NewParagraph("   ab", TextFormat{Font: f})); err != nil {
		t.Fatalf("Write 失败: %v", err)
	}
	ls := lines(page)
	if len(ls) != 1 || ls[0].Text() != "ab" {
		t.Fatalf("期望单行 ab，实际 %d 行", len(ls))
	}
	if b := *ls[0].Bounds(); b.Y != 0 || b.X != 10 {
		t.Fatalf("行不应被推到浮动元素下方: %s", b)
	}
}

func TestWriteOverflowCarriesRemainder(t *testing.T) {
	f := testFont("body", 10, 10, "abcdef", nil)
	page := NewPage(PageProperties{Width: 20, Height: 25, SpaceWidth: 5})
	w := NewPageWriter(page)
	img := &Image{Src: "x.png", Width: 5, Height: 5}
	rest, err := w.Write(nil, NewParagraph("ab cd ef", TextFormat{Font: f}), img)
	if !errors.Is(err, ErrPageFull) {
		t.Fatalf("期望 ErrPageFull，实际 %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("剩余内容应为段落剩余部分 + 图片，实际 %d", len(rest))
	}
	p, ok := rest[0].(*Paragraph)
	if !ok || p.String() != "ef" {
		t.Fatalf("剩余段落错误: %v", rest[0])
	}
	if rest[1] != Unit(img) {
		t.Fatalf("未写入的单元应原样返回")
	}

	next := NewPageWriter(NewPage(page.Properties()))
	if rest, err := next.Write(nil, rest...); err != nil || rest != nil {
		t.Fatalf("剩余内容应能写入新页: %v %v", rest, err)
	}
	if ls := lines(next.Page()); len(ls) != 1 || ls[0].Text() != "ef" {
		t.Fatalf("新页内容错误")
	}
}

func TestWriteTooTallForEmptyPage(t *testing.T) {
	f := testFont("body", 10, 50, "a", nil)
	w := NewPageWriter(NewPage(PageProperties{Width: 100, Height: 40}))
	_, err := w.Write(nil, NewParagraph("a", TextFormat{Font: f}))
	var le *LayoutError
	if !errors.As(err, &le) {
		t.Fatalf("空白页也放不下时应返回 LayoutError，实际 %v", err)
	}
}

func TestWriteTooNarrow(t *testing.T) {
	f := testFont("body", 30, 10, "a", nil)
	w := NewPageWriter(NewPage(PageProperties{Width: 20, Height: 40}))
	_, err := w.Write(nil, NewParagraph("a", TextFormat{Font: f}))
	var le *LayoutError
	if !errors.As(err, &le) || !strings.Contains(le.Content, "a") {
		t.Fatalf("宽度不足且无遮挡时应返回 LayoutError，实际 %v", err)
	}
}

func TestWriteMovesBelowObstruction(t *testing.T) {
	f := testFont("body", 30, 10, "a", nil)
	page := NewPage(PageProperties{Width: 40, Height: 100})
	w := NewPageWriter(page)
	float := &Image{Src: "f.png", Width: 20, Height: 15, Float: FloatRight}
	if _, err := w.Write(nil, float, NewParagraph("a", TextFormat{Font: f})); err != nil {
		t.Fatalf("Write 失败: %v", err)
	}
	ls := lines(page)
	if len(ls) != 1 || ls[0].Bounds().Y != 15 {
		t.Fatalf("放不下的行应下移到遮挡物下方: %v", ls[0].Bounds())
	}
}

func TestWriteInvalidSymbol(t *testing.T) {
	f := testFont("body", 10, 10, "a", nil)
	page := NewPage(PageProperties{Width: 100, Height: 100})
	strict := &recordingTracer{strict: true}
	_, err := NewPageWriter(page).Write(strict, NewParagraph("a?", TextFormat{Font: f}))
	var le *LayoutError
	if !errors.As(err, &le) {
		t.Fatalf("严格模式下缺失字形应返回 LayoutError，实际 %v", err)
	}

	lenient := &recordingTracer{}
	page = NewPage(PageProperties{Width: 100, Height: 100})
	if _, err := NewPageWriter(page).Write(lenient, NewParagraph("a?", TextFormat{Font: f})); err != nil {
		t.Fatalf("宽松模式下缺失字形应被跳过: %v", err)
	}
	if b := *lines(page)[0].Bounds(); b.Width != 10 {
		t.Fatalf("缺失字形宽度应为 0: %s", b)
	}
}

func TestWriteFloatsDeferDownward(t *testing.T) {
	page := NewPage(PageProperties{Width: 100, Height: 100, Margin: 5})
	w := NewPageWriter(page)
	a := &Image{Src: "a.png", Width: 30, Height: 20, Float: FloatLeft}
	b := &Image{Src: "b.png", Width: 30, Height: 20, Float: FloatLeft}
	c := &Image{Src: "c.png", Width: 30, Height: 20, Float: FloatRight}
	if _, err := w.Write(nil, a, b, c); err != nil {
		t.Fatalf("Write 失败: %v", err)
	}
	if got := *a.Bounds(); got != (ObjectBounds{5, 5, 30, 20}) {
		t.Fatalf("左浮动位置错误: %s", got)
	}
	if got := *b.Bounds(); got != (ObjectBounds{5, 25, 30, 20}) {
		t.Fatalf("冲突的浮动应下移: %s", got)
	}
	if got := *c.Bounds(); got != (ObjectBounds{65, 5, 30, 20}) {
		t.Fatalf("右浮动位置错误: %s", got)
	}
	if w.Cursor() != 5 {
		t.Fatalf("浮动不应推进游标: %g", w.Cursor())
	}
}

func TestWriteBlockImage(t *testing.T) {
	page := NewPage(PageProperties{Width: 100, Height: 100, LineSpacing: 3, Align: AlignCenter})
	w := NewPageWriter(page)
	img := &Image{Src: "logo.png", Width: 40, Height: 10}
	if _, err := w.Write(nil, img); err != nil {
		t.Fatalf("Write 失败: %v", err)
	}
	if got := *img.Bounds(); got != (ObjectBounds{30, 0, 40, 10}) {
		t.Fatalf("块图片应按页面对齐方式居中: %s", got)
	}
	if w.Cursor() != 13 {
		t.Fatalf("块图片应推进游标: %g", w.Cursor())
	}
	wide := &Image{Src: "wide.png", Width: 120, Height: 10}
	var le *LayoutError
	if _, err := w.Write(nil, wide); !errors.As(err, &le) {
		t.Fatalf("过宽的图片应返回 LayoutError，实际 %v", err)
	}
}

func TestPageBreak(t *testing.T) {
	f := testFont("body", 10, 10, "a", nil)
	w := NewPageWriter(NewPage(PageProperties{Width: 100, Height: 100}))
	para := NewParagraph("a", TextFormat{Font: f})
	rest, err := w.Write(nil, PageBreak{}, para, PageBreak{}, para)
	if !errors.Is(err, ErrPageFull) {
		t.Fatalf("PageBreak 应触发换页，实际 %v", err)
	}
	if len(rest) != 1 || rest[0] != Unit(para) {
		t.Fatalf("换页后的剩余内容错误: %v", rest)
	}
	if len(lines(w.Page())) != 1 {
		t.Fatalf("空白页上的 PageBreak 不应生成空页")
	}
}

func TestDynamicFloatDoesNotBlockText(t *testing.T) {
	f := testFont("body", 10, 10, "a", nil)
	page := NewPage(PageProperties{Width: 100, Height: 100})
	w := NewPageWriter(page)
	icon := NewItemStackImage(fixedStack{icon: "icon"}, 50, 50, AlignLeft, FloatLeft)
	if _, err := w.Write(nil, icon, NewParagraph("a", TextFormat{Font: f})); err != nil {
		t.Fatalf("Write 失败: %v", err)
	}
	if b := *lines(page)[0].Bounds(); b.X != 0 {
		t.Fatalf("动态元素不阻挡文字: %s", b)
	}
}
