package layout

// Container 是一块固定尺寸的矩形区域。
type Container struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// InsidePage 判断矩形是否完全位于容器内（含边界）。
func (c Container) InsidePage(b ObjectBounds) bool {
	if b.X < 0 || b.Y < 0 || b.X > c.Width || b.Y > c.Height {
		return false
	}
	return b.Right() <= c.Width && b.Bottom() <= c.Height
}

// PageProperties 描述页面尺寸与排版参数，单位为像素。
type PageProperties struct {
	Width       float64 `json:"width" yaml:"width"`
	Height      float64 `json:"height" yaml:"height"`
	Margin      float64 `json:"margin" yaml:"margin"`
	LineSpacing float64 `json:"lineSpacing" yaml:"line-spacing"`
	SpaceWidth  float64 `json:"spaceWidth" yaml:"space-width"`
	Align       Align   `json:"align" yaml:"-"`
}

// Page 持有已放置的元素，按静态 / 动态分为两个有序集合。
// 页面由构建它的那一次布局独占，不做并发保护。
type Page struct {
	Container
	props   PageProperties
	static  []Element
	dynamic []Element
}

func NewPage(props PageProperties) *Page {
	return &Page{Container: Container{Width: props.Width, Height: props.Height}, props: props}
}

func (p *Page) Properties() PageProperties { return p.props }

// Push 不做任何检查，按元素自身的 Static 分类追加。
func (p *Page) Push(e Element) {
	if e.Static() {
		p.static = append(p.static, e)
	} else {
		p.dynamic = append(p.dynamic, e)
	}
}

// AllElements 先返回静态元素，再返回动态元素。
func (p *Page) AllElements() []Element {
	all := make([]Element, 0, len(p.static)+len(p.dynamic))
	all = append(all, p.static...)
	return append(all, p.dynamic...)
}

func (p *Page) StaticElements() []Element  { return append([]Element(nil), p.static...) }
func (p *Page) DynamicElements() []Element { return append([]Element(nil), p.dynamic...) }
func (p *Page) Len() int                   { return len(p.static) + len(p.dynamic) }

// IntersectsElement 按插入顺序返回第一个与 b 相交的静态元素，没有则返回 nil。
// 动态元素不参与检测。
func (p *Page) IntersectsElement(b ObjectBounds) Element {
	for _, e := range p.static {
		if eb := e.Bounds(); eb != nil && eb.Intersects(b) {
			return e
		}
	}
	return nil
}
