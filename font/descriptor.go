package font

import (
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/ByLCY/fontbox/trace"
)

// 描述文件中每个 character 条目必须且只能包含的属性。
var descriptorProps = []string{"width", "height", "x", "y"}

// FromDescriptor 从度量描述文档读取字形表（路径 B）。
//
// 文档结构：根元素下任意层级的 <character key="N">，每个条目包含
// <width>、<height>、<x>、<y> 四个整数子元素。key 必须在 [0, 255] 内，
// 出现其它子元素或缺少任意一个都会失败。此格式无法恢复 ascent，统一记为 0。
func FromDescriptor(tr trace.Tracer, r io.Reader, atlasWidth, atlasHeight int) (*Metrics, error) {
	const op = "FromDescriptor"
	if tr == nil {
		return nil, fontErr(op, "tracer 不能为空")
	}
	if r == nil {
		return nil, fontErr(op, "reader 不能为空")
	}
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, wrapErr(op, err, "无法读取字体度量数据")
	}
	root := doc.Root()
	if root == nil {
		return nil, fontErr(op, "度量文档缺少根元素")
	}

	m := newMetrics(atlasWidth, atlasHeight)
	for _, ch := range doc.FindElements("//character") {
		key, g, err := parseCharacter(op, ch)
		if err != nil {
			return nil, err
		}
		if _, dup := m.glyphs[key]; dup {
			tr.Warn("font.FromDescriptor", "重复的字符条目，后者覆盖前者", key)
		}
		tr.Trace("font.FromDescriptor", "placeGlyph", key, g.Width, g.Height, g.X, g.Y)
		m.put(key, g)
	}
	tr.Trace("font.FromDescriptor", m)
	return m, nil
}

func parseCharacter(op string, ch *etree.Element) (rune, GlyphMetric, error) {
	attr := ch.SelectAttr("key")
	if attr == nil {
		return 0, GlyphMetric{}, fontErr(op, "character 条目缺少 key 属性")
	}
	code, err := strconv.Atoi(strings.TrimSpace(attr.Value))
	if err != nil {
		return 0, GlyphMetric{}, wrapErr(op, err, "字符码 %q 无法解析", attr.Value)
	}
	if code < 0 || code > 255 {
		return 0, GlyphMetric{}, fontErr(op, "不支持的字符码 %d", code)
	}

	values := map[string]int{}
	for _, prop := range ch.ChildElements() {
		name := strings.ToLower(prop.Tag)
		if !isDescriptorProp(name) {
			return 0, GlyphMetric{}, fontErr(op, "未知的度量属性 %s (key %d)", name, code)
		}
		v, err := strconv.Atoi(strings.TrimSpace(prop.Text()))
		if err != nil {
			return 0, GlyphMetric{}, wrapErr(op, err, "属性 %s 的值无效 (key %d)", name, code)
		}
		if v < 0 {
			return 0, GlyphMetric{}, fontErr(op, "属性 %s 不能为负数: %d (key %d)", name, v, code)
		}
		values[name] = v
	}
	for _, name := range descriptorProps {
		if _, ok := values[name]; !ok {
			return 0, GlyphMetric{}, fontErr(op, "key %d 缺少度量属性 %s", code, name)
		}
	}
	return rune(code), GlyphMetric{
		Width:  values["width"],
		Height: values["height"],
		X:      values["x"],
		Y:      values["y"],
	}, nil
}

func isDescriptorProp(name string) bool {
	for _, p := range descriptorProps {
		if p == name {
			return true
		}
	}
	return false
}

// FromResource 从 fsys 中打开 name 指向的描述文件并解析。
// 打开或读取失败会包装为 FontError，并保留原始错误。
func FromResource(tr trace.Tracer, fsys fs.FS, name string, atlasWidth, atlasHeight int) (*Metrics, error) {
	const op = "FromResource"
	if tr == nil {
		return nil, fontErr(op, "tracer 不能为空")
	}
	if fsys == nil || name == "" {
		return nil, fontErr(op, "度量资源不能为空")
	}
	f, err := fsys.Open(name)
	if err != nil {
		return nil, wrapErr(op, err, "无法打开字体度量文件 %s", name)
	}
	defer f.Close()
	m, err := FromDescriptor(tr, f, atlasWidth, atlasHeight)
	if err != nil {
		return nil, wrapErr(op, err, "无法加载字体度量 %s", name)
	}
	return m, nil
}
