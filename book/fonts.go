package book

import (
	"fmt"
	"image"
	"io/fs"
	"strconv"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"github.com/ByLCY/fontbox/config"
	"github.com/ByLCY/fontbox/dsl"
	"github.com/ByLCY/fontbox/font"
	"github.com/ByLCY/fontbox/fonts"
	"github.com/ByLCY/fontbox/trace"
)

// fontProps 是字体声明的属性表，重复的键以最后一次为准。
type fontProps map[string]string

func declProps(tr trace.Tracer, decl *dsl.FontDecl) fontProps {
	props := fontProps{}
	for _, p := range decl.Properties {
		if _, dup := props[p.Key]; dup {
			tr.Warn("book.loadFont", "duplicate property", decl.Name, p.Key)
		}
		props[p.Key] = p.Value.Text()
	}
	return props
}

func (p fontProps) int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("属性 %s 需要整数: %q", key, v)
	}
	return n, nil
}

func (p fontProps) float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("属性 %s 需要数值: %q", key, v)
	}
	return f, nil
}

// loadFont 按声明加载字体：metrics 走描述文件（路径 B），truetype 由字体文件栅格化（路径 A）。
// 路径 A 额外返回生成的图集，图集标识为 "font:<name>"。
func loadFont(tr trace.Tracer, assets fs.FS, cfg *config.Config, decl *dsl.FontDecl) (*font.Font, *image.Alpha, error) {
	props := declProps(tr, decl)
	scale, err := props.float("scale", 1)
	if err != nil {
		return nil, nil, err
	}
	if scale <= 0 {
		return nil, nil, fmt.Errorf("scale 必须为正数")
	}
	_, hasMetrics := props["metrics"]
	_, hasTrueType := props["truetype"]
	switch {
	case hasMetrics && hasTrueType:
		return nil, nil, fmt.Errorf("metrics 与 truetype 不能同时指定")
	case hasMetrics:
		f, err := loadDescriptorFont(tr, assets, decl.Name, props)
		if err != nil {
			return nil, nil, err
		}
		f.Scale = scale
		return f, nil, nil
	case hasTrueType:
		f, atlas, err := loadTrueTypeFont(tr, assets, cfg.Atlas, decl.Name, props)
		if err != nil {
			return nil, nil, err
		}
		f.Scale = scale
		return f, atlas, nil
	default:
		return nil, nil, fmt.Errorf("需要 metrics 或 truetype 属性")
	}
}

func loadDescriptorFont(tr trace.Tracer, assets fs.FS, name string, props fontProps) (*font.Font, error) {
	atlas := props["atlas"]
	if atlas == "" {
		return nil, fmt.Errorf("metrics 字体需要 atlas 属性")
	}
	w, err := props.int("atlas-width", 256)
	if err != nil {
		return nil, err
	}
	h, err := props.int("atlas-height", 256)
	if err != nil {
		return nil, err
	}
	src := props["metrics"]
	var m *font.Metrics
	if fonts.IsEmbedded(src) {
		m, err = font.FromResource(tr, fonts.Metrics(), fonts.EmbeddedName(src), w, h)
	} else {
		m, err = font.FromResource(tr, assets, src, w, h)
	}
	if err != nil {
		return nil, err
	}
	return &font.Font{Name: name, Atlas: atlas, Metrics: m}, nil
}

func loadTrueTypeFont(tr trace.Tracer, assets fs.FS, defaults config.AtlasConfig, name string, props fontProps) (*font.Font, *image.Alpha, error) {
	ac, err := atlasConfig(defaults, props)
	if err != nil {
		return nil, nil, err
	}
	src := props["truetype"]
	var data []byte
	if fonts.IsGoFont(src) {
		data, err = fonts.GoFont(src)
	} else {
		data, err = fs.ReadFile(assets, src)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("解析字体 %s 失败: %w", src, err)
	}
	opts := &opentype.FaceOptions{Size: ac.Size, DPI: ac.DPI, Hinting: xfont.HintingFull}
	grid := ac.Grid()
	m, err := font.FromFont(tr, otf, opts, grid)
	if err != nil {
		return nil, nil, err
	}
	face, err := opentype.NewFace(otf, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("创建字体面失败: %w", err)
	}
	defer face.Close()
	img, err := font.RenderAtlas(face, grid)
	if err != nil {
		return nil, nil, err
	}
	return &font.Font{Name: name, Atlas: "font:" + name, Metrics: m}, img, nil
}

// atlasConfig 用字体声明中的同名属性覆盖配置里的图集默认值。
func atlasConfig(ac config.AtlasConfig, props fontProps) (config.AtlasConfig, error) {
	var err error
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"atlas-width", &ac.Width},
		{"atlas-height", &ac.Height},
		{"chars-per-row", &ac.CharsPerRow},
		{"min-char", &ac.MinChar},
		{"max-char", &ac.MaxChar},
	} {
		if *f.dst, err = props.int(f.key, *f.dst); err != nil {
			return ac, err
		}
	}
	if ac.Size, err = props.float("size", ac.Size); err != nil {
		return ac, err
	}
	if ac.DPI, err = props.float("dpi", ac.DPI); err != nil {
		return ac, err
	}
	if err := ac.Validate(); err != nil {
		return ac, err
	}
	return ac, nil
}
