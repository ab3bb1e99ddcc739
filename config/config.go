// Package config 读取 fontbox 的 YAML 配置：页面默认值、文字装饰常量、追踪开关、日志级别与图集默认参数。
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/fontbox/font"
	"github.com/ByLCY/fontbox/layout"
	"github.com/ByLCY/fontbox/render"
)

// ConfigError 描述某个配置字段的问题。
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// Config 是完整的运行配置。
type Config struct {
	Page   PageConfig         `yaml:"page" json:"page"`
	Render render.Decorations `yaml:"render" json:"render"`
	Trace  TraceConfig        `yaml:"trace" json:"trace"`
	Log    LogConfig          `yaml:"log" json:"log"`
	Atlas  AtlasConfig        `yaml:"atlas" json:"atlas"`
}

// PageConfig 是页面默认值，book 标记中的 page 属性会覆盖它们。单位为像素。
type PageConfig struct {
	Width       float64 `yaml:"width" json:"width"`
	Height      float64 `yaml:"height" json:"height"`
	Margin      float64 `yaml:"margin" json:"margin"`
	LineSpacing float64 `yaml:"line-spacing" json:"lineSpacing"`
	SpaceWidth  float64 `yaml:"space-width" json:"spaceWidth"`
	Align       string  `yaml:"align" json:"align"`
}

// Properties 转换为布局使用的页面属性。
func (p PageConfig) Properties() (layout.PageProperties, error) {
	align, err := layout.ParseAlign(p.Align)
	if err != nil {
		return layout.PageProperties{}, &ConfigError{Field: "page.align", Message: err.Error(), Err: err}
	}
	if align == layout.AlignInherit {
		align = layout.AlignLeft
	}
	return layout.PageProperties{
		Width:       p.Width,
		Height:      p.Height,
		Margin:      p.Margin,
		LineSpacing: p.LineSpacing,
		SpaceWidth:  p.SpaceWidth,
		Align:       align,
	}, nil
}

func (p PageConfig) Validate() error {
	switch {
	case p.Width <= 0:
		return NewConfigError("page.width", "must be positive")
	case p.Height <= 0:
		return NewConfigError("page.height", "must be positive")
	case p.Margin < 0 || 2*p.Margin >= p.Width || 2*p.Margin >= p.Height:
		return NewConfigError("page.margin", "must leave a non-empty content area")
	case p.LineSpacing < 0:
		return NewConfigError("page.line-spacing", "must not be negative")
	case p.SpaceWidth < 0:
		return NewConfigError("page.space-width", "must not be negative")
	}
	_, err := p.Properties()
	return err
}

// TraceConfig 控制排版追踪。
type TraceConfig struct {
	// IgnoreInvalidSymbols 为 false 时，字体中缺失的字符会使排版失败。
	IgnoreInvalidSymbols bool `yaml:"ignore-invalid-symbols" json:"ignoreInvalidSymbols"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// SlogLevel 解析 debug/info/warn/error。
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo, &ConfigError{Field: "log.level", Message: fmt.Sprintf("unknown level %q", l.Level), Err: err}
	}
	return lvl, nil
}

// AtlasConfig 是从 TrueType 字体生成图集时的默认参数，字体声明中的同名属性会覆盖它们。
type AtlasConfig struct {
	Width       int     `yaml:"width" json:"width"`
	Height      int     `yaml:"height" json:"height"`
	CharsPerRow int     `yaml:"chars-per-row" json:"charsPerRow"`
	MinChar     int     `yaml:"min-char" json:"minChar"`
	MaxChar     int     `yaml:"max-char" json:"maxChar"`
	Size        float64 `yaml:"size" json:"size"`
	DPI         float64 `yaml:"dpi" json:"dpi"`
}

func (a AtlasConfig) Grid() font.AtlasGrid {
	return font.AtlasGrid{
		Width:       a.Width,
		Height:      a.Height,
		CharsPerRow: a.CharsPerRow,
		MinChar:     rune(a.MinChar),
		MaxChar:     rune(a.MaxChar),
	}
}

func (a AtlasConfig) Validate() error {
	switch {
	case a.Width <= 0 || a.Height <= 0:
		return NewConfigError("atlas.width", "atlas size must be positive")
	case a.CharsPerRow <= 0 || a.CharsPerRow > a.Width:
		return NewConfigError("atlas.chars-per-row", "must be in 1..width")
	case a.MinChar < 0 || a.MinChar > a.MaxChar:
		return NewConfigError("atlas.min-char", "must not exceed max-char")
	case a.Size <= 0:
		return NewConfigError("atlas.size", "must be positive")
	case a.DPI <= 0:
		return NewConfigError("atlas.dpi", "must be positive")
	}
	return nil
}

// Default 返回一份完整可用的配置。
func Default() *Config {
	return &Config{
		Page: PageConfig{
			Width:       400,
			Height:      600,
			Margin:      16,
			LineSpacing: 2,
			SpaceWidth:  4,
			Align:       "left",
		},
		Render: render.DefaultDecorations(),
		Trace:  TraceConfig{IgnoreInvalidSymbols: true},
		Log:    LogConfig{Level: "info"},
		Atlas: AtlasConfig{
			Width:       512,
			Height:      512,
			CharsPerRow: 16,
			MinChar:     32,
			MaxChar:     126,
			Size:        16,
			DPI:         72,
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Page.Validate(); err != nil {
		return err
	}
	if c.Render.UnderlinePosition < 0 || c.Render.UnderlinePosition > 1 {
		return NewConfigError("render.underline-position", "must be within [0, 1]")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return c.Atlas.Validate()
}

// Parse 在默认配置之上解码 YAML，未知字段视为错误。空文档得到默认配置。
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Message: "failed to parse config", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load 读取并解析配置文件。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}
