package fonts

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

//go:embed metrics/*.xml
var metricsFS embed.FS

// Metrics 返回内置度量描述文件所在的文件系统，根目录即 metrics/。
func Metrics() fs.FS {
	sub, err := fs.Sub(metricsFS, "metrics")
	if err != nil {
		panic(err)
	}
	return sub
}

// IsEmbedded 判断 src 是否指向内置度量文件（"embed:ascii.xml"）。
func IsEmbedded(src string) bool { return strings.HasPrefix(src, "embed:") }

// EmbeddedName 去掉 embed: 前缀，返回 Metrics() 中的文件名。
func EmbeddedName(src string) string {
	return strings.TrimPrefix(strings.TrimPrefix(src, "embed:"), "metrics/")
}

var goFonts = map[string][]byte{
	"regular":     goregular.TTF,
	"bold":        gobold.TTF,
	"italic":      goitalic.TTF,
	"bold-italic": gobolditalic.TTF,
	"mono":        gomono.TTF,
}

// IsGoFont 判断 src 是否为 "gofont:<name>" 形式。
func IsGoFont(src string) bool { return strings.HasPrefix(src, "gofont:") }

// GoFont 返回内置 Go 字体的 TTF 数据，src 可写为 "gofont:regular" 或直接 "regular"。
func GoFont(src string) ([]byte, error) {
	name := strings.ToLower(strings.TrimPrefix(src, "gofont:"))
	data, ok := goFonts[name]
	if !ok {
		return nil, fmt.Errorf("未知的内置字体 gofont:%s", name)
	}
	return data, nil
}
