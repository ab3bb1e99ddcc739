// Package renderer 定义把分页结果输出为最终文件的后端接口，具体实现见 renderer/canvas。
package renderer

import "github.com/ByLCY/fontbox/book"

// Renderer 将分页结果输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(result *book.Result) ([]byte, error)
}
