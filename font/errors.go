package font

import "fmt"

// FontError 表示度量构建失败。构建一旦失败就不会返回任何部分填充的 Metrics。
type FontError struct {
	Op  string
	Msg string
	Err error
}

func (e *FontError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("font: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("font: %s: %s", e.Op, e.Msg)
}

func (e *FontError) Unwrap() error { return e.Err }

func fontErr(op, format string, args ...any) *FontError {
	return &FontError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

func wrapErr(op string, err error, format string, args ...any) *FontError {
	return &FontError{Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}
