package layout

import (
	"errors"
	"fmt"
)

// ErrPageFull 表示当前页已写满，调用方应换页后继续写入剩余内容。
var ErrPageFull = errors.New("layout: page full")

// Overflow 携带未能写入当前页的剩余内容。
type Overflow struct {
	Remainder Unit
}

func (o *Overflow) Error() string {
	if o.Remainder == nil {
		return ErrPageFull.Error()
	}
	return fmt.Sprintf("%s: remainder %T", ErrPageFull, o.Remainder)
}

func (o *Overflow) Is(target error) bool { return target == ErrPageFull }

// LayoutError 表示无法恢复的排版失败，Content 标识出问题的内容。
type LayoutError struct {
	Op      string
	Content string
	Msg     string
	Err     error
}

func (e *LayoutError) Error() string {
	s := "layout: " + e.Op + ": " + e.Msg
	if e.Content != "" {
		s += fmt.Sprintf(" (%q)", clip(e.Content, 32))
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *LayoutError) Unwrap() error { return e.Err }

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
