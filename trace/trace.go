// Package trace 定义排版核心使用的调试追踪接口。
//
// Tracer 只是一个被动的输出端：核心在构建字体度量、排版时调用它，
// 但它的返回值（除 IgnoreInvalidSymbols 外）从不影响控制流。
package trace

import (
	"context"
	"fmt"
	"log/slog"
)

// Tracer 接收追踪与警告事件。
//
// 参数约定：第一个参数为调用方（如 "font.FromFace"），第二个为阶段名或返回值，
// 其余为该阶段的调试参数。
type Tracer interface {
	Trace(params ...any)
	Warn(params ...any)
	// IgnoreInvalidSymbols 为 true 时，字体中不存在的字符按零宽空白跳过；
	// 为 false 时排版会返回 LayoutError。
	IgnoreInvalidSymbols() bool
}

// Nop 丢弃所有事件，并忽略无效字符。
type Nop struct{}

func (Nop) Trace(...any)               {}
func (Nop) Warn(...any)                {}
func (Nop) IgnoreInvalidSymbols() bool { return true }

// Logger 将事件转发到 slog：Trace 记为 Debug，Warn 记为 Warn。
type Logger struct {
	log    *slog.Logger
	ignore bool
}

// NewLogger 创建基于 slog 的 Tracer。l 为 nil 时使用 slog.Default()。
func NewLogger(l *slog.Logger, ignoreInvalidSymbols bool) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{log: l, ignore: ignoreInvalidSymbols}
}

func (t *Logger) Trace(params ...any) { t.emit(slog.LevelDebug, params) }
func (t *Logger) Warn(params ...any)  { t.emit(slog.LevelWarn, params) }

func (t *Logger) IgnoreInvalidSymbols() bool { return t.ignore }

func (t *Logger) emit(level slog.Level, params []any) {
	ctx := context.Background()
	if !t.log.Enabled(ctx, level) {
		return
	}
	msg, attrs := split(params)
	t.log.LogAttrs(ctx, level, msg, attrs...)
}

// split 把第一个参数作为消息，其余参数按位置转为属性 p1, p2, ...
func split(params []any) (string, []slog.Attr) {
	if len(params) == 0 {
		return "trace", nil
	}
	msg := fmt.Sprint(params[0])
	attrs := make([]slog.Attr, 0, len(params)-1)
	for i, p := range params[1:] {
		if s, ok := p.(fmt.Stringer); ok {
			p = s.String()
		}
		attrs = append(attrs, slog.Any(fmt.Sprintf("p%d", i+1), p))
	}
	return msg, attrs
}
