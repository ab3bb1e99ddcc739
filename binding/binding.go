// Package binding 把 ${path.to.value} 形式的占位符替换为数据中的值。
// data 通常来自 JSON 或 YAML 解码（map[string]any 与 []any 的嵌套）。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	out, _ := Expand(text, data)
	return out
}

// Expand 与 Interpolate 相同，额外返回无法解析的路径，便于调用方告警。
func Expand(text string, data any) (string, []string) {
	var missing []string
	out := exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if path == "" {
			return match
		}
		val, ok := Lookup(data, path)
		if !ok {
			missing = append(missing, path)
			return match
		}
		return format(val)
	})
	return out, missing
}

// Lookup 按 a.b[0].c 形式的路径在 data 中取值。
func Lookup(data any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes, ok := parseSegment(segment)
		if !ok {
			return nil, false
		}
		if name != "" {
			if current, ok = descendMap(current, name); !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			if current, ok = descendArray(current, idx); !ok {
				return nil, false
			}
		}
	}
	return current, true
}

// Int 按路径取整数值，数值类型或数字字符串均可。
func Int(data any, path string) (int, bool) {
	val, ok := Lookup(data, path)
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

func format(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func parseSegment(segment string) (string, []int, bool) {
	i := strings.IndexByte(segment, '[')
	if i == -1 {
		return segment, nil, segment != ""
	}
	name, rest := segment[:i], segment[i:]
	var indexes []int
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			return "", nil, false
		}
		idx, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return "", nil, false
		}
		indexes = append(indexes, idx)
		rest = rest[end+1:]
	}
	return name, indexes, true
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[any]any:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	c, ok := current.([]any)
	if !ok || idx < 0 || idx >= len(c) {
		return nil, false
	}
	return c[idx], true
}
