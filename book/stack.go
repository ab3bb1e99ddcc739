package book

import "github.com/ByLCY/fontbox/binding"

// dataStack 是由数据驱动的物品堆叠：每次渲染都重新读取数量，
// 因此调用方修改 data 后下一帧即可看到变化。
type dataStack struct {
	data      any
	icon      string
	count     int
	countPath string
}

// Icon 返回插值后的图标标识，如 "icon:${item.id}"。
func (s *dataStack) Icon() string {
	return binding.Interpolate(s.icon, s.data)
}

func (s *dataStack) Count() int {
	if s.countPath == "" {
		return s.count
	}
	n, ok := binding.Int(s.data, s.countPath)
	if !ok {
		return 0
	}
	return n
}
