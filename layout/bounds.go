package layout

import (
	"fmt"
	"math"
)

// ObjectBounds 是页面局部坐标下的轴对齐矩形，宽高非负。
type ObjectBounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b ObjectBounds) Right() float64  { return b.X + b.Width }
func (b ObjectBounds) Bottom() float64 { return b.Y + b.Height }

// Intersects 仅在两个矩形的重叠面积为正时返回 true，贴边不算相交。
func (b ObjectBounds) Intersects(o ObjectBounds) bool {
	w := math.Min(b.Right(), o.Right()) - math.Max(b.X, o.X)
	h := math.Min(b.Bottom(), o.Bottom()) - math.Max(b.Y, o.Y)
	return w > 0 && h > 0
}

func (b ObjectBounds) String() string {
	return fmt.Sprintf("{x:%g y:%g w:%g h:%g}", b.X, b.Y, b.Width, b.Height)
}
