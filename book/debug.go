package book

import (
	"encoding/json"
	"os"

	"github.com/ByLCY/fontbox/layout"
)

type debugFont struct {
	Atlas       string  `json:"atlas"`
	Scale       float64 `json:"scale"`
	Glyphs      int     `json:"glyphs"`
	LineHeight  float64 `json:"lineHeight"`
	AtlasWidth  int     `json:"atlasWidth"`
	AtlasHeight int     `json:"atlasHeight"`
	Generated   bool    `json:"generated,omitempty"`
}

type debugElement struct {
	Kind   string               `json:"kind"`
	Static bool                 `json:"static"`
	Bounds *layout.ObjectBounds `json:"bounds,omitempty"`
	ID     string               `json:"id,omitempty"`
	Text   string               `json:"text,omitempty"`
	Src    string               `json:"src,omitempty"`
}

type debugPage struct {
	Properties layout.PageProperties `json:"properties"`
	Elements   []debugElement        `json:"elements"`
}

type debugResult struct {
	Name  string               `json:"name"`
	Fonts map[string]debugFont `json:"fonts"`
	Pages []debugPage          `json:"pages"`
}

func debugView(res *Result) debugResult {
	out := debugResult{Name: res.Name, Fonts: map[string]debugFont{}}
	for name, f := range res.Fonts {
		df := debugFont{Atlas: f.Atlas, Scale: f.EffectiveScale(), LineHeight: f.LineHeight()}
		if f.Metrics != nil {
			df.Glyphs = f.Metrics.Len()
			df.AtlasWidth = f.Metrics.AtlasWidth()
			df.AtlasHeight = f.Metrics.AtlasHeight()
		}
		_, df.Generated = res.Atlases[f.Atlas]
		out.Fonts[name] = df
	}
	for _, p := range res.Pages {
		dp := debugPage{Properties: p.Properties(), Elements: []debugElement{}}
		for _, e := range p.AllElements() {
			de := debugElement{Static: e.Static(), Bounds: e.Bounds()}
			switch v := e.(type) {
			case *layout.Line:
				de.Kind, de.ID, de.Text = "line", v.ID, v.Text()
			case *layout.ItemStackImage:
				de.Kind, de.ID = "item", v.ID
				if v.Stack != nil {
					de.Src = v.Stack.Icon()
				}
			case *layout.Image:
				de.Kind, de.ID, de.Src = "image", v.ID, v.Src
			default:
				de.Kind = "element"
			}
			dp.Elements = append(dp.Elements, de)
		}
		out.Pages = append(out.Pages, dp)
	}
	return out
}

// WriteDebugJSON 将分页结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	data, err := json.MarshalIndent(debugView(res), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
