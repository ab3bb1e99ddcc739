package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/fontbox/dsl"
)

const sampleBook = `
// 示例手册
book Manual {
  fonts {
    font body {
      metrics: "embed:ascii.xml"
      atlas: "atlas/body.png"
      atlas-width: 256; atlas-height: 128
    }
    font serif { truetype: "gofont:regular" size: 16 chars-per-row: 16 }
  }

  page width 400 height 600 margin 10 align justify {
    para align left {
      "Hello, ${user.name}! "
      span style bold color #c00 { "world" br "again" }
    }
    image "img/logo.png" width 40 height 50% float right
    item "icon:apple" width 16pt height 16pt
    br
    pagebreak
  }
}
`

func TestParseBook(t *testing.T) {
	book, err := dsl.ParseString(sampleBook)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if book.Name != "Manual" {
		t.Fatalf("expected book name Manual, got %s", book.Name)
	}
	if len(book.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(book.Sections))
	}

	fonts := book.Sections[0].Fonts
	if fonts == nil || len(fonts.Fonts) != 2 {
		t.Fatalf("expected fonts section with 2 fonts")
	}
	body := fonts.Fonts[0]
	if body.Name != "body" || len(body.Properties) != 4 {
		t.Fatalf("unexpected body font: %+v", body)
	}
	if got := body.Properties[0].Value.Text(); got != "embed:ascii.xml" {
		t.Fatalf("metrics property mismatch: %s", got)
	}
	if got := body.Properties[3]; got.Key != "atlas-height" || got.Value.Text() != "128" {
		t.Fatalf("atlas-height mismatch: %+v", got)
	}
	if len(fonts.Fonts[1].Properties) != 3 {
		t.Fatalf("inline font properties should parse on one line")
	}

	page := book.Sections[1].Page
	if page == nil {
		t.Fatalf("expected page section")
	}
	if len(page.Attrs) != 4 || page.Attrs[3].Key != "align" || page.Attrs[3].Value.Text() != "justify" {
		t.Fatalf("unexpected page attrs: %+v", page.Attrs)
	}
	kinds := []string{}
	for _, it := range page.Items {
		kinds = append(kinds, it.Kind())
	}
	if strings.Join(kinds, ",") != "para,image,item,br,pagebreak" {
		t.Fatalf("unexpected items: %v", kinds)
	}

	para := page.Items[0].Para
	if len(para.Runs) != 2 || para.Runs[0].Text == nil {
		t.Fatalf("unexpected runs: %+v", para.Runs)
	}
	if got := string(*para.Runs[0].Text); got != "Hello, ${user.name}! " {
		t.Fatalf("text run mismatch: %q", got)
	}
	span := para.Runs[1].Span
	if span == nil || len(span.Attrs) != 2 || len(span.Runs) != 3 || !span.Runs[1].Break {
		t.Fatalf("unexpected span: %+v", span)
	}
	if c := span.Attrs[1].Value.Color; c == nil || *c != "#c00" {
		t.Fatalf("span color mismatch")
	}

	img := page.Items[1].Image
	if img.Src != "img/logo.png" || len(img.Attrs) != 3 || img.Attrs[1].Value.Text() != "50%" {
		t.Fatalf("unexpected image: %+v", img)
	}
	if got := page.Items[2].Stack; got.Icon != "icon:apple" || got.Attrs[0].Value.Text() != "16pt" {
		t.Fatalf("unexpected item: %+v", got)
	}
}

func TestParseColorWidths(t *testing.T) {
	src := `book C { page { para { span color #0F62FE { "a" } span color #11223380 { "b" } } } }`
	book, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	runs := book.Sections[0].Page.Items[0].Para.Runs
	if got := runs[0].Span.Attrs[0].Value.Text(); got != "#0F62FE" {
		t.Fatalf("6-digit color mismatch: %s", got)
	}
	if got := runs[1].Span.Attrs[0].Value.Text(); got != "#11223380" {
		t.Fatalf("8-digit color mismatch: %s", got)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"missing book keyword":   `Manual { }`,
		"unterminated page":      `book M { page { para { "x" } }`,
		"property without value": `book M { fonts { font a { metrics: } } }`,
	}
	for name, src := range cases {
		if _, err := dsl.ParseString(src); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}
