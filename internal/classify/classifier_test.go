package classify

import (
	"testing"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

func letterPage() docModel.Page {
	return docModel.Page{Index: 0, Width: 612, Height: 792, Origin: docModel.OriginBottomLeft}
}

func lineAt(text string, x0, y0, x1, y1 float64) docModel.ContentLine {
	return docModel.ContentLine{Text: text, BBox: docModel.BBox{X0: x0, Y0: y0, X1: x1, Y1: y1}}
}

func TestClassifier_DecisionList(t *testing.T) {
	c := NewClassifier(config.Default().Classifier)
	page := letterPage()

	cases := []struct {
		name string
		line docModel.ContentLine
		want docModel.Tag
	}{
		{"body text", lineAt("The parties agree to the following terms and conditions.", 72, 500, 540, 512), docModel.TagContent},
		{"empty line", lineAt("   ", 72, 500, 540, 512), docModel.TagDiscarded},
		{"watermark keyword", lineAt("CONFIDENTIAL", 72, 500, 200, 512), docModel.TagWatermark},
		{"multi word keyword", lineAt("please do not copy this page", 72, 500, 300, 512), docModel.TagWatermark},
		{"short centred text", lineAt("Top Secret", 266, 390, 346, 402), docModel.TagWatermark},
		{"long centred text", lineAt("this sentence happens to cross the centre of the page", 100, 390, 512, 402), docModel.TagContent},
		{"top band", lineAt("Smith v. Jones, Superior Court", 72, 760, 400, 772), docModel.TagHeaderFooter},
		{"bottom band", lineAt("Exhibit A to the Settlement Agreement", 72, 30, 400, 42), docModel.TagHeaderFooter},
		{"page number", lineAt("Page 3 of 12", 72, 500, 200, 512), docModel.TagHeaderFooter},
		{"bare page number", lineAt("14", 72, 500, 200, 512), docModel.TagHeaderFooter},
		{"numeric date", lineAt("03/15/2021", 72, 500, 200, 512), docModel.TagHeaderFooter},
		{"written date", lineAt("Dated: March 3, 2021", 72, 500, 250, 512), docModel.TagHeaderFooter},
		{"boilerplate", lineAt("Privileged and subject to Attorney Work Product", 72, 500, 450, 512), docModel.TagHeaderFooter},
		{"copyright boilerplate", lineAt("2021 Acme LLP. All Rights Reserved.", 72, 500, 450, 512), docModel.TagHeaderFooter},
		{"left margin", lineAt("Exhibit notes", 10, 500, 25, 512), docModel.TagMargin},
		{"right margin", lineAt("annotation text", 590, 500, 610, 512), docModel.TagMargin},
		{"narrow line", lineAt("Hi there", 300, 500, 330, 512), docModel.TagMargin},
		{"tiny text", lineAt("footnote reference material here", 72, 500, 400, 506), docModel.TagMargin},
		{"table header word", lineAt("Amount", 72, 500, 140, 512), docModel.TagTable},
		{"numeric cell", lineAt("$1,500.00", 72, 500, 140, 512), docModel.TagTable},
		{"lone short token", lineAt("Whereas", 72, 500, 140, 512), docModel.TagContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Classify(tc.line, page); got != tc.want {
				t.Errorf("Classify(%q) = %s, want %s", tc.line.Text, got, tc.want)
			}
		})
	}
}

func TestClassifier_WatermarkBeatsEverythingElse(t *testing.T) {
	c := NewClassifier(config.Default().Classifier)
	page := letterPage()

	// a keyword in the header band is still a watermark
	if got := c.Classify(lineAt("DRAFT", 72, 760, 200, 772), page); got != docModel.TagWatermark {
		t.Errorf("header band keyword: got %s, want watermark", got)
	}
	// a short table header word in the centre is a watermark, not a table cell
	if got := c.Classify(lineAt("Amount", 276, 390, 336, 402), page); got != docModel.TagWatermark {
		t.Errorf("centred header word: got %s, want watermark", got)
	}
}

func TestClassifier_KeywordsMatchWholeWords(t *testing.T) {
	cfg := config.Default().Classifier
	cfg.WatermarkKeywords = []string{"demo"}
	c := NewClassifier(cfg)
	page := letterPage()

	if got := c.Classify(lineAt("This clause demonstrates the obligation of the seller.", 72, 500, 540, 512), page); got != docModel.TagContent {
		t.Errorf("substring should not match: got %s", got)
	}
	if got := c.Classify(lineAt("Demo copy for the client review", 72, 500, 540, 512), page); got != docModel.TagWatermark {
		t.Errorf("whole word should match: got %s", got)
	}

	d := NewClassifier(config.Default().Classifier)
	if got := d.Classify(lineAt("for example the buyer may terminate", 72, 500, 540, 512), page); got != docModel.TagContent {
		t.Errorf("'example' should not match 'sample': got %s", got)
	}
}

func TestClassifier_ShortTokenSiblings(t *testing.T) {
	c := NewClassifier(config.Default().Classifier)
	page := letterPage()

	left := lineAt("Whereas", 72, 500, 140, 512)
	right := lineAt("Therefore", 300, 500, 380, 512)
	left.Band, right.Band = 4, 4
	other := lineAt("Hereinafter", 72, 450, 160, 462)
	other.Band = 5
	page.Lines = []docModel.ContentLine{left, right, other}

	if got := c.Classify(left, page); got != docModel.TagTable {
		t.Errorf("left cell: got %s, want table", got)
	}
	if got := c.Classify(right, page); got != docModel.TagTable {
		t.Errorf("right cell: got %s, want table", got)
	}
	if got := c.Classify(other, page); got != docModel.TagContent {
		t.Errorf("token alone in its band: got %s, want content", got)
	}
}

func TestClassifier_TopLeftOrigin(t *testing.T) {
	c := NewClassifier(config.Default().Classifier)
	page := letterPage()
	page.Origin = docModel.OriginTopLeft

	if got := c.Classify(lineAt("Smith v. Jones, Superior Court", 72, 20, 400, 32), page); got != docModel.TagHeaderFooter {
		t.Errorf("top of a top-left page: got %s, want header_footer", got)
	}
	if got := c.Classify(lineAt("The parties agree to the following terms.", 72, 300, 400, 312), page); got != docModel.TagContent {
		t.Errorf("body of a top-left page: got %s, want content", got)
	}
}
