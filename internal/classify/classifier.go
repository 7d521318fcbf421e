package classify

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

var (
	pageNumberPattern = regexp.MustCompile(`(?i)^(?:(?:page\s+)?\d{1,4}(?:\s+of\s+\d{1,4})?|[-–]\s*\d{1,4}\s*[-–])$`)

	datePattern = regexp.MustCompile(`(?i)^(?:dated?:?\s*)?(?:` +
		`\d{1,2}[/-]\d{1,2}[/-]\d{4}` +
		`|(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+\d{1,2},\s*\d{4}` +
		`)\.?$`)
)

// Classifier tags a single assembled line. Checks run in a fixed order and the
// first match wins, so a short centred line is a watermark before it can be a table cell.
type Classifier struct {
	cfg          config.ClassifierSettings
	watermark    *regexp.Regexp
	boilerplate  *regexp.Regexp
	tableHeaders map[string]struct{}
}

func NewClassifier(cfg config.ClassifierSettings) *Classifier {
	headers := make(map[string]struct{}, len(cfg.TableHeaderKeywords))
	for _, h := range cfg.TableHeaderKeywords {
		headers[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	return &Classifier{
		cfg:          cfg,
		watermark:    keywordPattern(cfg.WatermarkKeywords),
		boilerplate:  keywordPattern(cfg.BoilerplateKeywords),
		tableHeaders: headers,
	}
}

// Classify returns the tag of line. page supplies the rectangle for the
// spatial checks and, through page.Lines, the siblings sharing line.Band.
func (c *Classifier) Classify(line docModel.ContentLine, page docModel.Page) docModel.Tag {
	text := strings.TrimSpace(line.Text)
	if text == "" {
		return docModel.TagDiscarded
	}

	switch {
	case c.isWatermark(text, line.BBox, page):
		return docModel.TagWatermark
	case c.isHeaderFooter(text, line.BBox, page):
		return docModel.TagHeaderFooter
	case c.isMargin(line.BBox, page):
		return docModel.TagMargin
	case c.isTableElement(text, line, page):
		return docModel.TagTable
	}
	return docModel.TagContent
}

func (c *Classifier) isWatermark(text string, box docModel.BBox, page docModel.Page) bool {
	if c.watermark != nil && c.watermark.MatchString(text) {
		return true
	}
	if page.Width <= 0 || page.Height <= 0 {
		return false
	}
	dx := box.CenterX() - page.Width/2
	dy := box.CenterY() - page.Height/2
	if math.Hypot(dx, dy) > c.cfg.WatermarkCenterRadius {
		return false
	}
	return len(strings.Fields(text)) < c.cfg.WatermarkMaxTokens
}

func (c *Classifier) isHeaderFooter(text string, box docModel.BBox, page docModel.Page) bool {
	if page.Height > 0 && c.cfg.HeaderFooterBand > 0 {
		band := c.cfg.HeaderFooterBand * page.Height
		d0 := page.DistanceFromTop(box.Y0)
		d1 := page.DistanceFromTop(box.Y1)
		top, bottom := math.Min(d0, d1), math.Max(d0, d1)
		if bottom <= band || top >= page.Height-band {
			return true
		}
	}
	if pageNumberPattern.MatchString(text) || datePattern.MatchString(text) {
		return true
	}
	return c.boilerplate != nil && c.boilerplate.MatchString(text)
}

func (c *Classifier) isMargin(box docModel.BBox, page docModel.Page) bool {
	if page.Width > 0 && c.cfg.SideMarginBand > 0 {
		band := c.cfg.SideMarginBand * page.Width
		if box.MaxX() <= band || box.MinX() >= page.Width-band {
			return true
		}
	}
	return box.Height() < c.cfg.MinLineHeight || box.Width() < c.cfg.MinLineWidth
}

func (c *Classifier) isTableElement(text string, line docModel.ContentLine, page docModel.Page) bool {
	if _, ok := c.tableHeaders[strings.ToLower(text)]; ok {
		return true
	}

	length := utf8.RuneCountInString(text)
	letters, others := letterCounts(text)
	if length < c.cfg.TableMinChars && letters+others > 0 &&
		float64(others)/float64(letters+others) >= c.cfg.TableSymbolDensity {
		return true
	}
	if length < c.cfg.NumericCellMaxChars && others > letters {
		return true
	}

	if !c.isShortToken(text) {
		return false
	}
	for _, sibling := range page.Lines {
		if sibling.Band != line.Band || sameLine(sibling, line) {
			continue
		}
		if c.isShortToken(strings.TrimSpace(sibling.Text)) {
			return true
		}
	}
	return false
}

func (c *Classifier) isShortToken(text string) bool {
	return text != "" && len(strings.Fields(text)) == 1 && utf8.RuneCountInString(text) <= c.cfg.ShortTokenMaxChars
}

func sameLine(a, b docModel.ContentLine) bool {
	return a.Text == b.Text && a.BBox == b.BBox && a.PageIndex == b.PageIndex
}

// letterCounts counts letters and non-space non-letters.
func letterCounts(text string) (letters, others int) {
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsSpace(r):
		default:
			others++
		}
	}
	return letters, others
}

// keywordPattern builds a case-insensitive whole-word alternation.
func keywordPattern(words []string) *regexp.Regexp {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		quoted := regexp.QuoteMeta(w)
		first, _ := utf8.DecodeRuneInString(w)
		last, _ := utf8.DecodeLastRuneInString(w)
		if isWordRune(first) {
			quoted = `\b` + quoted
		}
		if isWordRune(last) {
			quoted += `\b`
		}
		parts = append(parts, quoted)
	}
	if len(parts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(parts, "|") + `)`)
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
