package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// pageSelector matches rendered page container blocks.
const pageSelector = "div.page[id][page-url]"

// MaxTitleLength bounds titles derived from page content, in runes.
const MaxTitleLength = 120

var (
	pageIDPattern = regexp.MustCompile(`^[A-Z][0-9]{10}$`)
	schemeHost    = regexp.MustCompile(`(?i)^https?://[^/]+`)
)

// RenderedPage is a page recovered from the rendered markup of an export.
type RenderedPage struct {
	ID       string
	Purl     string
	Title    string
	Content  string
	LocalCSS string
	Pin      bool
	Stack    bool
	Overlay  bool
}

// ParseDocument parses an export document for the rendered-markup scans.
func ParseDocument(doc string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(doc))
}

// ExtractRenderedPages returns every rendered page block carrying a
// bodycopy element, in document order.
func ExtractRenderedPages(doc *goquery.Document) []RenderedPage {
	var pages []RenderedPage

	eachPageBlock(doc, func(id string, sel *goquery.Selection) {
		body := sel.Find("bodycopy").First()
		if body.Length() == 0 {
			return
		}
		content, err := body.Html()
		if err != nil {
			return
		}

		purl := NormalizePurl(sel.AttrOr("page-url", ""))
		page := RenderedPage{
			ID:       id,
			Purl:     purl,
			Content:  strings.TrimSpace(content),
			LocalCSS: localCSS(sel, id),
			Title:    DeriveTitle(spacedText(body), purl),
		}
		for _, class := range strings.Fields(sel.AttrOr("class", "")) {
			switch class {
			case "pinned":
				page.Pin = true
			case "stacked-page":
				page.Stack = true
			case "overlay":
				page.Overlay = true
			}
		}
		pages = append(pages, page)
	})

	return pages
}

// ExtractPageOrder returns the ids of rendered page blocks in document
// order, without duplicates.
func ExtractPageOrder(doc *goquery.Document) []string {
	var order []string
	seen := make(map[string]bool)
	eachPageBlock(doc, func(id string, _ *goquery.Selection) {
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	})
	return order
}

func eachPageBlock(doc *goquery.Document, fn func(id string, sel *goquery.Selection)) {
	doc.Find(pageSelector).Each(func(_ int, sel *goquery.Selection) {
		id := sel.AttrOr("id", "")
		if pageIDPattern.MatchString(id) {
			fn(id, sel)
		}
	})
}

// NormalizePurl turns a page-url attribute into a bare slug: scheme, host,
// leading slashes, query and fragment are removed and the rest is
// URL-decoded. Undecodable input is returned unchanged.
func NormalizePurl(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := schemeHost.ReplaceAllString(raw, "")
	cleaned = strings.TrimLeft(cleaned, "/")
	if i := strings.IndexAny(cleaned, "?#"); i >= 0 {
		cleaned = cleaned[:i]
	}
	decoded, err := url.PathUnescape(cleaned)
	if err != nil {
		return raw
	}
	return decoded
}

// DeriveTitle builds a title from the visible text of a page, falling back
// to its slug and then to "Untitled".
func DeriveTitle(text, purl string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		if purl != "" {
			return purl
		}
		return "Untitled"
	}
	runes := []rune(text)
	if len(runes) > MaxTitleLength {
		return string(runes[:MaxTitleLength])
	}
	return text
}

// localCSS returns the page-scoped stylesheet: a style element inside the
// block whose rules start with the block's own id selector.
func localCSS(sel *goquery.Selection, id string) string {
	prefix := `[id="` + id + `"`
	var css string
	sel.Find("style").EachWithBreak(func(_ int, style *goquery.Selection) bool {
		text := strings.TrimSpace(style.Text())
		if strings.HasPrefix(text, prefix) {
			css = text
			return false
		}
		return true
	})
	return css
}

// spacedText joins every text node with a space so adjacent blocks do not
// run together. Script and style contents are skipped.
func spacedText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
