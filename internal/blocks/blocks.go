// Package blocks decomposes legacy rich-text bodies into typed content blocks.
//
// Legacy article bodies arrive as HTML, frequently entity-encoded (sometimes
// twice) and full of inline presentation attributes. Decompose walks the
// top-level children of the parsed body in document order, classifies each
// node, and rebuilds a normalized body string from the retained blocks.
// The package is pure: no I/O, deterministic output modulo generated ids.
package blocks

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/sportsdesk/cmx/internal/models"
	"github.com/sportsdesk/cmx/internal/shared"
)

// Result holds the reconstituted body and its ordered blocks.
type Result struct {
	Body   string
	Blocks []models.ContentBlock
}

// Social embed markers whose markup must be preserved byte-for-byte.
// Stripping styles inside these breaks third-party embed rendering.
var socialEmbedClasses = []string{"instagram-media", "twitter-tweet", "tiktok-embed"}

// Decompose parses a legacy HTML body into ordered content blocks and a
// normalized body string. Unrecognized top-level tags are dropped silently;
// empty and whitespace-only nodes (including bare <br>) are skipped.
func Decompose(rawHTML string) Result {
	if strings.TrimSpace(rawHTML) == "" {
		return Result{}
	}

	// Decode entities before structural parsing. Legacy bodies are often
	// double-encoded, so text payloads get a second pass below.
	decoded := html.UnescapeString(rawHTML)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decoded))
	if err != nil {
		return Result{}
	}

	var out []models.ContentBlock

	collect := func(_ int, sel *goquery.Selection) {
		block, ok := classify(sel)
		if !ok {
			return
		}
		block.ID = shared.GenerateID()
		out = append(out, block)
	}

	// The HTML5 parser hoists <script> elements that precede any body
	// content into <head>. Only leading nodes get hoisted, so walking
	// head children first preserves document order.
	doc.Find("head").Children().Each(collect)
	doc.Find("body").Children().Each(collect)

	return Result{Body: rebuild(out), Blocks: out}
}

// classify maps one top-level node to a content block. The bool result is
// false when the node should be dropped.
func classify(sel *goquery.Selection) (models.ContentBlock, bool) {
	node := sel.Get(0)
	if node == nil || node.Type != html.ElementNode {
		return models.ContentBlock{}, false
	}

	tag := strings.ToLower(node.Data)

	if tag == "script" {
		data := outerHTML(sel)
		if strings.TrimSpace(data) == "" {
			return models.ContentBlock{}, false
		}
		return models.ContentBlock{Key: models.BlockScript, Data: strings.TrimSpace(data)}, true
	}

	if isSocialEmbed(sel, tag) || sel.Find("iframe").Length() > 0 ||
		tag == "iframe" || tag == "img" || tag == "video" || tag == "figure" {
		// Embeds keep their full markup, inline styles included.
		data := strings.TrimSpace(outerHTML(sel))
		if data == "" {
			return models.ContentBlock{}, false
		}
		return models.ContentBlock{Key: models.BlockEmbed, Data: data}, true
	}

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		data := textPayload(sel)
		if data == "" {
			return models.ContentBlock{}, false
		}
		return models.ContentBlock{Key: models.BlockHeading, Data: data}, true
	case "p", "div", "span", "blockquote", "ul", "ol", "li":
		data := textPayload(sel)
		if data == "" || isBareBreak(data) {
			return models.ContentBlock{}, false
		}
		return models.ContentBlock{Key: models.BlockParagraph, Data: data}, true
	default:
		return models.ContentBlock{}, false
	}
}

// textPayload extracts the inner HTML of a heading/paragraph node with
// style attributes removed from the node and all of its descendants, and a
// second entity-decode applied for double-encoded legacy text.
func textPayload(sel *goquery.Selection) string {
	sel.RemoveAttr("style")
	sel.Find("[style]").RemoveAttr("style")

	inner, err := sel.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(inner))
}

func isSocialEmbed(sel *goquery.Selection, tag string) bool {
	if tag != "blockquote" {
		return false
	}
	for _, class := range socialEmbedClasses {
		if sel.HasClass(class) {
			return true
		}
	}
	return false
}

func isBareBreak(data string) bool {
	trimmed := strings.TrimSpace(data)
	return trimmed == "<br>" || trimmed == "<br/>" || trimmed == "<br />"
}

func outerHTML(sel *goquery.Selection) string {
	out, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return out
}

// rebuild reconstitutes the normalized body: headings and paragraphs get a
// kind-appropriate wrapper tag, embeds and scripts pass through raw.
func rebuild(blocks []models.ContentBlock) string {
	if len(blocks) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, block := range blocks {
		switch block.Key {
		case models.BlockHeading:
			sb.WriteString("<h2>")
			sb.WriteString(block.Data)
			sb.WriteString("</h2>")
		case models.BlockParagraph:
			sb.WriteString("<p>")
			sb.WriteString(block.Data)
			sb.WriteString("</p>")
		default:
			sb.WriteString(block.Data)
		}
	}
	return sb.String()
}
