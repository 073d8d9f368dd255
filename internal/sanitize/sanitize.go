// Package sanitize cleans user-submitted HTML and text before storage.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var allowedTags = map[string]bool{
	"p": true, "br": true, "strong": true, "em": true, "u": true,
	"ol": true, "ul": true, "li": true, "a": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var allowedAttrs = map[string]bool{"href": true, "target": true, "rel": true}

// forbiddenTags are dropped together with their content.
var forbiddenTags = []string{"script", "style", "object", "embed", "form", "input", "button", "iframe", "textarea", "select"}

var (
	scriptBlock  = regexp.MustCompile(`(?is)<script\b[^<]*(?:(?:<[^<]*)*?)</script>`)
	jsScheme     = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandler = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// HTML keeps a small formatting allowlist and strips everything else.
// Disallowed elements are unwrapped so their text survives.
func HTML(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	doc, errParse := goquery.NewDocumentFromReader(strings.NewReader(input))
	if errParse != nil {
		return Text(input)
	}
	body := doc.Find("body")
	body.Find(strings.Join(forbiddenTags, ",")).Remove()
	removeComments(body)

	nodes := body.Find("*")
	for i := nodes.Length() - 1; i >= 0; i-- {
		sel := nodes.Eq(i)
		if !allowedTags[goquery.NodeName(sel)] {
			sel.ReplaceWithSelection(sel.Contents())
			continue
		}
		cleanAttributes(sel.Nodes[0])
	}

	out, errHTML := body.Html()
	if errHTML != nil {
		return Text(input)
	}
	return strings.TrimSpace(out)
}

// Text strips markup and script-like fragments from plain text input.
func Text(input string) string {
	cleaned := scriptBlock.ReplaceAllString(input, "")
	if strings.ContainsAny(cleaned, "<>&") {
		if doc, errParse := goquery.NewDocumentFromReader(strings.NewReader(cleaned)); errParse == nil {
			doc.Find(strings.Join(forbiddenTags, ",")).Remove()
			cleaned = doc.Text()
		}
	}
	cleaned = jsScheme.ReplaceAllString(cleaned, "")
	cleaned = eventHandler.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// Excerpt returns the first limit runes of the plain text of content,
// followed by "..." when it was cut.
func Excerpt(content string, limit int) string {
	text := strings.Join(strings.Fields(Text(content)), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

func cleanAttributes(node *html.Node) {
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		key := strings.ToLower(attr.Key)
		if attr.Namespace != "" || !allowedAttrs[key] {
			continue
		}
		if key == "href" && !safeURL(attr.Val) {
			continue
		}
		attr.Key = key
		kept = append(kept, attr)
	}
	node.Attr = kept
	if node.Data == "a" && attrValue(node, "target") == "_blank" && attrValue(node, "rel") == "" {
		node.Attr = append(node.Attr, html.Attribute{Key: "rel", Val: "noopener noreferrer"})
	}
}

func attrValue(node *html.Node, key string) string {
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func removeComments(sel *goquery.Selection) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for child := n.FirstChild; child != nil; {
			next := child.NextSibling
			if child.Type == html.CommentNode {
				n.RemoveChild(child)
			} else {
				walk(child)
			}
			child = next
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}
}

// safeURL accepts relative links and http, https and mailto schemes.
func safeURL(raw string) bool {
	trimmed := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	if trimmed == "" {
		return false
	}
	idx := strings.Index(trimmed, ":")
	if idx < 0 {
		return true
	}
	if slash := strings.IndexAny(trimmed, "/?#"); slash >= 0 && slash < idx {
		return true
	}
	switch trimmed[:idx] {
	case "http", "https", "mailto":
		return true
	default:
		return false
	}
}
