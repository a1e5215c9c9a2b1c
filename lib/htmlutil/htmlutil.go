// Package htmlutil extracts readable text and links from scraped storefront markup.
package htmlutil

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("hephix.lib.htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText drops non-printable characters, trims and collapses runs of whitespace into one space.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// FirstText returns the cleaned text of the first selector that matches non-blank text under sel.
func FirstText(sel *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		match := sel.Find(s).First()
		if match.Length() == 0 {
			continue
		}
		text := CleanText(GetText(match.Nodes[0]))
		if text != "" {
			return text
		}
	}
	return ""
}

// Resolve resolves href against base, an empty or unparsable href resolves to "".
func Resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	parsed, err := base.Parse(href)
	if err != nil {
		return ""
	}
	return parsed.String()
}

type Anchor struct {
	Name string
	Href string
}

// GetAnchors returns the anchors in sel that carry an href, resolved against base.
func GetAnchors(ctx context.Context, sel *goquery.Selection, base *url.URL) []Anchor {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		link := Resolve(base, href)
		if link == "" {
			span.SetStatus(codes.Error, "anchor without a usable href")
			continue
		}

		name := CleanText(GetText(n))
		anchors = append(anchors, Anchor{
			Name: name,
			Href: link,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", link),
		))
	}

	return anchors
}
