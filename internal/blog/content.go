package blog

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(`[ \t]+`)
	whitespace   = regexp.MustCompile(`\s+`)
	htmlTag      = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
)

// IsHTML reports whether content looks like HTML rather than markdown.
func IsHTML(content string) bool {
	return htmlTag.MatchString(content)
}

// Markdown returns article content as markdown. HTML content (what the rich
// text editor stores) is converted; markdown passes through unchanged.
func Markdown(content string) string {
	if !IsHTML(content) {
		return content
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}
	var sb strings.Builder
	writeMarkdown(doc, &sb, 0)
	return cleanMarkdown(sb.String())
}

// PlainText strips markup and collapses whitespace onto one line.
func PlainText(content string) string {
	if !IsHTML(content) {
		return strings.Join(strings.Fields(content), " ")
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return strings.Join(strings.Fields(content), " ")
	}
	var sb strings.Builder
	writeText(doc, &sb, 0)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func writeText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 50 || (n.Type == html.ElementNode && skipped(n.Data)) {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, sb, depth+1)
	}
}

// inlineMarks wraps inline elements on both sides.
var inlineMarks = map[string]string{
	"strong": "**",
	"b":      "**",
	"em":     "*",
	"i":      "*",
}

func skipped(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "iframe", "svg":
		return true
	}
	return false
}

func heading(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func inlineCode(n *html.Node) bool {
	return n.Data == "code" && (n.Parent == nil || n.Parent.Data != "pre")
}

func linkTarget(n *html.Node) string {
	if n.Data != "a" {
		return ""
	}
	if href := attr(n, "href"); !strings.HasPrefix(href, "#") {
		return href
	}
	return ""
}

func writeMarkdown(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 50 {
		return
	}
	if n.Type == html.TextNode {
		if strings.TrimSpace(n.Data) != "" {
			sb.WriteString(whitespace.ReplaceAllString(n.Data, " "))
		}
		return
	}

	var closing string
	if n.Type == html.ElementNode {
		if skipped(n.Data) {
			return
		}
		mark, wrapped := inlineMarks[n.Data]
		level := heading(n.Data)
		href := linkTarget(n)
		switch {
		case level > 0:
			fmt.Fprintf(sb, "\n\n%s ", strings.Repeat("#", level))
			closing = "\n\n"
		case wrapped:
			sb.WriteString(mark)
			closing = mark
		case inlineCode(n):
			sb.WriteString("`")
			closing = "`"
		case href != "":
			sb.WriteString("[")
			closing = "](" + href + ")"
		case n.Data == "pre":
			fmt.Fprintf(sb, "\n\n```\n%s\n```\n\n", rawText(n))
			return
		case n.Data == "img":
			if alt := attr(n, "alt"); alt != "" {
				fmt.Fprintf(sb, "[Image: %s]", alt)
			}
			return
		case n.Data == "p", n.Data == "div":
			sb.WriteString("\n\n")
		case n.Data == "blockquote":
			sb.WriteString("\n\n> ")
		case n.Data == "br":
			sb.WriteString("\n")
		case n.Data == "li":
			sb.WriteString("\n- ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeMarkdown(c, sb, depth+1)
	}
	sb.WriteString(closing)
}

// rawText returns the text under n with whitespace preserved.
func rawText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Trim(sb.String(), "\n")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func cleanMarkdown(s string) string {
	lines := strings.Split(s, "\n")
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			lines[i] = strings.TrimSpace(line)
			continue
		}
		if inFence {
			continue
		}
		lines[i] = strings.TrimSpace(multiSpace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
