package ingest

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// skippedElements never contribute visible text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"form":     true,
	"iframe":   true,
}

// ExtractText pulls the visible text out of an HTML page. Block
// elements become newlines so the chunker can split on them.
func ExtractText(page []byte) string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return strings.TrimSpace(string(page))
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			sb.WriteByte('\n')
		}
	}
	walk(doc)

	return collapseBlankLines(sb.String())
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "li", "br", "tr",
		"h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
		return true
	}
	return false
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// ChunkText splits text into overlapping rune windows for embedding.
// Each chunk ends on a sentence boundary when one falls in the last
// quarter of the window, so a fact is rarely cut mid-sentence.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}
		cut := sentenceCut(runes, start+size*3/4, end)
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		step = cut - start - overlap
		if step <= 0 {
			step = size - overlap
		}
	}
	return chunks
}

// sentenceCut finds the last sentence terminator in runes[lo:hi] and
// returns the position just after it, or hi when none exists.
func sentenceCut(runes []rune, lo, hi int) int {
	for i := hi - 1; i >= lo; i-- {
		switch runes[i] {
		case '。', '！', '？', '.', '!', '?', '\n':
			return i + 1
		}
	}
	return hi
}
