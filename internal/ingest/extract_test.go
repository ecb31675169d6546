package ingest

import (
	"strings"
	"testing"
)

func TestExtractText(t *testing.T) {
	page := []byte(`<html><head>
<title>公司名录</title>
<style>body { color: red }</style>
<script>alert("hi")</script>
</head><body>
<nav>首页 | 关于</nav>
<h1>上海的人工智能公司</h1>
<p>商汤科技成立于2014年。</p>
<footer>版权所有</footer>
</body></html>`)

	got := ExtractText(page)

	for _, want := range []string{"上海的人工智能公司", "商汤科技成立于2014年。"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	for _, banned := range []string{"alert", "color: red", "首页", "版权所有"} {
		if strings.Contains(got, banned) {
			t.Errorf("non-content text %q leaked into:\n%s", banned, got)
		}
	}
}

func TestExtractTextInvalidHTML(t *testing.T) {
	got := ExtractText([]byte("纯文本，没有标签"))
	if !strings.Contains(got, "纯文本") {
		t.Errorf("got %q", got)
	}
}

func TestChunkText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    int // expected chunk count, -1 to skip
	}{
		{"empty", "", 100, 10, 0},
		{"fits in one", "短文本。", 100, 10, 1},
		{"zero size", "文本", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkText(tt.text, tt.size, tt.overlap)
			if len(got) != tt.want {
				t.Errorf("ChunkText = %d chunks, want %d", len(got), tt.want)
			}
		})
	}
}

func TestChunkTextCoversEverything(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("这是第一句话。这是第二句话！这是第三句话？")
	}
	text := b.String()

	chunks := ChunkText(text, 100, 20)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if chunk == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if n := len([]rune(chunk)); n > 100 {
			t.Errorf("chunk %d has %d runes, exceeds window", i, n)
		}
	}

	// The final characters of the text must appear in the last chunk.
	tail := string([]rune(text)[len([]rune(text))-10:])
	if !strings.Contains(chunks[len(chunks)-1], strings.TrimSpace(tail)) {
		t.Error("tail of text missing from final chunk")
	}
}

func TestChunkTextSentenceBoundaries(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("完整的一句话在这里结束。")
	}

	chunks := ChunkText(b.String(), 100, 0)
	for i, chunk := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(chunk, "。") {
			t.Errorf("chunk %d does not end on a sentence boundary: %q", i, chunk)
		}
	}
}
