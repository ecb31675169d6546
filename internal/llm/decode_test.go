package llm

import "testing"

type extraction struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestDecodeJSONDirect(t *testing.T) {
	var v extraction
	if err := DecodeJSON(`{"name": "上海", "score": 0.9}`, &v); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if v.Name != "上海" || v.Score != 0.9 {
		t.Errorf("decoded = %+v", v)
	}
}

func TestDecodeJSONCodeFences(t *testing.T) {
	raw := "```json\n{\"name\": \"上海\", \"score\": 0.9}\n```"
	var v extraction
	if err := DecodeJSON(raw, &v); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if v.Name != "上海" {
		t.Errorf("decoded = %+v", v)
	}
}

func TestDecodeJSONSurroundingProse(t *testing.T) {
	raw := `好的，以下是分析结果：
{"name": "上海", "score": 0.8}
希望对你有帮助。`
	var v extraction
	if err := DecodeJSON(raw, &v); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if v.Name != "上海" || v.Score != 0.8 {
		t.Errorf("decoded = %+v", v)
	}
}

func TestDecodeJSONNestedBraces(t *testing.T) {
	raw := `结果 {"name": "A{B}C", "score": 1} 完`
	var v extraction
	if err := DecodeJSON(raw, &v); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if v.Name != "A{B}C" {
		t.Errorf("Name = %q", v.Name)
	}
}

func TestDecodeJSONTrailingComma(t *testing.T) {
	raw := `{"name": "上海", "score": 0.7,}`
	var v extraction
	if err := DecodeJSON(raw, &v); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if v.Score != 0.7 {
		t.Errorf("decoded = %+v", v)
	}
}

func TestDecodeJSONUnclosedBrace(t *testing.T) {
	raw := `{"name": "上海", "score": 0.7`
	var v extraction
	if err := DecodeJSON(raw, &v); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if v.Name != "上海" {
		t.Errorf("decoded = %+v", v)
	}
}

func TestDecodeJSONNothingDecodable(t *testing.T) {
	var v extraction
	if err := DecodeJSON("我不知道该怎么回答。", &v); err == nil {
		t.Error("expected error for response without JSON")
	}
}

func TestScrapeString(t *testing.T) {
	got, ok := ScrapeString(`垃圾 "canonical_name": "上海" 垃圾`, "canonical_name")
	if !ok || got != "上海" {
		t.Errorf("ScrapeString = %q, %v", got, ok)
	}

	if _, ok := ScrapeString("nothing here", "name"); ok {
		t.Error("ScrapeString matched missing field")
	}
}

func TestScrapeFloat(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{`"score": 0.85`, 0.85},
		{`"score": "0.5"`, 0.5},
		{`"score"：0.3`, 0.3}, // full-width colon
	}
	for _, tt := range tests {
		got, ok := ScrapeFloat(tt.raw, "score")
		if !ok || got != tt.want {
			t.Errorf("ScrapeFloat(%q) = %v, %v", tt.raw, got, ok)
		}
	}
}

func TestScrapeBool(t *testing.T) {
	got, ok := ScrapeBool(`"match": true`, "match")
	if !ok || !got {
		t.Errorf("ScrapeBool = %v, %v", got, ok)
	}
}
