package llm

import "testing"

func TestClassifyModel(t *testing.T) {
	tests := []struct {
		name string
		want Capability
	}{
		{"qwen2.5:0.5b", CapabilityLow},
		{"qwen2.5:1.5b", CapabilityLow},
		{"gemma:2b", CapabilityLow},
		{"qwen2.5:3b", CapabilityMedium},
		{"llama3.1:8b", CapabilityMedium},
		{"qwen2.5:7b", CapabilityMedium},
		{"deepseek-r1", CapabilityMedium},
		{"qwen3", CapabilityMedium},
		{"gpt-4o", CapabilityHigh},
		{"llama3.3:70b", CapabilityHigh},
		{"", CapabilityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyModel(tt.name); got != tt.want {
				t.Errorf("ClassifyModel(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}
