// Package answer produces the final natural-language answer from ranked
// evidence.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noesis-ai/noesis/internal/llm"
	"github.com/noesis-ai/noesis/internal/model"
)

// At most this many results feed the context block.
const contextResults = 5

const (
	// NoResultsAnswer is returned without a model call when retrieval
	// found nothing.
	NoResultsAnswer = "抱歉，未能在知识库中找到与您的问题相关的信息。"

	// FailureAnswer is returned when the generation call itself fails.
	FailureAnswer = "抱歉，生成回答时出现了问题，请稍后重试。"

	// GreetingAnswer is the fixed reply to small talk; no retrieval runs.
	GreetingAnswer = "你好！我是知识库问答助手，请问有什么可以帮您？"
)

// toneHints adapts the answer register to the query intent.
var toneHints = map[model.Intent]string{
	model.IntentFactual:     "直接给出事实性回答，引用上下文中的依据",
	model.IntentConceptual:  "给出清晰的概念解释，必要时举例",
	model.IntentComparison:  "逐项对比，最后给出简短结论",
	model.IntentProcedural:  "按步骤列出操作说明",
	model.IntentExploratory: "给出概览性的介绍，指出可以深入的方向",
}

// Synthesizer turns ranked evidence into the final answer.
type Synthesizer struct {
	provider llm.Provider
	logger   *zap.Logger
}

// New creates a synthesizer. provider may be nil; generation then returns
// the fixed failure string whenever evidence exists.
func New(provider llm.Provider, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{provider: provider, logger: logger}
}

// Generate produces the answer text. An empty evidence list short-circuits
// to the fixed no-results message without a model call.
func (s *Synthesizer) Generate(ctx context.Context, parsed *model.ParsedQuery, ranked []model.RankedResult) string {
	if len(ranked) == 0 {
		return NoResultsAnswer
	}
	if s.provider == nil {
		return FailureAnswer
	}

	var b strings.Builder
	for i, res := range ranked {
		if i >= contextResults {
			break
		}
		fmt.Fprintf(&b, "[%d] (相关度 %.2f) %s\n\n", i+1, res.RerankScore, strings.TrimSpace(res.Content))
	}

	tone := toneHints[parsed.Intent]
	if tone == "" {
		tone = toneHints[model.IntentFactual]
	}

	prompt := fmt.Sprintf(`根据下面的上下文回答用户的问题。要求：
- 只依据上下文作答，上下文不足时明确说明
- 引用时标注来源编号，如 [1]
- %s

上下文：
%s
问题：%s`, tone, b.String(), parsed.Original)

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: "你是一个严谨的知识库问答助手。",
		Prompt: prompt,
	})
	if err != nil {
		s.logger.Warn("answer generation failed", zap.Error(err))
		return FailureAnswer
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return FailureAnswer
	}
	return text
}
