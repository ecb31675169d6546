package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noesis-ai/noesis/internal/llm"
	"github.com/noesis-ai/noesis/internal/model"
)

// Only the head of the candidate list goes through the model judge; the
// tail keeps similarity scores.
const rerankWindow = 10

// Content shown to the judge is truncated to keep prompts bounded.
const rerankSnippetRunes = 500

const rerankFallbackExplanation = "重排服务不可用，保留相似度得分"

type rerankJudgment struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Rerank re-scores candidates for relevance with the model judge. A failed
// call keeps the original similarity score with a placeholder explanation;
// the output length always equals min(len(results), topK) after the final
// sort and truncation.
func (e *Executor) Rerank(ctx context.Context, results []model.SearchResult, parsed *model.ParsedQuery, topK int) []model.RankedResult {
	ranked := make([]model.RankedResult, 0, len(results))

	for i, res := range results {
		rr := model.RankedResult{
			SearchResult: res,
			RerankScore:  res.Score,
			Explanation:  rerankFallbackExplanation,
		}

		if e.provider != nil && i < rerankWindow {
			if score, reason, ok := e.judge(ctx, res, parsed); ok {
				rr.RerankScore = score
				rr.Explanation = reason
			}
		}

		ranked = append(ranked, rr)
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].RerankScore > ranked[j].RerankScore })
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

func (e *Executor) judge(ctx context.Context, res model.SearchResult, parsed *model.ParsedQuery) (float64, string, bool) {
	names := make([]string, 0, len(parsed.Entities))
	for _, ent := range parsed.Entities {
		names = append(names, ent.Name)
	}

	prompt := fmt.Sprintf(`评估下面的文档片段与查询的相关性。
查询：%s
意图：%s
相关实体：%s

文档片段：
%s

只输出JSON：{"score": 0.0到1.0之间的相关性分数, "reason": "一句话说明"}`,
		parsed.Original, parsed.Intent, strings.Join(names, "、"), truncateRunes(res.Content, rerankSnippetRunes))

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:   prompt,
		JSONOnly: true,
	})
	if err != nil {
		e.logger.Warn("rerank call failed, keeping similarity score",
			zap.String("id", res.ID), zap.Error(err))
		return 0, "", false
	}

	var j rerankJudgment
	if err := llm.DecodeJSON(resp.Text, &j); err != nil {
		// Last resort: scrape the score field out of the mangled response.
		if score, ok := llm.ScrapeFloat(resp.Text, "score"); ok {
			j.Score = score
		} else {
			e.logger.Warn("rerank response undecodable, keeping similarity score",
				zap.String("id", res.ID), zap.Error(err))
			return 0, "", false
		}
	}

	if j.Score < 0 || j.Score > 1 {
		return 0, "", false
	}
	if j.Reason == "" {
		j.Reason = "模型重排"
	}
	return j.Score, j.Reason, true
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
