package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/noesis-ai/noesis/internal/answer"
	"github.com/noesis-ai/noesis/internal/model"
	"github.com/noesis-ai/noesis/internal/registry"
	"github.com/noesis-ai/noesis/internal/search"
)

type fakeStore struct {
	results []model.SearchResult
}

func (s *fakeStore) Upsert(ctx context.Context, docs []search.Document) error { return nil }

func (s *fakeStore) Search(ctx context.Context, vector []float32, opts search.Options) ([]model.SearchResult, error) {
	out := make([]model.SearchResult, len(s.results))
	copy(out, s.results)
	return out, nil
}

func (s *fakeStore) Count(ctx context.Context) (int64, error) { return int64(len(s.results)), nil }
func (s *fakeStore) Close() error                             { return nil }

type fakeEmbedder struct {
	panics bool
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.panics {
		panic("embedder exploded")
	}
	return []float32{0.1, 0.2}, nil
}

func (e *fakeEmbedder) Dimensions() int { return 2 }

func testPipeline(t *testing.T, store search.VectorStore, embedder *fakeEmbedder) *Pipeline {
	t.Helper()
	reg, err := registry.New(filepath.Join(t.TempDir(), "registry.json"), nil)
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}

	cfg := model.DefaultConfig()
	cfg.Retrieval.MaxRetries = 2

	return New(cfg, Deps{
		Registry: reg,
		Store:    store,
		Embedder: embedder,
	})
}

func stepStatuses(state *model.PipelineState) map[string]model.StepStatus {
	out := make(map[string]model.StepStatus)
	for _, step := range state.Steps {
		out[step.Name] = step.Status
	}
	return out
}

func TestAskGreetingShortCircuits(t *testing.T) {
	p := testPipeline(t, &fakeStore{}, &fakeEmbedder{})

	state := p.Ask(context.Background(), "你好")

	if state.Answer != answer.GreetingAnswer {
		t.Errorf("Answer = %q, want greeting", state.Answer)
	}
	if len(state.Results) != 0 || len(state.Decisions) != 0 {
		t.Error("greeting ran retrieval")
	}

	statuses := stepStatuses(state)
	if statuses["parse"] != model.StepCompleted {
		t.Errorf("parse status = %s", statuses["parse"])
	}
	for _, name := range []string{"validate", "route", "rerank"} {
		if statuses[name] != model.StepSkipped {
			t.Errorf("%s status = %s, want skipped", name, statuses[name])
		}
	}
	if statuses["generate"] != model.StepCompleted {
		t.Errorf("generate status = %s", statuses["generate"])
	}
}

func TestAskResolvesAliasAndRetrieves(t *testing.T) {
	store := &fakeStore{results: []model.SearchResult{
		{ID: "doc1", Content: "商汤科技是上海的人工智能公司。", Score: 0.8},
	}}
	p := testPipeline(t, store, &fakeEmbedder{})

	state := p.Ask(context.Background(), "魔都有哪些人工智能公司？")

	// 魔都 resolved to 上海 during validation.
	found := false
	for _, v := range state.Validated {
		if v.Canonical == "上海" && v.Valid {
			found = true
		}
	}
	if !found {
		t.Errorf("alias not resolved: %+v", state.Validated)
	}

	if len(state.Decisions) < 2 {
		t.Fatalf("decisions = %+v", state.Decisions)
	}
	if state.Decisions[0].Action != model.ActionStructuredSearch {
		t.Errorf("first action = %s, want structured_search", state.Decisions[0].Action)
	}
	last := state.Decisions[len(state.Decisions)-1]
	if last.Action != model.ActionGenerateResponse {
		t.Errorf("last action = %s, want generate_response", last.Action)
	}

	if len(state.Results) == 0 || len(state.Ranked) == 0 {
		t.Error("retrieval produced nothing")
	}
	if state.Answer == "" {
		t.Error("empty answer")
	}
}

func TestAskEmptyStoreBoundedLoop(t *testing.T) {
	p := testPipeline(t, &fakeStore{}, &fakeEmbedder{})

	state := p.Ask(context.Background(), "魔都有哪些人工智能公司？")

	// maxRetries+1 route evaluations at most.
	if len(state.Decisions) > 3 {
		t.Errorf("decisions = %d, want <= 3", len(state.Decisions))
	}
	if state.Answer != answer.NoResultsAnswer {
		t.Errorf("Answer = %q, want no-results", state.Answer)
	}
}

func TestAskContainsPanics(t *testing.T) {
	p := testPipeline(t, &fakeStore{}, &fakeEmbedder{panics: true})

	state := p.Ask(context.Background(), "上海的人口是多少")

	if state.Answer == "" {
		t.Fatal("no answer after stage panic")
	}

	errored := false
	for _, step := range state.Steps {
		if step.Name == "search" && step.Status == model.StepError {
			errored = true
		}
	}
	if !errored {
		t.Errorf("panicking search stage not recorded as error: %+v", state.Steps)
	}
}

func TestAskStepsAlwaysTimed(t *testing.T) {
	store := &fakeStore{results: []model.SearchResult{{ID: "a", Content: "内容", Score: 0.9}}}
	p := testPipeline(t, store, &fakeEmbedder{})

	state := p.Ask(context.Background(), "上海的天气")

	if len(state.Steps) == 0 {
		t.Fatal("no steps recorded")
	}
	names := map[string]bool{}
	for _, step := range state.Steps {
		names[step.Name] = true
	}
	for _, want := range []string{"parse", "validate", "route", "search", "rerank", "generate"} {
		if !names[want] {
			t.Errorf("missing step %q in %v", want, state.Steps)
		}
	}
}
