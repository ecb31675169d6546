// Package registry maintains the persisted catalog of canonical entities
// and their aliases. It is the only cross-query shared state in the
// system, so every load/mutate/persist sequence runs under one lock.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noesis-ai/noesis/internal/model"
)

const snapshotVersion = "1"

// Fuzzy-match thresholds fixed by the lookup contract.
const (
	nameJaccardThreshold  = 0.5
	aliasJaccardThreshold = 0.6
)

// Record is one persisted registry entry. The canonical name is globally
// unique, case-insensitive. Aliases may be shared across different records
// as a known ambiguity; they are never silently merged.
type Record struct {
	Name      string           `json:"name"`
	Type      model.EntityType `json:"type"`
	Aliases   []string         `json:"aliases,omitempty"`
	Hierarchy string           `json:"hierarchy,omitempty"` // e.g. "中国/华东/上海"
	Related   []string         `json:"related,omitempty"`
}

// snapshot is the persisted document shape.
type snapshot struct {
	Version   string    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Entities  []Record  `json:"entities"`
}

// Registry is the shared entity catalog.
type Registry struct {
	mu      sync.RWMutex
	path    string
	records map[string]Record // keyed by lower-cased canonical name
	logger  *zap.Logger
}

// New opens the registry at path. A missing snapshot seeds the built-in
// default set and writes it back.
func New(path string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		path:    path,
		records: make(map[string]Record),
		logger:  logger,
	}

	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		for _, rec := range seedRecords() {
			r.records[strings.ToLower(rec.Name)] = rec
		}
		r.logger.Info("seeded entity registry",
			zap.String("path", r.path),
			zap.Int("entities", len(r.records)))
		return r.persistLocked()
	}
	if err != nil {
		return fmt.Errorf("read registry snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode registry snapshot: %w", err)
	}
	for _, rec := range snap.Entities {
		r.records[strings.ToLower(rec.Name)] = rec
	}
	return nil
}

// persistLocked writes the snapshot. Callers must hold the write lock.
func (r *Registry) persistLocked() error {
	entities := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		entities = append(entities, rec)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })

	data, err := json.MarshalIndent(snapshot{
		Version:   snapshotVersion,
		UpdatedAt: time.Now().UTC(),
		Entities:  entities,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write registry snapshot: %w", err)
	}
	return nil
}

// Flush persists the current contents.
func (r *Registry) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked()
}

// Add inserts a new record. The canonical name must not already exist.
func (r *Registry) Add(rec Record, persist bool) error {
	key := strings.ToLower(rec.Name)
	if key == "" {
		return fmt.Errorf("empty canonical name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[key]; exists {
		return fmt.Errorf("entity %q already registered", rec.Name)
	}
	r.records[key] = rec

	if persist {
		return r.persistLocked()
	}
	return nil
}

// Update replaces an existing record.
func (r *Registry) Update(rec Record, persist bool) error {
	key := strings.ToLower(rec.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[key]; !exists {
		return fmt.Errorf("entity %q not registered", rec.Name)
	}
	r.records[key] = rec

	if persist {
		return r.persistLocked()
	}
	return nil
}

// Remove deletes a record by canonical name.
func (r *Registry) Remove(name string, persist bool) error {
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[key]; !exists {
		return fmt.Errorf("entity %q not registered", name)
	}
	delete(r.records, key)

	if persist {
		return r.persistLocked()
	}
	return nil
}

// Get returns a record by canonical name.
func (r *Registry) Get(name string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[strings.ToLower(name)]
	return rec, ok
}

// All returns every record, ordered by canonical name.
func (r *Registry) All() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindSimilar runs the three lookup tiers in order — exact alias, exact
// canonical name, fuzzy — concatenating results, de-duplicating by
// canonical name, and truncating to limit. Within the exact tiers,
// type-compatible candidates come before type-incompatible ones.
func (r *Registry) FindSimilar(name string, typ model.EntityType, limit int) []Record {
	if limit <= 0 {
		limit = 5
	}
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := r.orderedLocked()

	var out []Record
	seen := make(map[string]bool)
	appendRec := func(rec Record) {
		key := strings.ToLower(rec.Name)
		if !seen[key] {
			seen[key] = true
			out = append(out, rec)
		}
	}

	// Tier 1: exact alias match
	for _, compatible := range []bool{true, false} {
		for _, rec := range ordered {
			if typeCompatible(rec.Type, typ) != compatible {
				continue
			}
			for _, alias := range rec.Aliases {
				if strings.ToLower(alias) == query {
					appendRec(rec)
					break
				}
			}
		}
	}

	// Tier 2: exact canonical-name match
	for _, compatible := range []bool{true, false} {
		for _, rec := range ordered {
			if typeCompatible(rec.Type, typ) != compatible {
				continue
			}
			if strings.ToLower(rec.Name) == query {
				appendRec(rec)
			}
		}
	}

	// Tier 3: fuzzy char-set Jaccard, type-compatible or OTHER only
	for _, rec := range ordered {
		if !typeCompatible(rec.Type, typ) && rec.Type != model.EntityOther {
			continue
		}
		if charJaccard(query, strings.ToLower(rec.Name)) >= nameJaccardThreshold {
			appendRec(rec)
			continue
		}
		for _, alias := range rec.Aliases {
			if charJaccard(query, strings.ToLower(alias)) >= aliasJaccardThreshold {
				appendRec(rec)
				break
			}
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// orderedLocked returns records in stable name order so lookups are
// deterministic. Callers must hold at least the read lock.
func (r *Registry) orderedLocked() []Record {
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// typeCompatible reports whether a candidate of type a can stand for a
// query of type b. OTHER is compatible with everything.
func typeCompatible(a, b model.EntityType) bool {
	return a == b || a == model.EntityOther || b == model.EntityOther
}

// charJaccard computes Jaccard similarity over the rune sets of two
// strings. Crude, but language-neutral: it works equally for CJK names
// and Latin product codes.
func charJaccard(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	setA := make(map[rune]bool)
	for _, r := range a {
		setA[r] = true
	}
	setB := make(map[rune]bool)
	for _, r := range b {
		setB[r] = true
	}

	inter := 0
	for r := range setA {
		if setB[r] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
