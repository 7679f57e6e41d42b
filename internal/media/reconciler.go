// Package media swaps placeholder media ids for their persisted ids once an upload finishes.
package media

import (
	"strings"

	"github.com/hanko-field/product-editor/internal/domain"
)

// DefaultTempPrefix marks client-assigned ids of uploads still in flight.
const DefaultTempPrefix = "temp_"

// Reconciler matches finished uploads to their placeholders by title. Titles shared by several
// uploads are ambiguous: each finished item takes the first placeholder with its title, and the
// first finished item to claim a placeholder keeps it.
type Reconciler struct {
	TempPrefix string
}

// NewReconciler returns a reconciler for the given prefix, falling back to DefaultTempPrefix.
func NewReconciler(prefix string) Reconciler {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultTempPrefix
	}
	return Reconciler{TempPrefix: prefix}
}

// Result describes one reconciliation pass.
type Result struct {
	// Mapping is placeholder id -> final id. Empty when nothing was finalised.
	Mapping map[string]string
	// RootIDs is the root media list, identical to the input slice when unchanged.
	RootIDs     []string
	RootChanged bool
	// Combinations is the combination list, identical to the input slice when no combination
	// referenced a placeholder.
	Combinations []domain.Combination
	// ChangedCombinations lists the indexes whose media ids were rewritten.
	ChangedCombinations []int
}

// Changed reports whether any collection was rewritten.
func (r Result) Changed() bool {
	return r.RootChanged || len(r.ChangedCombinations) > 0
}

// IsTemp reports whether id is a placeholder id.
func (r Reconciler) IsTemp(id string) bool {
	return strings.HasPrefix(id, r.prefix())
}

func (r Reconciler) prefix() string {
	if r.TempPrefix == "" {
		return DefaultTempPrefix
	}
	return r.TempPrefix
}

// Placeholders returns the placeholder -> final id mapping for the transition from previous to
// current. Only items that appear in current, are absent from previous and carry a non-temp id
// are considered finalised.
func (r Reconciler) Placeholders(previous, current []domain.MediaReference) map[string]string {
	before := make(map[string]struct{}, len(previous))
	for _, item := range previous {
		before[item.ID] = struct{}{}
	}

	mapping := make(map[string]string)
	for _, item := range current {
		if item.ID == "" || r.IsTemp(item.ID) {
			continue
		}
		if _, existed := before[item.ID]; existed {
			continue
		}
		for _, candidate := range previous {
			if !r.IsTemp(candidate.ID) || candidate.Title != item.Title {
				continue
			}
			if _, mapped := mapping[candidate.ID]; !mapped {
				mapping[candidate.ID] = item.ID
			}
			break
		}
	}
	return mapping
}

// RewriteIDs replaces every id present in mapping. When no id changes the input slice itself is
// returned with false, so untouched data is never copied.
func RewriteIDs(ids []string, mapping map[string]string) ([]string, bool) {
	if len(mapping) == 0 {
		return ids, false
	}
	var out []string
	for i, id := range ids {
		final, ok := mapping[id]
		if !ok {
			continue
		}
		if out == nil {
			out = make([]string, len(ids))
			copy(out, ids)
		}
		out[i] = final
	}
	if out == nil {
		return ids, false
	}
	return out, true
}

// Reconcile computes the mapping for the transition and applies it to the root media list and
// to every combination's media list.
func (r Reconciler) Reconcile(previous, current []domain.MediaReference, rootIDs []string, combos []domain.Combination) Result {
	result := Result{
		Mapping:      r.Placeholders(previous, current),
		RootIDs:      rootIDs,
		Combinations: combos,
	}
	if len(result.Mapping) == 0 {
		return result
	}

	result.RootIDs, result.RootChanged = RewriteIDs(rootIDs, result.Mapping)

	var rewritten []domain.Combination
	for i, combo := range combos {
		ids, changed := RewriteIDs(combo.MediaIDs, result.Mapping)
		if !changed {
			continue
		}
		if rewritten == nil {
			rewritten = make([]domain.Combination, len(combos))
			copy(rewritten, combos)
		}
		rewritten[i].MediaIDs = ids
		result.ChangedCombinations = append(result.ChangedCombinations, i)
	}
	if rewritten != nil {
		result.Combinations = rewritten
	}
	return result
}
