package device

import (
	"sort"
	"strings"
)

// ResolutionKind classifies the outcome of fuzzy name resolution.
type ResolutionKind string

// Resolution outcomes.
const (
	// ResolutionResolved means exactly one device matched.
	ResolutionResolved ResolutionKind = "resolved"

	// ResolutionNotFound means no device matched; Suggestions may carry
	// near-miss names.
	ResolutionNotFound ResolutionKind = "not_found"

	// ResolutionAmbiguous means several devices matched; Candidates
	// carries all of them and the caller must disambiguate.
	ResolutionAmbiguous ResolutionKind = "ambiguous"
)

// Resolution is the outcome of resolving a device name.
// Ambiguity and not-found are values, never errors.
type Resolution struct {
	Kind ResolutionKind `json:"kind"`

	// Query is the name that was resolved.
	Query string `json:"query"`

	// Device is set when Kind is ResolutionResolved.
	Device *DeviceRecord `json:"device,omitempty"`

	// Candidates is set when Kind is ResolutionAmbiguous.
	Candidates []DeviceRecord `json:"candidates,omitempty"`

	// Suggestions is set when Kind is ResolutionNotFound and near-miss
	// names were derivable.
	Suggestions []string `json:"suggestions,omitempty"`
}

// maxSuggestions bounds the near-miss list on a not-found resolution.
const maxSuggestions = 3

// Resolve fuzzy-resolves a device name.
//
// Matching is a case-insensitive substring test against device names.
// One match resolves. Several matches resolve only when exactly one of
// them is an exact (case-insensitive) name match; otherwise the result is
// ambiguous with every candidate listed. Zero matches yield a not-found
// resolution with token-overlap suggestions where derivable.
func (r *Registry) Resolve(name string) Resolution {
	query := strings.ToLower(strings.TrimSpace(name))
	res := Resolution{Query: name}

	if query == "" {
		res.Kind = ResolutionNotFound
		return res
	}

	r.mu.RLock()
	var matches []DeviceRecord
	var exact []DeviceRecord
	for _, rec := range r.byID {
		lower := strings.ToLower(rec.Name)
		if strings.Contains(lower, query) {
			matches = append(matches, rec.Copy())
			if lower == query {
				exact = append(exact, rec.Copy())
			}
		}
	}
	r.mu.RUnlock()

	switch {
	case len(matches) == 1:
		res.Kind = ResolutionResolved
		res.Device = &matches[0]
	case len(matches) > 1 && len(exact) == 1:
		res.Kind = ResolutionResolved
		res.Device = &exact[0]
	case len(matches) > 1:
		sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
		res.Kind = ResolutionAmbiguous
		res.Candidates = matches
	default:
		res.Kind = ResolutionNotFound
		res.Suggestions = r.suggest(query)
	}

	return res
}

// suggest derives near-miss names for a query that matched nothing,
// using token overlap between the query and device names.
func (r *Registry) suggest(query string) []string {
	queryTokens := strings.Fields(query)
	if len(queryTokens) == 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var suggestions []string
	for _, rec := range r.byID {
		nameTokens := strings.Fields(strings.ToLower(rec.Name))
		if tokensOverlap(queryTokens, nameTokens) {
			suggestions = append(suggestions, rec.Name)
		}
	}

	sort.Strings(suggestions)
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// tokensOverlap reports whether any query token is a prefix of any name
// token or vice versa. Catches "kitchn light" → "Kitchen Light" style
// near-misses without a full edit-distance pass.
func tokensOverlap(queryTokens, nameTokens []string) bool {
	for _, q := range queryTokens {
		for _, n := range nameTokens {
			if q == n {
				return true
			}
			if len(q) >= 3 && len(n) >= 3 &&
				(strings.HasPrefix(n, q[:3]) || strings.HasPrefix(q, n[:3])) {
				return true
			}
		}
	}
	return false
}
