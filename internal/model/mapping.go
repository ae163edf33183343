package model

// NameMapping maps raw entity-name strings to canonical names. It is a total
// function: names without an entry canonicalise to themselves.
type NameMapping map[string]string

// Canonical returns the canonical name for a raw name.
func (m NameMapping) Canonical(raw string) string {
	if c, ok := m[raw]; ok && c != "" {
		return c
	}
	return raw
}

// Normalize collapses chains (a->b, b->c becomes a->c) and pins every
// canonical target to itself, making the mapping idempotent under
// re-application.
func (m NameMapping) Normalize() {
	for raw := range m {
		target := m[raw]
		seen := map[string]bool{raw: true}
		for {
			next, ok := m[target]
			if !ok || next == target || seen[target] {
				break
			}
			seen[target] = true
			target = next
		}
		m[raw] = target
	}
	for _, canonical := range m {
		m[canonical] = canonical
	}
}

// Merge copies entries from other, keeping existing entries on conflict.
func (m NameMapping) Merge(other NameMapping) {
	for raw, canonical := range other {
		if _, ok := m[raw]; !ok {
			m[raw] = canonical
		}
	}
}

// Identity builds an identity mapping over the given names. Used as the
// fallback when the standardisation collaborator is unavailable.
func Identity(names []string) NameMapping {
	m := make(NameMapping, len(names))
	for _, n := range names {
		m[n] = n
	}
	return m
}
