package topics

// Table records which raw topics were seen under each canonical key,
// keeping first-encountered order for both keys and variations.
type Table struct {
	keys       []string
	variations map[string][]string
	seen       map[string]struct{}
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{
		variations: make(map[string][]string),
		seen:       make(map[string]struct{}),
	}
}

// Add canonicalizes raw, records it as a variation and returns the key.
// Blank topics are ignored and yield "".
func (t *Table) Add(raw string) string {
	key := Canonicalize(raw)
	if key == "" {
		return ""
	}
	if _, ok := t.variations[key]; !ok {
		t.keys = append(t.keys, key)
		t.variations[key] = nil
	}
	if _, ok := t.seen[raw]; !ok {
		t.seen[raw] = struct{}{}
		t.variations[key] = append(t.variations[key], raw)
	}
	return key
}

// Keys returns the canonical keys in first-encountered order
func (t *Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Variations returns the raw topics recorded under key
func (t *Table) Variations(key string) []string {
	v := t.variations[key]
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// Matches reports whether any raw topic canonicalizes to a key in keys
func Matches(rawTopics []string, keys map[string]struct{}) bool {
	for _, raw := range rawTopics {
		if _, ok := keys[Canonicalize(raw)]; ok {
			return true
		}
	}
	return false
}
