package topics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		// aliases
		{"ai", "artificial-intelligence"},
		{"ml", "machine-learning"},
		{"agents", "ai-agent"},
		{"agent", "ai-agent"},
		{"agentic", "ai-agent"},
		{"chatgpt", "openai"},
		{"gpt", "openai"},
		{"k8s", "kubernetes"},
		// case and whitespace
		{"  AI ", "artificial-intelligence"},
		{"Machine-Learning", "machine-learning"},
		// ies
		{"libraries", "library"},
		{"utilities", "utility"},
		// es
		{"boxes", "box"},
		{"matches", "match"},
		{"brushes", "brush"},
		{"games", "games"},
		{"business", "business"},
		// s
		{"tools", "tool"},
		{"frameworks", "framework"},
		{"redis", "redis"},
		{"kubernetes", "kubernetes"},
		{"aws", "aws"},
		{"devops", "devops"},
		{"css", "css"},
		{"status", "status"},
		{"less", "less"},
		// too short to singularize
		{"ios", "ios"},
		{"ops", "ops"},
		// untouched
		{"machine-learning", "machine-learning"},
		{"golang-library", "golang-library"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.raw))
		})
	}
}

func TestCanonicalize_AliasHitIsNotSingularized(t *testing.T) {
	// "agents" would singularize to "agent" without the alias table
	assert.Equal(t, "ai-agent", Canonicalize("agents"))
	assert.Equal(t, "nodejs", Canonicalize("node"))
}

func TestCanonicalize_Blank(t *testing.T) {
	assert.Equal(t, "", Canonicalize(""))
	assert.Equal(t, "", Canonicalize("   "))
}

func TestCanonicalize_Deterministic(t *testing.T) {
	inputs := []string{"ai", "libraries", "boxes", "Tools", "quantum-computing"}
	for _, in := range inputs {
		first := Canonicalize(in)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Canonicalize(in))
		}
	}
}

func TestTable_Add(t *testing.T) {
	table := NewTable()

	assert.Equal(t, "machine-learning", table.Add("ml"))
	assert.Equal(t, "machine-learning", table.Add("machine-learning"))
	assert.Equal(t, "machine-learning", table.Add("ml"))
	assert.Equal(t, "tool", table.Add("tools"))
	assert.Equal(t, "", table.Add(" "))

	assert.Equal(t, []string{"machine-learning", "tool"}, table.Keys())
	assert.Equal(t, []string{"ml", "machine-learning"}, table.Variations("machine-learning"))
	assert.Empty(t, table.Variations("missing"))
}

func TestMatches(t *testing.T) {
	keys := map[string]struct{}{"artificial-intelligence": {}, "library": {}}

	assert.True(t, Matches([]string{"go", "ai"}, keys))
	assert.True(t, Matches([]string{"libraries"}, keys))
	assert.False(t, Matches([]string{"quantum-computing"}, keys))
	assert.False(t, Matches(nil, keys))
}
