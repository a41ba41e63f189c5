// Package topics maps raw repository topics onto canonical keys.
package topics

import "strings"

// aliases are exact-match expansions. A hit is final: no singularization
// is applied to the result.
var aliases = map[string]string{
	"ai":                    "artificial-intelligence",
	"ml":                    "machine-learning",
	"dl":                    "deep-learning",
	"nlp":                   "natural-language-processing",
	"cv":                    "computer-vision",
	"llms":                  "llm",
	"large-language-model":  "llm",
	"large-language-models": "llm",
	"rag":                   "retrieval-augmented-generation",
	"agent":                 "ai-agent",
	"agents":                "ai-agent",
	"ai-agent":              "ai-agent",
	"ai-agents":             "ai-agent",
	"agentic":               "ai-agent",
	"agentic-ai":            "ai-agent",
	"gpt":                   "openai",
	"chatgpt":               "openai",
	"gpt-3":                 "openai",
	"gpt-4":                 "openai",
	"openai-api":            "openai",
	"js":                    "javascript",
	"ts":                    "typescript",
	"py":                    "python",
	"golang":                "go",
	"k8s":                   "kubernetes",
	"reactjs":               "react",
	"react-js":              "react",
	"vuejs":                 "vue",
	"vue-js":                "vue",
	"node":                  "nodejs",
	"node-js":               "nodejs",
	"db":                    "database",
}

// nonPlurals end in "s" but are not plural forms
var nonPlurals = map[string]struct{}{
	"redis":      {},
	"postgres":   {},
	"canvas":     {},
	"cors":       {},
	"sass":       {},
	"less":       {},
	"css":        {},
	"express":    {},
	"cypress":    {},
	"aws":        {},
	"ios":        {},
	"macos":      {},
	"devops":     {},
	"kubernetes": {},
}

// Canonicalize returns the canonical key of a raw topic.
// Blank input yields "". Apply it to raw topics only: the singularization
// rules are not idempotent on every already-canonical key.
func Canonicalize(raw string) string {
	topic := strings.ToLower(strings.TrimSpace(raw))
	if topic == "" {
		return ""
	}
	if alias, ok := aliases[topic]; ok {
		return alias
	}
	return singularize(topic)
}

// singularize applies the first matching plural rule
func singularize(word string) string {
	n := len(word)
	switch {
	case strings.HasSuffix(word, "ies") && n > 4:
		return word[:n-3] + "y"

	case strings.HasSuffix(word, "es") && n > 3 &&
		!strings.HasSuffix(word, "ess") &&
		!strings.HasSuffix(word, "ness") &&
		!strings.HasSuffix(word, "less"):
		stem := word[:n-2]
		if hasAnySuffix(stem, "s", "x", "z", "ch", "sh") {
			return stem
		}
		return word

	case strings.HasSuffix(word, "s") && n > 3 &&
		!hasAnySuffix(word, "ss", "us", "as", "is"):
		if _, excluded := nonPlurals[word]; excluded {
			return word
		}
		return word[:n-1]
	}
	return word
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
