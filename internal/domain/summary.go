package domain

// LanguageCount is the number of repositories written in a language
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// CanonicalTopic groups raw topic strings under one normalized key.
// Count is incremented once per repository, not per raw occurrence.
type CanonicalTopic struct {
	Key        string   `json:"topic"`
	Count      int      `json:"count"`
	Variations []string `json:"variations"`
}

// Summary holds the statistics derived from a repository collection.
// It is rebuilt whenever the collection changes and never mutated.
type Summary struct {
	TotalRepos   int              `json:"totalRepos"`
	TotalStars   int              `json:"totalStars"`
	AvgStars     int              `json:"avgStars"`
	TopLanguages []LanguageCount  `json:"topLanguages"`
	TopTopics    []CanonicalTopic `json:"topTopics"`
	MostStarred  []*Repository    `json:"mostStarred"`
	Languages    []string         `json:"languages"`
	FilterTopics []CanonicalTopic `json:"filterTopics"`
}

// FilterTopicKeys returns the canonical keys offered by the topic filter
func (s *Summary) FilterTopicKeys() map[string]struct{} {
	if s == nil {
		return map[string]struct{}{}
	}
	keys := make(map[string]struct{}, len(s.FilterTopics))
	for _, t := range s.FilterTopics {
		keys[t.Key] = struct{}{}
	}
	return keys
}
