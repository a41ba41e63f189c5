package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
)

func TestCSV_QuotesDescription(t *testing.T) {
	repos := []*domain.Repository{{
		Name:        "Foo",
		Owner:       "octo",
		Description: `Say "hi"`,
		Stars:       1200,
		Forks:       3,
		Language:    "Go",
		URL:         "https://github.com/octo/Foo",
		UpdatedAt:   time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC),
	}}

	want := "Name,Owner,Description,Stars,Forks,Language,URL,Updated\n" +
		`Foo,octo,"Say ""hi""",1200,3,Go,https://github.com/octo/Foo,2024-03-09`
	assert.Equal(t, want, CSV(repos))
}

func TestCSV_OtherFieldsAreNotEscaped(t *testing.T) {
	repos := []*domain.Repository{
		{Name: "a,b", Owner: "o", Description: "d", Language: "Unknown"},
		{Name: "second", Owner: "o", Description: ""},
	}

	lines := strings.Split(CSV(repos), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], `a,b,o,"d",0,0,Unknown,,`))
	assert.True(t, strings.HasPrefix(lines[2], `second,o,"",`))
}

func TestCSV_EmptyCollection(t *testing.T) {
	assert.Equal(t, "Name,Owner,Description,Stars,Forks,Language,URL,Updated", CSV(nil))
}

func TestWriteJSON(t *testing.T) {
	repos := []*domain.Repository{{ID: 1, Name: "Foo", Stars: 10}}
	summary := &domain.Summary{TotalRepos: 1, TotalStars: 10, AvgStars: 10}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, repos, summary))
	assert.Contains(t, buf.String(), "\n  \"repositories\": [")

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "repositories")
	assert.Contains(t, doc, "summary")

	var decoded Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Repositories, 1)
	assert.Equal(t, "Foo", decoded.Repositories[0].Name)
	assert.Equal(t, 10, decoded.Summary.TotalStars)
}

func TestWriteJSON_NilRepositoriesIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil, nil))
	assert.Contains(t, buf.String(), `"repositories": []`)
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat(" CSV ")
	assert.True(t, ok)
	assert.Equal(t, FormatCSV, f)
	assert.Equal(t, "text/csv", f.ContentType())

	_, ok = ParseFormat("xml")
	assert.False(t, ok)

	assert.Equal(t, "octo-starred-repos.json", Filename("octo", FormatJSON))
}
