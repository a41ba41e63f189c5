package domain

// ViewMode is a named preset that windows the collection
type ViewMode string

const (
	ViewAll         ViewMode = "all"
	ViewTopStarred  ViewMode = "top-starred"
	ViewTopForked   ViewMode = "top-forked"
	ViewTopWatchers ViewMode = "top-watchers"
	ViewRecent      ViewMode = "recent"
)

// SortKey selects the field used when sorting the "all" view
type SortKey string

const (
	SortStars      SortKey = "stars"
	SortForks      SortKey = "forks"
	SortWatchers   SortKey = "watchers"
	SortUpdated    SortKey = "updated"
	SortName       SortKey = "name"
	SortOpenIssues SortKey = "issues"
	SortGrowth30   SortKey = "growth30"
	SortGrowth90   SortKey = "growth90"
	SortMomentum   SortKey = "momentum"
)

// SortDirection toggles the comparator sense
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// OthersTopic selects repositories whose topics fall outside the filter vocabulary
const OthersTopic = "others"

// AllLanguages disables the language filter
const AllLanguages = ""

// QueryState is the user-chosen filter and sort state
type QueryState struct {
	View      ViewMode      `json:"view"`
	Language  string        `json:"language"`
	Topics    []string      `json:"topics"`
	SortKey   SortKey       `json:"sort"`
	Direction SortDirection `json:"order"`
}

// DefaultQueryState shows every repository sorted by stars, descending
func DefaultQueryState() QueryState {
	return QueryState{
		View:      ViewAll,
		SortKey:   SortStars,
		Direction: SortDesc,
	}
}

// Medal is the distinguished badge for the first three positions
type Medal string

const (
	MedalNone   Medal = ""
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
)

// RankedRepository is a repository at a position of the final ordered view
type RankedRepository struct {
	Rank       int          `json:"rank"`
	Medal      Medal        `json:"medal,omitempty"`
	Label      string       `json:"label"`
	Repository *Repository  `json:"repository"`
	Trend      *TrendRecord `json:"trend,omitempty"`
}
