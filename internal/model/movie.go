package model

// MovieMetadata mirrors a movie folder's metadata.json.
type MovieMetadata struct {
	Title          string  `json:"title"`
	Genre          string  `json:"genre"`
	ReleaseDate    string  `json:"releaseDate"` // YYYY-MM-DD
	Description    string  `json:"description"`
	RuntimeMinutes int     `json:"runtimeMinutes"`
	AverageRating  float64 `json:"averageRating"`
}

// MovieSummary pairs a movie folder name with its metadata.  Search results
// and the catalog cache are lists of summaries.
type MovieSummary struct {
	Folder   string        `json:"folder"`
	Metadata MovieMetadata `json:"metadata"`
}
