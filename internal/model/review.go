package model

// Review is a row in a movie folder's movieReviews.csv.  The table is
// rewritten wholesale on any mutation; there is no random-access update.
// Rating is kept as the raw cell value because historical tables contain
// blank and non-numeric ratings, which average recomputation must skip
// rather than reject.
type Review struct {
	Date         string `json:"date"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Likes        int    `json:"likes"`
	Dislikes     int    `json:"dislikes"`
	Rating       string `json:"rating"`
	Title        string `json:"title"`
	Comment      string `json:"comment"`
	Reported     bool   `json:"reported"`
	ReportReason string `json:"report_reason,omitempty"`
	Penalized    bool   `json:"penalized"`
	Hidden       bool   `json:"hidden"`
}
