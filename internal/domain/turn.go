package domain

// Turn is one question/answer exchange in a user's conversation log.
// Turns are append-only and keyed by email; Timestamp is ISO-8601 (UTC).
type Turn struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}
