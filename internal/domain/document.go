package domain

// Document is a single indexed text with its metadata. Documents are
// immutable once indexed; the ask path only reads them.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// QueryMatch is a single nearest-neighbor hit. Distance is the cosine
// distance between the query vector and the document vector; smaller
// means more similar.
type QueryMatch struct {
	Document Document
	Distance float64
}
