package db

// VectorAttribute is the query-side name of the vector field. Index
// definitions must alias their vector field to this name for SearchKNN
// to resolve it.
const VectorAttribute = "vector"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit. Distance is the raw cosine distance
// reported by the index (ascending = closer).
type SearchEntry struct {
	Key      string
	Distance float64
	Fields   map[string]string
}
