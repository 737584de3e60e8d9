package chi

import (
	"github.com/campusqa/askd/internal/domain"
	"github.com/campusqa/askd/internal/usecase/answer"
)

// Error codes returned to clients.
const (
	codeBadRequest       = "bad_request"
	codeEmptyQuestion    = "empty_question"
	codeMissingEmail     = "missing_email"
	codeProviderError    = "provider_error"
	codeIndexUnavailable = "index_unavailable"
	codePersistenceError = "persistence_error"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type askRequest struct {
	Question string `json:"question"`
	Email    string `json:"email"`
}

type askResponse struct {
	Answer        string         `json:"answer"`
	RelevantInfo  *string        `json:"relevantInfo"`
	SearchResults *searchResults `json:"searchResults"`
}

// searchResults is the parallel-array listing of raw matches.
type searchResults struct {
	Documents []string            `json:"documents"`
	Distances []float64           `json:"distances"`
	Metadatas []map[string]string `json:"metadatas"`
}

type searchRequest struct {
	Query    string `json:"query"`
	NResults int    `json:"nResults"`
}

type searchResponse struct {
	Results *searchResults `json:"results"`
}

type historyResponse struct {
	History []domain.Turn `json:"history"`
}

type deleteHistoryRequest struct {
	Email string `json:"email"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func askResponseFromDomain(resp answer.Response) askResponse {
	out := askResponse{Answer: resp.Answer}

	if resp.RelevantInfo != "" {
		info := resp.RelevantInfo
		out.RelevantInfo = &info
	}
	// nil means retrieval failed; an empty slice is a successful query with
	// no documents and serializes as empty arrays, not null.
	if resp.Matches != nil {
		out.SearchResults = searchResultsFromMatches(resp.Matches)
	}
	return out
}

func searchResultsFromMatches(matches []domain.QueryMatch) *searchResults {
	res := &searchResults{
		Documents: make([]string, len(matches)),
		Distances: make([]float64, len(matches)),
		Metadatas: make([]map[string]string, len(matches)),
	}
	for i, m := range matches {
		res.Documents[i] = m.Document.Text
		res.Distances[i] = m.Distance
		meta := m.Document.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		res.Metadatas[i] = meta
	}
	return res
}
