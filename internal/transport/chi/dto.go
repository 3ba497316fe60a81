package chi

import (
	"github.com/kailas-cloud/cpfvariants/internal/domain/region"
	"github.com/kailas-cloud/cpfvariants/internal/domain/variant"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeInvalidFormat    ErrorCode = "invalid_format"
	ErrorCodeInvalidChecksum  ErrorCode = "invalid_checksum"
	ErrorCodeUnknownState     ErrorCode = "unknown_state"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeAborted          ErrorCode = "aborted"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /v1/variants/search and the first
// message of a stream.
type SearchRequest struct {
	CPF          string `json:"cpf"`
	MaxChanges   int    `json:"max_changes,omitempty"`
	State        string `json:"state,omitempty"`
	RegionDigits []int  `json:"region_digits,omitempty"`
}

// VariantItem is one valid variant.
type VariantItem struct {
	CPF         string   `json:"cpf"`
	Formatted   string   `json:"formatted"`
	Differences int      `json:"differences"`
	States      []string `json:"states"`
}

// SearchResponse is the outcome of a search.
type SearchResponse struct {
	SearchID     string        `json:"search_id"`
	Original     string        `json:"original"`
	Results      []VariantItem `json:"results"`
	TotalChecked int           `json:"total_checked"`
	ChangesUsed  *int          `json:"changes_used"`
}

// ValidateRequest is the body of POST /v1/cpf/validate.
type ValidateRequest struct {
	CPF string `json:"cpf"`
}

// ValidateResponse reports whether a CPF is valid and where it was issued.
type ValidateResponse struct {
	Valid       bool      `json:"valid"`
	CPF         string    `json:"cpf"`
	Formatted   string    `json:"formatted,omitempty"`
	RegionDigit *uint8    `json:"region_digit,omitempty"`
	States      []string  `json:"states,omitempty"`
	Reason      ErrorCode `json:"reason,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// RegionsResponse lists the state table.
type RegionsResponse struct {
	Items []region.State `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Stream message types.
const (
	StreamSession  = "session"
	StreamProgress = "progress"
	StreamResult   = "result"
	StreamError    = "error"
)

// StreamMessage is one websocket frame sent by GET /v1/variants/stream.
type StreamMessage struct {
	Type     string            `json:"type"`
	SearchID string            `json:"search_id,omitempty"`
	Progress *variant.Progress `json:"progress,omitempty"`
	Result   *SearchResponse   `json:"result,omitempty"`
	Error    *ErrorResponse    `json:"error,omitempty"`
}

func stateCodes(digit uint8) []string {
	states := region.ByDigit(digit)
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.UF
	}
	return out
}

func outcomeToResponse(searchID, original string, out variant.Outcome) SearchResponse {
	items := make([]VariantItem, len(out.Results()))
	for i, r := range out.Results() {
		items[i] = VariantItem{
			CPF:         r.Raw(),
			Formatted:   r.Formatted(),
			Differences: r.Differences(),
			States:      stateCodes(r.Digits().RegionDigit()),
		}
	}

	resp := SearchResponse{
		SearchID:     searchID,
		Original:     original,
		Results:      items,
		TotalChecked: out.TotalChecked(),
	}
	if k, ok := out.ChangesUsed(); ok {
		resp.ChangesUsed = &k
	}
	return resp
}
