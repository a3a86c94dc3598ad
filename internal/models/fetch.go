// internal/models/fetch.go
package models

type FetchStatus string

const (
	FetchStatusOK          FetchStatus = "ok"
	FetchStatusUnavailable FetchStatus = "unavailable"
	FetchStatusMalformed   FetchStatus = "malformed"
)

// FetchResult is the outcome of one (source, month) retrieval. A nil Payload
// means the cell is unavailable; the reason is in Status and Error.
type FetchResult struct {
	SourceID string      `json:"sourceId"`
	Month    string      `json:"month"`
	Kind     SourceKind  `json:"kind"`
	Payload  *Payload    `json:"payload,omitempty"`
	Status   FetchStatus `json:"status"`
	Error    string      `json:"error,omitempty"`
}

func (r FetchResult) Available() bool {
	return r.Payload != nil
}

func (r FetchResult) Tabular() *TabularPayload {
	if r.Payload == nil {
		return nil
	}
	return r.Payload.Tabular
}

func (r FetchResult) Insight() *InsightPayload {
	if r.Payload == nil {
		return nil
	}
	return r.Payload.Insight
}
