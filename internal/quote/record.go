package quote

import "time"

// Record is the persisted trace of a completed quotation.
type Record struct {
	Client    ClientInfo  `json:"userData"`
	Responses ResponseSet `json:"responses"`
	Quotation Quotation   `json:"economicProposal"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewRecord(q Quotation, at time.Time) Record {
	return Record{
		Client:    q.Client,
		Responses: q.Responses.Clone(),
		Quotation: q,
		Timestamp: at,
	}
}
