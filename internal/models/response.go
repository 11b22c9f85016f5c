package models

// Envelope is the success body every endpoint returns.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ListEnvelope adds paging metadata to Envelope.
type ListEnvelope struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Pages   int         `json:"pages"`
	Data    interface{} `json:"data"`
}

// Page is one window of a filtered, sorted collection.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// Pages is ceil(total/limit).
func (p Page[T]) Pages() int {
	if p.Limit <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Envelope wraps the page for the wire.
func (p Page[T]) Envelope() ListEnvelope {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return ListEnvelope{
		Success: true,
		Count:   len(items),
		Total:   p.Total,
		Page:    p.Page,
		Pages:   p.Pages(),
		Data:    items,
	}
}

// VoteCounts is returned by every vote mutation.
type VoteCounts struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
	VoteCount int64 `json:"voteCount"`
}

// NewVoteCounts derives VoteCount from the two tallies.
func NewVoteCounts(up, down int64) VoteCounts {
	return VoteCounts{Upvotes: up, Downvotes: down, VoteCount: up - down}
}
