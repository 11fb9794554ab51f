package models

import "time"

// Module is a published module: the output of a completed builder session.
// Pages are stored as one nested document, so the module row and its content
// land in a single atomic write.
type Module struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	CreatedBy        string    `json:"created_by"`
	EstimatedTimeMin int       `json:"estimated_time_min"`
	Pages            []Page    `json:"pages"`
	CreatedAt        time.Time `json:"created_at"`
}

// ModuleFilters narrows module listings
type ModuleFilters struct {
	CreatedBy string
	Limit     int
	Offset    int
}
