package agmarknet

import "context"

// Query identifies one price lookup against the upstream API.
type Query struct {
	Commodity string
	State     string
	Limit     int
}

// Record is one reported transaction at a market, as the API ships it.
// Numeric fields arrive as strings in the upstream payload.
type Record struct {
	State       string `json:"state,omitempty"`
	District    string `json:"district,omitempty"`
	Market      string `json:"market"`
	Commodity   string `json:"commodity,omitempty"`
	Variety     string `json:"variety,omitempty"`
	ArrivalDate string `json:"arrival_date"`
	MinPrice    string `json:"min_price"`
	MaxPrice    string `json:"max_price"`
	ModalPrice  string `json:"modal_price"`
}

// Response is the raw upstream payload kept for caching and re-serving.
type Response struct {
	Records []Record `json:"records"`
	Total   int      `json:"total,omitempty"`
	Count   int      `json:"count,omitempty"`
}

// Fetcher is implemented by the Client and by decorators wrapping it.
type Fetcher interface {
	FetchPrices(ctx context.Context, q Query) (*Response, Outcome)
}
