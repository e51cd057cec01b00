package snapshot

// Quality tags where a snapshot's numbers came from, so downstream
// consumers can distinguish live data from fallbacks.
type Quality string

const (
	QualityLive      Quality = "live"
	QualityCached    Quality = "cached"
	QualitySynthetic Quality = "synthetic"
)

// MarketQuote is the latest known price at one market.
type MarketQuote struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Updated  string  `json:"updated"`
	MinPrice float64 `json:"minPrice"`
	MaxPrice float64 `json:"maxPrice"`
}

// Snapshot is the derived, UI-facing price summary for one
// commodity/region pair.
type Snapshot struct {
	Current   int           `json:"current"`
	Yesterday int           `json:"yesterday"`
	WeekAgo   int           `json:"weekAgo"`
	Trend     string        `json:"trend"` // "up" or "down"
	Quality   Quality       `json:"dataQuality"`
	Markets   []MarketQuote `json:"markets"`
}
