package snapshot

import (
	"hash/fnv"
	"strings"
	"time"
)

// basePrices holds typical modal prices (INR per quintal) used when no
// real data is available for a commodity.
var basePrices = map[string]int{
	"rice":      2100,
	"maize":     1850,
	"wheat":     2350,
	"groundnut": 5500,
}

const defaultBasePrice = 2000

// sampleMarkets are the fixed markets reported on synthesized snapshots,
// with their price offsets from the commodity base.
var sampleMarkets = []struct {
	name    string
	offset  int
	updated string
}{
	{"Bangalore APMC", 0, "2 hours ago"},
	{"Mysore Mandi", -15, "3 hours ago"},
	{"Mandya Market", -5, "1 hour ago"},
	{"Hassan Mandi", -25, "4 hours ago"},
}

// Sample synthesizes a deterministic snapshot for a commodity: base price
// plus bounded jitter derived from the commodity name and calendar day.
// Repeated calls for the same commodity on the same day return the
// same snapshot.
func Sample(commodity string, now time.Time) Snapshot {
	key := strings.ToLower(strings.TrimSpace(commodity))
	base, ok := basePrices[key]
	if !ok {
		base = defaultBasePrice
	}

	variation := jitter(key, now)
	current := base + variation

	trend := "down"
	if variation > 0 {
		trend = "up"
	}

	markets := make([]MarketQuote, 0, len(sampleMarkets))
	for _, m := range sampleMarkets {
		price := float64(current + m.offset)
		markets = append(markets, MarketQuote{
			Name:     m.name,
			Price:    price,
			Updated:  m.updated,
			MinPrice: price - 50,
			MaxPrice: price + 50,
		})
	}

	return Snapshot{
		Current:   current,
		Yesterday: current - 20,
		WeekAgo:   current - 50,
		Trend:     trend,
		Quality:   QualitySynthetic,
		Markets:   markets,
	}
}

// jitter maps (commodity, day) onto [-15, 14].
func jitter(key string, now time.Time) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	h.Write([]byte(now.UTC().Format("2006-01-02")))
	return int(h.Sum32()%30) - 15
}
