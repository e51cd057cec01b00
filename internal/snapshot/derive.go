package snapshot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"mandiprice/internal/agmarknet"
)

// maxMarkets caps how many markets a snapshot reports.
const maxMarkets = 4

// Derive folds raw upstream records into a Snapshot. Records are grouped
// by market keeping only the latest arrival date per market (later input
// wins ties), up to maxMarkets markets in first-seen order. Current is
// the rounded mean of their modal prices; yesterday and week-ago are
// fixed-ratio approximations because the upstream has no reliable
// historical shape.
//
// The second return is false when no usable price exists, in which case
// the caller should fall back to synthesized data.
func Derive(records []agmarknet.Record, now time.Time, quality Quality) (Snapshot, bool) {
	type latest struct {
		rec  agmarknet.Record
		when time.Time
	}
	byMarket := make(map[string]latest, len(records))
	order := make([]string, 0, len(records))

	for _, r := range records {
		name := strings.TrimSpace(r.Market)
		if name == "" {
			name = "Unknown Market"
		}
		when, _ := parseArrivalDate(r.ArrivalDate)
		cur, seen := byMarket[name]
		if !seen {
			order = append(order, name)
			byMarket[name] = latest{rec: r, when: when}
			continue
		}
		if when.After(cur.when) || when.Equal(cur.when) {
			byMarket[name] = latest{rec: r, when: when}
		}
	}

	markets := make([]MarketQuote, 0, maxMarkets)
	var sum float64
	var priced int
	for _, name := range order {
		if len(markets) == maxMarkets {
			break
		}
		l := byMarket[name]
		modal := parsePrice(l.rec.ModalPrice)
		q := MarketQuote{
			Name:     name,
			Price:    modal,
			Updated:  RelativeTime(l.rec.ArrivalDate, now),
			MinPrice: parsePriceOr(l.rec.MinPrice, modal),
			MaxPrice: parsePriceOr(l.rec.MaxPrice, modal),
		}
		markets = append(markets, q)
		if modal > 0 {
			sum += modal
			priced++
		}
	}

	if priced == 0 {
		return Snapshot{}, false
	}

	current := int(math.Round(sum / float64(priced)))
	yesterday := int(math.Round(float64(current) * 0.99))
	weekAgo := int(math.Round(float64(current) * 0.97))
	trend := "down"
	if current > yesterday {
		trend = "up"
	}

	return Snapshot{
		Current:   current,
		Yesterday: yesterday,
		WeekAgo:   weekAgo,
		Trend:     trend,
		Quality:   quality,
		Markets:   markets,
	}, true
}

// RelativeTime renders an arrival date as a coarse relative string.
func RelativeTime(dateStr string, now time.Time) string {
	when, ok := parseArrivalDate(dateStr)
	if !ok {
		return "Recently"
	}
	diff := now.Sub(when)
	if diff < 0 {
		diff = 0
	}
	hours := int(diff.Hours())
	if hours < 24 {
		return fmt.Sprintf("%d hours ago", hours)
	}
	return fmt.Sprintf("%d days ago", hours/24)
}

// parseArrivalDate accepts the two shapes AGMARKNET has been observed to
// ship: ISO dates and dd/mm/yyyy.
func parseArrivalDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parsePriceOr(s string, fallback float64) float64 {
	if v := parsePrice(s); v > 0 {
		return v
	}
	return fallback
}
