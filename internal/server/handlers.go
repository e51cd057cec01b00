package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mandiprice/internal/agmarknet"
	"mandiprice/internal/facade"
	"mandiprice/internal/warming"
)

// priceEnvelope is the wire shape shared by the market-prices and
// price-trends endpoints. Both always answer HTTP 200; failures are
// signaled by success:false with an empty record set so browser callers
// never need to special-case non-200 responses.
type priceEnvelope struct {
	Success   bool         `json:"success"`
	Data      envelopeData `json:"data"`
	Source    string       `json:"source,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type envelopeData struct {
	Records []agmarknet.Record `json:"records"`
}

type warmOneResponse struct {
	Success   bool   `json:"success"`
	Records   int    `json:"records"`
	Commodity string `json:"commodity"`
	State     string `json:"state"`
	Error     string `json:"error,omitempty"`
}

type warmAllResponse struct {
	Success   bool             `json:"success"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	State     string           `json:"state"`
	Results   []warming.Result `json:"results"`
}

func (s *Server) handleMarketPrices(w http.ResponseWriter, r *http.Request) {
	commodity := queryDefault(r, "commodity", "Rice")
	state := queryDefault(r, "state", s.state)
	limit := queryInt(r, "limit", 10, 1, 100)

	res := s.facade.GetRaw(r.Context(), agmarknet.Query{
		Commodity: commodity,
		State:     state,
		Limit:     limit,
	})
	s.writeEnvelope(w, res)
}

func (s *Server) handlePriceTrends(w http.ResponseWriter, r *http.Request) {
	commodity := queryDefault(r, "commodity", "Rice")
	// days is accepted for interface compatibility; the upstream offers
	// no usable date-range filter, so it only bounds the request.
	_ = queryInt(r, "days", 30, 1, 365)

	res := s.facade.GetRaw(r.Context(), agmarknet.Query{
		Commodity: commodity,
		Limit:     s.trendLimit,
	})
	s.writeEnvelope(w, res)
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	commodity := queryDefault(r, "commodity", "Rice")
	state := queryDefault(r, "state", s.state)

	snap := s.facade.GetPrice(r.Context(), commodity, state)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleUpdateCache(w http.ResponseWriter, r *http.Request) {
	commodity := queryDefault(r, "commodity", "Rice")
	state := queryDefault(r, "state", s.state)

	res := s.warmer.WarmOne(r.Context(), commodity, state)
	resp := warmOneResponse{
		Success:   res.Success,
		Records:   res.Records,
		Commodity: res.Commodity,
		State:     state,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateCacheAll(w http.ResponseWriter, r *http.Request) {
	report := s.warmer.WarmAll(r.Context(), s.commodities, s.state)
	writeJSON(w, http.StatusOK, warmAllResponse{
		Success:   report.Failed() == 0,
		Succeeded: report.Succeeded(),
		Failed:    report.Failed(),
		State:     report.State,
		Results:   report.Results,
	})
}

func (s *Server) writeEnvelope(w http.ResponseWriter, res facade.RawResult) {
	env := priceEnvelope{
		Success:   res.Outcome.OK(),
		Data:      envelopeData{Records: []agmarknet.Record{}},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if res.Payload != nil && res.Payload.Records != nil {
		env.Data.Records = res.Payload.Records
	}
	if res.Outcome.OK() {
		env.Source = res.Source
	} else {
		env.Error = res.Outcome.Reason()
	}
	writeJSON(w, http.StatusOK, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func queryDefault(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

func queryInt(r *http.Request, key string, def, min, max int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	x, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
