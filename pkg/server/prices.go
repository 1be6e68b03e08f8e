package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/prices"
	"github.com/powerroof/powerroof/pkg/types"
)

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &types.ValidationError{Field: name, Value: v, Reason: "must be an integer"}
	}
	return n, nil
}

func (s *Server) handleListPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, "invalid limit", err)
		return
	}

	var obs []types.PriceObservation
	if limit > 0 {
		obs, err = s.history.Window(ctx, limit)
	} else {
		obs, err = s.history.All(ctx)
	}
	if err != nil {
		writeError(w, r, "failed to get prices", err)
		return
	}
	if obs == nil {
		obs = []types.PriceObservation{}
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, obs)
}

type upsertPriceRequest struct {
	Month  string  `json:"month"`
	Price  float64 `json:"price"`
	Source string  `json:"source"`
}

func (s *Server) handleUpsertPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)

	var req upsertPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode price", slog.Any("error", err))
		writeJSONError(w, "invalid request", http.StatusBadRequest)
		return
	}
	source, err := types.ParsePriceSource(req.Source)
	if err != nil {
		writeError(w, r, "invalid source", err)
		return
	}

	obs, err := s.history.Upsert(ctx, req.Month, req.Price, source)
	if err != nil {
		writeError(w, r, "failed to record price", err)
		return
	}
	writeJSON(w, obs)
}

func (s *Server) handlePriceStatistics(w http.ResponseWriter, r *http.Request) {
	window, err := queryInt(r, "window", prices.DefaultWindow)
	if err != nil {
		writeError(w, r, "invalid window", err)
		return
	}
	stats, err := s.history.Statistics(r.Context(), window)
	if err != nil {
		writeError(w, r, "failed to get statistics", err)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, stats)
}
