package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/powerroof/powerroof/pkg/facility"
	"github.com/powerroof/powerroof/pkg/feasibility"
	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/render"
	"github.com/powerroof/powerroof/pkg/tier"
	"github.com/powerroof/powerroof/pkg/types"
)

type reportFormat string

const (
	formatPDF      reportFormat = "pdf"
	formatXLSX     reportFormat = "xlsx"
	formatMarkdown reportFormat = "md"
)

var contentTypes = map[reportFormat]string{
	formatPDF:      "application/pdf",
	formatXLSX:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	formatMarkdown: "text/markdown; charset=utf-8",
}

type feasibilityRequest struct {
	Tier       string                 `json:"tier"`
	WhiteLabel string                 `json:"whiteLabel"`
	Facility   *types.FacilityProfile `json:"facility"`
}

// parseRequest reads the tier and white label from the query string, or from
// a JSON body on POST which may also carry its own facility.
func (s *Server) parseRequest(w http.ResponseWriter, r *http.Request) (feasibility.Request, error) {
	body := feasibilityRequest{
		Tier:       r.URL.Query().Get("tier"),
		WhiteLabel: r.URL.Query().Get("whiteLabel"),
	}
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return feasibility.Request{}, &types.ValidationError{Field: "body", Value: "", Reason: err.Error()}
		}
	}
	if body.Tier == "" {
		body.Tier = string(types.TierBasic)
	}
	t, err := tier.Parse(body.Tier)
	if err != nil {
		return feasibility.Request{}, err
	}

	req := feasibility.Request{Tier: t, WhiteLabel: body.WhiteLabel}
	switch {
	case body.Facility != nil:
		req.Facility = *body.Facility
	case s.facility != nil:
		req.Facility = *s.facility
	default:
		req.Facility = facility.Demo()
	}
	return req, nil
}

func (s *Server) build(w http.ResponseWriter, r *http.Request) (*feasibility.Report, bool) {
	req, err := s.parseRequest(w, r)
	if err != nil {
		writeError(w, r, "invalid request", err)
		return nil, false
	}
	ctx := r.Context()
	if s.reportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.reportTimeout)
		defer cancel()
	}
	rep, err := s.builder.Build(ctx, req)
	if err != nil {
		writeError(w, r, "failed to build report", err)
		return nil, false
	}
	return rep, true
}

func (s *Server) handleFeasibility(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, rep.Dossier)
}

func (s *Server) handleReport(format reportFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := s.build(w, r)
		if !ok {
			return
		}
		ctx := r.Context()

		var b []byte
		var err error
		switch format {
		case formatPDF:
			b, err = render.PDF(rep.Dossier, rep.Imagery)
		case formatXLSX:
			b, err = render.Workbook(rep.Dossier)
		default:
			b = []byte(render.Markdown(rep.Dossier))
		}
		if err != nil {
			writeError(w, r, "failed to render report", err)
			return
		}

		log.Ctx(ctx).InfoContext(
			ctx,
			"rendered report",
			slog.String("id", rep.Dossier.ID),
			slog.String("format", string(format)),
			slog.Int("bytes", len(b)),
		)
		w.Header().Set("Content-Type", contentTypes[format])
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("dossier-%s.%s", rep.Dossier.Tier, format)))
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(b); err != nil {
			panic(http.ErrAbortHandler)
		}
	}
}
