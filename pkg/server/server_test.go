package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/powerroof/powerroof/pkg/facility"
	"github.com/powerroof/powerroof/pkg/feasibility"
	"github.com/powerroof/powerroof/pkg/policy"
	"github.com/powerroof/powerroof/pkg/prices"
	"github.com/powerroof/powerroof/pkg/storage"
	"github.com/powerroof/powerroof/pkg/storage/storagemock"
	"github.com/powerroof/powerroof/pkg/types"
)

func newTestServer(db *storagemock.MockDatabase) *Server {
	h := prices.NewHistory(db)
	fac := facility.Demo()
	return &Server{
		history:    h,
		builder:    feasibility.NewAssembler(h, policy.Default(), nil),
		facility:   &fac,
		serverName: "powerroof-test",
	}
}

func serve(srv *Server, method, target string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.setupHandler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := serve(newTestServer(&storagemock.MockDatabase{}), http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "powerroof-test", w.Header().Get("Server"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestMetricsEndpoint(t *testing.T) {
	w := serve(newTestServer(&storagemock.MockDatabase{}), http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "powerroof_")
}

func TestListPrices(t *testing.T) {
	db := &storagemock.MockDatabase{}
	db.On("GetPriceHistory", mock.Anything).Return([]types.PriceObservation{
		{Month: "2025-11", Price: 0.20, Source: types.PriceSourceEstimated},
		{Month: "2026-01", Price: 0.22, Source: types.PriceSourcePublished},
		{Month: "2025-12", Price: 0.21, Source: types.PriceSourceEstimated},
	}, nil)
	srv := newTestServer(db)

	t.Run("all newest first", func(t *testing.T) {
		w := serve(srv, http.MethodGet, "/api/prices", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got []types.PriceObservation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 3)
		assert.Equal(t, "2026-01", got[0].Month)
		assert.Equal(t, "2025-11", got[2].Month)
	})

	t.Run("limit", func(t *testing.T) {
		w := serve(srv, http.MethodGet, "/api/prices?limit=2", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got []types.PriceObservation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})

	t.Run("bad limit", func(t *testing.T) {
		w := serve(srv, http.MethodGet, "/api/prices?limit=abc", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("statistics", func(t *testing.T) {
		w := serve(srv, http.MethodGet, "/api/prices/statistics?window=2", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var stats types.PriceStatistics
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, 2, stats.WindowSize)
		assert.InDelta(t, 0.215, stats.Average, 1e-9)
		assert.Equal(t, "2026-01", stats.LatestMonth)
	})
}

func TestListPricesStorageError(t *testing.T) {
	db := &storagemock.MockDatabase{}
	db.On("GetPriceHistory", mock.Anything).Return(nil, errors.New("boom"))
	w := serve(newTestServer(db), http.MethodGet, "/api/prices", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to get prices")
}

func TestUpsertPrice(t *testing.T) {
	body := []byte(`{"month":"2026-02","price":0.2134,"source":"published"}`)

	t.Run("bypass auth", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("GetPrice", mock.Anything, "2026-02").Return(types.PriceObservation{}, storage.ErrPriceNotFound)
		db.On("UpsertPrice", mock.Anything, mock.MatchedBy(func(o types.PriceObservation) bool {
			return o.Month == "2026-02" && o.Price == 0.2134 && o.Source == types.PriceSourcePublished
		})).Return(nil).Once()
		srv := newTestServer(db)
		srv.bypassAuth = true

		w := serve(srv, http.MethodPost, "/api/prices", body, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got types.PriceObservation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "2026-02", got.Month)
		assert.False(t, got.CreatedAt.IsZero())
		db.AssertExpectations(t)
	})

	t.Run("out of band price", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		srv := newTestServer(db)
		srv.bypassAuth = true

		w := serve(srv, http.MethodPost, "/api/prices", []byte(`{"month":"2026-02","price":1.5}`), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "price")
		db.AssertNotCalled(t, "UpsertPrice", mock.Anything, mock.Anything)
	})

	t.Run("bad month", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{})
		srv.bypassAuth = true
		w := serve(srv, http.MethodPost, "/api/prices", []byte(`{"month":"2026-2","price":0.2}`), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad source", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{})
		srv.bypassAuth = true
		w := serve(srv, http.MethodPost, "/api/prices", []byte(`{"month":"2026-02","price":0.2,"source":"guess"}`), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{})
		srv.bypassAuth = true
		w := serve(srv, http.MethodPost, "/api/prices", []byte(`{`), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminMiddleware(t *testing.T) {
	verifier := func(ctx context.Context, token string) (identity, error) {
		switch token {
		case "admin-token":
			return identity{Email: "ops@powerroof.my", Subject: "1"}, nil
		case "user-token":
			return identity{Email: "someone@example.com", Subject: "2"}, nil
		}
		return identity{}, errors.New("invalid token")
	}

	newSrv := func() (*Server, *storagemock.MockDatabase) {
		db := &storagemock.MockDatabase{}
		db.On("GetPrice", mock.Anything, mock.Anything).Return(types.PriceObservation{}, storage.ErrPriceNotFound)
		db.On("UpsertPrice", mock.Anything, mock.Anything).Return(nil)
		srv := newTestServer(db)
		srv.verifier = verifier
		srv.adminEmails = []string{"ops@powerroof.my"}
		return srv, db
	}
	body := []byte(`{"month":"2026-02","price":0.21}`)

	tests := []struct {
		name   string
		header map[string]string
		code   int
	}{
		{"no header", nil, http.StatusUnauthorized},
		{"not bearer", map[string]string{"Authorization": "Basic abc"}, http.StatusBadRequest},
		{"invalid token", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"not an admin", map[string]string{"Authorization": "Bearer user-token"}, http.StatusForbidden},
		{"admin", map[string]string{"Authorization": "Bearer admin-token"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, db := newSrv()
			w := serve(srv, http.MethodPost, "/api/prices", body, tt.header)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.code != http.StatusOK {
				db.AssertNotCalled(t, "UpsertPrice", mock.Anything, mock.Anything)
			}
		})
	}

	t.Run("no verifier configured", func(t *testing.T) {
		srv, _ := newSrv()
		srv.verifier = nil
		w := serve(srv, http.MethodPost, "/api/prices", body, map[string]string{"Authorization": "Bearer admin-token"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestSplitEmails(t *testing.T) {
	assert.Nil(t, splitEmails(""))
	assert.Equal(t, []string{"a@x.my", "b@x.my"}, splitEmails(" a@x.my, ,b@x.my "))
}

func emptyHistory() *storagemock.MockDatabase {
	db := &storagemock.MockDatabase{}
	db.On("GetPriceHistory", mock.Anything).Return([]types.PriceObservation{}, nil)
	return db
}

func TestFeasibility(t *testing.T) {
	srv := newTestServer(emptyHistory())

	t.Run("default tier", func(t *testing.T) {
		w := serve(srv, http.MethodGet, "/api/feasibility", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var d types.Dossier
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
		assert.Equal(t, types.TierBasic, d.Tier)
		assert.Equal(t, 280.0, d.Sizing.RecommendedKWp)
		assert.True(t, d.Statistics.Fallback)
	})

	t.Run("pro with white label", func(t *testing.T) {
		w := serve(srv, http.MethodGet, "/api/feasibility?tier=PRO&whiteLabel=Acme+Energy", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var d types.Dossier
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
		assert.Equal(t, types.TierPro, d.Tier)
		assert.Equal(t, "Acme Energy", d.Branding.Name)
	})

	t.Run("unknown tier", func(t *testing.T) {
		w := serve(srv, http.MethodGet, "/api/feasibility?tier=gold", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "tier")
	})

	t.Run("posted facility", func(t *testing.T) {
		fac := facility.Demo()
		fac.CompanyName = "Posted Sdn Bhd"
		b, err := json.Marshal(feasibilityRequest{Tier: "premium", Facility: &fac})
		require.NoError(t, err)

		w := serve(srv, http.MethodPost, "/api/feasibility", b, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var d types.Dossier
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
		assert.Equal(t, "Posted Sdn Bhd", d.Facility.CompanyName)
		assert.False(t, d.HasImagery)
	})

	t.Run("invalid posted facility", func(t *testing.T) {
		w := serve(srv, http.MethodPost, "/api/feasibility", []byte(`{"tier":"pro","facility":{"companyName":""}}`), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "company_name")
	})
}

func TestReports(t *testing.T) {
	srv := newTestServer(emptyHistory())

	t.Run("pdf", func(t *testing.T) {
		w := serve(srv, http.MethodGet, "/api/report.pdf?tier=premium", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "dossier-premium.pdf")
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	})

	t.Run("xlsx", func(t *testing.T) {
		w := serve(srv, http.MethodGet, "/api/report.xlsx?tier=pro", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "dossier-pro.xlsx")
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
	})

	t.Run("markdown", func(t *testing.T) {
		w := serve(srv, http.MethodGet, "/api/report.md", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, strings.HasPrefix(w.Body.String(), "# Solar ATAP"))
	})

	t.Run("storage failure", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("GetPriceHistory", mock.Anything).Return(nil, errors.New("unavailable"))
		w := serve(newTestServer(db), http.MethodGet, "/api/report.pdf", nil, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
