package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerroof/powerroof/pkg/imagery"
	"github.com/powerroof/powerroof/pkg/storage"
	"github.com/powerroof/powerroof/pkg/types"
)

func testOptions(t *testing.T) options {
	t.Helper()
	t.Setenv(imagery.APIKeyEnv, "")
	dir := t.TempDir()
	return options{
		db:          storage.NewFileProvider(filepath.Join(dir, "smp_history.json")),
		tier:        "basic",
		mapsBaseURL: imagery.DefaultBaseURL,
		outDir:      filepath.Join(dir, "reports"),
		window:      12,
	}
}

func TestRun(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		opts := testOptions(t)
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), opts, &out))

		b, err := os.ReadFile(filepath.Join(opts.outDir, "dossier-basic.pdf"))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
		assert.Contains(t, out.String(), "dossier-basic.pdf")
		assert.Contains(t, out.String(), "recommended size: 280 kWp")
		assert.NotContains(t, out.String(), "fallback")
	})

	t.Run("pro with extras", func(t *testing.T) {
		opts := testOptions(t)
		opts.tier = "pro"
		opts.xlsx = true
		opts.markdown = true
		opts.whiteLabel = "Acme Energy"
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), opts, &out))

		for _, name := range []string{"dossier-pro.pdf", "dossier-pro.xlsx", "dossier-pro.md"} {
			_, err := os.Stat(filepath.Join(opts.outDir, name))
			assert.NoError(t, err, name)
		}
		md, err := os.ReadFile(filepath.Join(opts.outDir, "dossier-pro.md"))
		require.NoError(t, err)
		assert.Contains(t, string(md), "Acme Energy")
	})

	t.Run("premium without credential", func(t *testing.T) {
		opts := testOptions(t)
		opts.tier = "premium"
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), opts, &out))
		assert.Contains(t, out.String(), "placeholder rendered")
	})

	t.Run("premium with imagery", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 40))))
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2.5,101.25", r.URL.Query().Get("center"))
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(buf.Bytes())
		}))
		defer ts.Close()

		opts := testOptions(t)
		opts.tier = "premium"
		opts.apiKey = "test-key"
		opts.mapsBaseURL = ts.URL
		opts.lat, opts.lng = "2.5", "101.25"
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), opts, &out))
		assert.NotContains(t, out.String(), "placeholder")
	})
}

func TestRunErrors(t *testing.T) {
	t.Run("invalid tier", func(t *testing.T) {
		opts := testOptions(t)
		opts.tier = "gold"
		err := run(context.Background(), opts, &bytes.Buffer{})
		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "tier", verr.Field)
		_, statErr := os.Stat(opts.outDir)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("latitude without longitude", func(t *testing.T) {
		opts := testOptions(t)
		opts.lat = "3.1"
		err := run(context.Background(), opts, &bytes.Buffer{})
		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("bad coordinate", func(t *testing.T) {
		opts := testOptions(t)
		opts.lat, opts.lng = "north", "101"
		require.Error(t, run(context.Background(), opts, &bytes.Buffer{}))
	})

	t.Run("missing facility file", func(t *testing.T) {
		opts := testOptions(t)
		opts.facilityPath = filepath.Join(t.TempDir(), "nope.yaml")
		require.Error(t, run(context.Background(), opts, &bytes.Buffer{}))
	})
}
