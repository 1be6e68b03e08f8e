package facility

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/powerroof/powerroof/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemo(t *testing.T) {
	p := Demo()
	require.NoError(t, Validate(p))
	assert.Equal(t, 350.0, p.MaximumDemandKW)
	assert.True(t, p.HasCoordinates())
	assert.Equal(t, 0.365, p.MarginalTariff())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "facility.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
company_name: Acme Foods Sdn Bhd
zone: Klang, Selangor
sector: Food Processing
maximum_demand_kw: 500
blended_tariff: 0.36
capex_per_kwp_low: 1700
capex_per_kwp_high: 2100
single_tenant: true
owner_occupied: true
latitude: 3.04
longitude: 101.45
fit_score:
  - name: Compliance
    score: 25
    max: 30
`), 0o644))

		p, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "Acme Foods Sdn Bhd", p.CompanyName)
		assert.Equal(t, 500.0, p.MaximumDemandKW)
		assert.Equal(t, 0.80, p.SelfConsumption)
		assert.Equal(t, types.OperatingPatternDay, p.Pattern)
		require.Len(t, p.FitScore, 1)
		assert.Equal(t, 30.0, p.FitScore[0].Max)
		require.True(t, p.HasCoordinates())
		assert.Equal(t, 3.04, *p.Latitude)
	})

	t.Run("invalid tariff", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("company_name: X\ncapex_per_kwp_low: 1\ncapex_per_kwp_high: 2\n"), 0o644))
		_, err := Load(path)
		var perr *types.InvalidProfileError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "blended_tariff", perr.Field)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(p *types.FacilityProfile)
		field string
	}{
		{"no company", func(p *types.FacilityProfile) { p.CompanyName = "" }, "company_name"},
		{"self consumption", func(p *types.FacilityProfile) { p.SelfConsumption = 1.2 }, "self_consumption"},
		{"capex order", func(p *types.FacilityProfile) { p.CapexPerKWpHigh = 100 }, "capex_per_kwp"},
		{"half coordinates", func(p *types.FacilityProfile) { p.Longitude = nil }, "coordinates"},
		{"pattern", func(p *types.FacilityProfile) { p.Pattern = "sometimes" }, "operating_pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Demo()
			tt.edit(&p)
			var perr *types.InvalidProfileError
			require.ErrorAs(t, Validate(p), &perr)
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}
