package tier

import (
	"errors"
	"testing"

	"github.com/powerroof/powerroof/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(sections []types.Section) []types.SectionKind {
	out := make([]types.SectionKind, len(sections))
	for i, s := range sections {
		out[i] = s.Kind
	}
	return out
}

func TestVerify(t *testing.T) {
	require.NoError(t, Verify())
}

func TestSupersets(t *testing.T) {
	for _, facts := range []Facts{{}, {HasImagery: true}} {
		basic := kinds(Compose(types.TierBasic, facts))
		pro := kinds(Compose(types.TierPro, facts))
		premium := kinds(Compose(types.TierPremium, facts))

		assert.Subset(t, pro, basic)
		assert.Subset(t, premium, pro)
		assert.Greater(t, len(pro), len(basic))
		assert.Greater(t, len(premium), len(pro))
	}
}

func TestCompose(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		s := Compose(types.TierBasic, Facts{HasImagery: true})
		assert.Equal(t, []types.SectionKind{
			types.SectionCover,
			types.SectionExecutiveSnapshot,
			types.SectionEligibility,
			types.SectionRoadmap,
			types.SectionDisclaimer,
		}, kinds(s))
		for _, sec := range s {
			assert.Equal(t, types.ImageryNone, sec.Imagery)
			assert.NotEmpty(t, sec.Title)
		}
		assert.True(t, s[3].Condensed)
	})

	t.Run("pro has no imagery", func(t *testing.T) {
		s := Compose(types.TierPro, Facts{HasImagery: true})
		assert.Len(t, s, 13)
		for _, sec := range s {
			assert.Equal(t, types.ImageryNone, sec.Imagery)
			assert.False(t, sec.Condensed)
		}
	})

	t.Run("premium placeholder", func(t *testing.T) {
		s := Compose(types.TierPremium, Facts{})
		require.Len(t, s, 18)
		assert.Equal(t, types.SectionRoofIntelligence, s[4].Kind)
		assert.Equal(t, types.ImageryPlaceholder, s[4].Imagery)
		assert.Equal(t, types.ImageryPlaceholder, s[5].Imagery)
		assert.Equal(t, types.ImageryNone, s[6].Imagery)
	})

	t.Run("premium real", func(t *testing.T) {
		s := Compose(types.TierPremium, Facts{HasImagery: true})
		assert.Equal(t, types.ImageryReal, s[4].Imagery)
		assert.Equal(t, types.ImageryReal, s[5].Imagery)
	})

	t.Run("ends with disclaimer", func(t *testing.T) {
		for _, tr := range Tiers {
			s := Compose(tr, Facts{})
			assert.Equal(t, types.SectionCover, s[0].Kind)
			assert.Equal(t, types.SectionDisclaimer, s[len(s)-1].Kind)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Nil(t, Compose("gold", Facts{}))
	})
}

func TestParse(t *testing.T) {
	for in, want := range map[string]types.Tier{
		"basic":     types.TierBasic,
		"PRO":       types.TierPro,
		" premium ": types.TierPremium,
	} {
		got, err := Parse(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := Parse("enterprise")
	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "tier", verr.Field)
}

func TestVerifyDetectsRegression(t *testing.T) {
	orig := table[types.TierPro]
	defer func() { table[types.TierPro] = orig }()

	broken := orig
	broken.Sections = append([]types.SectionKind(nil), orig.Sections...)
	// drop eligibility from pro
	for i, k := range broken.Sections {
		if k == types.SectionEligibility {
			broken.Sections = append(broken.Sections[:i], broken.Sections[i+1:]...)
			break
		}
	}
	table[types.TierPro] = broken
	assert.ErrorContains(t, Verify(), "missing section eligibility")
}

func TestLookup(t *testing.T) {
	info, ok := Lookup(types.TierPremium)
	require.True(t, ok)
	assert.Equal(t, "Intelligence Dossier", info.Subtitle)
	_, ok = Lookup("gold")
	assert.False(t, ok)
}
