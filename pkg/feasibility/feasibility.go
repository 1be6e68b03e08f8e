// Package feasibility runs one modeling pass for a facility and assembles the
// result into a tiered dossier.
package feasibility

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/powerroof/powerroof/pkg/facility"
	"github.com/powerroof/powerroof/pkg/finance"
	"github.com/powerroof/powerroof/pkg/imagery"
	"github.com/powerroof/powerroof/pkg/impact"
	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/metrics"
	"github.com/powerroof/powerroof/pkg/policy"
	"github.com/powerroof/powerroof/pkg/prices"
	"github.com/powerroof/powerroof/pkg/sensitivity"
	"github.com/powerroof/powerroof/pkg/sizing"
	"github.com/powerroof/powerroof/pkg/tier"
	"github.com/powerroof/powerroof/pkg/types"
)

const (
	DefaultBrand  = "POWERROOF"
	defaultFooter = "PowerRoof.my - Solar Acquisition Intelligence"
)

// StatisticsSource supplies the wholesale price summary for a run.
type StatisticsSource interface {
	Statistics(ctx context.Context, window int) (types.PriceStatistics, error)
}

// ImageFetcher supplies satellite imagery. A nil result means no imagery is
// available and is not an error.
type ImageFetcher interface {
	Fetch(ctx context.Context, lat, lng, sizeKWp float64) (*imagery.Result, error)
}

// Request describes one report run.
type Request struct {
	Tier     types.Tier
	Facility types.FacilityProfile
	// WhiteLabel replaces the PowerRoof brand when set.
	WhiteLabel string
}

// Report is an assembled dossier plus the imagery it refers to.
type Report struct {
	Dossier types.Dossier
	Imagery *imagery.Result
}

// Assembler produces reports from the price history, a policy and an
// optional imagery source.
type Assembler struct {
	stats   StatisticsSource
	policy  policy.Policy
	fetcher ImageFetcher
	window  int

	now   func() time.Time
	newID func() string
}

// NewAssembler returns an Assembler. fetcher may be nil.
func NewAssembler(stats StatisticsSource, pol policy.Policy, fetcher ImageFetcher) *Assembler {
	return &Assembler{
		stats:   stats,
		policy:  pol,
		fetcher: fetcher,
		window:  prices.DefaultWindow,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithWindow changes the number of months the statistics cover.
func (a *Assembler) WithWindow(n int) *Assembler {
	a.window = n
	return a
}

// Build models req.Facility and composes the report for req.Tier. Imagery is
// only requested for the premium tier and never fails the run.
func (a *Assembler) Build(ctx context.Context, req Request) (*Report, error) {
	start := a.now()
	rep, err := a.build(ctx, req)
	metrics.ObserveDossier(string(req.Tier), err, a.now().Sub(start))
	return rep, err
}

func (a *Assembler) build(ctx context.Context, req Request) (*Report, error) {
	info, ok := tier.Lookup(req.Tier)
	if !ok {
		return nil, &types.ValidationError{Field: "tier", Value: string(req.Tier), Reason: "must be basic, pro, or premium"}
	}
	if err := facility.Validate(req.Facility); err != nil {
		return nil, err
	}

	id := a.newID()
	ctx = log.WithRun(ctx, id)

	stats, err := a.stats.Statistics(ctx, a.window)
	if err != nil {
		return nil, fmt.Errorf("failed to load price statistics: %w", err)
	}

	rec, err := sizing.Evaluate(ctx, req.Facility, a.policy, stats)
	if err != nil {
		return nil, err
	}

	d := types.Dossier{
		ID:          id,
		GeneratedAt: a.now().UTC(),
		Tier:        req.Tier,
		Title:       info.Title,
		Subtitle:    info.Subtitle,
		Tagline:     info.Tagline,
		Audience:    info.Audience,
		Branding:    Brand(req.WhiteLabel, info),
		Facility:    req.Facility,
		Statistics:  stats,
		Sizing:      rec,
	}

	var img *imagery.Result
	g, gctx := errgroup.WithContext(ctx)
	if a.wantsImagery(req) {
		g.Go(func() error {
			res, err := a.fetcher.Fetch(gctx, *req.Facility.Latitude, *req.Facility.Longitude, rec.RecommendedKWp)
			if err != nil {
				log.Ctx(gctx).WarnContext(gctx, "satellite imagery unavailable, using placeholder", slog.Any("error", err))
				return nil
			}
			img = res
			return nil
		})
	}
	g.Go(func() error {
		if !rec.Eligible {
			log.Ctx(gctx).InfoContext(gctx, "facility not eligible, skipping financial model")
			return nil
		}
		proj, err := finance.Project(req.Facility, rec, stats, a.policy)
		if err != nil {
			return err
		}
		d.Financial = proj
		d.Sensitivity = sensitivity.Analyze(req.Facility, rec, stats, a.policy)
		d.Impact = impact.Summarize(req.Facility, rec, stats, a.policy)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.HasImagery = img != nil
	d.Sections = tier.Compose(req.Tier, tier.Facts{HasImagery: d.HasImagery})
	d.Snapshot = Snapshot(d, a.policy)

	log.Ctx(ctx).InfoContext(
		ctx,
		"assembled dossier",
		slog.String("tier", string(req.Tier)),
		slog.String("company", req.Facility.CompanyName),
		slog.Bool("eligible", rec.Eligible),
		slog.Bool("imagery", d.HasImagery),
		slog.Int("sections", len(d.Sections)),
	)
	return &Report{Dossier: d, Imagery: img}, nil
}

func (a *Assembler) wantsImagery(req Request) bool {
	if req.Tier != types.TierPremium || a.fetcher == nil {
		return false
	}
	return req.Facility.HasCoordinates()
}

// Brand resolves the presentation brand. A white label replaces the brand
// name and credits PowerRoof in the footer.
func Brand(whiteLabel string, info tier.Info) types.Branding {
	if whiteLabel == "" {
		return types.Branding{Name: DefaultBrand, Footer: defaultFooter, Label: info.Audience}
	}
	return types.Branding{
		Name:   whiteLabel,
		Footer: whiteLabel + " | Powered by PowerRoof.my",
		Label:  info.Audience,
	}
}
