// Command dossier generates a feasibility report for one facility as a PDF,
// optionally with an XLSX workbook and a Markdown summary alongside it.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/levenlabs/go-lflag"

	"github.com/powerroof/powerroof/pkg/facility"
	"github.com/powerroof/powerroof/pkg/feasibility"
	"github.com/powerroof/powerroof/pkg/imagery"
	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/policy"
	"github.com/powerroof/powerroof/pkg/prices"
	"github.com/powerroof/powerroof/pkg/render"
	"github.com/powerroof/powerroof/pkg/storage"
	"github.com/powerroof/powerroof/pkg/tier"
	"github.com/powerroof/powerroof/pkg/types"
)

type options struct {
	db           storage.Database
	tier         string
	whiteLabel   string
	lat, lng     string
	apiKey       string
	mapsBaseURL  string
	facilityPath string
	policyPath   string
	outDir       string
	window       int
	xlsx         bool
	markdown     bool
}

func main() {
	s := storage.Configured()

	tierName := lflag.String("tier", string(types.TierBasic), "Report tier: basic, pro or premium")
	whiteLabel := lflag.String("white-label", "", "Brand name replacing PowerRoof on the report")
	lat := lflag.String("lat", "", "Site latitude, overriding the facility profile")
	lng := lflag.String("lng", "", "Site longitude, overriding the facility profile")
	apiKey := lflag.String("api-key", "", "Static maps API key (defaults to $"+imagery.APIKeyEnv+")")
	facilityPath := lflag.String("facility", "", "YAML facility profile (defaults to the demo facility)")
	policyPath := lflag.String("policy", "", "YAML file overriding the default regulatory policy")
	outDir := lflag.String("out", "reports", "Directory the report files are written to")
	window := lflag.String("window", strconv.Itoa(prices.DefaultWindow), "Number of recent months summarized for the wholesale price")
	xlsx := lflag.Bool("xlsx", false, "Also write the figures as an XLSX workbook")
	markdown := lflag.Bool("markdown", false, "Also write a Markdown summary")

	lflag.Configure()
	log.SyncLevel()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w, err := strconv.Atoi(*window)
	if err != nil || w <= 0 {
		fmt.Fprintf(os.Stderr, "error: invalid window %q\n", *window)
		os.Exit(1)
	}

	err = run(ctx, options{
		db:           s,
		tier:         *tierName,
		whiteLabel:   *whiteLabel,
		lat:          *lat,
		lng:          *lng,
		apiKey:       *apiKey,
		mapsBaseURL:  imagery.DefaultBaseURL,
		facilityPath: *facilityPath,
		policyPath:   *policyPath,
		outDir:       *outDir,
		window:       w,
		xlsx:         *xlsx,
		markdown:     *markdown,
	}, os.Stdout)
	if cerr := s.Close(); cerr != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to close storage", slog.Any("error", cerr))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseCoordinate(name, v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &types.ValidationError{Field: name, Value: v, Reason: "must be a number"}
	}
	return &f, nil
}

func loadInputs(opts options) (types.FacilityProfile, policy.Policy, error) {
	fac := facility.Demo()
	if opts.facilityPath != "" {
		var err error
		if fac, err = facility.Load(opts.facilityPath); err != nil {
			return fac, policy.Policy{}, err
		}
	}
	pol := policy.Default()
	if opts.policyPath != "" {
		var err error
		if pol, err = policy.Load(opts.policyPath); err != nil {
			return fac, pol, err
		}
	}

	lat, err := parseCoordinate("lat", opts.lat)
	if err != nil {
		return fac, pol, err
	}
	lng, err := parseCoordinate("lng", opts.lng)
	if err != nil {
		return fac, pol, err
	}
	if (lat == nil) != (lng == nil) {
		return fac, pol, &types.ValidationError{Field: "lat/lng", Value: opts.lat + "," + opts.lng, Reason: "must be given together"}
	}
	if lat != nil {
		fac.Latitude, fac.Longitude = lat, lng
	}
	return fac, pol, nil
}

func writeFile(dir, name string, b []byte, stdout io.Writer) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "wrote %s (%s)\n", path, humanize.Bytes(uint64(len(b))))
	return nil
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	t, err := tier.Parse(opts.tier)
	if err != nil {
		return err
	}
	fac, pol, err := loadInputs(opts)
	if err != nil {
		return err
	}

	history := prices.NewHistory(opts.db)
	if err := history.Init(ctx); err != nil {
		return err
	}

	fetcher := imagery.NewFetcher(opts.apiKey, imagery.WithBaseURL(opts.mapsBaseURL))
	assembler := feasibility.NewAssembler(history, pol, fetcher).WithWindow(opts.window)
	rep, err := assembler.Build(ctx, feasibility.Request{Tier: t, Facility: fac, WhiteLabel: opts.whiteLabel})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	base := "dossier-" + string(t)

	pdf, err := render.PDF(rep.Dossier, rep.Imagery)
	if err != nil {
		return err
	}
	if err := writeFile(opts.outDir, base+".pdf", pdf, stdout); err != nil {
		return err
	}
	if opts.xlsx {
		b, err := render.Workbook(rep.Dossier)
		if err != nil {
			return err
		}
		if err := writeFile(opts.outDir, base+".xlsx", b, stdout); err != nil {
			return err
		}
	}
	if opts.markdown {
		if err := writeFile(opts.outDir, base+".md", []byte(render.Markdown(rep.Dossier)), stdout); err != nil {
			return err
		}
	}

	summarize(stdout, rep.Dossier)
	return nil
}

func summarize(w io.Writer, d types.Dossier) {
	fmt.Fprintf(w, "%s %s for %s\n", d.Title, d.Subtitle, d.Facility.CompanyName)
	if !d.Sizing.Eligible {
		fmt.Fprintln(w, "  not eligible for ATAP, see the eligibility checklist")
		return
	}
	payback := "n/a"
	if p := d.Financial.BaseScenario().PaybackYears; p != nil {
		payback = fmt.Sprintf("%.1f yrs", *p)
	}
	fmt.Fprintf(w, "  recommended size: %s kWp\n", humanize.Ftoa(d.Sizing.RecommendedKWp))
	fmt.Fprintf(w, "  year-1 savings:   RM %s\n", humanize.Comma(int64(math.Round(d.Financial.BaseScenario().AnnualSavings))))
	fmt.Fprintf(w, "  payback:          %s\n", payback)
	fmt.Fprintf(w, "  SMP sensitivity:  %s\n", d.Sensitivity.Verdict)
	if d.Statistics.Fallback {
		fmt.Fprintln(w, "  note: price history empty, fallback wholesale price used")
	}
	if d.Tier == types.TierPremium && !d.HasImagery {
		fmt.Fprintln(w, "  note: satellite imagery unavailable, placeholder rendered")
	}
}
