// Command smp maintains the monthly wholesale (SMP) price history used to
// value exported solar generation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/levenlabs/go-lflag"

	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/prices"
	"github.com/powerroof/powerroof/pkg/storage"
	"github.com/powerroof/powerroof/pkg/types"
)

type options struct {
	month  string
	price  string
	source string
	show   bool
	stats  bool
	export string
	window int
}

var errNothingToDo = errors.New("nothing to do: pass --month and --price, --show, --stats or --export")

func main() {
	s := storage.Configured()

	month := lflag.String("month", "", "Month to record, formatted YYYY-MM")
	price := lflag.String("price", "", "Wholesale price for --month in RM/kWh")
	source := lflag.String("source", string(types.PriceSourcePublished), "Price source: published or estimated")
	show := lflag.Bool("show", false, "Print the recent price history")
	stats := lflag.Bool("stats", false, "Print statistics for the recent window")
	export := lflag.String("export", "", "Write the full history as JSON to this path (- for stdout)")
	window := lflag.String("window", strconv.Itoa(prices.DefaultWindow), "Number of recent months for --show and --stats")

	lflag.Configure()
	log.SyncLevel()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w, err := strconv.Atoi(*window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid window %q\n", *window)
		os.Exit(1)
	}

	err = run(ctx, prices.NewHistory(s), options{
		month:  *month,
		price:  *price,
		source: *source,
		show:   *show,
		stats:  *stats,
		export: *export,
		window: w,
	}, os.Stdout)
	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, h *prices.History, opts options, stdout io.Writer) error {
	write := opts.month != "" || opts.price != ""
	if !write && !opts.show && !opts.stats && opts.export == "" {
		return errNothingToDo
	}
	if err := h.Init(ctx); err != nil {
		return err
	}

	if write {
		if opts.month == "" || opts.price == "" {
			return errors.New("--month and --price must be given together")
		}
		p, err := strconv.ParseFloat(opts.price, 64)
		if err != nil {
			return &types.ValidationError{Field: "price", Value: opts.price, Reason: "must be a number"}
		}
		source, err := types.ParsePriceSource(opts.source)
		if err != nil {
			return err
		}
		obs, err := h.Upsert(ctx, opts.month, p, source)
		if err != nil {
			return err
		}
		verb := "added"
		if !obs.UpdatedAt.IsZero() {
			verb = "updated"
		}
		fmt.Fprintf(stdout, "%s %s: RM %.4f/kWh (%s)\n", verb, obs.Month, obs.Price, obs.Source)
	}

	if opts.show || opts.stats {
		st, err := h.Statistics(ctx, opts.window)
		if err != nil {
			return err
		}
		if opts.show {
			printHistory(stdout, st)
		}
		if opts.stats {
			printStatistics(stdout, st)
		}
	}

	if opts.export != "" {
		return export(ctx, h, opts.export, stdout)
	}
	return nil
}

func printHistory(w io.Writer, st types.PriceStatistics) {
	if len(st.Observations) == 0 {
		fmt.Fprintln(w, "no price history")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tRM/kWh\tSOURCE\tVS AVG")
	for _, o := range st.Observations {
		fmt.Fprintf(tw, "%s\t%.4f\t%s\t%+.4f\n", o.Month, o.Price, o.Source, o.Price-st.Average)
	}
	tw.Flush()
}

func printStatistics(w io.Writer, st types.PriceStatistics) {
	if st.Fallback {
		fmt.Fprintln(w, "price history empty, fallback values:")
	}
	fmt.Fprintf(w, "window:  %d months\n", st.WindowSize)
	fmt.Fprintf(w, "average: RM %.4f/kWh\n", st.Average)
	fmt.Fprintf(w, "range:   RM %.4f to %.4f/kWh\n", st.Min, st.Max)
	fmt.Fprintf(w, "latest:  RM %.4f/kWh (%s)\n", st.Latest, st.LatestMonth)
	if st.AllEstimated && !st.Fallback {
		fmt.Fprintln(w, "note: every month in the window is an estimate")
	}
}

func export(ctx context.Context, h *prices.History, path string, stdout io.Writer) error {
	obs, err := h.All(ctx)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(obs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal price history: %w", err)
	}
	b = append(b, '\n')
	if path == "-" {
		_, err = stdout.Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "exported %d months to %s\n", len(obs), path)
	return nil
}
