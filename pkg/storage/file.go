package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/levenlabs/go-lflag"
	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/types"
)

// FileProvider implements Database on top of a single JSON document holding
// the whole price log. Every write rewrites the document through a temporary
// file and a rename so a reader never sees a partial log.
type FileProvider struct {
	path string

	mu sync.Mutex
}

func configuredFile() *FileProvider {
	path := lflag.String("price-history-file", "data/smp_history.json", "Path of the JSON price history log")

	f := &FileProvider{}

	lflag.Do(func() {
		f.path = *path
	})

	return f
}

// NewFileProvider returns a FileProvider backed by the JSON document at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Validate checks if the provider is properly configured.
func (f *FileProvider) Validate() error {
	if f.path == "" {
		return errors.New("price-history-file is required")
	}
	return nil
}

// Init makes sure the containing directory exists.
func (f *FileProvider) Init(ctx context.Context) error {
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create price history directory: %w", err)
		}
	}
	return nil
}

// Close is a no-op; the log is not held open between calls.
func (f *FileProvider) Close() error {
	return nil
}

func (f *FileProvider) load(ctx context.Context) ([]types.PriceObservation, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read price history: %w", err)
	}
	var obs []types.PriceObservation
	if err := json.Unmarshal(b, &obs); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal price history", slog.String("path", f.path), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrCorruptLog, err)
	}
	return obs, nil
}

func (f *FileProvider) save(obs []types.PriceObservation) error {
	sortDescending(obs)
	b, err := json.MarshalIndent(obs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal price history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write price history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace price history: %w", err)
	}
	return nil
}

// GetPrice returns the observation for month.
func (f *FileProvider) GetPrice(ctx context.Context, month string) (types.PriceObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obs, err := f.load(ctx)
	if err != nil {
		return types.PriceObservation{}, err
	}
	for _, o := range obs {
		if o.Month == month {
			return o, nil
		}
	}
	return types.PriceObservation{}, ErrPriceNotFound
}

// GetPriceHistory returns the full log, newest first.
func (f *FileProvider) GetPriceHistory(ctx context.Context) ([]types.PriceObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obs, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	sortDescending(obs)
	return obs, nil
}

// UpsertPrice replaces the entry for obs.Month or appends a new one.
func (f *FileProvider) UpsertPrice(ctx context.Context, obs types.PriceObservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, err := f.load(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range existing {
		if existing[i].Month == obs.Month {
			existing[i] = obs
			replaced = true
			break
		}
	}
	if !replaced {
		existing = append(existing, obs)
	}
	return f.save(existing)
}

func sortDescending(obs []types.PriceObservation) {
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Month > obs[j].Month
	})
}
