package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/powerroof/powerroof/pkg/log"
	"github.com/powerroof/powerroof/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreProvider implements Database using Google Cloud Firestore as the
// hosted price table. Each month is one document keyed by its YYYY-MM token.
type FirestoreProvider struct {
	client     *firestore.Client
	projectID  string
	database   string
	collection string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	collection := lflag.String("firestore-collection", "smp_history", "Firestore collection holding the price history")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database
		f.collection = *collection

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	if f.collection == "" {
		return fmt.Errorf("firestore-collection cannot be empty")
	}
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) prices() *firestore.CollectionRef {
	return f.client.Collection(f.collection)
}

func decodeObservation(ctx context.Context, doc *firestore.DocumentSnapshot) (types.PriceObservation, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "price doc missing json", slog.String("month", doc.Ref.ID), slog.Any("err", err))
		return types.PriceObservation{}, fmt.Errorf("price document %s missing 'json' field: %w", doc.Ref.ID, err)
	}

	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "price doc json not string", slog.String("month", doc.Ref.ID))
		return types.PriceObservation{}, fmt.Errorf("price document %s 'json' field is not string", doc.Ref.ID)
	}

	var o types.PriceObservation
	if err := json.Unmarshal([]byte(jsonStr), &o); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal price", slog.String("month", doc.Ref.ID), slog.Any("err", err))
		return types.PriceObservation{}, fmt.Errorf("failed to unmarshal price (id=%s): %w", doc.Ref.ID, err)
	}
	return o, nil
}

// GetPrice retrieves a single month.
func (f *FirestoreProvider) GetPrice(ctx context.Context, month string) (types.PriceObservation, error) {
	doc, err := f.prices().Doc(month).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.PriceObservation{}, ErrPriceNotFound
		}
		return types.PriceObservation{}, fmt.Errorf("failed to fetch price doc: %w", err)
	}
	return decodeObservation(ctx, doc)
}

// GetPriceHistory retrieves every month ordered by document ID descending,
// which for YYYY-MM keys is newest first.
func (f *FirestoreProvider) GetPriceHistory(ctx context.Context) ([]types.PriceObservation, error) {
	iter := f.prices().
		OrderBy(firestore.DocumentID, firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var obs []types.PriceObservation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating price history: %w", err)
		}
		o, err := decodeObservation(ctx, doc)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return obs, nil
}

// UpsertPrice writes the observation as a JSON blob keyed by month.
func (f *FirestoreProvider) UpsertPrice(ctx context.Context, obs types.PriceObservation) error {
	if obs.Month == "" {
		return fmt.Errorf("price observation missing month")
	}
	jsonBytes, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("failed to marshal price: %w", err)
	}
	_, err = f.prices().Doc(obs.Month).Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"price":   obs.Price,
		"source":  string(obs.Source),
		"version": types.CurrentPriceObservationVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert price: %w", err)
	}
	return nil
}
