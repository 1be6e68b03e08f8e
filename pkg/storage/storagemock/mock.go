package storagemock

import (
	"context"

	"github.com/powerroof/powerroof/pkg/storage"
	"github.com/powerroof/powerroof/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) GetPrice(ctx context.Context, month string) (types.PriceObservation, error) {
	args := m.Called(ctx, month)
	if len(args) > 0 {
		return args.Get(0).(types.PriceObservation), args.Error(1)
	}
	return types.PriceObservation{}, storage.ErrPriceNotFound
}

func (m *MockDatabase) GetPriceHistory(ctx context.Context) ([]types.PriceObservation, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		if args.Get(0) == nil {
			return nil, args.Error(1)
		}
		return args.Get(0).([]types.PriceObservation), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) UpsertPrice(ctx context.Context, obs types.PriceObservation) error {
	args := m.Called(ctx, obs)
	return args.Error(0)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
