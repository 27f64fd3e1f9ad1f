package hotspots

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
	"carbon-offset/offset-portal/offset-portal-backend/internal/notifications"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ReplaceAll(ctx context.Context, hotspots []Hotspot) error {
	args := m.Called(ctx, hotspots)
	return args.Error(0)
}

func (m *MockRepository) Top(ctx context.Context, limit int) ([]Hotspot, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]Hotspot), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]Hotspot, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]Hotspot), args.Int(1), args.Error(2)
}

func (m *MockRepository) Stats(ctx context.Context) (*Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(*Stats), args.Error(1)
}

func (m *MockRepository) ByState(ctx context.Context) ([]StateBreakdown, error) {
	args := m.Called(ctx)
	return args.Get(0).([]StateBreakdown), args.Error(1)
}

func (m *MockRepository) InBounds(ctx context.Context, bound *orb.Bound, limit int) ([]Hotspot, error) {
	args := m.Called(ctx, bound, limit)
	return args.Get(0).([]Hotspot), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []notifications.Message
}

func (p *recordingPublisher) Publish(msg notifications.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func newTestService(repo Repository, opts ServiceOptions) *Service {
	opts.Now = func() time.Time { return classifiedAt }
	return NewService(repo, zap.NewNop(), opts)
}

func TestRefresh(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ReplaceAll", mock.Anything, mock.MatchedBy(func(hs []Hotspot) bool {
		return len(hs) == 3
	})).Return(nil).Once()
	events := &recordingPublisher{}

	svc := newTestService(repo, ServiceOptions{Events: events})
	result, err := svc.Refresh(context.Background(), []dataset.EmissionObservation{
		observation("Low", "Odisha", 25),
		observation("Mid", "Odisha", 50),
		observation("High", "Odisha", 75),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Counts[LevelRed])

	repo.AssertExpectations(t)
	require.Len(t, events.messages, 1)
	assert.Equal(t, notifications.EventHotspotsRefreshed, events.messages[0].Type)
}

func TestRefresh_NoCompleteRowsKeepsStore(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, ServiceOptions{})

	_, err := svc.Refresh(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoCompleteRows)
	repo.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
}

func TestTop_ClampsLimit(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Top", mock.Anything, 20).Return([]Hotspot{}, nil).Twice()
	repo.On("Top", mock.Anything, 5).Return([]Hotspot{}, nil).Once()

	svc := newTestService(repo, ServiceOptions{MaxPageSize: 20})
	for _, limit := range []int{0, 500, 5} {
		_, err := svc.Top(context.Background(), limit)
		require.NoError(t, err)
	}
	repo.AssertExpectations(t)
}

func TestList(t *testing.T) {
	repo := new(MockRepository)
	repo.On("List", mock.Anything, ListFilter{Level: LevelRed, Page: 1, Limit: 2}).
		Return([]Hotspot{{ID: "a"}, {ID: "b"}}, 5, nil).Once()

	svc := newTestService(repo, ServiceOptions{})
	page, err := svc.List(context.Background(), ListFilter{Level: LevelRed, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Count)
	repo.AssertExpectations(t)
}

func TestList_RejectsUnknownLevel(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, ServiceOptions{})

	_, err := svc.List(context.Background(), ListFilter{Level: "Purple"})
	assert.ErrorIs(t, err, ErrInvalidLevel)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}
