package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/nutrilog/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string][]byte
	getError error
	setError error
	sets     int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockUSDAClient is a mock implementation of domain.USDAClient
type MockUSDAClient struct {
	searchResult *domain.USDASearchResponse
	searchError  error
	searches     []string
}

func (m *MockUSDAClient) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	m.searches = append(m.searches, query)
	if m.searchError != nil {
		return nil, m.searchError
	}
	return m.searchResult, nil
}

func (m *MockUSDAClient) GetFoodDetails(ctx context.Context, fdcID int) (*domain.USDAFood, error) {
	if m.searchResult != nil {
		for _, food := range m.searchResult.Foods {
			if food.FdcID == fdcID {
				return &food, nil
			}
		}
	}
	return nil, domain.ErrProductNotFound
}

// MockEstimator is a mock implementation of domain.NutritionEstimator
type MockEstimator struct {
	result *domain.ProviderNutritionResult
	err    error
	calls  int
	// block waits for ctx to be done before answering
	block bool
}

func (m *MockEstimator) Estimate(ctx context.Context, request *domain.LookupRequest) (*domain.ProviderNutritionResult, error) {
	m.calls++
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	r := *m.result
	return &r, nil
}

// MockServingRepository keeps servings in memory and records writes
type MockServingRepository struct {
	mu       sync.Mutex
	foods    map[uint]domain.Food
	servings map[uint]domain.Serving
	writes   int
	applyErr error
}

func NewMockServingRepository() *MockServingRepository {
	return &MockServingRepository{
		foods:    make(map[uint]domain.Food),
		servings: make(map[uint]domain.Serving),
	}
}

func (m *MockServingRepository) GetServing(ctx context.Context, id uint) (*domain.Serving, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.servings[id]
	if !ok {
		return nil, domain.ErrServingNotFound
	}
	return &s, nil
}

func (m *MockServingRepository) GetFood(ctx context.Context, id uint) (*domain.Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.foods[id]
	if !ok {
		return nil, domain.ErrFoodNotFound
	}
	return &f, nil
}

func (m *MockServingRepository) ApplyServingPatch(ctx context.Context, id uint, patch domain.ServingPatch) (*domain.Serving, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	s, ok := m.servings[id]
	if !ok {
		return nil, domain.ErrServingNotFound
	}
	s = patch.ApplyTo(s)
	m.servings[id] = s
	m.writes++
	return &s, nil
}

// MockMealRepository serves fixed meals
type MockMealRepository struct {
	meals []domain.Meal
}

func (m *MockMealRepository) GetMeal(ctx context.Context, id uint) (*domain.Meal, error) {
	for _, meal := range m.meals {
		if meal.ID == id {
			return &meal, nil
		}
	}
	return nil, domain.ErrMealNotFound
}

func (m *MockMealRepository) ListMealsByDate(ctx context.Context, userID uint, date time.Time) ([]domain.Meal, error) {
	var out []domain.Meal
	for _, meal := range m.meals {
		if meal.UserID == userID && domain.CalendarDay(meal.Date).Equal(domain.CalendarDay(date)) {
			out = append(out, meal)
		}
	}
	return out, nil
}

// MockGoalRepository resolves goals with Goal.ActiveOn
type MockGoalRepository struct {
	goals []domain.Goal
	err   error
}

func (m *MockGoalRepository) ActiveGoal(ctx context.Context, userID uint, date time.Time) (*domain.Goal, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, g := range m.goals {
		if g.UserID == userID && g.ActiveOn(date) {
			return &g, nil
		}
	}
	return nil, nil
}
