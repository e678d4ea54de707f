package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nutrilog/backend/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store persists foods, servings, meals and goals with gorm
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the sqlite database at path and migrates the schema.
// Use ":memory:" or a "file:...?mode=memory" DSN for an ephemeral database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := New(gdb, logger)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection
func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger.Named("store")}
}

// Migrate creates or updates every table
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(
		&FoodRecord{},
		&ServingRecord{},
		&MealRecord{},
		&MealItemRecord{},
		&GoalRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// CreateFood stores a food with its servings. At most one serving may be
// the default.
func (s *Store) CreateFood(ctx context.Context, food *domain.Food) error {
	if strings.TrimSpace(food.Name) == "" {
		return fmt.Errorf("%w: food name is required", domain.ErrValidation)
	}

	rec := FoodRecord{Name: strings.TrimSpace(food.Name), Brand: strings.TrimSpace(food.Brand)}
	defaults := 0
	for _, serving := range food.Servings {
		if err := serving.Validate(); err != nil {
			return err
		}
		if serving.IsDefault {
			defaults++
		}
		rec.Servings = append(rec.Servings, servingFromDomain(serving))
	}
	if defaults > 1 {
		return fmt.Errorf("%w: a food has at most one default serving", domain.ErrValidation)
	}

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return err
	}
	*food = rec.toDomain()
	return nil
}

// GetFood loads a food with its servings
func (s *Store) GetFood(ctx context.Context, id uint) (*domain.Food, error) {
	var rec FoodRecord
	if err := s.db.WithContext(ctx).Preload("Servings").First(&rec, id).Error; err != nil {
		return nil, notFound(err, domain.ErrFoodNotFound)
	}
	food := rec.toDomain()
	return &food, nil
}

// CreateServing adds a serving to an existing food. A new default serving
// demotes the previous default.
func (s *Store) CreateServing(ctx context.Context, serving *domain.Serving) error {
	if err := serving.Validate(); err != nil {
		return err
	}

	rec := servingFromDomain(*serving)
	rec.ID = 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&FoodRecord{}, rec.FoodID).Error; err != nil {
			return notFound(err, domain.ErrFoodNotFound)
		}
		if rec.IsDefault {
			if err := clearDefault(tx, rec.FoodID); err != nil {
				return err
			}
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return err
	}
	*serving = rec.toDomain()
	return nil
}

// SetDefaultServing makes id the only default serving of its food
func (s *Store) SetDefaultServing(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec ServingRecord
		if err := tx.First(&rec, id).Error; err != nil {
			return notFound(err, domain.ErrServingNotFound)
		}
		if err := clearDefault(tx, rec.FoodID); err != nil {
			return err
		}
		return tx.Model(&rec).Update("is_default", true).Error
	})
}

func clearDefault(tx *gorm.DB, foodID uint) error {
	return tx.Model(&ServingRecord{}).
		Where("food_id = ? AND is_default = ?", foodID, true).
		Update("is_default", false).Error
}

// GetServing loads one serving
func (s *Store) GetServing(ctx context.Context, id uint) (*domain.Serving, error) {
	var rec ServingRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, domain.ErrServingNotFound)
	}
	serving := rec.toDomain()
	return &serving, nil
}

// ApplyServingPatch writes the present fields of patch in one transaction.
// Columns the patch leaves absent are not touched.
func (s *Store) ApplyServingPatch(ctx context.Context, id uint, patch domain.ServingPatch) (*domain.Serving, error) {
	updates := make(map[string]interface{})
	patch.NutritionFact.Each(func(n domain.Nutrient, v float64) {
		updates[nutrientColumns[n]] = v
	})
	if patch.Unit != "" {
		updates["unit"] = patch.Unit
	}
	if patch.Status != "" {
		updates["status"] = string(patch.Status)
	}
	if patch.DataSource != "" {
		updates["data_source"] = patch.DataSource
	}

	var rec ServingRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return notFound(err, domain.ErrServingNotFound)
		}
		if len(updates) > 0 {
			if err := tx.Model(&rec).Updates(updates).Error; err != nil {
				return err
			}
		}
		return tx.First(&rec, id).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("serving patched", zap.Uint("servingID", id), zap.Int("columns", len(updates)))
	serving := rec.toDomain()
	return &serving, nil
}

// CreateMeal stores a meal and its items. The date is truncated to the
// calendar day and missing quantities default to one.
func (s *Store) CreateMeal(ctx context.Context, meal *domain.Meal) error {
	if !meal.Type.Valid() {
		return fmt.Errorf("%w: unknown meal type %q", domain.ErrValidation, meal.Type)
	}

	rec := MealRecord{
		UserID:   meal.UserID,
		Date:     domain.CalendarDay(meal.Date),
		MealType: string(meal.Type),
	}
	for _, item := range meal.Items {
		itemRec, err := mealItemFromDomain(item)
		if err != nil {
			return err
		}
		rec.Items = append(rec.Items, itemRec)
	}

	items := rec.Items
	rec.Items = nil
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].MealID = rec.ID
			if err := resolveServing(tx, &items[i]); err != nil {
				return err
			}
			if err := tx.Omit("Serving").Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	created, err := s.GetMeal(ctx, rec.ID)
	if err != nil {
		return err
	}
	*meal = *created
	return nil
}

// AddMealItem appends an item to an existing meal
func (s *Store) AddMealItem(ctx context.Context, mealID uint, item domain.MealItem) (*domain.MealItem, error) {
	rec, err := mealItemFromDomain(item)
	if err != nil {
		return nil, err
	}
	rec.MealID = mealID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&MealRecord{}, mealID).Error; err != nil {
			return notFound(err, domain.ErrMealNotFound)
		}
		if err := resolveServing(tx, &rec); err != nil {
			return err
		}
		return tx.Omit("Serving").Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}

	out := domain.MealItem{
		ID:          rec.ID,
		MealID:      rec.MealID,
		FoodID:      rec.FoodID,
		ServingID:   rec.ServingID,
		Serving:     rec.Serving.toDomain(),
		Quantity:    domain.Some(rec.Quantity),
		Notes:       rec.Notes,
		IsEstimated: rec.IsEstimated,
	}
	return &out, nil
}

func mealItemFromDomain(item domain.MealItem) (MealItemRecord, error) {
	quantity := item.EffectiveQuantity()
	if err := domain.ValidateQuantity(quantity); err != nil {
		return MealItemRecord{}, err
	}
	return MealItemRecord{
		FoodID:      item.FoodID,
		ServingID:   item.ServingID,
		Quantity:    quantity,
		Notes:       item.Notes,
		IsEstimated: item.IsEstimated,
	}, nil
}

// resolveServing loads the referenced serving and fills in its food.
func resolveServing(tx *gorm.DB, item *MealItemRecord) error {
	var serving ServingRecord
	if err := tx.First(&serving, item.ServingID).Error; err != nil {
		return notFound(err, domain.ErrServingNotFound)
	}
	if item.FoodID != 0 && item.FoodID != serving.FoodID {
		return fmt.Errorf("%w: serving %d does not belong to food %d", domain.ErrValidation, serving.ID, item.FoodID)
	}
	item.FoodID = serving.FoodID
	item.Serving = serving
	return nil
}

// GetMeal loads a meal with its items and their servings
func (s *Store) GetMeal(ctx context.Context, id uint) (*domain.Meal, error) {
	var rec MealRecord
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Serving").
		First(&rec, id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrMealNotFound)
	}
	meal := rec.toDomain()
	return &meal, nil
}

// ListMealsByDate returns a user's meals on the calendar day of date
func (s *Store) ListMealsByDate(ctx context.Context, userID uint, date time.Time) ([]domain.Meal, error) {
	day := domain.CalendarDay(date)

	var recs []MealRecord
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Serving").
		Where("user_id = ? AND date >= ? AND date < ?", userID, day, day.AddDate(0, 0, 1)).
		Order("date, id").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	meals := make([]domain.Meal, 0, len(recs))
	for _, rec := range recs {
		meals = append(meals, rec.toDomain())
	}
	return meals, nil
}

// CreateGoal stores a goal. An open-ended goal that started earlier is closed
// at the new goal's start date so that windows never overlap.
func (s *Store) CreateGoal(ctx context.Context, goal *domain.Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}
	rec := goalFromDomain(*goal)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		closed := tx.Model(&GoalRecord{}).
			Where("user_id = ? AND end_date IS NULL AND start_date < ?", rec.UserID, rec.StartDate).
			Update("end_date", rec.StartDate)
		if closed.Error != nil {
			return closed.Error
		}
		if closed.RowsAffected > 0 {
			s.logger.Info("closed previous goal",
				zap.Uint("userID", rec.UserID),
				zap.Time("endDate", rec.StartDate))
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return err
	}
	*goal = rec.toDomain()
	return nil
}

// ActiveGoal returns the goal whose [start, end) window contains date, or
// nil when there is none. The most recently started goal wins.
func (s *Store) ActiveGoal(ctx context.Context, userID uint, date time.Time) (*domain.Goal, error) {
	day := domain.CalendarDay(date)

	var rec GoalRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND start_date <= ? AND (end_date IS NULL OR end_date > ?)", userID, day, day).
		Order("start_date desc, id desc").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	goal := rec.toDomain()
	return &goal, nil
}
