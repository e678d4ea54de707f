package store

import (
	"time"

	"github.com/nutrilog/backend/internal/domain"
)

// FoodRecord is the persisted form of domain.Food
type FoodRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null;index"`
	Brand     string
	Servings  []ServingRecord `gorm:"foreignKey:FoodID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FoodRecord) TableName() string { return "foods" }

// ServingRecord stores one serving with a nullable column per nutrient
type ServingRecord struct {
	ID           uint    `gorm:"primaryKey"`
	FoodID       uint    `gorm:"not null;index"`
	Size         float64 `gorm:"not null"`
	Unit         string  `gorm:"not null"`
	IsDefault    bool    `gorm:"not null;default:false"`
	Calories     domain.Amount
	Protein      domain.Amount
	Carbs        domain.Amount
	Fat          domain.Amount
	SaturatedFat domain.Amount
	TransFat     domain.Amount
	Fiber        domain.Amount
	Sugar        domain.Amount
	Sodium       domain.Amount
	Cholesterol  domain.Amount
	Status       string `gorm:"not null;default:needs_review"`
	DataSource   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ServingRecord) TableName() string { return "servings" }

// nutrientColumns maps nutrients to their serving column
var nutrientColumns = map[domain.Nutrient]string{
	domain.NutrientCalories:     "calories",
	domain.NutrientProtein:      "protein",
	domain.NutrientCarbs:        "carbs",
	domain.NutrientFat:          "fat",
	domain.NutrientSaturatedFat: "saturated_fat",
	domain.NutrientTransFat:     "trans_fat",
	domain.NutrientFiber:        "fiber",
	domain.NutrientSugar:        "sugar",
	domain.NutrientSodium:       "sodium",
	domain.NutrientCholesterol:  "cholesterol",
}

func (r ServingRecord) fact() domain.NutritionFact {
	return domain.NutritionFact{
		Calories:     r.Calories,
		Protein:      r.Protein,
		Carbs:        r.Carbs,
		Fat:          r.Fat,
		SaturatedFat: r.SaturatedFat,
		TransFat:     r.TransFat,
		Fiber:        r.Fiber,
		Sugar:        r.Sugar,
		Sodium:       r.Sodium,
		Cholesterol:  r.Cholesterol,
	}
}

func (r ServingRecord) toDomain() domain.Serving {
	return domain.Serving{
		ID:         r.ID,
		FoodID:     r.FoodID,
		Size:       r.Size,
		Unit:       r.Unit,
		IsDefault:  r.IsDefault,
		Fact:       r.fact(),
		Status:     domain.ServingStatus(r.Status),
		DataSource: r.DataSource,
	}
}

func servingFromDomain(s domain.Serving) ServingRecord {
	status := s.Status
	if status == "" {
		status = domain.ServingStatusNeedsReview
	}
	return ServingRecord{
		ID:           s.ID,
		FoodID:       s.FoodID,
		Size:         s.Size,
		Unit:         s.Unit,
		IsDefault:    s.IsDefault,
		Calories:     s.Fact.Calories,
		Protein:      s.Fact.Protein,
		Carbs:        s.Fact.Carbs,
		Fat:          s.Fact.Fat,
		SaturatedFat: s.Fact.SaturatedFat,
		TransFat:     s.Fact.TransFat,
		Fiber:        s.Fact.Fiber,
		Sugar:        s.Fact.Sugar,
		Sodium:       s.Fact.Sodium,
		Cholesterol:  s.Fact.Cholesterol,
		Status:       string(status),
		DataSource:   s.DataSource,
	}
}

func (r FoodRecord) toDomain() domain.Food {
	food := domain.Food{ID: r.ID, Name: r.Name, Brand: r.Brand}
	for _, s := range r.Servings {
		food.Servings = append(food.Servings, s.toDomain())
	}
	return food
}

// MealRecord is a meal logged by a user on a calendar day
type MealRecord struct {
	ID        uint             `gorm:"primaryKey"`
	UserID    uint             `gorm:"not null;index:idx_meals_user_date"`
	Date      time.Time        `gorm:"not null;index:idx_meals_user_date"`
	MealType  string           `gorm:"not null"`
	Items     []MealItemRecord `gorm:"foreignKey:MealID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MealRecord) TableName() string { return "meals" }

// MealItemRecord references a serving; its nutrition is always derived
type MealItemRecord struct {
	ID          uint          `gorm:"primaryKey"`
	MealID      uint          `gorm:"not null;index"`
	FoodID      uint          `gorm:"not null"`
	ServingID   uint          `gorm:"not null;index"`
	Serving     ServingRecord `gorm:"foreignKey:ServingID"`
	Quantity    float64       `gorm:"not null"`
	Notes       string
	IsEstimated bool
	CreatedAt   time.Time
}

func (MealItemRecord) TableName() string { return "meal_items" }

func (r MealRecord) toDomain() domain.Meal {
	meal := domain.Meal{
		ID:     r.ID,
		UserID: r.UserID,
		Date:   r.Date,
		Type:   domain.MealType(r.MealType),
		Items:  make([]domain.MealItem, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		meal.Items = append(meal.Items, domain.MealItem{
			ID:          item.ID,
			MealID:      item.MealID,
			FoodID:      item.FoodID,
			ServingID:   item.ServingID,
			Serving:     item.Serving.toDomain(),
			Quantity:    domain.Some(item.Quantity),
			Notes:       item.Notes,
			IsEstimated: item.IsEstimated,
		})
	}
	return meal
}

// GoalRecord holds daily targets for [StartDate, EndDate)
type GoalRecord struct {
	ID             uint `gorm:"primaryKey"`
	UserID         uint `gorm:"not null;index"`
	CaloriesTarget domain.Amount
	ProteinTarget  domain.Amount
	CarbsTarget    domain.Amount
	FatTarget      domain.Amount
	FiberTarget    domain.Amount
	SugarTarget    domain.Amount
	SodiumTarget   domain.Amount
	StartDate      time.Time `gorm:"not null;index"`
	EndDate        *time.Time
	CreatedAt      time.Time
}

func (GoalRecord) TableName() string { return "goals" }

func (r GoalRecord) toDomain() domain.Goal {
	return domain.Goal{
		ID:             r.ID,
		UserID:         r.UserID,
		CaloriesTarget: r.CaloriesTarget,
		ProteinTarget:  r.ProteinTarget,
		CarbsTarget:    r.CarbsTarget,
		FatTarget:      r.FatTarget,
		FiberTarget:    r.FiberTarget,
		SugarTarget:    r.SugarTarget,
		SodiumTarget:   r.SodiumTarget,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
	}
}

func goalFromDomain(g domain.Goal) GoalRecord {
	rec := GoalRecord{
		UserID:         g.UserID,
		CaloriesTarget: g.CaloriesTarget,
		ProteinTarget:  g.ProteinTarget,
		CarbsTarget:    g.CarbsTarget,
		FatTarget:      g.FatTarget,
		FiberTarget:    g.FiberTarget,
		SugarTarget:    g.SugarTarget,
		SodiumTarget:   g.SodiumTarget,
		StartDate:      domain.CalendarDay(g.StartDate),
	}
	if g.EndDate != nil {
		end := domain.CalendarDay(*g.EndDate)
		rec.EndDate = &end
	}
	return rec
}
