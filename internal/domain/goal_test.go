package domain

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGoalActiveOn(t *testing.T) {
	end := day(2026, 3, 10)
	closed := Goal{StartDate: day(2026, 3, 1), EndDate: &end}
	open := Goal{StartDate: day(2026, 3, 1)}

	tests := []struct {
		name string
		goal Goal
		date time.Time
		want bool
	}{
		{"before start", closed, day(2026, 2, 28), false},
		{"on start", closed, day(2026, 3, 1), true},
		{"time of day ignored", closed, time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC), true},
		{"end is exclusive", closed, day(2026, 3, 10), false},
		{"open ended", open, day(2030, 1, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.goal.ActiveOn(tt.date); got != tt.want {
				t.Errorf("ActiveOn(%s) = %v, want %v", tt.date.Format(time.DateOnly), got, tt.want)
			}
		})
	}
}

func TestGoalValidate(t *testing.T) {
	sameDay := day(2026, 3, 1)

	tests := []struct {
		name    string
		goal    Goal
		wantErr bool
	}{
		{"valid", Goal{StartDate: sameDay, CaloriesTarget: Some(2000), SodiumTarget: Some(0)}, false},
		{"absent targets", Goal{StartDate: sameDay}, false},
		{"negative target", Goal{StartDate: sameDay, ProteinTarget: Some(-1)}, true},
		{"missing start", Goal{CaloriesTarget: Some(2000)}, true},
		{"empty window", Goal{StartDate: sameDay, EndDate: &sameDay}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.goal.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestGoalTarget(t *testing.T) {
	g := Goal{FiberTarget: Some(30)}
	if v, ok := g.Target(NutrientFiber).Get(); !ok || v != 30 {
		t.Errorf("Target(fiber) = %v, %v", v, ok)
	}
	if g.Target(NutrientCholesterol).Present() {
		t.Errorf("Target(cholesterol) should be absent, cholesterol is not tracked by goals")
	}
}

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2026-03-01")
	if err != nil {
		t.Fatalf("ParseDay() error = %v", err)
	}
	if !got.Equal(day(2026, 3, 1)) {
		t.Errorf("ParseDay() = %v", got)
	}

	for _, bad := range []string{"", "2026-3-1", "01/03/2026", "2026-02-30"} {
		if _, err := ParseDay(bad); !errors.Is(err, ErrValidation) {
			t.Errorf("ParseDay(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}
