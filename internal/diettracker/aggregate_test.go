package diettracker

import (
	"testing"

	"github.com/fitcoach/diet-hub/internal/storage"
)

var aggMeals = []storage.MealLog{
	{MealName: "Breakfast", IsCompleted: true, Calories: 400, Protein: 20, Carbs: 60, Fat: 8},
	{MealName: "Lunch", IsCompleted: false, Calories: 700, Protein: 45, Carbs: 70, Fat: 25},
	{MealName: "Dinner", IsCompleted: true, Calories: 600, Protein: 50, Carbs: 40, Fat: 20},
}

var aggSnacks = []storage.SnackLog{
	{Name: "Apple", Calories: 95, Protein: 0.5, Carbs: 25, Fat: 0.5},
	{Name: "Shake", Calories: 220, Protein: 30, Carbs: 12, Fat: 5},
}

func TestSumCompletedSkipsUncompletedMeals(t *testing.T) {
	got := SumCompleted(aggMeals, aggSnacks)

	// Lunch (uncompleted) contributes nothing; both snacks always count.
	want := Macros{Calories: 1315, Protein: 100.5, Carbs: 137, Fat: 33.5}
	if got != want {
		t.Errorf("SumCompleted = %+v, want %+v", got, want)
	}
}

func TestSumAllCountsEveryEntry(t *testing.T) {
	got := SumAll(aggMeals, aggSnacks)

	want := Macros{Calories: 2015, Protein: 145.5, Carbs: 207, Fat: 58.5}
	if got != want {
		t.Errorf("SumAll = %+v, want %+v", got, want)
	}
}

func TestSumEmptyInputsAreZero(t *testing.T) {
	if got := SumCompleted(nil, nil); got != (Macros{}) {
		t.Errorf("SumCompleted(nil, nil) = %+v, want zero", got)
	}
	if got := SumAll(nil, nil); got != (Macros{}) {
		t.Errorf("SumAll(nil, nil) = %+v, want zero", got)
	}
}
