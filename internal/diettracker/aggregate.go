package diettracker

import "github.com/fitcoach/diet-hub/internal/storage"

// Macros is a running sum of nutrition values. No rounding happens here;
// presentation formatting is applied in DTOs only.
type Macros struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}

func (m Macros) add(calories, protein, carbs, fat float64) Macros {
	m.Calories += calories
	m.Protein += protein
	m.Carbs += carbs
	m.Fat += fat
	return m
}

// SumCompleted totals completed meals plus all snacks. Snacks carry no
// completion flag and always count.
func SumCompleted(meals []storage.MealLog, snacks []storage.SnackLog) Macros {
	var total Macros
	for _, meal := range meals {
		if !meal.IsCompleted {
			continue
		}
		total = total.add(meal.Calories, meal.Protein, meal.Carbs, meal.Fat)
	}
	for _, snack := range snacks {
		total = total.add(snack.Calories, snack.Protein, snack.Carbs, snack.Fat)
	}
	return total
}

// SumAll totals every meal and snack regardless of completion: the day's
// full planned nutrition, for callers that already selected the day.
func SumAll(meals []storage.MealLog, snacks []storage.SnackLog) Macros {
	var total Macros
	for _, meal := range meals {
		total = total.add(meal.Calories, meal.Protein, meal.Carbs, meal.Fat)
	}
	for _, snack := range snacks {
		total = total.add(snack.Calories, snack.Protein, snack.Carbs, snack.Fat)
	}
	return total
}
