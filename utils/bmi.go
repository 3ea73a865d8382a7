package utils

import (
	"math"

	"stylefit/models"
)

// CalculateBMI expects height in centimeters and weight in kilograms.
func CalculateBMI(heightCm, weightKg float64) float64 {
	h := heightCm / 100.0 // to meters
	return weightKg / (h * h)
}

// RoundBMI keeps one decimal, rounding half away from zero.
func RoundBMI(bmi float64) float64 {
	return math.Round(bmi*10) / 10
}

func BodyTypeFor(bmi float64) models.BodyType {
	switch {
	case bmi < 18.5:
		return models.BodySlim
	case bmi < 23.0:
		return models.BodyStandard
	case bmi < 25.0:
		return models.BodyAthletic
	case bmi < 30.0:
		return models.BodyStocky
	default:
		return models.BodyBig
	}
}

func HeightCategoryFor(heightCm float64) models.HeightCategory {
	switch {
	case heightCm < 170:
		return models.HeightShort
	case heightCm < 180:
		return models.HeightMedium
	default:
		return models.HeightTall
	}
}

// Classify maps validated measurements to a body type. Callers must run
// ParseMeasurements first; out-of-range input is not checked here.
func Classify(heightCm, weightKg float64) models.Analysis {
	bmi := CalculateBMI(heightCm, weightKg)
	return models.Analysis{
		BMI:            RoundBMI(bmi),
		BodyType:       BodyTypeFor(bmi),
		HeightCategory: HeightCategoryFor(heightCm),
	}
}
