package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stylefit/models"
)

func TestClassify_Examples(t *testing.T) {
	tests := []struct {
		name           string
		height, weight float64
		bmi            float64
		bodyType       models.BodyType
		heightCategory models.HeightCategory
	}{
		{"standard medium", 175, 70, 22.9, models.BodyStandard, models.HeightMedium},
		{"stocky tall", 180, 95, 29.3, models.BodyStocky, models.HeightTall},
		{"slim short", 165, 45, 16.5, models.BodySlim, models.HeightShort},
		{"big tall", 185, 120, 35.1, models.BodyBig, models.HeightTall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.height, tt.weight)
			assert.Equal(t, tt.bmi, got.BMI)
			assert.Equal(t, tt.bodyType, got.BodyType)
			assert.Equal(t, tt.heightCategory, got.HeightCategory)
		})
	}
}

func TestBodyTypeFor_Boundaries(t *testing.T) {
	assert.Equal(t, models.BodySlim, BodyTypeFor(18.49))
	assert.Equal(t, models.BodyStandard, BodyTypeFor(18.5))
	assert.Equal(t, models.BodyStandard, BodyTypeFor(22.99))
	assert.Equal(t, models.BodyAthletic, BodyTypeFor(23))
	assert.Equal(t, models.BodyAthletic, BodyTypeFor(24.99))
	assert.Equal(t, models.BodyStocky, BodyTypeFor(25))
	assert.Equal(t, models.BodyStocky, BodyTypeFor(29.99))
	assert.Equal(t, models.BodyBig, BodyTypeFor(30))
}

func TestHeightCategoryFor_Boundaries(t *testing.T) {
	assert.Equal(t, models.HeightShort, HeightCategoryFor(169.9))
	assert.Equal(t, models.HeightMedium, HeightCategoryFor(170))
	assert.Equal(t, models.HeightMedium, HeightCategoryFor(179.9))
	assert.Equal(t, models.HeightTall, HeightCategoryFor(180))
}

func TestClassify_ExactBMIBoundaries(t *testing.T) {
	// 200cm makes the divisor exactly 4.
	assert.Equal(t, models.BodyStandard, Classify(200, 74).BodyType) // 18.5
	assert.Equal(t, models.BodyAthletic, Classify(200, 92).BodyType) // 23
	assert.Equal(t, models.BodyStocky, Classify(200, 100).BodyType)  // 25
	assert.Equal(t, models.BodyBig, Classify(200, 120).BodyType)     // 30
}

func TestClassify_TotalOverValidRange(t *testing.T) {
	for h := float64(MinHeightCm); h <= MaxHeightCm; h += 2.5 {
		for w := float64(MinWeightKg); w <= MaxWeightKg; w += 2.5 {
			got := Classify(h, w)
			if !got.BodyType.Valid() {
				t.Fatalf("Classify(%v, %v) body type %q", h, w, got.BodyType)
			}
			switch got.HeightCategory {
			case models.HeightShort, models.HeightMedium, models.HeightTall:
			default:
				t.Fatalf("Classify(%v, %v) height category %q", h, w, got.HeightCategory)
			}
		}
	}
}

func TestRoundBMI(t *testing.T) {
	assert.Equal(t, 22.9, RoundBMI(22.857142))
	assert.Equal(t, 29.3, RoundBMI(29.320987))
	assert.Equal(t, 30.0, RoundBMI(29.96))
}
