package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"stylefit/models"
)

const (
	MinHeightCm = 100
	MaxHeightCm = 250
	MinWeightKg = 30
	MaxWeightKg = 250
)

// InputError names the offending field so the client can re-focus it.
type InputError struct {
	Field string
	Min   float64
	Max   float64
	Unit  string
	Msg   string
}

func (e *InputError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("please enter a valid %s (%g~%g%s)", e.Field, e.Min, e.Max, e.Unit)
}

func (e *InputError) Unwrap() error { return models.ErrInvalidInput }

// ParseMeasurements validates raw form values. Height is checked before weight.
func ParseMeasurements(rawHeight, rawWeight string) (float64, float64, error) {
	height, ok := parseInRange(rawHeight, MinHeightCm, MaxHeightCm)
	if !ok {
		return 0, 0, &InputError{Field: "height", Min: MinHeightCm, Max: MaxHeightCm, Unit: "cm"}
	}
	weight, ok := parseInRange(rawWeight, MinWeightKg, MaxWeightKg)
	if !ok {
		return 0, 0, &InputError{Field: "weight", Min: MinWeightKg, Max: MaxWeightKg, Unit: "kg"}
	}
	return height, weight, nil
}

func parseInRange(raw string, min, max float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v < min || v > max {
		return 0, false
	}
	return v, true
}

// ParseStyle defaults an empty selection to casual.
func ParseStyle(raw string) (models.StylePreference, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return models.StyleCasual, nil
	}
	style := models.StylePreference(raw)
	if !style.Valid() {
		return "", &InputError{Field: "style", Msg: fmt.Sprintf("unknown style preference %q", raw)}
	}
	return style, nil
}

// CheckImageType only looks at the MIME prefix; content is never decoded.
func CheckImageType(contentType string) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return &InputError{Field: "photo", Msg: "only image files can be uploaded"}
	}
	return nil
}
