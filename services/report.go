package services

import (
	"fmt"
	"strconv"
	"strings"

	"stylefit/catalog"
	"stylefit/models"
)

const ReportFilename = "style-recommendation.txt"

// Results is everything the results panel renders.
type Results struct {
	Height          float64                          `json:"height"`
	Weight          float64                          `json:"weight"`
	StylePreference models.StylePreference           `json:"style_preference"`
	Analysis        models.Analysis                  `json:"analysis"`
	BodyType        catalog.BodyTypeInfo             `json:"body_type"`
	Recommendations []catalog.CategoryRecommendation `json:"recommendations"`
	Palette         []catalog.Swatch                 `json:"palette"`
	Tips            []catalog.Tip                    `json:"tips"`
}

// BuildResults assembles the results view from the stored analysis. The session must
// hold measurements and an analysis; the step is not checked here.
func BuildResults(s *models.Session, cat *catalog.Catalog) (*Results, error) {
	a, ok := s.Analysis()
	if !ok {
		return nil, models.ErrResultsNotReady
	}
	height, weight, ok := s.Measurements()
	if !ok {
		return nil, models.ErrResultsNotReady
	}
	return &Results{
		Height:          height,
		Weight:          weight,
		StylePreference: s.StylePreference,
		Analysis:        a,
		BodyType:        cat.BodyType(a.BodyType),
		Recommendations: cat.Recommendations(s.StylePreference, a.BodyType),
		Palette:         cat.Palette(a.BodyType),
		Tips:            cat.Tips(a.BodyType),
	}, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Text renders the plain-text report handed to the clipboard or download.
func (r *Results) Text() string {
	var sb strings.Builder
	sb.WriteString("=== StyleFit Style Recommendation ===\n\n")
	sb.WriteString("📊 Body Analysis\n")
	fmt.Fprintf(&sb, "- Height: %scm\n", formatNumber(r.Height))
	fmt.Fprintf(&sb, "- Weight: %skg\n", formatNumber(r.Weight))
	fmt.Fprintf(&sb, "- BMI: %s\n", formatNumber(r.Analysis.BMI))
	fmt.Fprintf(&sb, "- Body type: %s\n", r.BodyType.Label)
	fmt.Fprintf(&sb, "- Style preference: %s\n\n", r.StylePreference)

	for _, rec := range r.Recommendations {
		fmt.Fprintf(&sb, "%s %s\n", rec.Icon, rec.Title)
		fmt.Fprintf(&sb, "  Picks: %s\n", strings.Join(rec.Items, ", "))
		fmt.Fprintf(&sb, "  Why: %s\n\n", rec.Reason)
	}

	sb.WriteString("💡 Styling Tips\n")
	for _, tip := range r.Tips {
		fmt.Fprintf(&sb, "%s %s\n", tip.Icon, tip.Text)
	}
	return sb.String()
}

// BuildReport renders the report for a session.
func BuildReport(s *models.Session, cat *catalog.Catalog) (string, error) {
	r, err := BuildResults(s, cat)
	if err != nil {
		return "", err
	}
	return r.Text(), nil
}
