package services

import (
	"fmt"
	"strconv"

	"stylefit/models"
	"stylefit/utils"
)

// The functions in this file are the wizard's transition table. Each one takes the
// session explicitly and either applies a complete transition or leaves it untouched.

func invalidTransition(s *models.Session, op string) error {
	return fmt.Errorf("%w: %s from %s", models.ErrInvalidTransition, op, s.CurrentStep)
}

// AttachPhoto records an uploaded photo reference. Only allowed on the upload step.
func AttachPhoto(s *models.Session, ref string) error {
	if s.CurrentStep != models.StepUpload {
		return invalidTransition(s, "attach photo")
	}
	s.PhotoRef = ref
	s.PhotoUploaded = true
	return nil
}

// Advance moves Upload -> Measurements once a photo is attached. Otherwise it is a no-op.
func Advance(s *models.Session) bool {
	if s.CurrentStep != models.StepUpload || !s.PhotoUploaded {
		return false
	}
	s.CurrentStep = models.StepMeasurements
	return true
}

// Back returns Measurements -> Upload unconditionally, abandoning any analysis in flight.
func Back(s *models.Session) error {
	if s.CurrentStep != models.StepMeasurements {
		return invalidTransition(s, "back")
	}
	s.CurrentStep = models.StepUpload
	s.Loading = false
	return nil
}

// Analyze validates the raw form values and classifies them. On success the inputs
// and the analysis are stored together and the session waits for the loading
// pipeline. On failure the session is not modified.
func Analyze(s *models.Session, rawHeight, rawWeight, rawStyle string) (models.Analysis, error) {
	if s.CurrentStep != models.StepMeasurements {
		return models.Analysis{}, invalidTransition(s, "analyze")
	}
	if s.Loading {
		return models.Analysis{}, models.ErrAnalysisInProgress
	}

	height, weight, err := utils.ParseMeasurements(rawHeight, rawWeight)
	if err != nil {
		return models.Analysis{}, err
	}
	style, err := utils.ParseStyle(rawStyle)
	if err != nil {
		return models.Analysis{}, err
	}

	analysis := utils.Classify(height, weight)

	s.Height = &height
	s.Weight = &weight
	s.StylePreference = style
	s.SetAnalysis(analysis)
	s.Loading = true
	return analysis, nil
}

// CompleteAnalysis enters Results once the loading pipeline has finished.
func CompleteAnalysis(s *models.Session) error {
	if s.CurrentStep != models.StepMeasurements || !s.Loading {
		return invalidTransition(s, "complete analysis")
	}
	if _, ok := s.Analysis(); !ok {
		return invalidTransition(s, "complete analysis")
	}
	s.Loading = false
	s.CurrentStep = models.StepResults
	return nil
}

// Restart clears everything and returns to Upload.
func Restart(s *models.Session) error {
	if s.CurrentStep != models.StepResults {
		return invalidTransition(s, "restart")
	}
	s.CurrentStep = models.StepUpload
	s.PhotoUploaded = false
	s.PhotoRef = ""
	s.Height = nil
	s.Weight = nil
	s.StylePreference = models.StyleCasual
	s.ClearAnalysis()
	s.Loading = false
	s.PremiumUnlocked = false
	s.SkipOffered = false
	return nil
}

var panelIDs = map[models.Step]string{
	models.StepUpload:       "step1",
	models.StepMeasurements: "step2",
	models.StepResults:      "step3",
}

// View computes the indicator row for a step.
func View(step models.Step) models.StepView {
	v := models.StepView{
		Step:        step,
		ActivePanel: panelIDs[step],
		Indicators:  make([]models.StepIndicator, 0, len(models.Steps)),
		Lines:       make([]bool, 0, len(models.Steps)-1),
	}
	for _, st := range models.Steps {
		ind := models.StepIndicator{Step: st, State: models.IndicatorNeutral, Label: strconv.Itoa(int(st))}
		switch {
		case st < step:
			ind.State = models.IndicatorCompleted
			ind.Label = "✓"
		case st == step:
			ind.State = models.IndicatorActive
		}
		v.Indicators = append(v.Indicators, ind)
	}
	for i := 1; i < len(models.Steps); i++ {
		v.Lines = append(v.Lines, int(step) > i)
	}
	return v
}
