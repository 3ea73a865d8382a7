package models

type IndicatorState string

const (
	IndicatorNeutral   IndicatorState = "neutral"
	IndicatorActive    IndicatorState = "active"
	IndicatorCompleted IndicatorState = "completed"
)

type StepIndicator struct {
	Step  Step           `json:"step"`
	State IndicatorState `json:"state"`
	Label string         `json:"label"` // check mark once completed, otherwise the step number
}

// StepView is what the client needs to paint the wizard chrome for the current step.
type StepView struct {
	Step        Step            `json:"step"`
	ActivePanel string          `json:"active_panel"`
	Indicators  []StepIndicator `json:"indicators"`
	Lines       []bool          `json:"lines"` // Lines[i] joins step i+1 and i+2
}
