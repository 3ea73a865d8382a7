package models

// Step is a position in the three-panel wizard.
type Step int

const (
	StepUpload       Step = 1
	StepMeasurements Step = 2
	StepResults      Step = 3
)

// Steps lists the wizard steps in display order.
var Steps = []Step{StepUpload, StepMeasurements, StepResults}

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepMeasurements:
		return "measurements"
	case StepResults:
		return "results"
	default:
		return "unknown"
	}
}

type StylePreference string

const (
	StyleCasual   StylePreference = "casual"
	StyleBusiness StylePreference = "business"
	StyleStreet   StylePreference = "street"
)

var StylePreferences = []StylePreference{StyleCasual, StyleBusiness, StyleStreet}

func (s StylePreference) Valid() bool {
	switch s {
	case StyleCasual, StyleBusiness, StyleStreet:
		return true
	}
	return false
}

// BodyType is derived from BMI and keys every catalog table.
type BodyType string

const (
	BodySlim     BodyType = "slim"
	BodyStandard BodyType = "standard"
	BodyAthletic BodyType = "athletic"
	BodyStocky   BodyType = "stocky"
	BodyBig      BodyType = "big"
)

var BodyTypes = []BodyType{BodySlim, BodyStandard, BodyAthletic, BodyStocky, BodyBig}

func (b BodyType) Valid() bool {
	switch b {
	case BodySlim, BodyStandard, BodyAthletic, BodyStocky, BodyBig:
		return true
	}
	return false
}

// HeightCategory is computed alongside the body type but is not used when rendering results.
type HeightCategory string

const (
	HeightShort  HeightCategory = "short"
	HeightMedium HeightCategory = "medium"
	HeightTall   HeightCategory = "tall"
)

// Category is one garment slot on a recommendation card.
type Category string

const (
	CategoryTop    Category = "top"
	CategoryBottom Category = "bottom"
	CategoryOuter  Category = "outer"
	CategoryShoes  Category = "shoes"
	CategoryAcc    Category = "acc"
)

// Categories is the fixed render order of recommendation cards.
var Categories = []Category{CategoryTop, CategoryBottom, CategoryOuter, CategoryShoes, CategoryAcc}

func (c Category) Label() string {
	switch c {
	case CategoryTop:
		return "TOP"
	case CategoryBottom:
		return "BOTTOM"
	case CategoryOuter:
		return "OUTER"
	case CategoryShoes:
		return "SHOES"
	case CategoryAcc:
		return "ACCESSORY"
	default:
		return string(c)
	}
}

// Analysis is the classifier output. The three fields always travel together.
type Analysis struct {
	BMI            float64        `json:"bmi"`
	BodyType       BodyType       `json:"body_type"`
	HeightCategory HeightCategory `json:"height_category"`
}
