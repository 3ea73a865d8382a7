package models

import (
	"time"
)

// Session is the per-client wizard state. It is passed explicitly to every transition.
type Session struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	CurrentStep     Step            `gorm:"not null;default:1" json:"current_step"`
	PhotoUploaded   bool            `json:"photo_uploaded"`
	PhotoRef        string          `gorm:"type:text" json:"-"`
	Height          *float64        `json:"height"`
	Weight          *float64        `json:"weight"`
	StylePreference StylePreference `gorm:"size:16;not null;default:casual" json:"style_preference"`

	// set together by SetAnalysis, cleared together by ClearAnalysis
	BMI            *float64        `json:"bmi"`
	BodyType       *BodyType       `gorm:"size:16" json:"body_type"`
	HeightCategory *HeightCategory `gorm:"size:16" json:"height_category"`

	Loading         bool `json:"loading"`
	PremiumUnlocked bool `json:"premium_unlocked"`
	SkipOffered     bool `json:"skip_offered"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func NewSession(id string) *Session {
	return &Session{
		ID:              id,
		CurrentStep:     StepUpload,
		StylePreference: StyleCasual,
	}
}

func (s *Session) SetAnalysis(a Analysis) {
	bmi, bt, hc := a.BMI, a.BodyType, a.HeightCategory
	s.BMI = &bmi
	s.BodyType = &bt
	s.HeightCategory = &hc
}

func (s *Session) ClearAnalysis() {
	s.BMI = nil
	s.BodyType = nil
	s.HeightCategory = nil
}

// Analysis reports the stored classification, if any.
func (s *Session) Analysis() (Analysis, bool) {
	if s.BMI == nil || s.BodyType == nil || s.HeightCategory == nil {
		return Analysis{}, false
	}
	return Analysis{BMI: *s.BMI, BodyType: *s.BodyType, HeightCategory: *s.HeightCategory}, true
}

// Measurements returns the validated height and weight, if both are set.
func (s *Session) Measurements() (height, weight float64, ok bool) {
	if s.Height == nil || s.Weight == nil {
		return 0, 0, false
	}
	return *s.Height, *s.Weight, true
}
