package models

import "time"

const (
	QuestionTypeYesNo    = "yesno"
	QuestionTypeMultiple = "multiple"

	OptionLabelYes = "Sí"
	OptionLabelNo  = "No"
)

// Question is one matter put to a vote. Active controls visibility to
// voters, Closed controls whether ballots are accepted. A timed
// question carries ExpiresAt and auto-closes once it passes.
type Question struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Text             string     `gorm:"not null" json:"text"`
	Type             string     `gorm:"not null;size:20" json:"type"`
	Active           bool       `gorm:"not null;default:true" json:"active"`
	Closed           bool       `gorm:"not null;default:false" json:"closed"`
	AllowMultiple    bool       `gorm:"not null;default:false" json:"allow_multiple"`
	MaxSelections    int        `gorm:"not null;default:1" json:"max_selections"`
	TimeLimitMinutes *int       `json:"time_limit_minutes"`
	ExpiresAt        *time.Time `json:"expires_at"`
	CreatedAt        time.Time  `json:"created_at"`

	Options []Option `gorm:"constraint:OnDelete:CASCADE" json:"options"`
}

func (q *Question) IsExpired(now time.Time) bool {
	return q.ExpiresAt != nil && !now.Before(*q.ExpiresAt)
}
