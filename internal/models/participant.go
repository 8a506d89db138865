package models

import "time"

// Participant is one unit on the roster (an apartment or lot), keyed
// by its code. Coefficient is the ownership share used to weight votes
// and quorum; the roster is expected to be normalized so coefficients
// sum to 100. IsPower distinguishes proxy representation and is only
// known once attendance is registered.
type Participant struct {
	Code        string     `gorm:"primaryKey;size:20" json:"code"`
	Name        string     `gorm:"not null" json:"name"`
	Coefficient float64    `gorm:"not null;default:1.0" json:"coefficient"`
	Present     bool       `gorm:"not null;default:false" json:"present"`
	IsPower     *bool      `json:"is_power"`
	HasVoted    bool       `gorm:"not null;default:false" json:"has_voted"`
	LoginTime   *time.Time `json:"login_time"`

	Votes []Vote `gorm:"foreignKey:ParticipantCode;references:Code;constraint:OnDelete:CASCADE" json:"-"`
}
