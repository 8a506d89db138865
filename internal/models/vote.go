package models

import "time"

// AnswerSeparator joins multi-select answers into the human-readable
// Answer string, e.g. "Ana, Marta".
const AnswerSeparator = ", "

// Vote is one ballot. The unique index on (participant_code,
// question_id) enforces one ballot per participant per question at the
// storage level. Answer keeps the joined labels for display; the
// Selections rows are what tallying joins against.
type Vote struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ParticipantCode string    `gorm:"not null;size:20;uniqueIndex:idx_vote_participant_question" json:"participant_code"`
	QuestionID      uint      `gorm:"not null;uniqueIndex:idx_vote_participant_question;index" json:"question_id"`
	Answer          string    `gorm:"not null;type:text" json:"answer"`
	CastAt          time.Time `json:"cast_at"`

	Selections []VoteSelection `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// VoteSelection links a ballot to one chosen option.
type VoteSelection struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	VoteID   uint `gorm:"not null;index" json:"vote_id"`
	OptionID uint `gorm:"not null;index" json:"option_id"`
}
