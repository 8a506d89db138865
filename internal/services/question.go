package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Juramirezlop/asamblea-voting-app/internal/models"

	"gorm.io/gorm"
)

const (
	minExtensionMinutes = 1
	maxExtensionMinutes = 120
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

type QuestionInput struct {
	Text             string   `json:"text"`
	Type             string   `json:"type"`
	Options          []string `json:"options"`
	AllowMultiple    bool     `json:"allow_multiple"`
	MaxSelections    int      `json:"max_selections"`
	TimeLimitMinutes *int     `json:"time_limit_minutes"`
}

// Create validates and stores a question with its options. Yes/no
// questions always get the two fixed options; multi-option questions
// need at least two supplied labels. Questions are created active.
func (s *QuestionService) Create(input QuestionInput) (*models.Question, error) {
	typ := strings.ToLower(input.Type)
	if typ != models.QuestionTypeYesNo && typ != models.QuestionTypeMultiple {
		return nil, fmt.Errorf("%w: question type must be yesno or multiple", ErrInvalid)
	}

	allowMultiple := input.AllowMultiple && typ == models.QuestionTypeMultiple
	maxSelections := 1
	if allowMultiple {
		maxSelections = input.MaxSelections
		if maxSelections < 1 {
			return nil, fmt.Errorf("%w: max_selections must be greater than 0", ErrInvalid)
		}
		if maxSelections > len(input.Options) {
			return nil, fmt.Errorf("%w: max_selections cannot exceed the number of options", ErrInvalid)
		}
	}

	optionLabels := input.Options
	if typ == models.QuestionTypeYesNo {
		optionLabels = []string{models.OptionLabelYes, models.OptionLabelNo}
	} else if len(optionLabels) < 2 {
		return nil, fmt.Errorf("%w: multiple questions require at least 2 options", ErrInvalid)
	}

	var expiresAt *time.Time
	if input.TimeLimitMinutes != nil {
		minutes := *input.TimeLimitMinutes
		if minutes < minExtensionMinutes || minutes > maxExtensionMinutes {
			return nil, fmt.Errorf("%w: time_limit_minutes must be between %d and %d",
				ErrInvalid, minExtensionMinutes, maxExtensionMinutes)
		}
		t := time.Now().Add(time.Duration(minutes) * time.Minute)
		expiresAt = &t
	}

	question := models.Question{
		Text:             input.Text,
		Type:             typ,
		Active:           true,
		Closed:           false,
		AllowMultiple:    allowMultiple,
		MaxSelections:    maxSelections,
		TimeLimitMinutes: input.TimeLimitMinutes,
		ExpiresAt:        expiresAt,
	}

	tx := s.db.Begin()
	if err := tx.Create(&question).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, label := range optionLabels {
		opt := models.Option{QuestionID: question.ID, Text: label}
		if err := tx.Create(&opt).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := s.db.Preload("Options").First(&question, question.ID).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// ActiveQuestion is a question as presented to connected clients,
// with the live countdown for timed questions.
type ActiveQuestion struct {
	ID               uint            `json:"id"`
	Text             string          `json:"text"`
	Type             string          `json:"type"`
	Closed           bool            `json:"closed"`
	AllowMultiple    bool            `json:"allow_multiple"`
	MaxSelections    int             `json:"max_selections"`
	Options          []models.Option `json:"options"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
	RemainingSeconds *int            `json:"remaining_seconds,omitempty"`
	IsExpired        bool            `json:"is_expired"`
}

// ActiveQuestions lists active questions with options and countdown.
// Questions past their expiry are flipped to closed here: the cutoff
// is lazy, observed on the next read rather than at the exact instant.
func (s *QuestionService) ActiveQuestions() ([]ActiveQuestion, error) {
	var questions []models.Question
	if err := s.db.Where("active = ?", true).
		Preload("Options").
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]ActiveQuestion, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		expired := q.IsExpired(now)
		if expired && !q.Closed {
			q.Closed = true
			if err := s.db.Model(q).Update("closed", true).Error; err != nil {
				log.Printf("failed to close expired question %d: %v", q.ID, err)
			}
		}

		aq := ActiveQuestion{
			ID:            q.ID,
			Text:          q.Text,
			Type:          q.Type,
			Closed:        q.Closed,
			AllowMultiple: q.AllowMultiple,
			MaxSelections: q.MaxSelections,
			Options:       q.Options,
			ExpiresAt:     q.ExpiresAt,
			IsExpired:     expired,
		}
		if q.ExpiresAt != nil && !expired {
			remaining := int(q.ExpiresAt.Sub(now).Seconds())
			aq.RemainingSeconds = &remaining
		}
		out = append(out, aq)
	}
	return out, nil
}

// Toggle flips the closed flag and returns the new state.
func (s *QuestionService) Toggle(questionID uint) (bool, error) {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		return false, fmt.Errorf("%w: question not found", ErrNotFound)
	}

	question.Closed = !question.Closed
	if err := s.db.Model(&question).Update("closed", question.Closed).Error; err != nil {
		return false, err
	}
	return question.Closed, nil
}

// ExtendTime pushes a question's expiry back by the given minutes.
// When the old expiry has already passed the new window starts from
// now, and a question auto-closed by that expiry is reopened.
func (s *QuestionService) ExtendTime(questionID uint, minutes int) (*models.Question, error) {
	if minutes < minExtensionMinutes || minutes > maxExtensionMinutes {
		return nil, fmt.Errorf("%w: minutes must be between %d and %d",
			ErrInvalid, minExtensionMinutes, maxExtensionMinutes)
	}

	var question models.Question
	if err := s.db.Preload("Options").First(&question, questionID).Error; err != nil {
		return nil, fmt.Errorf("%w: question not found", ErrNotFound)
	}

	now := time.Now()
	wasExpired := question.IsExpired(now)
	base := now
	if question.ExpiresAt != nil && question.ExpiresAt.After(now) {
		base = *question.ExpiresAt
	}
	newExpiry := base.Add(time.Duration(minutes) * time.Minute)

	updates := map[string]interface{}{"expires_at": newExpiry}
	if question.Closed && wasExpired {
		updates["closed"] = false
	}
	if err := s.db.Model(&question).Updates(updates).Error; err != nil {
		return nil, err
	}

	question.ExpiresAt = &newExpiry
	if question.Closed && wasExpired {
		question.Closed = false
	}
	return &question, nil
}

// Delete removes a question with its options, votes and selections.
func (s *QuestionService) Delete(questionID uint) error {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		return fmt.Errorf("%w: question not found", ErrNotFound)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vote_id IN (?)",
			tx.Model(&models.Vote{}).Select("id").Where("question_id = ?", questionID),
		).Delete(&models.VoteSelection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", questionID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", questionID).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		return tx.Delete(&question).Error
	})
}

// CloseExpired flips every active question whose expiry has passed and
// returns the ones it closed.
func (s *QuestionService) CloseExpired() ([]models.Question, error) {
	var expired []models.Question
	now := time.Now()
	if err := s.db.Where("active = ? AND closed = ? AND expires_at IS NOT NULL AND expires_at <= ?",
		true, false, now).Find(&expired).Error; err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(expired))
	for i, q := range expired {
		ids[i] = q.ID
	}
	if err := s.db.Model(&models.Question{}).Where("id IN ?", ids).
		Update("closed", true).Error; err != nil {
		return nil, err
	}
	return expired, nil
}

// RunExpirySweeper periodically closes expired questions until stop is
// closed, calling onClosed for each question it flips. This bounds the
// staleness window of the lazy per-read expiry check.
func (s *QuestionService) RunExpirySweeper(interval time.Duration, stop <-chan struct{}, onClosed func(models.Question)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			closed, err := s.CloseExpired()
			if err != nil {
				log.Printf("expiry sweep failed: %v", err)
				continue
			}
			for _, q := range closed {
				if onClosed != nil {
					onClosed(q)
				}
			}
		}
	}
}
