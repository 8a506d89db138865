package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/Juramirezlop/asamblea-voting-app/internal/models"

	"github.com/google/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ParticipantService struct {
	db *gorm.DB
}

func NewParticipantService(db *gorm.DB) *ParticipantService {
	return &ParticipantService{db: db}
}

func (s *ParticipantService) List() ([]models.Participant, error) {
	var participants []models.Participant
	if err := s.db.Order("code ASC").Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

// BulkEntry is one roster record in a bulk import payload, keyed by
// participant code in the request body.
type BulkEntry struct {
	Name        string   `json:"name"`
	Coefficient *float64 `json:"coefficient"`
	HasVoted    bool     `json:"has_voted"`
}

// BulkImport upserts roster entries. Codes are uppercased; entries
// missing a code or name are skipped. Imported participants always
// start not present: attendance is only ever set at registration.
func (s *ParticipantService) BulkImport(entries map[string]BulkEntry) (int, error) {
	count := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for code, entry := range entries {
			code = strings.ToUpper(strings.TrimSpace(code))
			if code == "" || entry.Name == "" {
				continue
			}
			coefficient := 1.0
			if entry.Coefficient != nil {
				coefficient = *entry.Coefficient
			}
			participant := models.Participant{
				Code:        code,
				Name:        entry.Name,
				Coefficient: coefficient,
				HasVoted:    entry.HasVoted,
				Present:     false,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				UpdateAll: true,
			}).Create(&participant).Error; err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RegisterAttendance marks a participant present for the assembly.
// First-time only: is_power and the login timestamp are fixed here and
// a second registration is rejected. Only an admin can undo it.
func (s *ParticipantService) RegisterAttendance(code string, isPower bool) (*models.Participant, error) {
	var participant models.Participant
	if err := s.db.First(&participant, "code = ?", code).Error; err != nil {
		return nil, fmt.Errorf("%w: participant code not found", ErrNotFound)
	}

	if participant.Present {
		return nil, fmt.Errorf("%w: attendance already registered for this code", ErrConflict)
	}

	now := time.Now()
	participant.Present = true
	participant.IsPower = &isPower
	participant.LoginTime = &now
	if err := s.db.Save(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

// RemoveAttendance is the admin escape hatch that clears a
// participant's presence record, deleting their votes and resetting
// has_voted so they can register again.
func (s *ParticipantService) RemoveAttendance(code string) (*models.Participant, error) {
	var participant models.Participant
	if err := s.db.First(&participant, "code = ?", code).Error; err != nil {
		return nil, fmt.Errorf("%w: participant code not found", ErrNotFound)
	}

	if !participant.Present {
		return nil, fmt.Errorf("%w: this code has no attendance record", ErrInvalid)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vote_id IN (?)",
			tx.Model(&models.Vote{}).Select("id").Where("participant_code = ?", code),
		).Delete(&models.VoteSelection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("participant_code = ?", code).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Participant{}).Where("code = ?", code).
			Updates(map[string]interface{}{
				"present":    false,
				"has_voted":  false,
				"is_power":   nil,
				"login_time": nil,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("audit: attendance removed for %s (%s), votes deleted", participant.Code, participant.Name)
	return &participant, nil
}

// Reset wipes the whole assembly: votes, questions, roster and config.
func (s *ParticipantService) Reset() error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.VoteSelection{},
			&models.Vote{},
			&models.Option{},
			&models.Question{},
			&models.Participant{},
			&models.ConfigEntry{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("audit: assembly data reset")
	return nil
}
