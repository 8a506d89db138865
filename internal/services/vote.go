package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Juramirezlop/asamblea-voting-app/internal/models"

	"github.com/google/logger"
	"gorm.io/gorm"
)

type VoteService struct {
	db *gorm.DB
}

func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{db: db}
}

// Submit casts one ballot for the participant on the question.
// Preconditions are checked in order, each with its own failure mode:
// question exists and is active, question not closed or expired, no
// prior ballot, selection count within bounds, every label matches an
// option. The unique vote index remains the source of truth: if a
// concurrent submission slips past the existence check, the insert
// fails and is surfaced as the same "already voted" conflict.
func (s *VoteService) Submit(participantCode string, questionID uint, answers []string) (*models.Vote, error) {
	var question models.Question
	if err := s.db.Preload("Options").First(&question, questionID).Error; err != nil {
		return nil, fmt.Errorf("%w: question not found", ErrNotFound)
	}
	if !question.Active {
		return nil, fmt.Errorf("%w: question is not active", ErrNotFound)
	}

	now := time.Now()
	if question.IsExpired(now) && !question.Closed {
		if err := s.db.Model(&question).Update("closed", true).Error; err != nil {
			log.Printf("failed to close expired question %d: %v", question.ID, err)
		}
		question.Closed = true
	}
	if question.Closed {
		return nil, fmt.Errorf("%w: question is closed", ErrConflict)
	}

	var existing models.Vote
	if err := s.db.Where("participant_code = ? AND question_id = ?", participantCode, questionID).
		First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: already voted on this question", ErrConflict)
	}

	selections, err := matchSelections(&question, answers)
	if err != nil {
		return nil, err
	}

	vote := models.Vote{
		ParticipantCode: participantCode,
		QuestionID:      questionID,
		Answer:          strings.Join(answers, models.AnswerSeparator),
		CastAt:          now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}
		for _, opt := range selections {
			sel := models.VoteSelection{VoteID: vote.ID, OptionID: opt.ID}
			if err := tx.Create(&sel).Error; err != nil {
				return err
			}
		}
		return s.refreshHasVoted(tx, participantCode)
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: already voted on this question", ErrConflict)
		}
		return nil, err
	}

	return &vote, nil
}

func (s *VoteService) MyVotes(participantCode string) ([]models.Vote, error) {
	var votes []models.Vote
	if err := s.db.Where("participant_code = ?", participantCode).
		Order("question_id ASC").
		Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

// EditVote is the audited admin escape hatch for operator error
// correction. The same selection validations as Submit apply, but the
// question's closed state does not block the edit.
func (s *VoteService) EditVote(questionID uint, participantCode string, answers []string) (*models.Vote, error) {
	var question models.Question
	if err := s.db.Preload("Options").First(&question, questionID).Error; err != nil {
		return nil, fmt.Errorf("%w: question not found", ErrNotFound)
	}

	var vote models.Vote
	if err := s.db.Where("participant_code = ? AND question_id = ?", participantCode, questionID).
		First(&vote).Error; err != nil {
		return nil, fmt.Errorf("%w: no vote recorded for this participant and question", ErrNotFound)
	}

	selections, err := matchSelections(&question, answers)
	if err != nil {
		return nil, err
	}

	previous := vote.Answer
	vote.Answer = strings.Join(answers, models.AnswerSeparator)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vote_id = ?", vote.ID).Delete(&models.VoteSelection{}).Error; err != nil {
			return err
		}
		for _, opt := range selections {
			sel := models.VoteSelection{VoteID: vote.ID, OptionID: opt.ID}
			if err := tx.Create(&sel).Error; err != nil {
				return err
			}
		}
		return tx.Model(&vote).Update("answer", vote.Answer).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("audit: vote edited for %s on question %d: %q -> %q",
		participantCode, questionID, previous, vote.Answer)
	return &vote, nil
}

// ClearVote deletes one participant's ballot on a question and
// recomputes their has_voted flag.
func (s *VoteService) ClearVote(questionID uint, participantCode string) error {
	var vote models.Vote
	if err := s.db.Where("participant_code = ? AND question_id = ?", participantCode, questionID).
		First(&vote).Error; err != nil {
		return fmt.Errorf("%w: no vote recorded for this participant and question", ErrNotFound)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vote_id = ?", vote.ID).Delete(&models.VoteSelection{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&vote).Error; err != nil {
			return err
		}
		// Clearing may leave the participant short of a complete set of
		// ballots, so has_voted can go back down here, unlike Submit.
		return s.recomputeHasVoted(tx, participantCode)
	})
	if err != nil {
		return err
	}

	logger.Infof("audit: vote cleared for %s on question %d (was %q)",
		participantCode, questionID, vote.Answer)
	return nil
}

// matchSelections validates the selection count against the question's
// bounds and resolves every label to one of its options.
func matchSelections(question *models.Question, answers []string) ([]models.Option, error) {
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: at least one option must be selected", ErrInvalid)
	}
	if question.AllowMultiple {
		if len(answers) > question.MaxSelections {
			return nil, fmt.Errorf("%w: cannot select more than %d options", ErrInvalid, question.MaxSelections)
		}
	} else if len(answers) > 1 {
		return nil, fmt.Errorf("%w: this question only allows one selection", ErrInvalid)
	}

	byLabel := make(map[string]models.Option, len(question.Options))
	for _, opt := range question.Options {
		byLabel[opt.Text] = opt
	}

	selections := make([]models.Option, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	for _, answer := range answers {
		opt, ok := byLabel[answer]
		if !ok {
			return nil, fmt.Errorf("%w: unknown option: %s", ErrInvalid, answer)
		}
		if seen[answer] {
			return nil, fmt.Errorf("%w: duplicate option: %s", ErrInvalid, answer)
		}
		seen[answer] = true
		selections = append(selections, opt)
	}
	return selections, nil
}

// refreshHasVoted sets has_voted once the participant holds a ballot
// on every currently active question. It only moves the flag up:
// closing or deactivating questions later never flips it back.
func (s *VoteService) refreshHasVoted(tx *gorm.DB, participantCode string) error {
	complete, err := hasVotedAllActive(tx, participantCode)
	if err != nil {
		return err
	}
	if !complete {
		return nil
	}
	return tx.Model(&models.Participant{}).Where("code = ?", participantCode).
		Update("has_voted", true).Error
}

// recomputeHasVoted sets the flag in both directions; used by admin
// corrections where a ballot was removed.
func (s *VoteService) recomputeHasVoted(tx *gorm.DB, participantCode string) error {
	complete, err := hasVotedAllActive(tx, participantCode)
	if err != nil {
		return err
	}
	return tx.Model(&models.Participant{}).Where("code = ?", participantCode).
		Update("has_voted", complete).Error
}

func hasVotedAllActive(tx *gorm.DB, participantCode string) (bool, error) {
	var activeIDs []uint
	if err := tx.Model(&models.Question{}).Where("active = ?", true).
		Pluck("id", &activeIDs).Error; err != nil {
		return false, err
	}
	if len(activeIDs) == 0 {
		return false, nil
	}

	var voted int64
	if err := tx.Model(&models.Vote{}).
		Where("participant_code = ? AND question_id IN ?", participantCode, activeIDs).
		Distinct("question_id").
		Count(&voted).Error; err != nil {
		return false, err
	}
	return voted == int64(len(activeIDs)), nil
}
