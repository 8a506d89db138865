package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Juramirezlop/asamblea-voting-app/internal/models"

	"gorm.io/gorm"
)

// Quorum threshold as a percentage of the total coefficient.
const quorumThresholdPercent = 51.0

type TallyService struct {
	db *gorm.DB
}

func NewTallyService(db *gorm.DB) *TallyService {
	return &TallyService{db: db}
}

// OptionResult is one option's tally: how many participants picked it
// and the sum of their ownership coefficients. Coefficients are
// expected to be normalized so the roster sums to 100, which makes the
// coefficient sum directly readable as a percentage.
type OptionResult struct {
	Answer     string  `json:"answer"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

type QuestionResults struct {
	QuestionID                  uint           `json:"question_id"`
	QuestionText                string         `json:"question_text"`
	Type                        string         `json:"type"`
	TotalParticipants           int64          `json:"total_participants"`
	TotalVotes                  int64          `json:"total_votes"`
	TotalParticipantCoefficient float64        `json:"total_participant_coefficient"`
	Results                     []OptionResult `json:"results"`
}

// Results tallies one question. Each option counts distinct voters and
// sums their coefficients through the selection table, so a ballot
// picking several options contributes its full weight to each one.
func (s *TallyService) Results(questionID uint) (*QuestionResults, error) {
	var question models.Question
	if err := s.db.First(&question, questionID).Error; err != nil {
		return nil, fmt.Errorf("%w: question not found", ErrNotFound)
	}

	var options []models.Option
	if err := s.db.Where("question_id = ?", questionID).
		Order("text ASC").
		Find(&options).Error; err != nil {
		return nil, err
	}

	out := &QuestionResults{
		QuestionID:   question.ID,
		QuestionText: question.Text,
		Type:         question.Type,
		Results:      make([]OptionResult, 0, len(options)),
	}

	for _, opt := range options {
		var row struct {
			Votes       int64
			Coefficient float64
		}
		err := s.db.Model(&models.VoteSelection{}).
			Select("COUNT(DISTINCT votes.participant_code) AS votes, COALESCE(SUM(participants.coefficient), 0) AS coefficient").
			Joins("JOIN votes ON votes.id = vote_selections.vote_id").
			Joins("JOIN participants ON participants.code = votes.participant_code").
			Where("vote_selections.option_id = ?", opt.ID).
			Scan(&row).Error
		if err != nil {
			return nil, err
		}
		out.TotalVotes += row.Votes
		out.Results = append(out.Results, OptionResult{
			Answer:     opt.Text,
			Votes:      row.Votes,
			Percentage: round2(row.Coefficient),
		})
	}

	if err := s.db.Model(&models.Vote{}).
		Where("question_id = ?", questionID).
		Distinct("participant_code").
		Count(&out.TotalParticipants).Error; err != nil {
		return nil, err
	}

	voters := s.db.Model(&models.Vote{}).
		Select("DISTINCT votes.participant_code, participants.coefficient").
		Joins("JOIN participants ON participants.code = votes.participant_code").
		Where("votes.question_id = ?", questionID)

	var totalCoefficient float64
	if err := s.db.Table("(?) AS voters", voters).
		Select("COALESCE(SUM(coefficient), 0)").
		Scan(&totalCoefficient).Error; err != nil {
		return nil, err
	}
	out.TotalParticipantCoefficient = round2(totalCoefficient)

	sort.SliceStable(out.Results, func(i, j int) bool {
		return out.Results[i].Percentage > out.Results[j].Percentage
	})
	return out, nil
}

// Aforo is the attendance and quorum snapshot shown on the admin
// dashboard.
type Aforo struct {
	TotalParticipants        int64   `json:"total_participants"`
	TotalCoefficient         float64 `json:"total_coefficient"`
	PresentCount             int64   `json:"present_count"`
	PresentCoefficient       float64 `json:"present_coefficient"`
	OwnVotes                 int64   `json:"own_votes"`
	PowerVotes               int64   `json:"power_votes"`
	VotedCount               int64   `json:"voted_count"`
	ParticipationRatePercent float64 `json:"participation_rate_percent"`
	CoefficientRatePercent   float64 `json:"coefficient_rate_percent"`
	QuorumMet                bool    `json:"quorum_met"`
}

// Aforo computes the live attendance snapshot. The coefficient rate
// relies on the roster being normalized to a total of 100, so the sum
// of present coefficients is itself the percentage.
func (s *TallyService) Aforo() (*Aforo, error) {
	out := &Aforo{}

	if err := s.db.Model(&models.Participant{}).Count(&out.TotalParticipants).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Participant{}).
		Select("COALESCE(SUM(coefficient), 0)").
		Scan(&out.TotalCoefficient).Error; err != nil {
		return nil, err
	}

	present := s.db.Model(&models.Participant{}).Where("present = ?", true)
	if err := present.Count(&out.PresentCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Participant{}).
		Where("present = ?", true).
		Select("COALESCE(SUM(coefficient), 0)").
		Scan(&out.PresentCoefficient).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Participant{}).
		Where("present = ? AND (is_power IS NULL OR is_power = ?)", true, false).
		Count(&out.OwnVotes).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Participant{}).
		Where("present = ? AND is_power = ?", true, true).
		Count(&out.PowerVotes).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Participant{}).
		Where("present = ? AND has_voted = ?", true, true).
		Count(&out.VotedCount).Error; err != nil {
		return nil, err
	}

	if out.TotalParticipants > 0 {
		rate := float64(out.PresentCount) / float64(out.TotalParticipants) * 100
		out.ParticipationRatePercent = round2(rate)
	}
	out.TotalCoefficient = round2(out.TotalCoefficient)
	out.PresentCoefficient = round2(out.PresentCoefficient)
	out.CoefficientRatePercent = out.PresentCoefficient
	out.QuorumMet = out.CoefficientRatePercent >= quorumThresholdPercent
	return out, nil
}

// AttendanceReport is the full assembly snapshot returned as JSON for
// client-side rendering or export.
type AttendanceReport struct {
	AssemblyName string               `json:"assembly_name"`
	GeneratedAt  time.Time            `json:"generated_at"`
	Aforo        *Aforo               `json:"aforo"`
	Participants []models.Participant `json:"participants"`
	Questions    []QuestionResults    `json:"questions"`
}

func (s *TallyService) AttendanceReport() (*AttendanceReport, error) {
	report := &AttendanceReport{
		AssemblyName: "Asamblea",
		GeneratedAt:  time.Now(),
	}

	var entry models.ConfigEntry
	if err := s.db.First(&entry, "key = ?", models.ConfigKeyAssemblyName).Error; err == nil && entry.Value != "" {
		report.AssemblyName = entry.Value
	}

	aforo, err := s.Aforo()
	if err != nil {
		return nil, err
	}
	report.Aforo = aforo

	if err := s.db.Order("code ASC").Find(&report.Participants).Error; err != nil {
		return nil, err
	}

	var questions []models.Question
	if err := s.db.Order("id ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	report.Questions = make([]QuestionResults, 0, len(questions))
	for _, q := range questions {
		results, err := s.Results(q.ID)
		if err != nil {
			return nil, err
		}
		report.Questions = append(report.Questions, *results)
	}
	return report, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
