package matching

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/upms-lab/upms-backend/dao/model"
)

// RoundService manages the matching round calendar. Every mutation
// revalidates the whole schedule invariant, not just the changed row.
type RoundService struct {
	db *gorm.DB
}

func NewRoundService(db *gorm.DB) *RoundService {
	return &RoundService{db: db}
}

// RoundSchedule is the caller-supplied shape of a round.
type RoundSchedule struct {
	Name               string
	Description        *string
	ChapterID          uint
	StartAt            time.Time
	EndAt              time.Time
	DecisionDeadlineAt time.Time
}

func (sch RoundSchedule) validate() error {
	if !sch.StartAt.Before(sch.EndAt) {
		return ErrInvalidSchedule
	}
	if !sch.EndAt.Before(sch.DecisionDeadlineAt) {
		return ErrInvalidSchedule
	}
	return nil
}

// Create inserts a round after checking ordering and overlap against
// every existing round.
func (s *RoundService) Create(ctx context.Context, sch RoundSchedule) (*model.MatchingRound, error) {
	if err := sch.validate(); err != nil {
		return nil, err
	}
	if err := s.checkOverlap(ctx, sch, 0); err != nil {
		return nil, err
	}
	round := &model.MatchingRound{
		Name:               sch.Name,
		Description:        sch.Description,
		ChapterID:          sch.ChapterID,
		StartAt:            sch.StartAt,
		EndAt:              sch.EndAt,
		DecisionDeadlineAt: sch.DecisionDeadlineAt,
	}
	if err := s.db.WithContext(ctx).Create(round).Error; err != nil {
		return nil, err
	}
	klog.Infof("matching round %d created: %s [%s, %s), deadline %s",
		round.ID, round.Name, round.StartAt, round.EndAt, round.DecisionDeadlineAt)
	return round, nil
}

// Update rewrites a round's schedule; the round itself is excluded from
// the overlap scan.
func (s *RoundService) Update(ctx context.Context, id uint, sch RoundSchedule) (*model.MatchingRound, error) {
	if err := sch.validate(); err != nil {
		return nil, err
	}
	var round model.MatchingRound
	if err := s.db.WithContext(ctx).First(&round, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if err := s.checkOverlap(ctx, sch, id); err != nil {
		return nil, err
	}
	round.Name = sch.Name
	round.Description = sch.Description
	round.ChapterID = sch.ChapterID
	round.StartAt = sch.StartAt
	round.EndAt = sch.EndAt
	round.DecisionDeadlineAt = sch.DecisionDeadlineAt
	if err := s.db.WithContext(ctx).Save(&round).Error; err != nil {
		return nil, err
	}
	klog.Infof("matching round %d updated: %s [%s, %s), deadline %s",
		round.ID, round.Name, round.StartAt, round.EndAt, round.DecisionDeadlineAt)
	return &round, nil
}

// checkOverlap rejects any application period in the same chapter
// intersecting [StartAt, EndAt). The decision window past EndAt may
// overlap the next round's application period; only application periods
// are exclusive.
func (s *RoundService) checkOverlap(ctx context.Context, sch RoundSchedule, excludeID uint) error {
	query := s.db.WithContext(ctx).Model(&model.MatchingRound{}).
		Where("chapter_id = ? AND start_at < ? AND end_at > ?", sch.ChapterID, sch.EndAt, sch.StartAt)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrPeriodOverlap
	}
	return nil
}

func (s *RoundService) Get(ctx context.Context, id uint) (*model.MatchingRound, error) {
	var round model.MatchingRound
	if err := s.db.WithContext(ctx).First(&round, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return &round, nil
}

func (s *RoundService) List(ctx context.Context) ([]model.MatchingRound, error) {
	var rounds []model.MatchingRound
	if err := s.db.WithContext(ctx).Order("start_at").Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

// Current returns the chapter's round whose application period contains now.
func (s *RoundService) Current(ctx context.Context, chapterID uint, now time.Time) (*model.MatchingRound, error) {
	var round model.MatchingRound
	err := s.db.WithContext(ctx).
		Where("chapter_id = ? AND start_at <= ? AND end_at > ?", chapterID, now, now).
		First(&round).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return &round, nil
}

// CurrentOrUpcoming prefers the active round, falling back to the next
// one to start. Used by the application page header.
func (s *RoundService) CurrentOrUpcoming(ctx context.Context, chapterID uint, now time.Time) (*model.MatchingRound, error) {
	round, err := s.Current(ctx, chapterID, now)
	if err == nil {
		return round, nil
	}
	if !errors.Is(err, ErrRoundNotFound) {
		return nil, err
	}
	var next model.MatchingRound
	err = s.db.WithContext(ctx).
		Where("chapter_id = ? AND start_at > ?", chapterID, now).
		Order("start_at").
		First(&next).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return &next, nil
}

// Delete removes a round and its applications.
func (s *RoundService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.MatchingRound{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRoundNotFound
		}
		return tx.Where("round_id = ?", id).Delete(&model.Application{}).Error
	})
}
