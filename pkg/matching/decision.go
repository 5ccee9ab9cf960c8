package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/upms-lab/upms-backend/dao/model"
	"github.com/upms-lab/upms-backend/pkg/alert"
	"github.com/upms-lab/upms-backend/pkg/metrics"
)

// Actor is the acting principal, resolved once per request from the JWT.
// Privilege travels as a plain value; the state machine never inspects
// the transport layer.
type Actor struct {
	ChallengerID uint
	Admin        bool
}

// DecisionService owns application submission and the manual decision
// state machine.
type DecisionService struct {
	db     *gorm.DB
	mailer alert.Mailer
	now    func() time.Time
}

func NewDecisionService(db *gorm.DB, mailer alert.Mailer) *DecisionService {
	return &DecisionService{db: db, mailer: mailer, now: time.Now}
}

// Submit creates a PENDING application for the challenger in the round.
// A challenger may apply once per round, regardless of project.
func (s *DecisionService) Submit(
	ctx context.Context, formID, challengerID, roundID uint) (*model.Application, error) {
	db := s.db.WithContext(ctx)

	var form model.ApplicationForm
	if err := db.First(&form, formID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	var challenger model.Challenger
	if err := db.First(&challenger, challengerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengerNotFound
		}
		return nil, err
	}
	var round model.MatchingRound
	if err := db.First(&round, roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}

	var count int64
	if err := db.Model(&model.Application{}).
		Where("challenger_id = ? AND round_id = ?", challengerID, roundID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyApplied
	}

	app := &model.Application{
		FormID:       form.ID,
		ProjectID:    form.ProjectID,
		Part:         challenger.Part,
		RoundID:      round.ID,
		ChallengerID: challenger.ID,
		Status:       model.ApplicationPending,
	}
	if err := db.Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyApplied
		}
		return nil, err
	}
	klog.Infof("application %d submitted: challenger %d, project %d, part %s, round %d",
		app.ID, challenger.ID, form.ProjectID, challenger.Part, round.ID)
	return app, nil
}

// MinSelectionInfo exposes the fairness floor for UI display before a
// decision-maker commits to rejecting. Only the project's product owner
// and administrators are decision-makers; everyone else is turned away.
func (s *DecisionService) MinSelectionInfo(
	ctx context.Context, projectID uint, part model.Part, roundID uint, actor Actor) (MinSelection, error) {
	var project model.Project
	if err := s.db.WithContext(ctx).First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MinSelection{}, ErrProjectNotFound
		}
		return MinSelection{}, err
	}
	if !actor.Admin && project.ProductOwnerID != actor.ChallengerID {
		return MinSelection{}, ErrNotPermitted
	}
	var round model.MatchingRound
	if err := s.db.WithContext(ctx).First(&round, roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MinSelection{}, ErrRoundNotFound
		}
		return MinSelection{}, err
	}
	stats, err := loadPartStats(ctx, s.db, projectID, part, roundID)
	if err != nil {
		return MinSelection{}, err
	}
	sel := EvaluateMinSelection(stats)
	if sel.QuotaAnomaly {
		klog.Errorf("data anomaly: prior confirmations (%d) exceed quota (%d) for project %d part %s",
			stats.PriorConfirmed, stats.MaxQuota, projectID, part)
	}
	return sel, nil
}

// Decide runs the application state machine for a manual transition.
func (s *DecisionService) Decide(
	ctx context.Context, applicationID uint, newStatus model.ApplicationStatus, actor Actor,
) (*model.Application, error) {
	switch newStatus {
	case model.ApplicationPending, model.ApplicationConfirmed, model.ApplicationRejected:
	default:
		return nil, fmt.Errorf("unknown application status %q", newStatus)
	}

	db := s.db.WithContext(ctx)
	var app model.Application
	if err := db.First(&app, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if app.Status == newStatus {
		return nil, ErrSameStatus
	}

	var round model.MatchingRound
	if err := db.First(&round, app.RoundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}

	// Decisions are only open between the round's end and its decision
	// deadline. Administrators bypass both bounds.
	now := s.now()
	if now.Before(round.EndAt) {
		if !actor.Admin {
			return nil, ErrRoundNotEnded
		}
		klog.Infof("audit: admin %d decides application %d before round %d ended",
			actor.ChallengerID, app.ID, round.ID)
	} else if now.After(round.DecisionDeadlineAt) {
		if !actor.Admin {
			return nil, ErrDeadlinePassed
		}
		klog.Infof("audit: admin %d decides application %d after round %d deadline",
			actor.ChallengerID, app.ID, round.ID)
	}

	// Fairness gate: a non-admin may not reject while confirmations are
	// still owed in the same (project, part, round) group.
	if newStatus == model.ApplicationRejected {
		if actor.Admin {
			klog.Infof("audit: admin %d rejects application %d without fairness gate",
				actor.ChallengerID, app.ID)
		} else {
			stats, err := loadPartStats(ctx, s.db, app.ProjectID, app.Part, app.RoundID)
			if err != nil {
				return nil, err
			}
			sel := EvaluateMinSelection(stats)
			if sel.QuotaAnomaly {
				klog.Errorf("data anomaly: prior confirmations (%d) exceed quota (%d) for project %d part %s",
					stats.PriorConfirmed, stats.MaxQuota, app.ProjectID, app.Part)
			}
			if sel.ToConfirm > 0 {
				return nil, &MinSelectionError{Need: sel.ToConfirm, Reason: sel.Reason}
			}
		}
	}

	wasConfirmed := app.Status == model.ApplicationConfirmed
	if app.Status != model.ApplicationPending {
		// Already decided; only an administrator may change it.
		if !actor.Admin {
			klog.Warningf("challenger %d tried to change decided application %d",
				actor.ChallengerID, app.ID)
			return nil, ErrNotPermitted
		}
	} else {
		var project model.Project
		if err := db.First(&project, app.ProjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, err
		}
		if !actor.Admin && project.ProductOwnerID != actor.ChallengerID {
			return nil, ErrNotPermitted
		}
	}

	if newStatus == model.ApplicationConfirmed {
		quota, err := loadQuota(ctx, s.db, app.ProjectID, app.Part)
		if err != nil {
			return nil, err
		}
		if err := confirmApplication(ctx, s.db, &app, quota.Headcount, false); err != nil {
			return nil, err
		}
	} else {
		// Rejection or admin revert: status change, plus membership
		// removal when leaving CONFIRMED.
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if wasConfirmed {
				// Hard delete: the unique (project, challenger) index has no
				// deleted_at column, so a soft-deleted row would block any
				// later re-confirmation.
				res := tx.Unscoped().
					Where("project_id = ? AND challenger_id = ?", app.ProjectID, app.ChallengerID).
					Delete(&model.ProjectMember{})
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					klog.Errorf("inconsistency: application %d is confirmed but project %d has no membership for challenger %d",
						app.ID, app.ProjectID, app.ChallengerID)
					return ErrMembershipMissing
				}
			}
			return tx.Model(&model.Application{}).
				Where("id = ?", app.ID).
				Update("status", newStatus).Error
		})
		if err != nil {
			return nil, err
		}
		app.Status = newStatus
	}

	metrics.ManualDecisions.WithLabelValues(newStatus.String()).Inc()
	klog.Infof("application %d decided: %s (actor %d, admin %t)",
		app.ID, app.Status, actor.ChallengerID, actor.Admin)
	s.notify(ctx, &app)
	return &app, nil
}

// confirmApplication inserts the membership and flips the status in one
// transaction, serialized per (project, part) so concurrent confirmations
// cannot overcommit the quota. allowExistingMember tolerates a membership
// left by an earlier round, as the auto-decision job does; manual
// confirmation treats it as an error.
func confirmApplication(
	ctx context.Context, db *gorm.DB, app *model.Application, maxQuota int, allowExistingMember bool,
) error {
	unlock := partMu.lock(app.ProjectID, app.Part)
	defer unlock()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Quota gate comes first; a full part blocks confirmation even
		// for an applicant who already holds a membership row.
		var used int64
		if err := tx.Model(&model.ProjectMember{}).
			Where("project_id = ? AND part = ?", app.ProjectID, app.Part).
			Count(&used).Error; err != nil {
			return err
		}
		if used >= int64(maxQuota) {
			return ErrQuotaExceeded
		}
		var members int64
		if err := tx.Model(&model.ProjectMember{}).
			Where("project_id = ? AND challenger_id = ?", app.ProjectID, app.ChallengerID).
			Count(&members).Error; err != nil {
			return err
		}
		hasMember := members > 0
		if hasMember && !allowExistingMember {
			return ErrAlreadyMember
		}
		if !hasMember {
			member := &model.ProjectMember{
				ProjectID:    app.ProjectID,
				ChallengerID: app.ChallengerID,
				Part:         app.Part,
			}
			if err := tx.Create(member).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Application{}).
			Where("id = ?", app.ID).
			Update("status", model.ApplicationConfirmed).Error
	})
	if err != nil {
		return err
	}
	app.Status = model.ApplicationConfirmed
	return nil
}

func (s *DecisionService) notify(ctx context.Context, app *model.Application) {
	if s.mailer == nil {
		return
	}
	var challenger model.Challenger
	if err := s.db.WithContext(ctx).First(&challenger, app.ChallengerID).Error; err != nil {
		return
	}
	if challenger.Email == "" {
		return
	}
	var project model.Project
	if err := s.db.WithContext(ctx).First(&project, app.ProjectID).Error; err != nil {
		return
	}
	if err := s.mailer.SendDecisionNotice(ctx, challenger.Email, project.Name, app.Status); err != nil {
		klog.Errorf("decision notice for application %d failed: %v", app.ID, err)
	}
}
