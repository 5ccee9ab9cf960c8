package matching

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/upms-lab/upms-backend/dao/model"
	"github.com/upms-lab/upms-backend/pkg/metrics"
)

// AutoDecider force-resolves every application still pending once a
// round's decision deadline has passed. It is invoked by the scheduler
// only; there is no request-facing surface.
type AutoDecider struct {
	db *gorm.DB
}

func NewAutoDecider(db *gorm.DB) *AutoDecider {
	return &AutoDecider{db: db}
}

// ProcessExpiredRounds finalizes all rounds whose decision deadline has
// passed and whose auto-decision flag is still unset. Rounds fail
// independently; one broken round never blocks the others.
func (d *AutoDecider) ProcessExpiredRounds(ctx context.Context, now time.Time) error {
	var rounds []model.MatchingRound
	err := d.db.WithContext(ctx).
		Where("decision_deadline_at <= ? AND auto_decision_executed = ?", now, false).
		Find(&rounds).Error
	if err != nil {
		return fmt.Errorf("auto-decision: listing expired rounds: %w", err)
	}
	if len(rounds) == 0 {
		return nil
	}

	klog.Infof("auto-decision: %d round(s) past their decision deadline", len(rounds))
	var errs []error
	for i := range rounds {
		if err := d.processRound(ctx, rounds[i].ID); err != nil {
			klog.Errorf("auto-decision: round %d failed: %v", rounds[i].ID, err)
			errs = append(errs, fmt.Errorf("round %d: %w", rounds[i].ID, err))
		}
	}
	return errors.Join(errs...)
}

func (d *AutoDecider) processRound(ctx context.Context, roundID uint) error {
	db := d.db.WithContext(ctx)

	// Reload under the idempotency fence: another tick may have finished
	// the round between listing and processing.
	var round model.MatchingRound
	if err := db.First(&round, roundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if round.AutoDecisionExecuted {
		return nil
	}

	var pending []model.Application
	if err := db.
		Where("round_id = ? AND status = ?", round.ID, model.ApplicationPending).
		Find(&pending).Error; err != nil {
		return err
	}
	if len(pending) == 0 {
		// Confirmed empty state; safe to fence off the round.
		return d.markExecuted(ctx, &round)
	}

	byProject := lo.GroupBy(pending, func(app model.Application) uint {
		return app.ProjectID
	})

	var errs []error
	for projectID, apps := range byProject {
		quotas, err := d.projectQuotas(ctx, projectID)
		if err != nil {
			errs = append(errs, fmt.Errorf("project %d: %w", projectID, err))
			continue
		}
		byPart := lo.GroupBy(apps, func(app model.Application) model.Part {
			return app.Part
		})
		for part, group := range byPart {
			maxQuota, ok := quotas[part]
			if !ok {
				// Applications exist for a part the project never opened.
				// Misconfiguration: reject the group so the round can
				// still close, and leave a loud trail.
				klog.Errorf("auto-decision: no quota entry for project %d part %s (round %d), rejecting %d application(s)",
					projectID, part, round.ID, len(group))
				if err := d.rejectAll(ctx, group); err != nil {
					errs = append(errs, fmt.Errorf("project %d part %s: %w", projectID, part, err))
				}
				continue
			}
			if err := d.decideGroup(ctx, &round, projectID, part, maxQuota, group); err != nil {
				errs = append(errs, fmt.Errorf("project %d part %s: %w", projectID, part, err))
			}
		}
	}

	if len(errs) > 0 {
		// Leave the flag unset so the next tick retries what is left;
		// groups that already resolved are no longer pending.
		return errors.Join(errs...)
	}
	return d.markExecuted(ctx, &round)
}

func (d *AutoDecider) decideGroup(
	ctx context.Context,
	round *model.MatchingRound,
	projectID uint,
	part model.Part,
	maxQuota int,
	group []model.Application,
) error {
	stats, err := loadPartStats(ctx, d.db, projectID, part, round.ID)
	if err != nil {
		return err
	}
	sel := EvaluateMinSelection(stats)
	if sel.QuotaAnomaly {
		klog.Errorf("data anomaly: prior confirmations (%d) exceed quota (%d) for project %d part %s",
			stats.PriorConfirmed, stats.MaxQuota, projectID, part)
	}

	// Uniform random permutation; no preference weighting.
	shuffled := make([]model.Application, len(group))
	copy(shuffled, group)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	toConfirm := sel.ToConfirm
	if toConfirm > len(shuffled) {
		toConfirm = len(shuffled)
	}

	klog.Infof("auto-decision: round %d project %d part %s: applied %d, prior confirmed %d, confirmed %d, min select %d, confirming %d",
		round.ID, projectID, part, stats.Applied, stats.PriorConfirmed, stats.Confirmed, sel.MinSelect, toConfirm)

	rejects := shuffled[toConfirm:]
	for i := range shuffled[:toConfirm] {
		app := &shuffled[i]
		err := confirmApplication(ctx, d.db, app, maxQuota, true)
		if errors.Is(err, ErrQuotaExceeded) {
			// A sibling confirmation took the last seat first.
			klog.Warningf("auto-decision: quota filled before application %d (project %d part %s), rejecting instead",
				app.ID, projectID, part)
			metrics.AutoDecisionDemoted.Inc()
			rejects = append(rejects, *app)
			continue
		}
		if err != nil {
			return err
		}
		metrics.AutoDecisionConfirmed.Inc()
		klog.Infof("auto-decision: application %d confirmed (round %d, project %d, challenger %d)",
			app.ID, round.ID, projectID, app.ChallengerID)
	}

	return d.rejectAll(ctx, rejects)
}

func (d *AutoDecider) rejectAll(ctx context.Context, apps []model.Application) error {
	if len(apps) == 0 {
		return nil
	}
	ids := lo.Map(apps, func(app model.Application, _ int) uint {
		return app.ID
	})
	err := d.db.WithContext(ctx).Model(&model.Application{}).
		Where("id IN ?", ids).
		Update("status", model.ApplicationRejected).Error
	if err != nil {
		return err
	}
	metrics.AutoDecisionRejected.Add(float64(len(ids)))
	klog.Infof("auto-decision: rejected %d application(s)", len(ids))
	return nil
}

func (d *AutoDecider) projectQuotas(ctx context.Context, projectID uint) (map[model.Part]int, error) {
	var quotas []model.ProjectQuota
	if err := d.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Find(&quotas).Error; err != nil {
		return nil, err
	}
	return lo.SliceToMap(quotas, func(q model.ProjectQuota) (model.Part, int) {
		return q.Part, q.Headcount
	}), nil
}

func (d *AutoDecider) markExecuted(ctx context.Context, round *model.MatchingRound) error {
	err := d.db.WithContext(ctx).Model(&model.MatchingRound{}).
		Where("id = ?", round.ID).
		Update("auto_decision_executed", true).Error
	if err != nil {
		return err
	}
	metrics.AutoDecisionRounds.Inc()
	klog.Infof("auto-decision: round %d finalized", round.ID)
	return nil
}
