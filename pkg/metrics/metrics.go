package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AutoDecisionRounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upms_auto_decision_rounds_total",
		Help: "Matching rounds finalized by the auto-decision job.",
	})
	AutoDecisionConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upms_auto_decision_confirmed_total",
		Help: "Applications confirmed by the auto-decision job.",
	})
	AutoDecisionRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upms_auto_decision_rejected_total",
		Help: "Applications rejected by the auto-decision job.",
	})
	AutoDecisionDemoted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upms_auto_decision_demoted_total",
		Help: "Confirmation candidates demoted to rejected because the quota filled first.",
	})
	ManualDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upms_manual_decisions_total",
		Help: "Manual application decisions by resulting status.",
	}, []string{"status"})
)

// Handler exposes the prometheus registry on a gin route.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
