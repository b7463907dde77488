package jobs

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"digiarchive/internal/consistency"
)

// ConsistencySweep periodically audits the document store for rows whose
// department disagrees with their folder. It only reports; repair stays an
// explicit operator action.
type ConsistencySweep struct {
	guard    *consistency.Guard
	schedule string
	timeout  time.Duration
	log      *logrus.Logger
	gauge    prometheus.Gauge
}

func NewConsistencySweep(guard *consistency.Guard, schedule string, log *logrus.Logger, reg prometheus.Registerer) *ConsistencySweep {
	j := &ConsistencySweep{
		guard:    guard,
		schedule: schedule,
		timeout:  time.Minute,
		log:      log,
		gauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "consistency_inconsistent_documents",
			Help: "Documents whose department disagreed with their folder at the last sweep.",
		}),
	}
	if reg != nil {
		reg.MustRegister(j.gauge)
	}
	return j
}

func (j *ConsistencySweep) Name() string { return "consistency_sweep" }

func (j *ConsistencySweep) Schedule() string { return j.schedule }

func (j *ConsistencySweep) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	ids, err := j.guard.AuditSweep(ctx)
	if err != nil {
		j.log.WithError(err).Error("consistency sweep failed")
		return
	}
	j.gauge.Set(float64(len(ids)))
}
