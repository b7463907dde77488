package jobs

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// DocCounter reports how many documents a backend currently holds.
type DocCounter interface {
	DocCount() int
}

// IDPager pages document ids from the system of record.
type IDPager interface {
	ListIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error)
}

// IndexLagProbe periodically compares the store's document count against the
// in-memory index and publishes the gap. A persistent gap means dropped sync
// operations and calls for a rebuild.
type IndexLagProbe struct {
	index    DocCounter
	store    IDPager
	schedule string
	timeout  time.Duration
	log      *logrus.Logger

	indexed prometheus.Gauge
	lag     prometheus.Gauge
}

func NewIndexLagProbe(index DocCounter, store IDPager, schedule string, log *logrus.Logger, reg prometheus.Registerer) *IndexLagProbe {
	j := &IndexLagProbe{
		index:    index,
		store:    store,
		schedule: schedule,
		timeout:  time.Minute,
		log:      log,
		indexed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "index_documents",
			Help: "Documents currently held by the in-memory index.",
		}),
		lag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "index_lag_documents",
			Help: "Store document count minus index document count at the last probe.",
		}),
	}
	if reg != nil {
		reg.MustRegister(j.indexed, j.lag)
	}
	return j
}

func (j *IndexLagProbe) Name() string { return "index_lag_probe" }

func (j *IndexLagProbe) Schedule() string { return j.schedule }

func (j *IndexLagProbe) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	stored := 0
	afterID := ""
	for {
		ids, err := j.store.ListIDsAfter(ctx, afterID, 500)
		if err != nil {
			j.log.WithError(err).Error("index lag probe failed")
			return
		}
		if len(ids) == 0 {
			break
		}
		stored += len(ids)
		afterID = ids[len(ids)-1]
	}

	indexed := j.index.DocCount()
	j.indexed.Set(float64(indexed))
	j.lag.Set(float64(stored - indexed))
	if stored != indexed {
		j.log.WithFields(logrus.Fields{"stored": stored, "indexed": indexed}).
			Warn("index document count diverges from store")
	}
}
