package jobs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"digiarchive/internal/consistency"
	"digiarchive/internal/repository/mocks"
)

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("gauge %s not registered", name)
	return 0
}

func TestConsistencySweepPublishesCount(t *testing.T) {
	docs := new(mocks.MockDocumentRepository)
	folders := new(mocks.MockFolderRepository)
	docs.On("SweepInconsistent", mock.Anything).Return([]string{"doc-1", "doc-2"}, nil)

	reg := prometheus.NewRegistry()
	guard := consistency.NewGuard(docs, folders, quietLog())
	job := NewConsistencySweep(guard, "@every 10m", quietLog(), reg)

	job.Run()
	assert.Equal(t, float64(2), gaugeValue(t, reg, "consistency_inconsistent_documents"))
	docs.AssertExpectations(t)
}

type fakeCounter struct{ n int }

func (f fakeCounter) DocCount() int { return f.n }

type fakePager struct {
	ids []string
	err error
}

func (f *fakePager) ListIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	start := 0
	for i, id := range f.ids {
		if id > afterID {
			start = i
			break
		}
		start = i + 1
	}
	end := start + limit
	if end > len(f.ids) {
		end = len(f.ids)
	}
	if start >= len(f.ids) {
		return nil, nil
	}
	return f.ids[start:end], nil
}

func TestIndexLagProbeReportsGap(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := &fakePager{ids: []string{"a", "b", "c"}}
	job := NewIndexLagProbe(fakeCounter{n: 2}, store, "@every 5m", quietLog(), reg)

	job.Run()
	assert.Equal(t, float64(2), gaugeValue(t, reg, "index_documents"))
	assert.Equal(t, float64(1), gaugeValue(t, reg, "index_lag_documents"))
}

func TestIndexLagProbeStoreFailureLeavesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := &fakePager{err: errors.New("db down")}
	job := NewIndexLagProbe(fakeCounter{n: 5}, store, "@every 5m", quietLog(), reg)

	job.Run()
	assert.Zero(t, gaugeValue(t, reg, "index_documents"))
	assert.Zero(t, gaugeValue(t, reg, "index_lag_documents"))
}

func TestRunnerRejectsBadSchedule(t *testing.T) {
	r := NewRunner(quietLog(), NewIndexLagProbe(fakeCounter{}, &fakePager{}, "not a schedule", quietLog(), nil))
	assert.Error(t, r.Start())
}

func TestRunnerStartStop(t *testing.T) {
	r := NewRunner(quietLog(), NewIndexLagProbe(fakeCounter{}, &fakePager{}, "@every 1h", quietLog(), nil))
	require.NoError(t, r.Start())
	r.Stop()
}
