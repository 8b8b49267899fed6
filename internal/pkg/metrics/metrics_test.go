package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mgoiri/geolens/internal/pkg/metrics"
)

type fakePoolStat struct {
	acquired int32
	idle     int32
	total    int32
}

func (s fakePoolStat) AcquiredConns() int32 { return s.acquired }
func (s fakePoolStat) IdleConns() int32     { return s.idle }
func (s fakePoolStat) TotalConns() int32    { return s.total }

func TestUpdateDBPoolMetrics(t *testing.T) {
	metrics.UpdateDBPoolMetrics(fakePoolStat{acquired: 3, idle: 2, total: 5})

	if got := testutil.ToFloat64(metrics.DBPoolConnsAcquired); got != 3 {
		t.Errorf("acquired gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.DBPoolConnsIdle); got != 2 {
		t.Errorf("idle gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.DBPoolConnsOpen); got != 5 {
		t.Errorf("open gauge = %v, want 5", got)
	}
}

func TestUpdateDBPoolMetrics_IgnoresUnknownType(t *testing.T) {
	metrics.UpdateDBPoolMetrics(fakePoolStat{acquired: 1, idle: 1, total: 2})
	metrics.UpdateDBPoolMetrics("not a pool stat")

	if got := testutil.ToFloat64(metrics.DBPoolConnsOpen); got != 2 {
		t.Errorf("open gauge = %v, want 2 (unchanged)", got)
	}
}
