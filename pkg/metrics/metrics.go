// Package metrics exports Parameters as Prometheus gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shrtyk/raft-params/api"
)

const (
	namespace = "raft"
	subsystem = "params"
)

type gauge struct {
	desc  *prometheus.Desc
	value func(*api.Parameters) int
}

// Collector reports every field of a Parameters, plus the derived maximum
// heartbeat interval, as constant gauges.
type Collector struct {
	params *api.Parameters
	gauges []gauge
}

func newGauge(name, help string, value func(*api.Parameters) int) gauge {
	return gauge{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, nil, nil),
		value: value,
	}
}

func NewCollector(p *api.Parameters) *Collector {
	return &Collector{
		params: p,
		gauges: []gauge{
			newGauge("election_timeout_upper_ms", "Upper bound of the randomized election timeout.",
				(*api.Parameters).ElectionTimeoutUpperBound),
			newGauge("election_timeout_lower_ms", "Lower bound of the randomized election timeout.",
				(*api.Parameters).ElectionTimeoutLowerBound),
			newGauge("heartbeat_interval_ms", "Interval between leader heartbeats.",
				(*api.Parameters).HeartbeatInterval),
			newGauge("max_heartbeat_interval_ms", "Longest heartbeat interval that cannot trigger a spurious election.",
				(*api.Parameters).MaxHeartbeatInterval),
			newGauge("rpc_failure_backoff_ms", "Delay before a failed peer RPC is retried.",
				(*api.Parameters).RPCFailureBackoff),
			newGauge("log_sync_batch_size", "Log entries per replication message.",
				(*api.Parameters).LogSyncBatchSize),
			newGauge("log_sync_stop_gap", "Entry gap below which batched log sync stops.",
				(*api.Parameters).LogSyncStopGap),
			newGauge("snapshot_distance", "Committed entries between snapshots, 0 when disabled.",
				(*api.Parameters).SnapshotDistance),
			newGauge("snapshot_block_size_bytes", "Size of one snapshot transfer chunk.",
				(*api.Parameters).SnapshotBlockSize),
		},
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, g := range c.gauges {
		ch <- g.desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, g := range c.gauges {
		ch <- prometheus.MustNewConstMetric(g.desc, prometheus.GaugeValue, float64(g.value(c.params)))
	}
}

// Register adds a Collector for p to reg.
func Register(reg prometheus.Registerer, p *api.Parameters) error {
	return reg.Register(NewCollector(p))
}
