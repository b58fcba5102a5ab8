package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gateway_events_received_total",
	Help: "Total number of gateway events handed to the dispatcher",
}, []string{"shard", "type"})

var eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gateway_events_dropped_total",
	Help: "Events discarded because the pool was shutting down",
}, []string{"shard"})

var shardsConnected = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "gateway_shards_open",
	Help: "Number of shard sessions currently open",
})
