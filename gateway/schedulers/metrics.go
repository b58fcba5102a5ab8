package schedulers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var WorkItemsAdded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gatewarden_scheduler_work_items_added_total",
	Help: "Total number of work items added to the consumer pool",
}, []string{"pool", "scheduler_type"})

var WorkItemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gatewarden_scheduler_work_items_processed_total",
	Help: "Total number of work items processed by the consumer pool",
}, []string{"pool", "scheduler_type"})

var WorkItemsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gatewarden_scheduler_work_items_failed_total",
	Help: "Total number of work items whose handler returned an error",
}, []string{"pool", "scheduler_type"})

var WorkItemsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "gatewarden_scheduler_work_items_active",
	Help: "Number of work items currently being handled",
}, []string{"pool", "scheduler_type"})

var WorkersActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "gatewarden_scheduler_workers_active",
	Help: "Number of workers currently active",
}, []string{"pool", "scheduler_type"})
