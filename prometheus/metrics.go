package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter metrics
var (
	// Ticket operation counter
	TicketOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_ticket_operations_total",
			Help: "Total number of ticket operations",
		},
		[]string{"operation"}, // "create", "update", "assign", "comment", "delete", etc.
	)

	// Business match resolutions by confidence tier
	BusinessMatchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_business_match_total",
			Help: "Total number of business match resolutions by confidence",
		},
		[]string{"confidence"}, // "high", "medium", "low", "none"
	)

	// Task operation counter
	TaskOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_task_operations_total",
			Help: "Total number of agent task operations",
		},
		[]string{"operation"},
	)

	// Tasks gated into the waiting queue at creation time
	TaskQueuedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_tasks_queued_total",
			Help: "Total number of tasks queued because their agent was at capacity",
		},
	)

	// Queued-to-pending promotions
	TaskPromotedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_tasks_promoted_total",
			Help: "Total number of queued tasks promoted to pending",
		},
	)

	// Outbound automation webhook calls
	WebhookCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_webhook_calls_total",
			Help: "Total number of outbound n8n webhook calls",
		},
		[]string{"result"}, // "success" or "failure"
	)

	// Auth error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)

	// Workspace isolation violations caught at the handler boundary
	CrossWorkspaceCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_cross_workspace_denied_total",
			Help: "Total number of denied cross-workspace access attempts",
		},
		[]string{"resource"},
	)
)

// Histogram metrics
var (
	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)

	// Webhook call duration
	WebhookDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crm_webhook_duration_seconds",
			Help:    "Duration of outbound n8n webhook calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Gauge metrics
var (
	// Active workspaces
	ActiveWorkspacesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crm_active_workspaces",
			Help: "Number of active workspaces",
		},
	)

	// Queue depth per agent
	QueueDepthGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crm_agent_queue_depth",
			Help: "Number of queued tasks per agent",
		},
		[]string{"agent_id"},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crm_info",
			Help: "Information about the platform service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(TicketOperationCounter)
	prometheus.MustRegister(BusinessMatchCounter)
	prometheus.MustRegister(TaskOperationCounter)
	prometheus.MustRegister(TaskQueuedCounter)
	prometheus.MustRegister(TaskPromotedCounter)
	prometheus.MustRegister(WebhookCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(CrossWorkspaceCounter)

	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(WebhookDuration)

	prometheus.MustRegister(ActiveWorkspacesGauge)
	prometheus.MustRegister(QueueDepthGauge)
	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// RecordTicketOperation records a ticket operation by type
func RecordTicketOperation(operation string) {
	TicketOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordBusinessMatch records a match resolution by confidence tier
func RecordBusinessMatch(confidence string) {
	BusinessMatchCounter.With(prometheus.Labels{"confidence": confidence}).Inc()
}

// RecordTaskOperation records a task operation by type
func RecordTaskOperation(operation string) {
	TaskOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordWebhookCall records an outbound webhook call and its duration
func RecordWebhookCall(success bool, duration time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	WebhookCounter.With(prometheus.Labels{"result": result}).Inc()
	WebhookDuration.Observe(duration.Seconds())
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordCrossWorkspaceDenied records a denied cross-workspace access attempt
func RecordCrossWorkspaceDenied(resource string) {
	CrossWorkspaceCounter.With(prometheus.Labels{"resource": resource}).Inc()
}

// UpdateQueueDepth updates the queued-task gauge for one agent
func UpdateQueueDepth(agentID uint, depth int) {
	QueueDepthGauge.With(prometheus.Labels{
		"agent_id": strconv.FormatUint(uint64(agentID), 10),
	}).Set(float64(depth))
}
