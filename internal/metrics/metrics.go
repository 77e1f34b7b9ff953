package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiobookhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audiobookhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 提交指标
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiobookhub_submissions_total",
			Help: "Total number of conversion submissions",
		},
		[]string{"result"},
	)

	// 轮询会话指标
	SessionsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiobookhub_poll_sessions_started_total",
			Help: "Total number of polling sessions started",
		},
	)

	SessionsSupersededTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiobookhub_poll_sessions_superseded_total",
			Help: "Total number of active polling sessions cancelled by a newer session",
		},
	)

	SessionOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiobookhub_poll_session_outcomes_total",
			Help: "Total number of polling sessions by terminal outcome",
		},
		[]string{"outcome"},
	)

	StatusRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiobookhub_status_requests_total",
			Help: "Total number of task status requests",
		},
		[]string{"result"},
	)

	StaleResponsesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiobookhub_stale_status_responses_total",
			Help: "Status responses discarded because their session was no longer current",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audiobookhub_poll_sessions_active",
			Help: "Number of active polling sessions (0 or 1)",
		},
	)

	// 试听指标
	PreviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiobookhub_previews_total",
			Help: "Total number of preview requests",
		},
		[]string{"result"},
	)

	// 错误指标
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiobookhub_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "type"},
	)
)

// RecordHTTPRequest 记录 HTTP 请求
func RecordHTTPRequest(method, path string, status int, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordSubmission 记录一次提交（ok / rejected / transport / invalid）
func RecordSubmission(result string) {
	SubmissionsTotal.WithLabelValues(result).Inc()
}

// RecordSessionStarted 记录会话启动；superseded 表示替换了仍在运行的旧会话
func RecordSessionStarted(superseded bool) {
	SessionsStartedTotal.Inc()
	if superseded {
		SessionsSupersededTotal.Inc()
	} else {
		ActiveSessions.Inc()
	}
}

// RecordSessionEnded 记录会话结束（complete / failed / error / cancelled）
func RecordSessionEnded(outcome string) {
	SessionOutcomesTotal.WithLabelValues(outcome).Inc()
	ActiveSessions.Dec()
}

// RecordStatusRequest 记录一次状态查询（ok / error）
func RecordStatusRequest(result string) {
	StatusRequestsTotal.WithLabelValues(result).Inc()
}

// RecordStaleResponse 记录被丢弃的过期响应
func RecordStaleResponse() {
	StaleResponsesTotal.Inc()
}

// RecordPreview 记录一次试听（ok / error / busy）
func RecordPreview(result string) {
	PreviewsTotal.WithLabelValues(result).Inc()
}

// RecordError 记录错误
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// statusClass 将 HTTP 状态码转为类别
func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
