// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoshi/noteshare/internal/model"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やワーカーから利用する。
type MetricsCollector interface {
	RecordShareCreated(kind model.ResourceKind)
	RecordShareDenied(kind model.ResourceKind, reason string)
	RecordUpload(sizeBytes int64)
	RecordUploadRejected(reason string)
	RecordHTTPStatus(statusCode int)
	RecordBlobLatency(op string, duration time.Duration)
	RecordSessionsPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sharesCreated  *prometheus.CounterVec
	sharesDenied   *prometheus.CounterVec
	uploads        prometheus.Counter
	uploadBytes    prometheus.Counter
	uploadRejected *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	blobLatency    *prometheus.HistogramVec
	sessionsPurged prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sharesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "noteshare_shares_created_total",
			Help: "作成された共有リンクの合計数",
		}, []string{"kind"}),
		sharesDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "noteshare_shares_denied_total",
			Help: "拒否された共有操作の合計数",
		}, []string{"kind", "reason"}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "noteshare_uploads_total",
			Help: "受け付けたファイルアップロードの合計数",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "noteshare_upload_bytes_total",
			Help: "受け付けたアップロードの合計バイト数",
		}),
		uploadRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "noteshare_upload_rejected_total",
			Help: "拒否されたアップロードの合計数",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "noteshare_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		blobLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "noteshare_blob_latency_seconds",
			Help:    "ブロブ操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "noteshare_sessions_purged_total",
			Help: "掃除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.sharesCreated,
		c.sharesDenied,
		c.uploads,
		c.uploadBytes,
		c.uploadRejected,
		c.httpStatus,
		c.blobLatency,
		c.sessionsPurged,
	)

	return c
}

// RecordShareCreated は共有リンクの作成を記録する。
func (c *Collector) RecordShareCreated(kind model.ResourceKind) {
	c.sharesCreated.WithLabelValues(string(kind)).Inc()
}

// RecordShareDenied は共有操作の拒否を記録する。
func (c *Collector) RecordShareDenied(kind model.ResourceKind, reason string) {
	c.sharesDenied.WithLabelValues(string(kind), reason).Inc()
}

// RecordUpload はアップロード成功を記録する。
func (c *Collector) RecordUpload(sizeBytes int64) {
	c.uploads.Inc()
	c.uploadBytes.Add(float64(sizeBytes))
}

// RecordUploadRejected はアップロード拒否を記録する。
func (c *Collector) RecordUploadRejected(reason string) {
	c.uploadRejected.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordBlobLatency はブロブ操作のレイテンシを記録する。
func (c *Collector) RecordBlobLatency(op string, duration time.Duration) {
	c.blobLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordSessionsPurged は掃除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
