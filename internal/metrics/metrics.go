package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ecommapi"

// Metrics 业务与 HTTP 指标
// 所有方法对 nil 接收者安全，未启用指标时可直接传 nil
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDurations    *prometheus.HistogramVec
	ordersCreated    prometheus.Counter
	ordersDestroyed  prometheus.Counter
	ordersFulfilled  *prometheus.CounterVec
	stockRejections  prometheus.Counter
	webhookEvents    *prometheus.CounterVec
	notifyFailures   *prometheus.CounterVec
	checkoutSessions *prometheus.CounterVec
}

// New 创建独立注册表上的指标集合
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "HTTP request latency.", Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "created_total",
			Help: "Orders created from carts.",
		}),
		ordersDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "destroyed_total",
			Help: "Unaccepted orders deleted with restock.",
		}),
		ordersFulfilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "fulfillments_total",
			Help: "Payment fulfillments by result (applied, duplicate).",
		}, []string{"result"}),
		stockRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "inventory", Name: "rejections_total",
			Help: "Order or cart operations rejected for insufficient stock.",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "stripe", Name: "webhook_events_total",
			Help: "Stripe webhook events by type and result.",
		}, []string{"type", "result"}),
		notifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "notifications", Name: "failures_total",
			Help: "Order notification failures by kind.",
		}, []string{"kind"}),
		checkoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "stripe", Name: "checkout_sessions_total",
			Help: "Checkout session requests by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDurations,
		m.ordersCreated,
		m.ordersDestroyed,
		m.ordersFulfilled,
		m.stockRejections,
		m.webhookEvents,
		m.notifyFailures,
		m.checkoutSessions,
	)
	return m
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回底层注册表
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// OrderCreated 订单创建成功
func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// OrderDestroyed 订单删除并回补库存
func (m *Metrics) OrderDestroyed() {
	if m == nil {
		return
	}
	m.ordersDestroyed.Inc()
}

// OrderFulfilled 支付履约结果，applied 为 false 表示重复事件
func (m *Metrics) OrderFulfilled(applied bool) {
	if m == nil {
		return
	}
	result := "applied"
	if !applied {
		result = "duplicate"
	}
	m.ordersFulfilled.WithLabelValues(result).Inc()
}

// StockRejected 库存不足拒绝
func (m *Metrics) StockRejected() {
	if m == nil {
		return
	}
	m.stockRejections.Inc()
}

// WebhookEvent 记录 webhook 事件处理结果
func (m *Metrics) WebhookEvent(eventType, result string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookEvents.WithLabelValues(eventType, result).Inc()
}

// NotificationFailed 通知发送或入队失败
func (m *Metrics) NotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(kind).Inc()
}

// CheckoutSession 记录结账会话创建结果
func (m *Metrics) CheckoutSession(result string) {
	if m == nil {
		return
	}
	m.checkoutSessions.WithLabelValues(result).Inc()
}
