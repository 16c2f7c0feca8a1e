package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ecommapi/internal/logger"

	"github.com/sony/gobreaker"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrResponseInvalid  = errors.New("stripe response invalid")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
	ErrUnavailable      = errors.New("stripe temporarily unavailable")
)

const (
	defaultAPIBaseURL        = "https://api.stripe.com"
	defaultTimeout           = 12 * time.Second
	defaultWebhookToleranceS = 300

	// EventCheckoutCompleted 结账完成事件
	EventCheckoutCompleted = "checkout.session.completed"
)

// Config Stripe 客户端配置
type Config struct {
	SecretKey               string
	PublishableKey          string
	WebhookSecret           string
	SuccessURL              string
	CancelURL               string
	Currency                string
	APIBaseURL              string
	WebhookToleranceSeconds int64
	Timeout                 time.Duration
	Breaker                 BreakerConfig
}

// BreakerConfig 熔断参数
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// CheckoutInput 创建结账会话输入
type CheckoutInput struct {
	OrderID     uint
	Name        string
	AmountMinor int64
	Currency    string
}

// CheckoutSession 结账会话
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
}

// PaymentIntent 支付意图摘要
type PaymentIntent struct {
	ID       string
	ChargeID string
	Status   string
}

// Event 已验签的 webhook 事件
type Event struct {
	ID              string
	Type            string
	SessionID       string
	PaymentIntentID string
	OrderID         uint
	AmountTotal     int64
	Currency        string
}

// Client Stripe REST 客户端，出站请求经过熔断器
type Client struct {
	cfg        Config
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

// NewClient 创建 Stripe 客户端
func NewClient(cfg Config) *Client {
	cfg.normalize()
	settings := gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.Breaker.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.Breaker.FailureRatio
		},
		// 4xx 属于调用方问题，不计入熔断
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrRequestFailed)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnw("stripe_breaker_state_changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         gobreaker.NewCircuitBreaker(settings),
	}
}

// PublishableKey 前端使用的公钥
func (c *Client) PublishableKey() string {
	return c.cfg.PublishableKey
}

// Currency 默认结算币种
func (c *Client) Currency() string {
	return c.cfg.Currency
}

// CreateCheckoutSession 为订单创建 Stripe Checkout 会话
func (c *Client) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutSession, error) {
	if c.cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if input.OrderID == 0 {
		return nil, fmt.Errorf("%w: order id is required", ErrConfigInvalid)
	}
	if input.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = c.cfg.Currency
	}
	orderID := strconv.FormatUint(uint64(input.OrderID), 10)

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", c.cfg.SuccessURL)
	form.Set("cancel_url", c.cfg.CancelURL)
	form.Set("client_reference_id", orderID)
	form.Add("payment_method_types[]", "card")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(input.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", input.Name)
	form.Set("metadata[order_id]", orderID)

	raw, err := c.call(ctx, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	session := &CheckoutSession{
		ID:              readString(raw, "id"),
		URL:             readString(raw, "url"),
		PaymentIntentID: readPaymentIntentID(raw),
	}
	if session.ID == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrResponseInvalid)
	}
	return session, nil
}

// RetrievePaymentIntent 查询支付意图，用于取得扣款 ID
func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: payment intent id is required", ErrConfigInvalid)
	}
	raw, err := c.call(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	intent := &PaymentIntent{
		ID:       readString(raw, "id"),
		ChargeID: readChargeID(raw),
		Status:   readString(raw, "status"),
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("%w: missing payment intent id", ErrResponseInvalid)
	}
	return intent, nil
}

// VerifyWebhook 使用客户端配置的密钥校验 webhook
func (c *Client) VerifyWebhook(signatureHeader string, body []byte, now time.Time) (*Event, error) {
	return VerifyAndParseWebhook(c.cfg.WebhookSecret, c.cfg.WebhookToleranceSeconds, signatureHeader, body, now)
}

// VerifyAndParseWebhook 校验 Stripe-Signature 并解析事件
func VerifyAndParseWebhook(secret string, toleranceSeconds int64, signatureHeader string, body []byte, now time.Time) (*Event, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrSignatureInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("%w: Stripe-Signature is required", ErrSignatureInvalid)
	}
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}
	if toleranceSeconds > 0 {
		delta := math.Abs(float64(now.Unix() - timestamp))
		if delta > float64(toleranceSeconds) {
			return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
		}
	}

	expected := computeSignature(secret, timestamp, body)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	eventRaw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	event := &Event{
		ID:   readString(eventRaw, "id"),
		Type: readString(eventRaw, "type"),
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	objectRaw := readMap(readMap(eventRaw, "data"), "object")
	if objectRaw == nil {
		return nil, fmt.Errorf("%w: missing event object", ErrResponseInvalid)
	}
	if readString(objectRaw, "object") == "checkout.session" {
		event.SessionID = readString(objectRaw, "id")
		event.PaymentIntentID = readPaymentIntentID(objectRaw)
		event.AmountTotal = readInt64(objectRaw, "amount_total")
		event.Currency = strings.ToLower(readString(objectRaw, "currency"))
		if id, err := strconv.ParseUint(readString(readMap(objectRaw, "metadata"), "order_id"), 10, 64); err == nil {
			event.OrderID = uint(id)
		}
	}
	return event, nil
}

// SignPayload 生成 Stripe-Signature 头，供联调与测试使用
func SignPayload(secret string, timestamp int64, body []byte) string {
	return "t=" + strconv.FormatInt(timestamp, 10) + ",v1=" + computeSignature(secret, timestamp, body)
}

func (c *Client) call(ctx context.Context, method, path string, form url.Values) (map[string]interface{}, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.do(ctx, method, path, form)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	raw, _ := result.(map[string]interface{})
	return raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) (map[string]interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: %s %s status %d", ErrRequestFailed, method, path, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s status %d", ErrResponseInvalid, method, path, resp.StatusCode)
	}
	return decodeRawMap(respBody)
}

func (c *Config) normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.PublishableKey = strings.TrimSpace(c.PublishableKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.SuccessURL = strings.TrimSpace(c.SuccessURL)
	c.CancelURL = strings.TrimSpace(c.CancelURL)
	c.Currency = strings.ToLower(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = "usd"
	}
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.WebhookToleranceSeconds <= 0 {
		c.WebhookToleranceSeconds = defaultWebhookToleranceS
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 3
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = 5
	}
	if c.Breaker.FailureRatio <= 0 {
		c.Breaker.FailureRatio = 0.6
	}
	if c.Breaker.Timeout <= 0 {
		c.Breaker.Timeout = 30 * time.Second
	}
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func readPaymentIntentID(raw map[string]interface{}) string {
	switch typed := raw["payment_intent"].(type) {
	case string:
		return strings.TrimSpace(typed)
	case map[string]interface{}:
		return readString(typed, "id")
	default:
		return ""
	}
}

// readChargeID 兼容 latest_charge 与旧版 charges.data 列表
func readChargeID(raw map[string]interface{}) string {
	switch typed := raw["latest_charge"].(type) {
	case string:
		if id := strings.TrimSpace(typed); id != "" {
			return id
		}
	case map[string]interface{}:
		if id := readString(typed, "id"); id != "" {
			return id
		}
	}
	charges := readMap(raw, "charges")
	if list, ok := charges["data"].([]interface{}); ok && len(list) > 0 {
		if first, ok := list[0].(map[string]interface{}); ok {
			return readString(first, "id")
		}
	}
	return ""
}

func computeSignature(secret string, timestamp int64, body []byte) string {
	payload := strconv.FormatInt(timestamp, 10) + "." + string(body)
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

func parseSignatureHeader(signatureHeader string) (int64, []string, error) {
	timestamp := int64(0)
	signatures := make([]string, 0)
	for _, part := range strings.Split(signatureHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		value := strings.TrimSpace(kv[1])
		switch strings.TrimSpace(kv[0]) {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil {
		return ""
	}
	switch typed := raw[key].(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	default:
		return ""
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil {
		return nil
	}
	mapped, _ := raw[key].(map[string]interface{})
	return mapped
}

func readInt64(raw map[string]interface{}, key string) int64 {
	if raw == nil {
		return 0
	}
	switch typed := raw[key].(type) {
	case float64:
		return int64(typed)
	case json.Number:
		parsed, _ := typed.Int64()
		return parsed
	case string:
		parsed, _ := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		return parsed
	default:
		return 0
	}
}
