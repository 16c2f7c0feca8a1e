package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func checkoutCompletedBody(t *testing.T, orderID string) []byte {
	t.Helper()
	payload := map[string]interface{}{
		"id":   "evt_test_1",
		"type": EventCheckoutCompleted,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":         "checkout.session",
				"id":             "cs_test_123",
				"payment_intent": "pi_test_123",
				"payment_status": "paid",
				"currency":       "usd",
				"amount_total":   1500,
				"metadata": map[string]interface{}{
					"order_id": orderID,
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return body
}

func TestVerifyAndParseWebhookCheckoutCompleted(t *testing.T) {
	now := time.Unix(1760000000, 0)
	body := checkoutCompletedBody(t, "42")
	header := SignPayload("whsec_test_abc", now.Unix(), body)

	event, err := VerifyAndParseWebhook("whsec_test_abc", 300, header, body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if event.Type != EventCheckoutCompleted {
		t.Fatalf("unexpected event type: %s", event.Type)
	}
	if event.OrderID != 42 {
		t.Fatalf("unexpected order id: %d", event.OrderID)
	}
	if event.PaymentIntentID != "pi_test_123" || event.SessionID != "cs_test_123" {
		t.Fatalf("unexpected refs: %+v", event)
	}
	if event.AmountTotal != 1500 || event.Currency != "usd" {
		t.Fatalf("unexpected amount: %d %s", event.AmountTotal, event.Currency)
	}
}

func TestVerifyAndParseWebhookInvalidSignature(t *testing.T) {
	now := time.Unix(1760000000, 0)
	body := checkoutCompletedBody(t, "42")

	_, err := VerifyAndParseWebhook("whsec_test_abc", 300, "t=1760000000,v1=invalid-signature", body, now)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}

	header := SignPayload("whsec_other", now.Unix(), body)
	if _, err := VerifyAndParseWebhook("whsec_test_abc", 300, header, body, now); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error for wrong secret, got %v", err)
	}
}

func TestVerifyAndParseWebhookOutsideTolerance(t *testing.T) {
	signedAt := time.Unix(1760000000, 0)
	body := checkoutCompletedBody(t, "42")
	header := SignPayload("whsec_test_abc", signedAt.Unix(), body)

	_, err := VerifyAndParseWebhook("whsec_test_abc", 300, header, body, signedAt.Add(10*time.Minute))
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected tolerance error, got %v", err)
	}
}

func TestCreateCheckoutSessionSendsOrderMetadata(t *testing.T) {
	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" || r.Header.Get("Authorization") != "Bearer sk_test_1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(raw))
		_, _ = w.Write([]byte(`{"id":"cs_test_1","url":"https://checkout.stripe.com/c/cs_test_1"}`))
	}))
	defer server.Close()

	client := NewClient(Config{SecretKey: "sk_test_1", APIBaseURL: server.URL, SuccessURL: "http://s", CancelURL: "http://c"})
	session, err := client.CreateCheckoutSession(context.Background(), CheckoutInput{OrderID: 7, Name: "Order #7", AmountMinor: 2599})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.ID != "cs_test_1" {
		t.Fatalf("unexpected session id: %s", session.ID)
	}
	if form.Get("metadata[order_id]") != "7" || form.Get("line_items[0][price_data][unit_amount]") != "2599" {
		t.Fatalf("unexpected form: %v", form)
	}
	if form.Get("line_items[0][price_data][currency]") != "usd" {
		t.Fatalf("unexpected currency: %s", form.Get("line_items[0][price_data][currency]"))
	}
}

func TestRetrievePaymentIntentReadsCharge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"pi_1","status":"succeeded","charges":{"data":[{"id":"ch_legacy"}]}}`))
	}))
	defer server.Close()

	client := NewClient(Config{SecretKey: "sk_test_1", APIBaseURL: server.URL})
	intent, err := client.RetrievePaymentIntent(context.Background(), "pi_1")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if intent.ChargeID != "ch_legacy" {
		t.Fatalf("unexpected charge id: %s", intent.ChargeID)
	}
}

func TestBreakerOpensAfterUpstreamFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{
		SecretKey:  "sk_test_1",
		APIBaseURL: server.URL,
		Breaker:    BreakerConfig{MinRequests: 2, FailureRatio: 0.5, Timeout: time.Minute},
	})
	for i := 0; i < 2; i++ {
		if _, err := client.RetrievePaymentIntent(context.Background(), "pi_1"); !errors.Is(err, ErrRequestFailed) {
			t.Fatalf("expected request failure, got %v", err)
		}
	}
	_, err := client.RetrievePaymentIntent(context.Background(), "pi_1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls)
	}
}
