package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCollect_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/payments" {
			t.Fatalf("path = %s, want /api/payments", r.URL.Path)
		}

		var req collectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Amount != 245 {
			t.Fatalf("amount = %d, want 245", req.Amount)
		}
		if req.IdempotencyKey == "" {
			t.Fatalf("idempotency key must be set")
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(Result{
			OK:               true,
			PaymentReference: "pay_9f2c",
		}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := client.Collect(ctx, 245, "9000000001")
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if !res.OK || res.PaymentReference != "pay_9f2c" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCollect_Declined(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(Result{Reason: "insufficient funds"})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := client.Collect(ctx, 100, "9000000001")
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if res.OK {
		t.Fatalf("declined payment must not be OK")
	}
	if res.Reason != "insufficient funds" {
		t.Fatalf("reason = %q, want insufficient funds", res.Reason)
	}
}

func TestCollect_EmptyReferenceRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Result{OK: true})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := client.Collect(ctx, 100, "9000000001")
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if res.OK {
		t.Fatalf("success without payment reference must be rejected")
	}
}

func TestCollect_NotConfigured(t *testing.T) {
	var client *Client

	_, err := client.Collect(context.Background(), 100, "9000000001")
	if err == nil {
		t.Fatalf("expected error for unconfigured client")
	}
}
