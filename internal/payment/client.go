// Package payment предоставляет клиент внешней платёжной системы.
// Конвейер заказов не проводит оплату сам: он передаёт итоговую сумму
// и получает либо непустую платёжную ссылку, либо отказ. Без ссылки
// заказ не создаётся.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrNotConfigured возвращается, если адрес платёжной системы не задан.
var ErrNotConfigured = errors.New("payment client not configured")

// Client инкапсулирует HTTP-взаимодействие с платёжной системой.
// Сетевые сбои ретраятся; отказ платежа ошибкой не считается и
// возвращается как Result с заполненной причиной.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// Result — узкий результат платёжного рукопожатия: либо успех с
// непустой платёжной ссылкой, либо отказ с причиной.
type Result struct {
	OK               bool   `json:"ok"`
	PaymentReference string `json:"paymentReference,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

type collectRequest struct {
	Amount         int64  `json:"amount"`
	Phone          string `json:"phone"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// NewClient создаёт HTTP-клиент платёжной системы по указанному адресу.
func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: rc,
	}
}

// Collect запрашивает списание указанной суммы. Успех — Result с
// непустой платёжной ссылкой; отказ — Result с причиной; ошибка
// возвращается только при недоступности системы или неожиданном ответе.
func (c *Client) Collect(ctx context.Context, amount int64, phone string) (*Result, error) {
	if c == nil || c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	body, err := json.Marshal(collectRequest{
		Amount:         amount,
		Phone:          phone,
		IdempotencyKey: uuid.New().String(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, base+"/api/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result Result
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if result.OK && result.PaymentReference == "" {
			// Успех без платёжной ссылки не принимается
			return &Result{Reason: "empty payment reference"}, nil
		}
		return &result, nil

	case http.StatusPaymentRequired:
		var result Result
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return &Result{Reason: "payment declined"}, nil
		}
		result.OK = false
		return &result, nil

	default:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
}
