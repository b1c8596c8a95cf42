// Package gateway 行動支付閘道（M-Pesa / Airtel Money STK push）的 HTTP client。
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tour-booking/config"
	"tour-booking/internal/model"
	apperrors "tour-booking/pkg/app_errors"
	"tour-booking/pkg/logger"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const pushPath = "/v1/payments/push"

type PushRequest struct {
	IdempotencyKey string              `json:"idempotency_key"`
	BookingID      int                 `json:"booking_id"`
	Amount         float64             `json:"amount"`
	Currency       string              `json:"currency"`
	PhoneNumber    string              `json:"phone_number"`
	Method         model.PaymentMethod `json:"method"`
}

type PushResult struct {
	Status      model.PaymentStatus `json:"status"`
	ProviderRef string              `json:"provider_ref"`
	Message     string              `json:"message,omitempty"`
}

type PaymentGateway interface {
	// 推播付款並等待使用者確認；拒付回傳 ErrPaymentDeclined，其餘失敗回傳 ErrServiceUnavailable
	Push(ctx context.Context, req PushRequest) (*PushResult, error)
}

type MobileMoneyClientImpl struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	tracer     trace.Tracer
	log        *zap.Logger
}

func NewMobileMoneyClient(cfg config.PaymentConfig) PaymentGateway {
	log := logger.WithComponent("gateway")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mobile-money",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 拒付是正常業務結果，不算閘道故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, apperrors.ErrPaymentDeclined)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &MobileMoneyClientImpl{
		baseURL:    strings.TrimRight(cfg.GatewayURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		tracer:     otel.Tracer("tour-booking/gateway"),
		log:        log,
	}
}

func (c *MobileMoneyClientImpl) Push(ctx context.Context, req PushRequest) (*PushResult, error) {
	ctx, span := c.tracer.Start(ctx, "MobileMoneyClient.Push", trace.WithAttributes(
		attribute.Int("booking.id", req.BookingID),
		attribute.String("payment.method", string(req.Method)),
	))
	defer span.End()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.push(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: payment gateway circuit open", apperrors.ErrServiceUnavailable)
		}
		span.SetStatus(codes.Error, err.Error())
		c.log.Warn("payment push failed", zap.Int("booking_id", req.BookingID), zap.Error(err))
		return nil, err
	}

	span.SetStatus(codes.Ok, "completed")
	return result.(*PushResult), nil
}

func (c *MobileMoneyClientImpl) push(ctx context.Context, req PushRequest) (*PushResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal push request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pushPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build push request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", apperrors.ErrServiceUnavailable, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: gateway returned %d", apperrors.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: gateway returned %d: %s", apperrors.ErrPaymentDeclined, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var result PushResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", apperrors.ErrServiceUnavailable, err)
	}

	switch result.Status {
	case model.PaymentStatusCompleted:
		return &result, nil
	case model.PaymentStatusDeclined:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPaymentDeclined, result.Message)
	default:
		return nil, fmt.Errorf("%w: unexpected payment status %q", apperrors.ErrServiceUnavailable, result.Status)
	}
}
