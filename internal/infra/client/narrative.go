// Package client holds HTTP adapters for outbound services.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/smartsave-bfa-go/internal/domain"
	"github.com/boddenberg/smartsave-bfa-go/internal/infra/resilience"
)

var tracer = otel.Tracer("client")

const narrativeService = "narrative"

// NarrativeClient calls the AI narrative service.
type NarrativeClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewNarrativeClient creates a new NarrativeClient.
func NewNarrativeClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *NarrativeClient {
	return &NarrativeClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		cfg:        cfg,
	}
}

// Narrate sends the analysis summary and returns the generated narrative.
func (c *NarrativeClient) Narrate(ctx context.Context, req *domain.NarrativeRequest) (*domain.NarrativeResponse, error) {
	ctx, span := tracer.Start(ctx, "NarrativeClient.Narrate")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", req.UserID),
		attribute.Int("flags.count", len(req.Flags)),
	)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode narrative request: %w", err)
	}

	result, err := c.cb.Execute(func() (any, error) {
		var narrative domain.NarrativeResponse
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/v1/narratives", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return resilience.Permanent(err)
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				io.Copy(io.Discard, resp.Body)
				statusErr := fmt.Errorf("narrative API returned status %d", resp.StatusCode)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
					return resilience.Permanent(statusErr)
				}
				return statusErr
			}

			narrative = domain.NarrativeResponse{}
			if err := json.NewDecoder(resp.Body).Decode(&narrative); err != nil {
				return resilience.Permanent(fmt.Errorf("decode narrative response: %w", err))
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &narrative, nil
	})

	if err != nil {
		span.RecordError(err)
		return nil, resilience.Translate(narrativeService, err)
	}

	return result.(*domain.NarrativeResponse), nil
}
