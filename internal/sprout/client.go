// Package sprout implements the downstream HTTP call to the SIP router
// notifying it of deregistrations discovered via an inbound RTR (C8).
package sprout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clearwater-ims/homestead/internal/circuitbreaker"
	"github.com/clearwater-ims/homestead/internal/httputil"
	"github.com/clearwater-ims/homestead/internal/metrics"
)

// Registration identifies one IRS by its default IMPU for a deregister call.
type Registration struct {
	PrimaryIMPU string `json:"primary-impu"`
}

// DeregisterRequest is the body of the downstream DELETE /registrations call.
type DeregisterRequest struct {
	Registrations []Registration `json:"registrations"`
	IMPIs         []string       `json:"impis,omitempty"`
}

// Client calls the SIP router's deregistration endpoint. It does not retry:
// the call is a single synchronous attempt whose HTTP result determines the
// RTA outcome.
type Client struct {
	baseURL  string
	http     *http.Client
	breakers *circuitbreaker.Manager
	metrics  *metrics.Metrics
}

// New builds a sprout Client against baseURL with the given timeout,
// wrapped in the ServiceSprout circuit breaker.
func New(baseURL string, timeout time.Duration, breakers *circuitbreaker.Manager, m *metrics.Metrics) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     httputil.NewClient(timeout),
		breakers: breakers,
		metrics:  m,
	}
}

// Deregister notifies the SIP router to drop bindings for the given IRS
// default IMPUs, listing impis (if any) in the request body as well; the
// caller decides which IMPIs to pass. sendNotifications controls the
// send-notifications query parameter: true instructs Sprout to emit SIP
// NOTIFYs for the affected subscriptions.
func (c *Client) Deregister(ctx context.Context, impus []string, impis []string, sendNotifications bool) error {
	start := time.Now()

	regs := make([]Registration, 0, len(impus))
	for _, impu := range impus {
		regs = append(regs, Registration{PrimaryIMPU: impu})
	}
	body, err := json.Marshal(DeregisterRequest{Registrations: regs, IMPIs: impis})
	if err != nil {
		return fmt.Errorf("sprout: marshal deregister body: %w", err)
	}

	url := fmt.Sprintf("%s/registrations?send-notifications=%t", c.baseURL, sendNotifications)

	_, err = c.breakers.Execute(circuitbreaker.ServiceSprout, func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("sprout: deregister returned status %d", resp.StatusCode)
		}
		return nil, nil
	})

	result := "success"
	if err != nil {
		result = "failure"
	}
	if c.metrics != nil {
		c.metrics.ObserveSproutNotify(result, time.Since(start))
	}
	return err
}
