package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/nkengderick/nkengdev/internal/telemetry/tracing"
)

// EmailClient talks to a Resend compatible email API.
type EmailClient struct {
	baseEndpoint string
	apiKey       string
	httpClient   *http.Client
}

func NewEmailClient(baseEndpoint, apiKey string, httpClient *http.Client) *EmailClient {
	return &EmailClient{
		baseEndpoint: baseEndpoint,
		apiKey:       apiKey,
		httpClient:   httpClient,
	}
}

type SendEmailParams struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendEmailResponse struct {
	ID string `json:"id"`
}

// SendEmail posts a single email to the API and returns the message id.
func (c *EmailClient) SendEmail(ctx context.Context, params SendEmailParams) (string, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "emailClient.sendEmail")
	defer span.End()
	span.SetAttributes(attribute.String("email.subject", params.Subject))

	payload, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal email payload: %w", err)
	}

	url := fmt.Sprintf("%s/emails", c.baseEndpoint)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("send email: %s", err))
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read email api response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("email api status %d", resp.StatusCode))
		return "", fmt.Errorf("email api returned status %d: %s", resp.StatusCode, respBytes)
	}

	var sendResp sendEmailResponse
	if err := json.Unmarshal(respBytes, &sendResp); err != nil {
		return "", fmt.Errorf("unmarshal email api response: %w", err)
	}

	log.Debugf("email sent, id: %s, subject: %s", sendResp.ID, params.Subject)

	return sendResp.ID, nil
}
