// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notify delivers user-facing messages through the notification gateway.

The gateway is an internal REST service fronting the WhatsApp Business API.
This package only knows how to post template messages to it; the templates
themselves are managed on the gateway side.
*/
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// templateMessagePath is the gateway endpoint for template sends.
	templateMessagePath = "/api/v1/notify/whatsapp/template_message/"

	// resetCodeTemplate is the registered WhatsApp template that delivers a
	// one-time login code to the mobile app.
	resetCodeTemplate = "codigo_cc_gp_codigo_de_ingreso_a_app_movil"

	// phoneCountryPrefix is prepended to stored 10-digit phone numbers.
	phoneCountryPrefix = "+521"

	requestTimeout = 10 * time.Second
)

// WhatsAppSender posts template messages to the notification gateway.
type WhatsAppSender struct {
	baseURL    string
	httpClient *http.Client
}

// NewWhatsAppSender creates a sender targeting the given gateway base URL.
func NewWhatsAppSender(baseURL string) *WhatsAppSender {
	return &WhatsAppSender{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// templateMessage is the gateway's template-send payload.
type templateMessage struct {
	TemplateName string            `json:"template_name"`
	Phone        string            `json:"phone"`
	Params       map[string]string `json:"params"`
}

/*
SendResetCode delivers a password reset code to the user's WhatsApp number.

Delivery failures are returned to the caller: the reset flow must not report
success when the code never left the building.

Parameters:
  - context: context.Context
  - phone: string (10-digit local number as stored on the user record)
  - code: string (numeric reset code)

Returns:
  - error: Request construction, transport, or gateway failures
*/
func (sender *WhatsAppSender) SendResetCode(context context.Context, phone, code string) error {
	payload := templateMessage{
		TemplateName: resetCodeTemplate,
		Phone:        phoneCountryPrefix + phone,
		Params:       map[string]string{"codigo": code},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify_marshal_failed: %w", err)
	}

	request, err := http.NewRequestWithContext(context, http.MethodPost, sender.baseURL+templateMessagePath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify_request_build_failed: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := sender.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("notify_send_failed: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
		return fmt.Errorf("notify: gateway returned %d: %s", response.StatusCode, string(detail))
	}

	return nil
}
