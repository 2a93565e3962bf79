package sms

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Client talks to the SMS gateway's REST API.
type Client struct {
	http *resty.Client
	from string
}

type SendResult struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type sendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

type apiError struct {
	Message string `json:"message"`
}

func NewClient(baseURL, token, from string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json")

	return &Client{http: http, from: from}
}

// From returns the configured sender number.
func (c *Client) From() string { return c.from }

// Send delivers one message and returns the gateway's message SID.
func (c *Client) Send(ctx context.Context, to, body string) (*SendResult, error) {
	var (
		result SendResult
		apiErr apiError
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendRequest{From: c.from, To: to, Body: body}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/messages")
	if err != nil {
		return nil, fmt.Errorf("sms gateway request: %w", err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return nil, fmt.Errorf("sms gateway: %s", apiErr.Message)
		}
		return nil, fmt.Errorf("sms gateway: status %d", resp.StatusCode())
	}

	return &result, nil
}
