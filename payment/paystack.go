package payment

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

var (
	ErrGatewayRejected = errors.New("payment gateway rejected the request")
	ErrGatewayResponse = errors.New("invalid response from payment gateway")
)

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

type Paystack struct {
	client *resty.Client
}

func NewPaystack(baseURL, secretKey string, timeout time.Duration) *Paystack {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(secretKey).
		SetHeaders(map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		})
	return &Paystack{client: client}
}

func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error) {
	body := map[string]any{
		"email":        req.Email,
		"amount":       req.AmountMinor,
		"callback_url": req.CallbackURL,
		"metadata":     req.Metadata,
	}

	var envelope paystackEnvelope
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&envelope).
		SetError(&envelope).
		Post("/transaction/initialize")
	if err != nil {
		return nil, errors.Wrap(err, "paystack initialize request failed")
	}
	if resp.IsError() {
		return nil, errors.Wrapf(ErrGatewayRejected, "initialize returned status %d: %s", resp.StatusCode(), envelope.Message)
	}
	if !envelope.Status {
		return nil, errors.Wrapf(ErrGatewayRejected, "initialize: %s", envelope.Message)
	}

	var data paystackInitData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, errors.Wrap(ErrGatewayResponse, err.Error())
	}
	if data.AuthorizationURL == "" || data.Reference == "" {
		return nil, errors.Wrap(ErrGatewayResponse, "authorization url or reference missing")
	}

	return &Initialization{
		AuthorizationURL: data.AuthorizationURL,
		Reference:        data.Reference,
		AccessCode:       data.AccessCode,
	}, nil
}

func (p *Paystack) Verify(ctx context.Context, reference string) (*Verification, error) {
	var envelope paystackEnvelope
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("reference", reference).
		SetResult(&envelope).
		SetError(&envelope).
		Get("/transaction/verify/{reference}")
	if err != nil {
		return nil, errors.Wrap(err, "paystack verify request failed")
	}
	if resp.IsError() {
		return nil, errors.Wrapf(ErrGatewayRejected, "verify returned status %d: %s", resp.StatusCode(), envelope.Message)
	}

	verification := &Verification{Status: StatusFailed, Reference: reference, Raw: json.RawMessage(resp.Body())}
	if !envelope.Status {
		return verification, nil
	}

	var data paystackVerifyData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, errors.Wrap(ErrGatewayResponse, err.Error())
	}
	if data.Status == StatusSuccess {
		verification.Status = StatusSuccess
	}
	if data.Reference != "" {
		verification.Reference = data.Reference
	}
	verification.AmountMinor = data.Amount
	return verification, nil
}
