// Package payment wraps the external payment processor behind a narrow interface.
package payment

import (
	"context"
	"encoding/json"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type Gateway interface {
	// Initialize opens a transaction for amountMinor (the gateway's minor unit) and returns
	// the URL the buyer is redirected to.
	Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
}

type InitializeRequest struct {
	Email       string
	AmountMinor int64
	CallbackURL string
	Metadata    map[string]string
}

type Initialization struct {
	AuthorizationURL string
	Reference        string
	AccessCode       string
}

type Verification struct {
	Status      string
	Reference   string
	AmountMinor int64
	Raw         json.RawMessage
}

func (v *Verification) Succeeded() bool {
	return v != nil && v.Status == StatusSuccess
}
