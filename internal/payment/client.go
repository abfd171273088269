package payment

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

type AddressRequest struct {
	Coin          string
	CallbackURL   string
	PayoutAddress string
}

// Address is the processor's answer to a create call: a one-off deposit
// address that forwards to our payout address and calls back on every
// confirmation.
type Address struct {
	Status             string  `json:"status"`
	AddressIn          string  `json:"address_in"`
	AddressOut         string  `json:"address_out"`
	MinimumTransaction float64 `json:"minimum_transaction_coin"`
	Error              string  `json:"error,omitempty"`
}

// AddressCreator is implemented by CryptoClient and faked in tests.
type AddressCreator interface {
	CreateAddress(ctx context.Context, req AddressRequest) (*Address, error)
}

type CryptoClient struct {
	http *resty.Client
}

func NewCryptoClient(baseURL string, timeout time.Duration) *CryptoClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "overlaykit-api")
	return &CryptoClient{http: c}
}

func (c *CryptoClient) CreateAddress(ctx context.Context, req AddressRequest) (*Address, error) {
	var out Address
	var fail Address

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("coin", req.Coin).
		SetQueryParams(map[string]string{
			"callback":      req.CallbackURL,
			"address":       req.PayoutAddress,
			"pending":       "1",
			"confirmations": strconv.Itoa(1),
			"json":          "1",
		}).
		SetResult(&out).
		SetError(&fail).
		Get("/{coin}/create/")
	if err != nil {
		return nil, &ExternalServiceError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}

	if resp.IsError() {
		msg := fail.Error
		if msg == "" {
			msg = resp.Status()
		}
		return nil, &ExternalServiceError{StatusCode: resp.StatusCode(), Message: msg}
	}

	if out.Status != "success" || out.AddressIn == "" {
		msg := out.Error
		if msg == "" {
			msg = "processor did not return a deposit address"
		}
		return nil, &ExternalServiceError{StatusCode: resp.StatusCode(), Message: msg}
	}

	return &out, nil
}
