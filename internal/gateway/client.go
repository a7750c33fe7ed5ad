package gateway

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/baharkarakas/dragonpay-gateway/internal/config"
	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/baharkarakas/dragonpay-gateway/internal/metrics"
	"github.com/go-resty/resty/v2"
)

const payoutNamespace = "http://api.dragonpay.ph/"

var numericCode = regexp.MustCompile(`^-?\d+$`)

// Client talks to the Dragonpay merchant and payout services. Every call has
// a bounded timeout, limited retries with backoff and a circuit breaker.
type Client struct {
	http     *resty.Client
	merchant *breaker
	payout   *breaker
	cfg      config.Dragonpay
	digester dragonpay.Digester
	codec    dragonpay.ParamCodec
	log      *slog.Logger
}

// New builds a client. codec is only used when cfg.EncryptParams is set.
func New(cfg config.Dragonpay, codec dragonpay.ParamCodec, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	hc := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{
		http:     hc,
		merchant: newBreaker("dragonpay-merchant", log),
		payout:   newBreaker("dragonpay-payout", log),
		cfg:      cfg,
		digester: dragonpay.NewDigester(cfg.SecretKey, dragonpay.DigestMode(cfg.DigestMode)),
		codec:    codec,
		log:      log,
	}
}

// GetTransactionStatus asks the merchant service for the status of a payment.
func (c *Client) GetTransactionStatus(ctx context.Context, txnID string) (dragonpay.Status, error) {
	body, err := c.merchant.run(func() (string, error) {
		return c.call(ctx, "get_txn_status", func(r *resty.Request) (*resty.Response, error) {
			return r.SetQueryParams(map[string]string{
				"op":          "GETSTATUS",
				"merchantid":  c.cfg.MerchantID,
				"merchantpwd": c.cfg.MerchantPassword,
				"txnid":       txnID,
			}).Get(c.cfg.BaseURL + "/MerchantRequest.aspx")
		})
	})
	if err != nil {
		return "", err
	}

	code := strings.TrimSpace(body)
	if numericCode.MatchString(code) {
		label, _ := dragonpay.PaymentErrorLabel(code)
		return "", &Error{Op: "GETSTATUS", Code: code, Label: label}
	}
	return dragonpay.Status(strings.ToUpper(code)), nil
}

type soapEnvelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	Soap    string   `xml:"xmlns:soap,attr"`
	Body    soapBody `xml:"soap:Body"`
}

type soapBody struct {
	Request getMerchantTxnStatus
}

type getMerchantTxnStatus struct {
	XMLName       xml.Name `xml:"GetMerchantTxnStatus"`
	Xmlns         string   `xml:"xmlns,attr"`
	APIKey        string   `xml:"apiKey"`
	MerchantTxnID string   `xml:"merchantTxnId"`
}

type getMerchantTxnStatusResponse struct {
	Result string `xml:"Body>GetMerchantTxnStatusResponse>GetMerchantTxnStatusResult"`
}

// GetPayoutStatus asks the payout service for the status of a payout. An
// empty status means the gateway has no answer yet.
func (c *Client) GetPayoutStatus(ctx context.Context, txnID string) (dragonpay.Status, error) {
	env := soapEnvelope{
		Soap: "http://schemas.xmlsoap.org/soap/envelope/",
		Body: soapBody{Request: getMerchantTxnStatus{
			Xmlns:         payoutNamespace,
			APIKey:        c.cfg.PayoutAPIKey,
			MerchantTxnID: txnID,
		}},
	}
	payload, err := xml.Marshal(env)
	if err != nil {
		return "", err
	}

	body, err := c.payout.run(func() (string, error) {
		return c.call(ctx, "get_payout_status", func(r *resty.Request) (*resty.Response, error) {
			return r.
				SetHeader("Content-Type", "text/xml; charset=utf-8").
				SetHeader("SOAPAction", payoutNamespace+"GetMerchantTxnStatus").
				SetBody(append([]byte(xml.Header), payload...)).
				Post(c.cfg.PayoutURL)
		})
	})
	if err != nil {
		return "", err
	}

	var resp getMerchantTxnStatusResponse
	if err := xml.Unmarshal([]byte(body), &resp); err != nil {
		return "", fmt.Errorf("decode payout status: %w", err)
	}
	code := strings.TrimSpace(resp.Result)
	if numericCode.MatchString(code) {
		label, _ := dragonpay.PayoutErrorLabel(code)
		return "", &Error{Op: "GetMerchantTxnStatus", Code: code, Label: label}
	}
	return dragonpay.Status(strings.ToUpper(code)), nil
}

// call runs one HTTP request and records metrics. Non-2xx answers are errors.
func (c *Client) call(ctx context.Context, op string, do func(*resty.Request) (*resty.Response, error)) (string, error) {
	start := time.Now()
	resp, err := do(c.http.R().SetContext(ctx))
	metrics.GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(op, "error").Inc()
		return "", fmt.Errorf("%s: %w: %w", op, ErrRequestFailed, err)
	}
	if resp.IsError() {
		metrics.GatewayRequests.WithLabelValues(op, "http_"+strconv.Itoa(resp.StatusCode())).Inc()
		return "", fmt.Errorf("%s: %w: status %d", op, ErrRequestFailed, resp.StatusCode())
	}
	metrics.GatewayRequests.WithLabelValues(op, "ok").Inc()
	c.log.Debug("gateway call", "op", op, "status", resp.StatusCode(), "elapsed", time.Since(start))
	return resp.String(), nil
}
