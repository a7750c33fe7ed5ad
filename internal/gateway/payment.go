package gateway

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/baharkarakas/dragonpay-gateway/internal/dragonpay"
	"github.com/shopspring/decimal"
)

// PaymentRequest describes a payment the customer is redirected to pay.
type PaymentRequest struct {
	TxnID       string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Email       string
	Param1      string
	Param2      string
	Mode        dragonpay.PaymentMethod
}

// PaymentURL builds the Pay.aspx redirect. The request digest covers
// merchantid, txnid, amount, ccy, description and email in that order.
func (c *Client) PaymentURL(req PaymentRequest) (string, error) {
	if err := dragonpay.Require(
		"txn_id", req.TxnID,
		"currency", req.Currency,
		"description", req.Description,
		"email", req.Email,
	); err != nil {
		return "", err
	}
	if !req.Amount.IsPositive() {
		return "", &dragonpay.ValidationError{Fields: []dragonpay.FieldError{{Field: "amount", Reason: "must be > 0"}}}
	}

	amount := req.Amount.StringFixed(2)
	v := url.Values{}
	v.Set("merchantid", c.cfg.MerchantID)
	v.Set("txnid", req.TxnID)
	v.Set("amount", amount)
	v.Set("ccy", req.Currency)
	v.Set("description", req.Description)
	v.Set("email", req.Email)
	v.Set("digest", c.digester.Compute(c.cfg.MerchantID, req.TxnID, amount, req.Currency, req.Description, req.Email))

	// Params are echoed back in the callback, so the value sent must fit the
	// callback limit.
	ve := &dragonpay.ValidationError{}
	for _, p := range []struct{ key, val string }{{"param1", req.Param1}, {"param2", req.Param2}} {
		if p.val == "" {
			continue
		}
		val := p.val
		if c.cfg.EncryptParams {
			if c.codec == nil {
				return "", fmt.Errorf("%s: param encryption enabled without a codec", p.key)
			}
			enc, err := c.codec.Encrypt(p.val)
			if err != nil {
				return "", fmt.Errorf("encrypt %s: %w", p.key, err)
			}
			val = enc
		}
		ve.MaxLen(p.key, val, dragonpay.MaxParamLen)
		v.Set(p.key, val)
	}
	if err := ve.Err(); err != nil {
		return "", err
	}
	if req.Mode != 0 {
		v.Set("mode", strconv.Itoa(int(req.Mode)))
	}
	return c.cfg.BaseURL + "/Pay.aspx?" + v.Encode(), nil
}
