package dragonpay

import "strings"

// Status is the single-letter status code reported by Dragonpay.
type Status string

const (
	StatusSuccess    Status = "S"
	StatusFailed     Status = "F"
	StatusPending    Status = "P"
	StatusUnknown    Status = "U"
	StatusRefund     Status = "R"
	StatusChargeback Status = "K"
	StatusVoided     Status = "V"
	StatusAuthorized Status = "A"
	StatusInProgress Status = "G"
)

// Appendix 3 of the Dragonpay API documentation.
var statusLabels = map[Status]string{
	StatusSuccess:    "Success",
	StatusFailed:     "Failed",
	StatusPending:    "Pending",
	StatusUnknown:    "Unknown",
	StatusRefund:     "Refund",
	StatusChargeback: "Chargeback",
	StatusVoided:     "Voided",
	StatusAuthorized: "Authorized",
	StatusInProgress: "In progress",
}

var (
	TransactionStatuses = []Status{
		StatusSuccess, StatusFailed, StatusPending, StatusUnknown,
		StatusRefund, StatusChargeback, StatusVoided, StatusAuthorized,
	}
	PayoutStatuses = []Status{
		StatusSuccess, StatusFailed, StatusPending, StatusInProgress, StatusVoided,
	}
	CompletedPayoutStatuses = []Status{StatusSuccess, StatusFailed, StatusVoided}
)

// StatusLabel translates a status code. Unknown codes return a *LookupError.
func StatusLabel(code string) (string, error) {
	if l, ok := statusLabels[Status(code)]; ok {
		return l, nil
	}
	return "", &LookupError{Table: "status", Code: code}
}

// String returns the human label, or the raw code when it is not in the registry.
func (s Status) String() string {
	if l, err := StatusLabel(string(s)); err == nil {
		return l
	}
	return string(s)
}

func (s Status) In(set []Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func (s Status) IsTransactionStatus() bool { return s.In(TransactionStatuses) }
func (s Status) IsPayoutStatus() bool      { return s.In(PayoutStatuses) }

// ParseStatus normalizes a raw gateway code and checks it against the registry.
func ParseStatus(raw string) (Status, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if _, err := StatusLabel(code); err != nil {
		return "", err
	}
	return Status(code), nil
}

// Appendix 2 of the Dragonpay API documentation.
var paymentErrorLabels = map[string]string{
	"000": "Success",
	"101": "Invalid payment gateway id",
	"102": "Incorrect secret key",
	"103": "Invalid reference number",
	"104": "Unauthorized access",
	"105": "Invalid token",
	"106": "Currency not supported",
	"107": "Transaction cancelled",
	"108": "Insufficient funds",
	"109": "Transaction limit exceeded",
	"110": "Error in operation",
	"111": "Invalid parameters",
	"201": "Invalid Merchant Id",
	"202": "Invalid Merchant Password",
}

var payoutErrorLabels = map[string]string{
	"0":  "Successfully created payout request",
	"-1": "Invalid credentials or apiKey",
	"-2": "(reserved)",
	"-3": "(reserved)",
	"-4": "Unable to create payout transaction (internal error)",
	"-5": "Invalid account no / details",
	"-6": "Invalid pre-dated run date",
	"-7": "Amount exceeds limit for payout channel",
	"-8": "A payout has been previously requested for the same merchant txn id",
}

func PaymentErrorLabel(code string) (string, error) {
	if l, ok := paymentErrorLabels[code]; ok {
		return l, nil
	}
	return "", &LookupError{Table: "payment_error", Code: code}
}

func PayoutErrorLabel(code string) (string, error) {
	if l, ok := payoutErrorLabels[code]; ok {
		return l, nil
	}
	return "", &LookupError{Table: "payout_error", Code: code}
}

// PaymentMethod is a channel filter passed to the gateway as the "mode"
// parameter. Values combine with bitwise OR.
type PaymentMethod int

const (
	OnlineBanking PaymentMethod = 1
	OTCBank       PaymentMethod = 2
	OTCNonBank    PaymentMethod = 4
	// 8 unused, 16 reserved by the gateway
	PayPal           PaymentMethod = 32
	CreditCards      PaymentMethod = 64
	Mobile           PaymentMethod = 128
	InternationalOTC PaymentMethod = 256
)

// Processor is a payout bank or channel code.
type Processor string

var processorLabels = map[Processor]string{
	"BDO":  "Banco De Oro",
	"BPI":  "Bank of the Philippine Islands",
	"CBC":  "Chinabank",
	"EWB":  "East West Bank",
	"LBP":  "Land Bank of the Philippines",
	"MBTC": "Metrobank",
	"PNB":  "Philippine National Bank",
	"RCBC": "RCBC",
	"SBC":  "Security Bank",
	"UBP":  "Union Bank",
	"UCPB": "UCPB",
	"PSB":  "PS Bank",
	"CEBL": "Cebuana Lhuilier",
	"GCSH": "GCash",
	"SMRT": "Smart Money",
}

func ProcessorLabel(code string) (string, error) {
	if l, ok := processorLabels[Processor(code)]; ok {
		return l, nil
	}
	return "", &LookupError{Table: "processor", Code: code}
}
