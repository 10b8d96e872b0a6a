package payment

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/Hanafy91/buddytour/internal/domain"
)

// Notification is the single internal shape every inbound gateway event is
// normalized to before any business logic runs. The gateway delivers the
// same outcome over two channels (server webhook POST and browser redirect
// GET) with different payload layouts and an inconsistent choice of
// identifiers; normalization happens here, nowhere else.
type Notification struct {
	Type        string
	Pending     bool
	Success     bool
	AmountCents int64
	IDs         domain.CandidateIDs
	Billing     domain.Customer
	Raw         string
}

type webhookPayload struct {
	Type string `json:"type"`
	Obj  struct {
		ID          json.Number `json:"id"`
		Pending     bool        `json:"pending"`
		Success     bool        `json:"success"`
		AmountCents int64       `json:"amount_cents"`
		Order       struct {
			ID              json.Number `json:"id"`
			MerchantOrderID string      `json:"merchant_order_id"`
		} `json:"order"`
		PaymentKeyClaims struct {
			BillingData struct {
				FirstName   string `json:"first_name"`
				LastName    string `json:"last_name"`
				Email       string `json:"email"`
				PhoneNumber string `json:"phone_number"`
			} `json:"billing_data"`
		} `json:"payment_key_claims"`
	} `json:"obj"`
}

// NormalizeWebhook maps the gateway's POSTed transaction callback to the
// internal shape. A decode failure means the payload is malformed, not
// merely unresolvable.
func NormalizeWebhook(body []byte) (Notification, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Notification{}, err
	}

	n := Notification{
		Type:        p.Type,
		Pending:     p.Obj.Pending,
		Success:     p.Obj.Success,
		AmountCents: p.Obj.AmountCents,
		Raw:         string(body),
	}
	n.IDs.GatewayTransactionID = p.Obj.ID.String()
	n.IDs.GatewayOrderID = p.Obj.Order.ID.String()
	n.IDs.MerchantOrderID = p.Obj.Order.MerchantOrderID
	if n.IDs.GatewayTransactionID == "0" {
		n.IDs.GatewayTransactionID = ""
	}
	if n.IDs.GatewayOrderID == "0" {
		n.IDs.GatewayOrderID = ""
	}

	billing := p.Obj.PaymentKeyClaims.BillingData
	n.Billing.Email = billing.Email
	n.Billing.Phone = billing.PhoneNumber
	n.Billing.FullName = joinName(billing.FirstName, billing.LastName)
	return n, nil
}

// NormalizeRedirect maps the browser-redirect query string, where the same
// transaction fields arrive flat and stringly typed.
func NormalizeRedirect(values url.Values) Notification {
	n := Notification{
		Type:    values.Get("type"),
		Pending: values.Get("pending") == "true",
		Success: values.Get("success") == "true",
		Raw:     values.Encode(),
	}
	if n.Type == "" {
		n.Type = "TRANSACTION"
	}
	n.AmountCents, _ = strconv.ParseInt(values.Get("amount_cents"), 10, 64)
	n.IDs.GatewayTransactionID = values.Get("id")
	n.IDs.GatewayOrderID = values.Get("order")
	n.IDs.MerchantOrderID = values.Get("merchant_order_id")

	n.Billing.Email = values.Get("source_data.owner_email")
	n.Billing.FullName = joinName(values.Get("first_name"), values.Get("last_name"))
	return n
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
