package paymob

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// WebhookHMACValues pulls the signature fields out of a raw webhook body in
// signature order. Numbers keep their original textual form, booleans become
// "true"/"false", missing fields become "".
func WebhookHMACValues(body []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload struct {
		Obj map[string]interface{} `json:"obj"`
	}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode webhook body: %w", err)
	}
	if payload.Obj == nil {
		return nil, fmt.Errorf("webhook body has no obj")
	}

	values := make([]string, 0, len(hmacFields))
	for _, field := range hmacFields {
		values = append(values, lookupPath(payload.Obj, field))
	}
	return values, nil
}

// RedirectHMACValues pulls the same fields from redirect query parameters,
// where nested paths arrive flattened ("order.id" becomes "order").
func RedirectHMACValues(query url.Values) []string {
	values := make([]string, 0, len(hmacFields))
	for _, field := range hmacFields {
		name := field
		if name == "order.id" {
			name = "order"
		}
		values = append(values, query.Get(name))
	}
	return values
}

func lookupPath(obj map[string]interface{}, path string) string {
	parts := strings.Split(path, ".")
	var current interface{} = obj
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current, ok = m[part]
		if !ok {
			return ""
		}
	}

	switch v := current.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
