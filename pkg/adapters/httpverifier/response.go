package httpverifier

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/user/certscan/pkg/ports"
)

// certificateResponse is the verify payload as the API sends it. Dates arrive in
// several layouts and "user" is either an object or a bare name.
type certificateResponse struct {
	ID             string          `json:"id"`
	IsUsed         *bool           `json:"isUsed"`
	User           json.RawMessage `json:"user"`
	BuyDate        string          `json:"buyDate"`
	ExpirationDate string          `json:"expirationDate"`
	Type           string          `json:"type"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006.01.02",
}

func (r certificateResponse) summary() *ports.CertificateSummary {
	return &ports.CertificateSummary{
		ID:             r.ID,
		IsUsed:         r.IsUsed,
		Owner:          parseOwner(r.User),
		BuyDate:        parseDate(r.BuyDate),
		ExpirationDate: parseDate(r.ExpirationDate),
		Type:           r.Type,
	}
}

func parseOwner(raw json.RawMessage) ports.Owner {
	var owner ports.Owner
	if len(raw) == 0 {
		return owner
	}
	if err := json.Unmarshal(raw, &owner); err == nil {
		return owner
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		owner.Name = name
	}
	return owner
}

// parseDate returns the zero time for missing or unparseable values.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
