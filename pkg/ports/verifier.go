package ports

import (
	"context"
	"time"
)

// Verifier checks a decoded code against the remote certificate service.
type Verifier interface {
	Verify(ctx context.Context, code string) (*CertificateSummary, error)
}

// Activator marks a verified certificate as used.
type Activator interface {
	Activate(ctx context.Context, code string) error
}

// Navigator receives the result of a successful handoff. The scanner has no
// further responsibility for a code once it has been shown.
type Navigator interface {
	ShowCertificate(code string, summary *CertificateSummary)
}

// CertificateSummary is the verification response consumed by the detail view.
type CertificateSummary struct {
	ID             string    `json:"id"`
	IsUsed         *bool     `json:"isUsed"`
	Owner          Owner     `json:"user"`
	BuyDate        time.Time `json:"buyDate"`
	ExpirationDate time.Time `json:"expirationDate"`
	Type           string    `json:"type"`
}

// Owner describes the certificate holder.
type Owner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"ownerPhone"`
}

// UsageLabel returns the usage flag as one of "used", "unused" or "unknown".
func (s *CertificateSummary) UsageLabel() string {
	switch {
	case s == nil || s.IsUsed == nil:
		return "unknown"
	case *s.IsUsed:
		return "used"
	default:
		return "unused"
	}
}
