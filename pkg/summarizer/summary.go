// Package summarizer provides run reports for scan results.
package summarizer

import (
	"time"

	"github.com/user/certscan/pkg/ports"
)

// DateLayout renders certificate dates as YYYY.MM.DD.
const DateLayout = "2006.01.02"

// FormatDate renders t with DateLayout, or "-" when it is unset.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateLayout)
}

// Summary contains all data collected during one scan run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `json:"generatedAt"`

	Device DeviceInfo `json:"device"`
	Scan   ScanInfo   `json:"scan"`

	// Certificate is nil when no code was verified.
	Certificate *CertificateInfo `json:"certificate,omitempty"`
}

// DeviceInfo describes the capture device.
type DeviceInfo struct {
	Name        string `json:"name"`
	Facing      string `json:"facing"`
	IdealWidth  int    `json:"idealWidth"`
	IdealHeight int    `json:"idealHeight"`
}

// ScanInfo contains the sampling counters and phase durations.
type ScanInfo struct {
	Outcome  string `json:"outcome"`
	Error    string `json:"error,omitempty"`
	Ticks    int    `json:"ticks"`
	NotReady int    `json:"notReady"`
	Misses   int    `json:"misses"`
	ReadyMs  int64  `json:"readyMs"`
	DecodeMs int64  `json:"decodeMs"`
	VerifyMs int64  `json:"verifyMs"`
}

// CertificateInfo contains the verified certificate as the detail view shows it.
type CertificateInfo struct {
	Code           string    `json:"code"`
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Usage          string    `json:"usage"`
	OwnerName      string    `json:"ownerName"`
	OwnerEmail     string    `json:"ownerEmail"`
	OwnerPhone     string    `json:"ownerPhone"`
	BuyDate        time.Time `json:"buyDate"`
	ExpirationDate time.Time `json:"expirationDate"`
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithDevice sets the capture device and the requested constraints.
func (b *Builder) WithDevice(name string, c ports.Constraints) *Builder {
	b.summary.Device = DeviceInfo{
		Name:        name,
		Facing:      string(c.Facing),
		IdealWidth:  c.IdealWidth,
		IdealHeight: c.IdealHeight,
	}
	return b
}

// WithScan sets the scan counters and durations.
func (b *Builder) WithScan(scan ScanInfo) *Builder {
	b.summary.Scan = scan
	return b
}

// WithCertificate sets the verified certificate.
func (b *Builder) WithCertificate(code string, cert *ports.CertificateSummary) *Builder {
	if cert == nil {
		return b
	}
	b.summary.Certificate = &CertificateInfo{
		Code:           code,
		ID:             cert.ID,
		Type:           cert.Type,
		Usage:          cert.UsageLabel(),
		OwnerName:      cert.Owner.Name,
		OwnerEmail:     cert.Owner.Email,
		OwnerPhone:     cert.Owner.Phone,
		BuyDate:        cert.BuyDate,
		ExpirationDate: cert.ExpirationDate,
	}
	return b
}

// WithError records why the run did not complete.
func (b *Builder) WithError(err error) *Builder {
	if err != nil {
		b.summary.Scan.Error = err.Error()
	}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
