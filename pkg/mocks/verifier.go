package mocks

import (
	"context"
	"sync"

	"github.com/user/certscan/pkg/ports"
)

// Verifier is a mock implementation of ports.Verifier.
type Verifier struct {
	mu sync.Mutex

	VerifyFunc func(ctx context.Context, code string) (*ports.CertificateSummary, error)

	codes  []string
	called chan string
}

// NewVerifier creates a verifier that accepts every code as an unused certificate.
func NewVerifier() *Verifier {
	return &Verifier{called: make(chan string, 16)}
}

func (m *Verifier) Verify(ctx context.Context, code string) (*ports.CertificateSummary, error) {
	m.mu.Lock()
	m.codes = append(m.codes, code)
	m.mu.Unlock()
	select {
	case m.called <- code:
	default:
	}

	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, code)
	}
	used := false
	return &ports.CertificateSummary{ID: code, IsUsed: &used}, nil
}

// Codes returns the codes passed to Verify, in order.
func (m *Verifier) Codes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.codes...)
}

// Called receives each code as Verify is entered.
func (m *Verifier) Called() <-chan string {
	return m.called
}

var _ ports.Verifier = (*Verifier)(nil)

// Activator is a mock implementation of ports.Activator.
type Activator struct {
	mu sync.Mutex

	ActivateFunc func(ctx context.Context, code string) error

	codes []string
}

func (m *Activator) Activate(ctx context.Context, code string) error {
	m.mu.Lock()
	m.codes = append(m.codes, code)
	m.mu.Unlock()
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, code)
	}
	return nil
}

// Codes returns the codes passed to Activate, in order.
func (m *Activator) Codes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.codes...)
}

var _ ports.Activator = (*Activator)(nil)

// Navigator is a mock implementation of ports.Navigator.
type Navigator struct {
	mu    sync.Mutex
	shown []string
	last  *ports.CertificateSummary
	done  chan struct{}
	once  sync.Once
}

// NewNavigator creates a navigator whose Done channel closes on the first navigation.
func NewNavigator() *Navigator {
	return &Navigator{done: make(chan struct{})}
}

func (m *Navigator) ShowCertificate(code string, summary *ports.CertificateSummary) {
	m.mu.Lock()
	m.shown = append(m.shown, code)
	m.last = summary
	m.mu.Unlock()
	m.once.Do(func() { close(m.done) })
}

// Shown returns the codes navigated to, in order.
func (m *Navigator) Shown() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.shown...)
}

// Last returns the summary passed to the most recent navigation.
func (m *Navigator) Last() *ports.CertificateSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Done is closed after the first navigation.
func (m *Navigator) Done() <-chan struct{} {
	return m.done
}

var _ ports.Navigator = (*Navigator)(nil)
