package termview

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/user/certscan/pkg/ports"
	"github.com/user/certscan/pkg/scan"
)

// Bridge forwards controller callbacks into a running program. It is the
// controller's Navigator and Observer; messages sent before Attach are dropped.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
}

// Attach sets the program messages are sent to.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

// Observe sends a state change to the program.
func (b *Bridge) Observe(s scan.State) {
	b.send(StateMsg(s))
}

// ShowCertificate sends the handed-off certificate to the program.
func (b *Bridge) ShowCertificate(code string, summary *ports.CertificateSummary) {
	b.send(CertificateMsg{Code: code, Summary: summary})
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

var _ ports.Navigator = (*Bridge)(nil)
