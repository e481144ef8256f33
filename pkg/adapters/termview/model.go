// Package termview renders scan states in the terminal and relays the user's
// gestures back to the controller.
package termview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ideamans/go-l10n"

	"github.com/user/certscan/pkg/ports"
	"github.com/user/certscan/pkg/scan"
	"github.com/user/certscan/pkg/summarizer"
)

// Controls is the part of scan.Controller the view drives.
type Controls interface {
	Start()
	Restart()
}

// StateMsg carries a controller state into the program.
type StateMsg scan.State

// CertificateMsg carries the handed-off certificate into the program.
type CertificateMsg struct {
	Code    string
	Summary *ports.CertificateSummary
}

type activatedMsg struct {
	code string
	err  error
}

// DefaultActivateTimeout bounds the activation request.
const DefaultActivateTimeout = 15 * time.Second

// Model is the bubbletea model of the scanner.
type Model struct {
	controls  Controls
	activator ports.Activator
	keys      KeyMap
	spinner   spinner.Model

	state scan.State
	code  string
	cert  *ports.CertificateSummary

	activating bool
	activated  bool
	notice     string

	width    int
	quitting bool
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithActivator enables the activate key on the certificate view.
func WithActivator(a ports.Activator) ModelOption {
	return func(m *Model) { m.activator = a }
}

// WithKeyMap replaces the default bindings.
func WithKeyMap(k KeyMap) ModelOption {
	return func(m *Model) { m.keys = k }
}

// NewModel creates a view driving controls.
func NewModel(controls Controls, opts ...ModelOption) Model {
	m := Model{
		controls: controls,
		keys:     DefaultKeyMap(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(statusStyle)),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case StateMsg:
		m.state = scan.State(msg)
		return m, nil

	case CertificateMsg:
		m.code = msg.Code
		m.cert = msg.Summary
		m.activated = false
		m.notice = ""
		return m, nil

	case activatedMsg:
		m.activating = false
		if msg.err != nil {
			m.notice = l10n.F("Activation failed: %s", msg.err)
			return m, nil
		}
		m.activated = true
		m.notice = l10n.F("Certificate %s activated", msg.code)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Start):
		if m.state.Status == scan.StatusInit && m.state.PermissionGatePending {
			m.controls.Start()
		}

	case key.Matches(msg, m.keys.Restart):
		if m.state.Terminal() {
			m.code, m.cert = "", nil
			m.activated, m.activating, m.notice = false, false, ""
			m.controls.Restart()
		}

	case key.Matches(msg, m.keys.Activate):
		if m.canActivate() {
			m.activating = true
			m.notice = ""
			return m, activate(m.activator, m.code)
		}
	}
	return m, nil
}

func (m Model) canActivate() bool {
	return m.activator != nil && m.cert != nil && !m.activating && !m.activated
}

func activate(a ports.Activator, code string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultActivateTimeout)
		defer cancel()
		return activatedMsg{code: code, err: a.Activate(ctx, code)}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(l10n.T("Certificate scanner")))
	b.WriteString("\n\n")

	switch {
	case m.cert != nil:
		b.WriteString(m.renderCertificate())
	case m.state.Status == scan.StatusError:
		b.WriteString(errorStyle.Render(m.state.Message))
	case m.state.PermissionGatePending:
		b.WriteString(gateStyle.Render(m.state.Message))
	case m.state.Status == scan.StatusLoading || m.state.Status == scan.StatusProcessing:
		b.WriteString(m.spinner.View() + " " + statusStyle.Render(scan.Caption(m.state)))
	default:
		b.WriteString(statusStyle.Render(scan.Caption(m.state)))
	}
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString("\n" + m.notice + "\n")
	}
	b.WriteString("\n" + dimStyle.Render(m.help()) + "\n")
	return b.String()
}

func (m Model) renderCertificate() string {
	c := m.cert
	rows := [][2]string{
		{l10n.T("Code"), m.code},
		{l10n.T("Type"), c.Type},
		{l10n.T("Status"), usage(c)},
		{l10n.T("Owner"), c.Owner.Name},
		{l10n.T("Email"), c.Owner.Email},
		{l10n.T("Phone"), c.Owner.Phone},
		{l10n.T("Issued"), summarizer.FormatDate(c.BuyDate)},
		{l10n.T("Expires"), summarizer.FormatDate(c.ExpirationDate)},
	}

	var b strings.Builder
	for i, r := range rows {
		value := r[1]
		if value == "" {
			value = "-"
		}
		b.WriteString(labelStyle.Render(r[0]) + value)
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	if m.activating {
		b.WriteString("\n\n" + m.spinner.View() + " " + l10n.T("Activating..."))
	}
	return cardStyle.Render(b.String())
}

func usage(c *ports.CertificateSummary) string {
	switch c.UsageLabel() {
	case "used":
		return usedStyle.Render(l10n.T("Used"))
	case "unused":
		return unusedStyle.Render(l10n.T("Not used"))
	default:
		return l10n.T("Unknown")
	}
}

func (m Model) help() string {
	var parts []string
	add := func(b key.Binding) {
		parts = append(parts, fmt.Sprintf("[%s] %s", b.Help().Key, l10n.T(b.Help().Desc)))
	}
	if m.state.PermissionGatePending {
		add(m.keys.Start)
	}
	if m.canActivate() {
		add(m.keys.Activate)
	}
	if m.state.Terminal() {
		add(m.keys.Restart)
	}
	add(m.keys.Quit)
	return strings.Join(parts, "  ")
}
