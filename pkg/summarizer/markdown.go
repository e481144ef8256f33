package summarizer

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// Option configures a MarkdownFormatter.
type Option func(*MarkdownFormatter)

// WithTranslator translates headings and labels, e.g. with l10n.T.
func WithTranslator(translate func(string) string) Option {
	return func(f *MarkdownFormatter) {
		f.translate = translate
	}
}

// WithVersion adds the tool version to the report footer.
func WithVersion(version string) Option {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter(opts ...Option) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", t("Scan Summary"))
	fmt.Fprintf(&sb, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&sb, "## %s\n\n", t("Certificate"))
	if c := s.Certificate; c != nil {
		f.header(&sb, "Field")
		f.row(&sb, "Code", c.Code)
		f.row(&sb, "ID", c.ID)
		f.row(&sb, "Type", c.Type)
		f.row(&sb, "Status", t(c.Usage))
		f.row(&sb, "Owner", c.OwnerName)
		f.row(&sb, "Email", c.OwnerEmail)
		f.row(&sb, "Phone", c.OwnerPhone)
		f.row(&sb, "Issued", FormatDate(c.BuyDate))
		f.row(&sb, "Expires", FormatDate(c.ExpirationDate))
	} else {
		sb.WriteString(t("No certificate was verified."))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "## %s\n\n", t("Scan"))
	f.header(&sb, "Metric")
	f.row(&sb, "Outcome", t(s.Scan.Outcome))
	if s.Scan.Error != "" {
		f.row(&sb, "Error", s.Scan.Error)
	}
	f.row(&sb, "Ticks", fmt.Sprint(s.Scan.Ticks))
	f.row(&sb, "Frames not ready", fmt.Sprint(s.Scan.NotReady))
	f.row(&sb, "Misses", fmt.Sprint(s.Scan.Misses))
	f.row(&sb, "Camera start", formatMs(s.Scan.ReadyMs))
	f.row(&sb, "Time to decode", formatMs(s.Scan.DecodeMs))
	f.row(&sb, "Verification", formatMs(s.Scan.VerifyMs))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "## %s\n\n", t("Device"))
	f.header(&sb, "Setting")
	f.row(&sb, "Device", s.Device.Name)
	f.row(&sb, "Facing", s.Device.Facing)
	f.row(&sb, "Requested size", fmt.Sprintf("%dx%d", s.Device.IdealWidth, s.Device.IdealHeight))

	if f.version != "" {
		fmt.Fprintf(&sb, "\n---\n%s %s\n", t("Generated by certscan"), f.version)
	}

	return sb.String()
}

func (f *MarkdownFormatter) header(sb *strings.Builder, first string) {
	fmt.Fprintf(sb, "| %s | %s |\n|---|---|\n", f.translate(first), f.translate("Value"))
}

func (f *MarkdownFormatter) row(sb *strings.Builder, name, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(sb, "| %s | %s |\n", f.translate(name), strings.ReplaceAll(value, "|", "\\|"))
}

func formatMs(ms int64) string {
	if ms <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d ms", ms)
}
