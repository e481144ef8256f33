package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/ideamans/go-l10n"

	"github.com/user/certscan/pkg/config"
	"github.com/user/certscan/pkg/orchestrator"
	"github.com/user/certscan/pkg/ports"
	"github.com/user/certscan/pkg/summarizer"
)

// buildSummary turns a run result into the Markdown report model.
func buildSummary(cfg config.Config, result orchestrator.RunResult, runErr error) *summarizer.Summary {
	outcome := "completed"
	switch {
	case runErr == nil:
	case errors.Is(runErr, orchestrator.ErrTimeout):
		outcome = "timed out"
	default:
		outcome = "failed"
	}
	return summarizer.NewBuilder().
		WithDevice(result.Device, cfg.ToOrchestratorConfig().Constraints).
		WithScan(summarizer.ScanInfo{
			Outcome:  outcome,
			Ticks:    result.Ticks,
			NotReady: result.NotReady,
			Misses:   result.Misses,
			ReadyMs:  result.ReadyMs,
			DecodeMs: result.DecodeMs,
			VerifyMs: result.VerifyMs,
		}).
		WithError(runErr).
		WithCertificate(result.Code, result.Summary).
		Build()
}

func writeSummary(path string, fs ports.FileSystem, cfg config.Config, result orchestrator.RunResult, runErr error) error {
	formatter := summarizer.FormatterFor(path,
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	return summarizer.NewWriter(formatter, fs).Write(path, buildSummary(cfg, result, runErr))
}

// printCertificate prints the detail view fields of a verified certificate.
func printCertificate(w io.Writer, code string, cert *ports.CertificateSummary) {
	if cert == nil {
		return
	}
	rows := [][2]string{
		{l10n.T("Code"), code},
		{l10n.T("Type"), cert.Type},
		{l10n.T("Status"), l10n.T(usageText(cert))},
		{l10n.T("Owner"), cert.Owner.Name},
		{l10n.T("Email"), cert.Owner.Email},
		{l10n.T("Phone"), cert.Owner.Phone},
		{l10n.T("Issued"), summarizer.FormatDate(cert.BuyDate)},
		{l10n.T("Expires"), summarizer.FormatDate(cert.ExpirationDate)},
	}
	for _, r := range rows {
		value := r[1]
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(w, "%-14s %s\n", r[0]+":", value)
	}
}

func usageText(cert *ports.CertificateSummary) string {
	switch cert.UsageLabel() {
	case "used":
		return "Used"
	case "unused":
		return "Not used"
	default:
		return "Unknown"
	}
}
