// Package report renders capability and control-chart results as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"gosigma/domain/capability"
	"gosigma/domain/spc"
	"gosigma/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Renderer implements ports.ReportRenderer
type Renderer struct{}

// NewRenderer creates a report renderer
func NewRenderer() ports.ReportRenderer {
	return Renderer{}
}

// CapabilityMarkdown summarizes a capability study. bins may be nil.
func (Renderer) CapabilityMarkdown(title string, r *capability.Result, bins []capability.HistogramBin) []byte {
	var b bytes.Buffer
	heading(&b, title, "Process Capability")
	if r == nil {
		return b.Bytes()
	}

	fmt.Fprintf(&b, "**Capability level:** %s (Cpk %.3f)\n\n", r.Level, r.Cpk)

	b.WriteString("## Specification\n\n")
	table(&b, []string{"LSL", "Target", "USL", "Spec width"}, [][]string{{
		num(r.LSL), num(r.Target), num(r.USL), num(r.SpecWidth),
	}})

	b.WriteString("## Indices\n\n")
	table(&b, []string{"Index", "Value"}, [][]string{
		{"Cp", num(r.Cp)},
		{"Cpk", num(r.Cpk)},
		{"Cpu", num(r.Cpu)},
		{"Cpl", num(r.Cpl)},
		{"Pp", num(r.Pp)},
		{"Ppk", num(r.Ppk)},
		{"Sigma level", num(r.SigmaLevel)},
		{"DPMO", fmt.Sprintf("%.0f", r.DPMO)},
	})

	b.WriteString("## Statistics\n\n")
	table(&b, []string{"n", "Mean", "Median", "Std dev", "Min", "Max", "Out of spec"}, [][]string{{
		fmt.Sprintf("%d", r.SampleSize), num(r.Mean), num(r.Median), num(r.StdDev),
		num(r.Min), num(r.Max), fmt.Sprintf("%d (%.2f%%)", r.OutOfSpecCount, r.OutOfSpecPercent),
	}})

	if len(bins) > 0 {
		b.WriteString("## Distribution\n\n")
		rows := make([][]string, len(bins))
		for i, bin := range bins {
			flag := ""
			if bin.OutOfSpec {
				flag = "out of spec"
			}
			rows[i] = []string{fmt.Sprintf("%s to %s", num(bin.Start), num(bin.End)), fmt.Sprintf("%d", bin.Count), flag}
		}
		table(&b, []string{"Range", "Count", ""}, rows)
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}
	return b.Bytes()
}

// ControlMarkdown summarizes control limits and rule violations
func (Renderer) ControlMarkdown(title string, l *spc.ControlLimits) []byte {
	var b bytes.Buffer
	heading(&b, title, "Control Chart")
	if l == nil {
		return b.Bytes()
	}

	status := "in control"
	if !l.InControl() {
		status = "out of control"
	}
	fmt.Fprintf(&b, "**Status:** %s\n\n", status)

	table(&b, []string{"n", "Mean", "Sigma", "LCL", "UCL", "Sigma level"}, [][]string{{
		fmt.Sprintf("%d", l.SampleSize), num(l.Mean), num(l.Sigma), num(l.LCL), num(l.UCL), num(l.SigmaLevel),
	}})

	if len(l.RuleViolations) == 0 {
		b.WriteString("No rule violations.\n")
		return b.Bytes()
	}
	b.WriteString("## Rule violations\n\n")
	rows := make([][]string, len(l.RuleViolations))
	for i, v := range l.RuleViolations {
		rows[i] = []string{string(v.Severity), string(v.Rule), v.Description}
	}
	table(&b, []string{"Severity", "Rule", "Description"}, rows)
	return b.Bytes()
}

// ToHTML converts Markdown to an HTML fragment
func (Renderer) ToHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.ToHTML(md, p, renderer)
}

func heading(b *bytes.Buffer, title, fallback string) {
	if strings.TrimSpace(title) == "" {
		title = fallback
	}
	fmt.Fprintf(b, "# %s\n\n", title)
}

func table(b *bytes.Buffer, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("|" + strings.Join(sep, "|") + "|\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	b.WriteString("\n")
}

func num(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
