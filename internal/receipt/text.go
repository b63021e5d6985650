package receipt

import (
	"bytes"
	"strings"
)

// Text renders the fixed-width plain receipt.
func Text(r Receipt, l Layout) string {
	return strings.Join(textLines(r, l, nil), "\n") + "\n"
}

const (
	escInit    = "\x1b@"
	escBoldOn  = "\x1bE\x01"
	escBoldOff = "\x1bE\x00"
	escCut     = "\x1dV\x01"
)

// ESCPOS renders the receipt for thermal printers, with the total in bold
// and a partial cut at the end.
func ESCPOS(r Receipt, l Layout) []byte {
	var buf bytes.Buffer
	buf.WriteString(escInit)
	bold := func(s string) string { return escBoldOn + s + escBoldOff }
	for _, line := range textLines(r, l, bold) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteString("\n\n\n")
	buf.WriteString(escCut)
	return buf.Bytes()
}

func textLines(r Receipt, l Layout, bold func(string) string) []string {
	width := l.Columns
	if width <= 0 {
		width = 48
	}
	rule := strings.Repeat("-", width)
	if bold == nil {
		bold = func(s string) string { return s }
	}

	out := make([]string, 0, len(r.Lines)+16)
	if l.Header != "" {
		out = append(out, center(l.Header, width))
	}
	out = append(out, rule, truncate(r.Title(), width))
	tableLine := r.TableLabel()
	if r.DisplayName != "" {
		tableLine += " - " + r.DisplayName
	}
	out = append(out, truncate(tableLine, width), r.Timestamp(l.Location), rule)

	for _, line := range r.Lines {
		out = append(out, columns(line.Label(), Money(line.Amount), width))
		if len(line.Options) > 0 {
			out = append(out, truncate("  + "+strings.Join(line.Options, ", "), width))
		}
		if line.Note != "" {
			out = append(out, truncate("  * "+line.Note, width))
		}
	}
	out = append(out, rule)

	total := Money(r.Total)
	if l.Currency != "" {
		total += " " + l.Currency
	}
	out = append(out, bold(columns("TOTAL", total, width)))
	if r.Payment != "" {
		out = append(out, truncate("Payment: "+r.Payment, width))
	}
	if r.Note != "" {
		out = append(out, truncate("Note: "+r.Note, width))
	}
	out = append(out, rule)
	if l.Footer != "" && !r.Addendum {
		out = append(out, center(l.Footer, width))
	}
	return out
}
