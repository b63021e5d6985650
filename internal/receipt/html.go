package receipt

import (
	"bytes"
	"html/template"
)

type htmlLine struct {
	Label   string
	Amount  string
	Options string
	Note    string
}

type htmlData struct {
	Header    string
	Footer    string
	Title     string
	Table     string
	Name      string
	Timestamp string
	Lines     []htmlLine
	Total     string
	Currency  string
	Payment   string
	Note      string
	WidthMM   int
}

const receiptHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>{{.Title}}</title>
  <style>
    @page { size: {{.WidthMM}}mm auto; margin: 0; }
    * { box-sizing: border-box; }
    body { font-family: 'Courier New', monospace; font-size: 12px; width: {{.WidthMM}}mm; padding: 4mm; color: #000; margin: 0; }
    .header { text-align: center; font-weight: bold; font-size: 14px; }
    .rule { border-top: 1px dashed #000; margin: 6px 0; }
    .row { display: flex; justify-content: space-between; margin: 2px 0; }
    .sub { margin-left: 10px; font-size: 11px; }
    .note { margin-left: 10px; font-size: 10px; font-style: italic; }
    .total { font-weight: bold; font-size: 14px; }
    .footer { text-align: center; }
  </style>
</head>
<body>
  {{if .Header}}<div class="header">{{.Header}}</div>{{end}}
  <div class="rule"></div>
  <div>{{.Title}}</div>
  <div>{{.Table}}{{if .Name}} - {{.Name}}{{end}}</div>
  <div>{{.Timestamp}}</div>
  <div class="rule"></div>
  {{range .Lines}}
    <div class="row"><div>{{.Label}}</div><div>{{.Amount}}</div></div>
    {{if .Options}}<div class="sub">+ {{.Options}}</div>{{end}}
    {{if .Note}}<div class="note">* {{.Note}}</div>{{end}}
  {{end}}
  <div class="rule"></div>
  <div class="row total"><div>TOTAL</div><div>{{.Total}}{{if .Currency}} {{.Currency}}{{end}}</div></div>
  {{if .Payment}}<div>Payment: {{.Payment}}</div>{{end}}
  {{if .Note}}<div>Note: {{.Note}}</div>{{end}}
  <div class="rule"></div>
  {{if .Footer}}<div class="footer">{{.Footer}}</div>{{end}}
</body>
</html>`

var receiptTemplate = template.Must(template.New("receipt").Parse(receiptHTMLTemplate))

func HTML(r Receipt, l Layout) ([]byte, error) {
	data := htmlData{
		Header:    l.Header,
		Title:     r.Title(),
		Table:     r.TableLabel(),
		Name:      r.DisplayName,
		Timestamp: r.Timestamp(l.Location),
		Total:     Money(r.Total),
		Currency:  l.Currency,
		Payment:   r.Payment,
		Note:      r.Note,
		WidthMM:   l.PaperWidth,
	}
	if !r.Addendum {
		data.Footer = l.Footer
	}
	for _, line := range r.Lines {
		hl := htmlLine{Label: line.Label(), Amount: Money(line.Amount), Note: line.Note}
		for i, opt := range line.Options {
			if i > 0 {
				hl.Options += ", "
			}
			hl.Options += opt
		}
		data.Lines = append(data.Lines, hl)
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
