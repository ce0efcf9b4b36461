// Package invoice produces a plain-text receipt for a completed
// payment. Rendering is best-effort: callers log failures and move on,
// a broken invoice never rolls back a payment transition.
package invoice

import (
	"bytes"
	"text/template"
	"time"

	"github.com/realtydesk/realty-service/internal/domain"
)

// Data is the snapshot an invoice is rendered from.
type Data struct {
	Payment  *domain.Payment
	Customer *domain.Customer
	Project  *domain.Project
	IssuedAt time.Time
}

// Renderer turns a payment snapshot into a document.
type Renderer interface {
	Render(data Data) ([]byte, error)
}

const receiptTemplate = `PAYMENT RECEIPT
Receipt No : {{with .Payment.ReceiptNumber}}{{.}}{{else}}-{{end}}
Issued     : {{.IssuedAt.Format "2006-01-02 15:04"}}

Customer   : {{.Customer.Name}} <{{.Customer.Email}}>
Project    : {{.Project.Name}}, {{.Project.City}}

Type       : {{.Payment.Type}}
Method     : {{.Payment.Method}}
Amount     : {{.Payment.Amount}} {{.Payment.Currency}}
{{- if .Payment.Gateway.PaymentID}}
Gateway Ref: {{.Payment.Gateway.Provider}}/{{.Payment.Gateway.PaymentID}}
{{- end}}
`

type templateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer builds the default text renderer.
func NewTemplateRenderer() Renderer {
	return &templateRenderer{
		tmpl: template.Must(template.New("receipt").Parse(receiptTemplate)),
	}
}

func (r *templateRenderer) Render(data Data) ([]byte, error) {
	if data.IssuedAt.IsZero() {
		data.IssuedAt = time.Now()
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
