package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/odyssey-erp/order-review/web"
)

// ErrNoConverter is returned for PDF exports without a configured converter.
var ErrNoConverter = errors.New("pdf converter not configured")

var reportTemplate = template.Must(template.ParseFS(web.Templates, "templates/reports/accepted_orders.html"))

type pdfPayload struct {
	Title       string
	GeneratedAt string
	Header      []string
	Rows        [][]string
}

func (e *Exporter) renderPDF(ctx context.Context, table [][]string, now time.Time) ([]byte, error) {
	if e.converter == nil {
		return nil, ErrNoConverter
	}
	html, err := e.reportHTML(table, now)
	if err != nil {
		return nil, err
	}
	return e.converter.RenderHTML(ctx, html)
}

func (e *Exporter) reportHTML(table [][]string, now time.Time) (string, error) {
	var buf bytes.Buffer
	payload := pdfPayload{
		Title:       e.opts.Title,
		GeneratedAt: now.In(e.opts.Location).Format(e.opts.DateLayout + " 15:04"),
		Header:      Header,
		Rows:        table,
	}
	if err := reportTemplate.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}
