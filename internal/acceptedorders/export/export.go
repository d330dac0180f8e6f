// Package export renders the filtered accepted-orders view as a downloadable
// report.
package export

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
)

// Format selects the report encoding.
type Format string

// Supported formats.
const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// BaseName is the default report file name without extension.
const BaseName = "accepted_orders_report"

// ErrUnknownFormat is returned for formats other than csv and pdf.
var ErrUnknownFormat = errors.New("unknown report format")

// Header is the fixed column order of every report.
var Header = []string{
	"Supplier Name",
	"Order Quantity",
	"Category",
	"Amount",
	"Delivery Date",
	"Special Note",
	"Difference",
	"Expiry Status",
}

// ParseFormat reads a format name case-insensitively. Empty means CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// ContentType returns the MIME type of documents in format f.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Document is a rendered report.
type Document struct {
	Name        string
	ContentType string
	Format      Format
	Rows        int
	Body        []byte
}

// Options configures rendering.
type Options struct {
	// Location is the observer's zone for delivery dates. Nil means time.Local.
	Location *time.Location
	// DateLayout formats delivery dates. Empty means "1/2/2006".
	DateLayout string
	// RequireRows turns an empty view into ErrEmptyReport.
	RequireRows bool
	// Title heads the PDF report.
	Title string
}

// Converter turns HTML into PDF bytes.
type Converter interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Recorder receives one observation per export attempt.
type Recorder interface {
	ObserveExport(format, outcome string)
}

// Exporter renders reports. It is safe for concurrent use once configured.
type Exporter struct {
	opts      Options
	converter Converter
	recorder  Recorder
}

// New creates an exporter. converter may be nil when only CSV is needed.
func New(opts Options, converter Converter) *Exporter {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.DateLayout == "" {
		opts.DateLayout = "1/2/2006"
	}
	if opts.Title == "" {
		opts.Title = "Accepted Orders Report"
	}
	return &Exporter{opts: opts, converter: converter}
}

// SetRecorder attaches an export recorder for metrics.
func (e *Exporter) SetRecorder(recorder Recorder) {
	e.recorder = recorder
}

// Options returns the effective options.
func (e *Exporter) Options() Options {
	return e.opts
}

// WithRequireRows returns a copy of e with the empty-report policy set.
func (e *Exporter) WithRequireRows(require bool) *Exporter {
	clone := *e
	clone.opts.RequireRows = require
	return &clone
}

// Export renders view, in order, as a document in format. Derived columns use
// now for every row. The view is not modified.
func (e *Exporter) Export(ctx context.Context, view []acceptedorders.Order, now time.Time, format Format) (Document, error) {
	doc, err := e.export(ctx, view, now, format)
	if e.recorder != nil {
		outcome := "ok"
		switch {
		case err == nil:
		case errors.Is(err, acceptedorders.ErrEmptyReport):
			outcome = "empty"
		default:
			outcome = "error"
		}
		e.recorder.ObserveExport(string(format), outcome)
	}
	return doc, err
}

func (e *Exporter) export(ctx context.Context, view []acceptedorders.Order, now time.Time, format Format) (Document, error) {
	if format != FormatCSV && format != FormatPDF {
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if e.opts.RequireRows && len(view) == 0 {
		return Document{}, acceptedorders.ErrEmptyReport
	}
	table := e.Table(view, now)

	var (
		body []byte
		err  error
	)
	switch format {
	case FormatCSV:
		body, err = renderCSV(table)
	case FormatPDF:
		body, err = e.renderPDF(ctx, table, now)
	}
	if err != nil {
		return Document{}, fmt.Errorf("export %s: %w", format, err)
	}
	return Document{
		Name:        BaseName + "." + string(format),
		ContentType: format.ContentType(),
		Format:      format,
		Rows:        len(table),
		Body:        body,
	}, nil
}

// Table returns the data rows of the report, without the header.
func (e *Exporter) Table(view []acceptedorders.Order, now time.Time) [][]string {
	rows := acceptedorders.Derive(view, now)
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{
			row.SupplierName,
			strconv.Itoa(row.OrderQuantity),
			string(row.Category),
			strconv.Itoa(row.Amount),
			row.DeliveryDate.In(e.opts.Location).Format(e.opts.DateLayout),
			row.SpecialNote,
			strconv.Itoa(row.Difference),
			string(row.ExpiryStatus),
		})
	}
	return table
}
