package export

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
)

var testNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func scenarioOrders() []acceptedorders.Order {
	return []acceptedorders.Order{
		{ID: "1", SupplierName: "Acme", OrderQuantity: 10, Category: acceptedorders.CategoryMeat, Amount: 10, DeliveryDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "2", SupplierName: "Beta", OrderQuantity: 5, Category: acceptedorders.CategorySpices, Amount: 8, DeliveryDate: time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC), SpecialNote: "keep dry, cool"},
	}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
}

type fakeConverter struct {
	html string
	err  error
}

func (f *fakeConverter) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7"), nil
}

type exportRecorder struct{ seen []string }

func (r *exportRecorder) ObserveExport(format, outcome string) {
	r.seen = append(r.seen, format+":"+outcome)
}

func TestExportCSVGolden(t *testing.T) {
	exp := New(Options{Location: time.UTC}, nil)
	doc, err := exp.Export(context.Background(), scenarioOrders(), testNow, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "accepted_orders_report.csv", doc.Name)
	assert.Equal(t, "text/csv; charset=utf-8", doc.ContentType)
	assert.Equal(t, 2, doc.Rows)
	newGoldie(t).Assert(t, "accepted_orders", doc.Body)
}

func TestExportEmptyViewIsHeaderOnly(t *testing.T) {
	doc, err := New(Options{}, nil).Export(context.Background(), nil, testNow, FormatCSV)
	require.NoError(t, err)
	assert.Zero(t, doc.Rows)
	newGoldie(t).Assert(t, "header_only", doc.Body)
}

func TestExportRequireRows(t *testing.T) {
	rec := &exportRecorder{}
	exp := New(Options{RequireRows: true}, nil)
	exp.SetRecorder(rec)

	_, err := exp.Export(context.Background(), []acceptedorders.Order{}, testNow, FormatCSV)
	assert.ErrorIs(t, err, acceptedorders.ErrEmptyReport)

	_, err = exp.WithRequireRows(false).Export(context.Background(), nil, testNow, FormatCSV)
	assert.NoError(t, err)
	assert.Equal(t, []string{"csv:empty", "csv:ok"}, rec.seen, "copies share the recorder")
}

func TestExportSpicesScenario(t *testing.T) {
	view := acceptedorders.ApplyFilters(scenarioOrders(), acceptedorders.Criteria{Category: acceptedorders.CategorySpices})
	table := New(Options{Location: time.UTC}, nil).Table(view, testNow)

	require.Len(t, table, 1)
	assert.Equal(t, []string{"Beta", "5", "Spices", "8", "1/1/2099", "keep dry, cool", "-3", "Not Expired"}, table[0])
}

func TestExportUsesObserverZone(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*3600)
	table := New(Options{Location: zone, DateLayout: "2006-01-02"}, nil).Table(scenarioOrders()[:1], testNow)
	assert.Equal(t, "2023-12-31", table[0][4])
}

func TestExportDoesNotMutateView(t *testing.T) {
	view := scenarioOrders()
	before := slices.Clone(view)
	_, err := New(Options{}, nil).Export(context.Background(), view, testNow, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, before, view)
}

func TestExportPDF(t *testing.T) {
	conv := &fakeConverter{}
	doc, err := New(Options{Location: time.UTC}, conv).Export(context.Background(), scenarioOrders(), testNow, FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "accepted_orders_report.pdf", doc.Name)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "%PDF-1.7", string(doc.Body))
	assert.Contains(t, conv.html, "<th>Supplier Name</th>")
	assert.Contains(t, conv.html, "<td>Beta</td>")
	assert.Contains(t, conv.html, `class="expired">Expired`)
	assert.Less(t, strings.Index(conv.html, "Acme"), strings.Index(conv.html, "Beta"))
}

func TestExportPDFFailures(t *testing.T) {
	_, err := New(Options{}, nil).Export(context.Background(), scenarioOrders(), testNow, FormatPDF)
	assert.ErrorIs(t, err, ErrNoConverter)

	boom := errors.New("gotenberg down")
	_, err = New(Options{}, &fakeConverter{err: boom}).Export(context.Background(), scenarioOrders(), testNow, FormatPDF)
	assert.ErrorIs(t, err, boom)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xlsx")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = New(Options{}, nil).Export(context.Background(), nil, testNow, Format("xlsx"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	sink := NewFileSink(dir)
	sink.Now = func() time.Time { return testNow }

	path, err := sink.Put(context.Background(), Document{Name: "accepted_orders_report.csv", Body: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20250101T000000Z_accepted_orders_report.csv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestS3SinkUploadsToBucket(t *testing.T) {
	type upload struct {
		method, path, contentType, body string
	}
	uploads := make(chan upload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		uploads <- upload{r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(body)}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink, err := NewS3Sink(context.Background(), S3Config{
		Bucket:          "reports",
		Prefix:          "daily/",
		Endpoint:        srv.URL,
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
		PathStyle:       true,
	})
	require.NoError(t, err)
	sink.now = func() time.Time { return testNow }

	uri, err := sink.Put(context.Background(), Document{Name: "accepted_orders_report.csv", ContentType: "text/csv", Body: []byte("a,b\n")})
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/daily/20250101T000000Z_accepted_orders_report.csv", uri)

	got := <-uploads
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/reports/daily/20250101T000000Z_accepted_orders_report.csv", got.path)
	assert.Equal(t, "text/csv", got.contentType)
	assert.Contains(t, got.body, "a,b")
}

func TestS3SinkRequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{})
	assert.Error(t, err)
}
