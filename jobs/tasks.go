package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAcceptedOrdersReport renders the accepted orders report and stores it.
	TaskAcceptedOrdersReport = "acceptedorders:report"
)

// ReportPayload describes one report run. Empty criteria fields do not filter;
// a nil RequireRows keeps the exporter's configured policy.
type ReportPayload struct {
	Category       string `json:"category,omitempty"`
	DeliveryCutoff string `json:"deliveryCutoff,omitempty"`
	SupplierSearch string `json:"supplierSearch,omitempty"`
	Format         string `json:"format,omitempty"`
	RequireRows    *bool  `json:"requireRows,omitempty"`
	Name           string `json:"name,omitempty"`
}

// NewReportTask constructs an Asynq task.
func NewReportTask(payload ReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAcceptedOrdersReport, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	), nil
}
