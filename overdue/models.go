package overdue

import (
	"time"

	"assetflow/notify"
)

// LogEntry records one delivered overdue notice. Its presence within the
// dedup window suppresses a repeat send for the asset/recipient pair.
type LogEntry struct {
	AssetID     string
	RecipientID string
	SentAt      time.Time
}

// DeliveryFailure reports a single failed send inside a scan. The failing
// item is reconsidered on the next scan because no log entry was written.
type DeliveryFailure struct {
	AssetID     string
	RecipientID string
	Err         error
}

// Report summarizes one scan invocation. Individual delivery failures do
// not fail the invocation.
type Report struct {
	Scanned  int
	Notified []notify.Notification
	Failures []DeliveryFailure
}
