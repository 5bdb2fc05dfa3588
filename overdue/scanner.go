package overdue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"assetflow/asset"
	"assetflow/notify"
)

// DefaultWindow suppresses repeat notices for the same asset/recipient pair
// for a rolling day.
const DefaultWindow = 24 * time.Hour

// AssetSource lists assets past their return deadline. The scanner is
// read-only on assets.
type AssetSource interface {
	ListOverdue(ctx context.Context, now time.Time) ([]asset.Asset, error)
}

// NotificationLog is the dedup store the scanner writes.
type NotificationLog interface {
	HasRecent(ctx context.Context, assetID, recipientID string, since time.Time) (bool, error)
	Record(ctx context.Context, entry LogEntry) error
}

// Scanner detects assets past their return deadline and notifies the
// custodian at most once per dedup window.
type Scanner struct {
	assets     AssetSource
	log        NotificationLog
	dispatcher notify.Dispatcher
	window     time.Duration
	workers    int
	logger     *slog.Logger
}

func NewScanner(assets AssetSource, log NotificationLog, dispatcher notify.Dispatcher, window time.Duration, logger *slog.Logger) *Scanner {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scanner{
		assets:     assets,
		log:        log,
		dispatcher: dispatcher,
		window:     window,
		workers:    4,
		logger:     logger,
	}
}

// WithWorkers bounds how many notifications are in flight at once.
func (s *Scanner) WithWorkers(n int) *Scanner {
	if n > 0 {
		s.workers = n
	}
	return s
}

// Scan runs one pass at the given instant. Per-asset check/send/log steps
// are independent; a failure on one asset never aborts the rest, and a
// failed send leaves no log entry so the item is retried next scan.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (Report, error) {
	overdue, err := s.assets.ListOverdue(ctx, now)
	if err != nil {
		return Report{}, err
	}

	report := Report{Scanned: len(overdue)}
	if len(overdue) == 0 {
		return report, nil
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	sem := make(chan struct{}, s.workers)

	for _, a := range overdue {
		a := a
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			notified, failure := s.notifyOne(ctx, a, now)
			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				report.Failures = append(report.Failures, *failure)
			} else if notified != nil {
				report.Notified = append(report.Notified, *notified)
			}
			return nil
		})
	}
	g.Wait()

	s.logger.Info("overdue scan finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("notified", len(report.Notified)),
		slog.Int("failures", len(report.Failures)))

	return report, nil
}

// notifyOne handles a single asset: dedup check, send, then log. Returns
// (nil, nil) when the pair was already notified inside the window.
func (s *Scanner) notifyOne(ctx context.Context, a asset.Asset, now time.Time) (*notify.Notification, *DeliveryFailure) {
	recipient := *a.CustodianID

	recent, err := s.log.HasRecent(ctx, a.ID, recipient, now.Add(-s.window))
	if err != nil {
		s.logger.Error("dedup check failed",
			slog.String("asset_id", a.ID),
			slog.Any("error", err))
		return nil, &DeliveryFailure{AssetID: a.ID, RecipientID: recipient, Err: err}
	}
	if recent {
		return nil, nil
	}

	n := notify.Notification{
		AssetID:     a.ID,
		AssetCode:   a.Code,
		AssetName:   a.Name,
		RecipientID: recipient,
		DueAt:       a.ReturnDeadline,
	}
	if err := s.dispatcher.Send(ctx, n); err != nil {
		// No log entry on failure: the next scan retries this pair.
		s.logger.Error("overdue notice delivery failed",
			slog.String("asset_code", a.Code),
			slog.String("recipient_id", recipient),
			slog.Any("error", err))
		return nil, &DeliveryFailure{AssetID: a.ID, RecipientID: recipient, Err: err}
	}

	if err := s.log.Record(ctx, LogEntry{AssetID: a.ID, RecipientID: recipient, SentAt: now}); err != nil {
		// Delivered but not recorded; the pair may get one harmless
		// repeat next scan.
		s.logger.Error("notification log write failed",
			slog.String("asset_id", a.ID),
			slog.Any("error", err))
		return &n, nil
	}

	return &n, nil
}
