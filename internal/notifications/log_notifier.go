package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// LogNotifier writes notices to the log instead of a mail provider. Delay
// and Fail simulate a slow or broken provider.
type LogNotifier struct {
	log   *slog.Logger
	Delay time.Duration
	Fail  bool
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

var errProviderDown = errors.New("provider down (simulated)")

func (n *LogNotifier) SendAssetStatusNotice(ctx context.Context, in AssetStatusNotice) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.asset_status",
		"email", in.Email,
		"asset_id", in.AssetID,
		"asset_name", in.AssetName,
		"status", in.Status,
		"decided_by", in.DecidedBy,
	)
	return nil
}

func (n *LogNotifier) SendPaymentReceipt(ctx context.Context, in PaymentReceipt) error {
	if err := n.simulate(ctx); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.payment_receipt",
		"email", in.Email,
		"payment_id", in.PaymentID,
		"price", in.Price,
		"transaction_id", in.TransactionID,
	)
	return nil
}

func (n *LogNotifier) simulate(ctx context.Context) error {
	if n.Delay > 0 {
		select {
		case <-time.After(n.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if n.Fail {
		return errProviderDown
	}
	return nil
}
