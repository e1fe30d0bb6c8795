package notifications

import "context"

type AssetStatusNotice struct {
	Email     string
	AssetID   string
	AssetName string
	Status    string
	DecidedBy string
}

type PaymentReceipt struct {
	Email         string
	PaymentID     string
	Price         float64
	TransactionID string
}

type Notifier interface {
	SendAssetStatusNotice(ctx context.Context, in AssetStatusNotice) error
	SendPaymentReceipt(ctx context.Context, in PaymentReceipt) error
}
