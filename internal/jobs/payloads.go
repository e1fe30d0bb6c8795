package jobs

// AssetStatusChangedPayload is ID-based plus the few fields a notice needs,
// so the worker does not have to reach the document store.
type AssetStatusChangedPayload struct {
	AssetID    string `json:"assetId"`
	Email      string `json:"email"`
	AssetName  string `json:"assetName,omitempty"`
	Status     string `json:"status"`
	ActorEmail string `json:"actorEmail,omitempty"` // admin who made the decision
	RequestID  string `json:"requestId,omitempty"`  // optional: correlation
}

// PaymentRecordedPayload is used to send a receipt for one ledger entry.
type PaymentRecordedPayload struct {
	PaymentID     string  `json:"paymentId"`
	Email         string  `json:"email"`
	Price         float64 `json:"price,omitempty"`
	TransactionID string  `json:"transactionId,omitempty"`
	RequestID     string  `json:"requestId,omitempty"`
}
