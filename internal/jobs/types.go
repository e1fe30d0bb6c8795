package jobs

type JobType string

const (
	// JobAssetStatusChanged tells the requester an admin approved or rejected their request.
	JobAssetStatusChanged JobType = "asset_status_changed"

	// JobPaymentRecorded sends the payer a receipt for a ledger entry.
	JobPaymentRecorded JobType = "payment_recorded"
)

// check to see if the job type is a known constant
func (t JobType) IsValid() bool {
	switch t {
	case JobAssetStatusChanged, JobPaymentRecorded:
		return true
	default:
		return false
	}
}
