package jobs

import "strings"

// ValidatePayload performs minimal validation on decoded payloads.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobAssetStatusChanged:
		var p AssetStatusChangedPayload
		switch v := payload.(type) {
		case AssetStatusChangedPayload:
			p = v
		case *AssetStatusChangedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.AssetID) == "" || trim(p.Email) == "" || trim(p.Status) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	case JobPaymentRecorded:
		var p PaymentRecordedPayload
		switch v := payload.(type) {
		case PaymentRecordedPayload:
			p = v
		case *PaymentRecordedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.PaymentID) == "" || trim(p.Email) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
