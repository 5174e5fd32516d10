package constants

// Reason codes emitted by the compliance and risk scorers. Stable strings:
// they are persisted on invoices and shown in the review queue.
const (
	ReasonReqFieldsMissing    = "REQ_FIELDS_MISSING"
	ReasonInvalidDate         = "INVALID_DATE"
	ReasonUnsupportedCurrency = "UNSUPPORTED_CURRENCY"
	ReasonMissingLineItems    = "MISSING_LINE_ITEMS"
	ReasonLineTotalMismatch   = "LINE_TOTAL_MISMATCH"
	ReasonDupVendorInvNo      = "DUP_VENDOR_INV_NO"
	ReasonLowConfidence       = "LOW_CONFIDENCE"
)
