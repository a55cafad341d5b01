package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// Audit dispatcher counters.
const (
	AuditDroppedName   = "gosession_audit_dropped_total"
	AuditDeliveredName = "gosession_audit_delivered_total"
)

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricRegisterSuccess, Name: "gosession_register_success_total", Help: "Successful registrations."},
	{ID: goSession.MetricRegisterFailure, Name: "gosession_register_failure_total", Help: "Failed registrations."},
	{ID: goSession.MetricRegisterDuplicate, Name: "gosession_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: goSession.MetricAssetUploadFailure, Name: "gosession_asset_upload_failure_total", Help: "Failed media uploads."},
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful login attempts."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed login attempts."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: goSession.MetricRefreshReuseDetected, Name: "gosession_refresh_reuse_detected_total", Help: "Refresh tokens presented after rotation or logout."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logout operations."},
	{ID: goSession.MetricPasswordChangeSuccess, Name: "gosession_password_change_success_total", Help: "Successful password changes."},
	{ID: goSession.MetricPasswordChangeInvalidOld, Name: "gosession_password_change_invalid_old_total", Help: "Password changes with a wrong current password."},
	{ID: goSession.MetricPasswordChangeReuseRejected, Name: "gosession_password_change_reuse_rejected_total", Help: "Password changes rejected for reuse."},
	{ID: goSession.MetricProfileUpdate, Name: "gosession_profile_update_total", Help: "Profile field updates."},
	{ID: goSession.MetricAccessVerifyFailure, Name: "gosession_access_verify_failure_total", Help: "Rejected access tokens."},
	{ID: goSession.MetricStoreUnavailable, Name: "gosession_store_unavailable_total", Help: "Principal or session store failures."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRefreshLatency, Name: "gosession_refresh_latency_seconds", Help: "Refresh latency histogram."},
}

// BucketCount is the number of histogram buckets including +Inf.
const BucketCount = len(goSession.HistogramBounds) + 1

// UpperBounds returns the finite bucket bounds in seconds.
func UpperBounds() []float64 {
	out := make([]float64, len(goSession.HistogramBounds))
	for i, b := range goSession.HistogramBounds {
		out[i] = b.Seconds()
	}
	return out
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling when raw
// is short or nil.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
