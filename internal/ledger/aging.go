package ledger

import "time"

// AgingBucket classifies an outstanding invoice line by how many days
// it has been outstanding.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "Current"
	Bucket31To60  AgingBucket = "31–60"
	Bucket61To90  AgingBucket = "61–90"
	BucketOver90  AgingBucket = ">90"
)

var AllAgingBuckets = []AgingBucket{BucketCurrent, Bucket31To60, Bucket61To90, BucketOver90}

// DaysOutstanding returns whole calendar days between the invoice date
// and the as-of date. Negative when the invoice is dated in the
// future; callers still classify that as Current.
func DaysOutstanding(invoiceDate, asOf time.Time) int {
	d0 := invoiceDate.Truncate(24 * time.Hour)
	d1 := asOf.Truncate(24 * time.Hour)
	return int(d1.Sub(d0) / (24 * time.Hour))
}

// BucketForDays maps days outstanding to an aging bucket. Boundaries
// are inclusive of the lower bucket: day 30 is Current, day 31 falls
// in 31–60.
func BucketForDays(days int) AgingBucket {
	switch {
	case days <= 30:
		return BucketCurrent
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}
