package schedule

import (
	"bms-service/internal/domain"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func MeetingInterval(m domain.Meeting) Interval {
	return Interval{Start: m.StartTime, End: m.EndTime}
}

func (i Interval) Validate() error {
	if !i.End.After(i.Start) {
		return domain.ErrInvalidInterval
	}

	return nil
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching intervals ([0,10) and [10,20)) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}
