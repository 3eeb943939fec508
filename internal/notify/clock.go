package notify

import (
	"time"

	"github.com/phrazzld/taskflow/internal/domain"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// today returns the calendar date of clock's current instant in loc.
func today(clock Clock, loc *time.Location) domain.Date {
	if loc == nil {
		loc = time.UTC
	}
	return domain.DateOf(clock.Now().In(loc))
}
