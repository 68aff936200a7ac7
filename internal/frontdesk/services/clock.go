package services

import (
	"context"
	"time"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/apperrors"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/models"
)

// Clock supplies the current time in the clinic time zone. The zero value
// uses time.Now in UTC.
type Clock struct {
	NowFunc  func() time.Time
	Location *time.Location
}

func NewClock(loc *time.Location) Clock {
	return Clock{NowFunc: time.Now, Location: loc}
}

func (c Clock) Now() time.Time {
	now := time.Now
	if c.NowFunc != nil {
		now = c.NowFunc
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	// DATETIME columns keep whole seconds.
	return now().In(loc).Truncate(time.Second)
}

// Today is the calendar date of Now.
func (c Clock) Today() string {
	return c.Now().Format(models.DateLayout)
}

// ValidateDate accepts an empty string or a YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return apperrors.Validation("date must use the format %s", models.DateLayout)
	}
	return nil
}

// withTimeout bounds a storage operation. A zero timeout leaves ctx as is.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
