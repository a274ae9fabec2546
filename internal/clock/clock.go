// Package clock defines the time source used by handlers and generators.
package clock

import "time"

// Clock supplies the current time. Implementations must return UTC.
type Clock interface {
	Now() time.Time
}
