package inventory

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control created_at and completed_at.
var timeNow = time.Now
