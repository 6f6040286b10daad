// Package queue carries activity events about ads over the message broker:
// a publisher used by the web front-end and the consumer behind
// cmd/activity-logger.
package queue

import "time"

// ActivityQueue is the durable queue every activity event goes to.
const ActivityQueue = "mutualhelp.activity"

// Event kinds.
const (
    KindAdCreated = "ad.created"
    KindAdPartial = "ad.partial" // create flow stopped after some steps committed
    KindAdDeleted = "ad.deleted"
)

// ActivityEvent describes something that happened to an ad.  For
// ad.partial, Step names the failed step and Committed the steps whose
// records now exist without the rest of the ad.
type ActivityEvent struct {
    Kind       string    `json:"kind"`
    UserID     string    `json:"user_id,omitempty"`
    AdID       string    `json:"ad_id,omitempty"`
    CityID     string    `json:"city_id,omitempty"`
    Step       string    `json:"step,omitempty"`
    Committed  []string  `json:"committed,omitempty"`
    Error      string    `json:"error,omitempty"`
    OccurredAt time.Time `json:"occurred_at"`
}
