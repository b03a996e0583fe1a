// Package expiry classifies stock by how close it is to its expiry date.
package expiry

import (
	"fmt"
	"math"
	"time"

	"github.com/GTDGit/shelf_api/internal/models"
)

// Tier is the urgency bucket of an item.
type Tier string

const (
	TierCritical Tier = "critical"
	TierWarning  Tier = "warning"
	TierWatch    Tier = "watch"
	// TierNone is used for items more than AlertWindowDays away.
	TierNone Tier = "none"
)

// AlertWindowDays is the horizon of the alerts view.
const AlertWindowDays = 7

const day = 24 * time.Hour

// DaysLeft returns ceil((expiry - today) / 1 day) with both sides normalised to midnight.
// Negative values mean the item already expired.
func DaysLeft(expiry models.Date, today time.Time) int {
	t := models.DateOf(today)
	e := models.DateOf(expiry.Time)
	return int(math.Ceil(float64(e.Sub(t.Time)) / float64(day)))
}

// Classify maps days left to a tier.
func Classify(daysLeft int) Tier {
	switch {
	case daysLeft <= 1:
		return TierCritical
	case daysLeft <= 3:
		return TierWarning
	case daysLeft <= AlertWindowDays:
		return TierWatch
	default:
		return TierNone
	}
}

// Label is the human readable countdown shown next to an item.
func Label(daysLeft int) string {
	switch {
	case daysLeft < 0:
		return fmt.Sprintf("Expired %dd ago", -daysLeft)
	case daysLeft == 0:
		return "Expires today"
	case daysLeft == 1:
		return "Expires tomorrow"
	default:
		return fmt.Sprintf("%d days left", daysLeft)
	}
}

// InAlertWindow reports whether an item belongs in the alerts view.
func InAlertWindow(daysLeft int) bool {
	return daysLeft <= AlertWindowDays
}

// Status is the derived display state of one stock item.
type Status struct {
	DaysLeft int    `json:"daysLeft"`
	Tier     Tier   `json:"tier"`
	Label    string `json:"expiryLabel"`
}

// Evaluate derives the display state of an expiry date relative to today.
func Evaluate(expiry models.Date, today time.Time) Status {
	d := DaysLeft(expiry, today)
	return Status{DaysLeft: d, Tier: Classify(d), Label: Label(d)}
}
