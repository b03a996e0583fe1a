package expiry

import (
	"time"

	"github.com/GTDGit/shelf_api/internal/models"
)

// AlertItem is a stock item annotated with its urgency.
type AlertItem struct {
	models.StockItem
	Status
	WhatsAppURL *string `json:"whatsappUrl,omitempty"`
}

// Alerts holds the items of the alerts view split into tiers.
// Input order is preserved inside each tier.
type Alerts struct {
	Critical []AlertItem `json:"critical"`
	Warning  []AlertItem `json:"warning"`
	Watch    []AlertItem `json:"watch"`
}

// Total returns the number of items across all tiers.
func (a Alerts) Total() int {
	return len(a.Critical) + len(a.Warning) + len(a.Watch)
}

// GroupAlerts keeps items expiring within the alert window and buckets them by tier.
func GroupAlerts(items []models.StockItem, today time.Time) Alerts {
	out := Alerts{
		Critical: []AlertItem{},
		Warning:  []AlertItem{},
		Watch:    []AlertItem{},
	}
	for _, it := range items {
		st := Evaluate(it.ExpiryDate, today)
		if !InAlertWindow(st.DaysLeft) {
			continue
		}
		ai := AlertItem{StockItem: it, Status: st}
		switch st.Tier {
		case TierCritical:
			out.Critical = append(out.Critical, ai)
		case TierWarning:
			out.Warning = append(out.Warning, ai)
		case TierWatch:
			out.Watch = append(out.Watch, ai)
		case TierNone:
		}
	}
	return out
}

// CriticalNames returns the product names of items expiring today, tomorrow or earlier.
func CriticalNames(items []models.StockItem, today time.Time) []string {
	names := []string{}
	for _, it := range items {
		if DaysLeft(it.ExpiryDate, today) <= 1 {
			names = append(names, it.ProductName)
		}
	}
	return names
}

// Annotate returns item with its urgency for today.
func Annotate(item models.StockItem, today time.Time) AlertItem {
	return AlertItem{StockItem: item, Status: Evaluate(item.ExpiryDate, today)}
}
