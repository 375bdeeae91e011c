package laundry

import (
	"fmt"
	"time"

	"laundry-bot/internal/model"
)

// CycleDuration is how long one wash/dry load is assumed to take when no
// explicit expected-done time is stored.
const CycleDuration = 85 * time.Minute

// StatusKey is the derived status category used for rendering decisions.
type StatusKey string

const (
	KeyAvailable   StatusKey = "available"
	KeyBusy        StatusKey = "busy"
	KeyMaintenance StatusKey = "maintenance"
	KeyUnknown     StatusKey = "unknown"
)

// Summary is the view model derived from a status record. It carries the
// pre-formatted strings the renderers use plus the raw timestamps the
// pollers need.
type Summary struct {
	StatusLine      string
	EstimatedFreeBy string
	LastUpdated     string
	UpdatedByName   string
	UpdatedByUserID string
	LastUpdatedAt   *time.Time
	EstimatedFreeAt *time.Time
	Key             StatusKey
}

// Summarize derives the display summary for a status row. A nil row means
// nothing has ever been recorded. The function is pure: it never touches
// the store and depends only on its arguments.
func Summarize(row *model.LaundryStatus, loc *time.Location) Summary {
	if row == nil {
		return Summary{
			StatusLine:      "No laundry status recorded yet.",
			EstimatedFreeBy: "Not available",
			LastUpdated:     "Not available",
			UpdatedByName:   "Unknown",
			Key:             KeyUnknown,
		}
	}

	updatedAt := row.UpdatedAt
	updatedByName := "Unknown"
	if row.UpdatedByName != nil && *row.UpdatedByName != "" {
		updatedByName = *row.UpdatedByName
	}
	updatedByUserID := ""
	if row.UpdatedByUserID != nil {
		updatedByUserID = *row.UpdatedByUserID
	}

	if row.Status == model.StatusMaintenance {
		return Summary{
			StatusLine:      "Laundry is unavailable (maintenance).",
			EstimatedFreeBy: "Not available",
			LastUpdated:     FormatClock(&updatedAt, loc),
			UpdatedByName:   updatedByName,
			UpdatedByUserID: updatedByUserID,
			LastUpdatedAt:   &updatedAt,
			Key:             KeyMaintenance,
		}
	}

	if row.Status != model.StatusInUse {
		return Summary{
			StatusLine:      "",
			EstimatedFreeBy: "Now",
			LastUpdated:     FormatClock(&updatedAt, loc),
			UpdatedByName:   updatedByName,
			UpdatedByUserID: updatedByUserID,
			LastUpdatedAt:   &updatedAt,
			Key:             KeyAvailable,
		}
	}

	estimatedFreeAt := row.ExpectedDoneAt
	if estimatedFreeAt == nil {
		estimatedFreeAt = EstimateDoneAt(row.StartedAt)
	}

	statusLine := "Current wash/dry cycle is in progress."
	estimatedFreeBy := "Not available"
	if estimatedFreeAt != nil {
		estimatedFreeBy = FormatClock(estimatedFreeAt, loc)
		statusLine = fmt.Sprintf("Current wash/dry cycle should be complete by %s.", estimatedFreeBy)
	}

	return Summary{
		StatusLine:      statusLine,
		EstimatedFreeBy: estimatedFreeBy,
		LastUpdated:     FormatClock(&updatedAt, loc),
		UpdatedByName:   updatedByName,
		UpdatedByUserID: updatedByUserID,
		LastUpdatedAt:   &updatedAt,
		EstimatedFreeAt: estimatedFreeAt,
		Key:             KeyBusy,
	}
}

// EstimateDoneAt recomputes the expected completion time from the cycle
// start when the stored estimate is absent.
func EstimateDoneAt(startedAt *time.Time) *time.Time {
	if startedAt == nil {
		return nil
	}
	done := startedAt.Add(CycleDuration)
	return &done
}

// FormatClock renders a short local wall-clock time, e.g. "3:45 PM".
func FormatClock(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "Not set"
	}
	return t.In(loc).Format("3:04 PM")
}

// FormatTimestamp renders a full local timestamp, e.g. "Jan 2, 2026, 3:45 PM".
func FormatTimestamp(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "Not set"
	}
	return t.In(loc).Format("Jan 2, 2006, 3:04 PM")
}

// FooterTime renders the last-updated time for the status footer: the bare
// clock when the update happened today, otherwise date plus clock.
func FooterTime(t *time.Time, now time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "Not available"
	}
	local := t.In(loc)
	nowLocal := now.In(loc)
	y1, m1, d1 := local.Date()
	y2, m2, d2 := nowLocal.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return FormatClock(t, loc)
	}
	return local.Format("Jan 2, 2006") + " " + FormatClock(t, loc)
}

// PresenceText builds the short publicly visible status string.
func PresenceText(s Summary, loc *time.Location) string {
	switch s.Key {
	case KeyAvailable:
		return "Laundry: available"
	case KeyMaintenance:
		return "Laundry: maintenance"
	case KeyBusy:
		if s.EstimatedFreeAt == nil {
			return "Laundry: in progress"
		}
		return fmt.Sprintf("Laundry: in progress - ETA %s", FormatClock(s.EstimatedFreeAt, loc))
	default:
		return "Laundry: unknown"
	}
}
