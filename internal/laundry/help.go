package laundry

import (
	"fmt"
	"strings"

	"laundry-bot/internal/model"
)

// HelpOption is one selectable chore in the help-request menu.
type HelpOption struct {
	Label string
	Value string
}

// HelpOptions is the fixed set of chores a user can ask for help with.
var HelpOptions = []HelpOption{
	{Label: "Bringing Dirty Clothes Downstairs", Value: "bringing_dirty_clothes"},
	{Label: "Bringing Clean Clothes Upstairs", Value: "bringing_clean_clothes"},
	{Label: "Distributing Clean Clothes", Value: "distributing_clean_clothes"},
	{Label: "Folding", Value: "folding"},
	{Label: "Flipping Laundry", Value: "flipping_laundry"},
	{Label: "Prompting the kids to put away clothes", Value: "prompting_kids"},
}

var helpLabels = func() map[string]string {
	m := make(map[string]string, len(HelpOptions))
	for _, o := range HelpOptions {
		m[o.Value] = o.Label
	}
	return m
}()

// HelpLabel maps a request type to its human label. Unknown values pass
// through unchanged.
func HelpLabel(requestType string) string {
	if label, ok := helpLabels[requestType]; ok {
		return label
	}
	return requestType
}

// IsHelpType reports whether value is one of the fixed request types.
func IsHelpType(value string) bool {
	_, ok := helpLabels[value]
	return ok
}

// FormatHelpRequests renders active help requests grouped per user, in the
// order the requests were created.
func FormatHelpRequests(rows []model.HelpRequest) string {
	if len(rows) == 0 {
		return "None"
	}

	var order []string
	grouped := make(map[string][]string)
	for _, row := range rows {
		if _, seen := grouped[row.UserName]; !seen {
			order = append(order, row.UserName)
		}
		grouped[row.UserName] = append(grouped[row.UserName], HelpLabel(row.RequestType))
	}

	lines := make([]string, 0, len(order))
	for _, name := range order {
		lines = append(lines, fmt.Sprintf("%s asked for help with: %s", name, strings.Join(grouped[name], ", ")))
	}
	return strings.Join(lines, "\n")
}
