package scope

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Scope defines a reusable filter over the task snapshot, applied before the
// tree is flattened.
type Scope struct {
	Name         string `yaml:"name" json:"name" toml:"name"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	HideComplete bool   `yaml:"hide_complete,omitempty" json:"hide_complete,omitempty" toml:"hide_complete,omitempty"`
	OnlyComplete bool   `yaml:"only_complete,omitempty" json:"only_complete,omitempty" toml:"only_complete,omitempty"`
	RootID       *int64 `yaml:"root,omitempty" json:"root,omitempty" toml:"root,omitempty"`                            // Keep only this task and its descendants
	Match        string `yaml:"match,omitempty" json:"match,omitempty" toml:"match,omitempty"`                         // Fuzzy match on task names
	CreatedAfter string `yaml:"created_after,omitempty" json:"created_after,omitempty" toml:"created_after,omitempty"` // Relative: "14d", "1w", "2m" or ISO date
}

// IsZero reports whether the scope filters nothing.
func (s Scope) IsZero() bool {
	return !s.HideComplete && !s.OnlyComplete && s.RootID == nil &&
		strings.TrimSpace(s.Match) == "" && strings.TrimSpace(s.CreatedAfter) == ""
}

// relativeTimePattern matches relative time expressions like "14d", "2w", "1m", "1y"
var relativeTimePattern = regexp.MustCompile(`^(\d+)([dwmy])$`)

// ParseRelativeTime converts a relative time string to an absolute time.
// Supports: Nd (days), Nw (weeks), Nm (months), Ny (years)
// If the string is not a relative time, it tries to parse as ISO 8601.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	s = strings.TrimSpace(s)

	if matches := relativeTimePattern.FindStringSubmatch(strings.ToLower(s)); matches != nil {
		n, _ := strconv.Atoi(matches[1])

		switch matches[2] {
		case "d":
			return now.AddDate(0, 0, -n), nil
		case "w":
			return now.AddDate(0, 0, -n*7), nil
		case "m":
			return now.AddDate(0, -n, 0), nil
		case "y":
			return now.AddDate(-n, 0, 0), nil
		}
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &TimeParseError{Input: s}
}

// TimeParseError indicates a time parsing failure
type TimeParseError struct {
	Input string
}

func (e *TimeParseError) Error() string {
	return "invalid time format: " + e.Input + " (expected relative like '14d', '2w', '1m' or ISO date)"
}

// AllScope shows every task.
func AllScope() Scope {
	return Scope{
		Name:        "all",
		Description: "Every task",
	}
}

// OpenScope hides completed tasks.
func OpenScope() Scope {
	return Scope{
		Name:         "open",
		Description:  "Tasks that still need doing",
		HideComplete: true,
	}
}

// DoneScope shows only completed tasks.
func DoneScope() Scope {
	return Scope{
		Name:         "done",
		Description:  "Completed tasks",
		OnlyComplete: true,
	}
}

// RecentScope shows tasks created in the last week.
func RecentScope() Scope {
	return Scope{
		Name:         "recent",
		Description:  "Tasks created in the last 7 days",
		CreatedAfter: "7d",
	}
}

// BuiltinScopes returns all built-in scopes
func BuiltinScopes() []Scope {
	return []Scope{
		AllScope(),
		OpenScope(),
		DoneScope(),
		RecentScope(),
	}
}
