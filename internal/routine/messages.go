package routine

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Locale selects the message catalog used for tab labels
type Locale string

const (
	LocalePolish  Locale = "pl"
	LocaleEnglish Locale = "en"
)

// clockLayout renders wall-clock labels such as 06:00
const clockLayout = "15:04"

type catalog struct {
	lockedByCurrent string
	notYetAvailable string
	windowPassed    string
	completedAt     string
	duration        string
	badgeActive     string
	badgeInProgress string
	badgeSoon       string
	badgeEnded      string
	badgeDone       string
}

var catalogs = map[Locale]catalog{
	LocalePolish: {
		lockedByCurrent: "Ta rutyna będzie dostępna po ukończeniu aktualnej misji.",
		notYetAvailable: "Ta rutyna jest teraz nieaktywna. Będzie dostępna o %s.",
		windowPassed:    "Ta rutyna była dostępna do %s. Spróbuj ponownie w kolejnym terminie.",
		completedAt:     "Ostatnio ukończono o %s.",
		duration:        "Czas trwania: %d min.",
		badgeActive:     "Aktywna",
		badgeInProgress: "W trakcie",
		badgeSoon:       "Wkrótce",
		badgeEnded:      "Zakończona",
		badgeDone:       "Ukończona",
	},
	LocaleEnglish: {
		lockedByCurrent: "This routine will be available once the current mission is finished.",
		notYetAvailable: "This routine is inactive right now. It will be available at %s.",
		windowPassed:    "This routine was available until %s. Try again at the next scheduled time.",
		completedAt:     "Last completed at %s.",
		duration:        "Duration: %d min.",
		badgeActive:     "Active",
		badgeInProgress: "In progress",
		badgeSoon:       "Soon",
		badgeEnded:      "Ended",
		badgeDone:       "Done",
	},
}

// ParseLocale maps a configuration value to a supported locale, defaulting to Polish
func ParseLocale(value string) Locale {
	switch Locale(strings.ToLower(strings.TrimSpace(value))) {
	case LocaleEnglish:
		return LocaleEnglish
	default:
		return LocalePolish
	}
}

func catalogFor(locale Locale) catalog {
	if c, ok := catalogs[locale]; ok {
		return c
	}
	return catalogs[LocalePolish]
}

type messageKind int

const (
	messageNone messageKind = iota
	messageLockedByCurrent
	messageNotYetAvailable
	messageWindowPassed
)

type badgeKind int

const (
	badgeActive badgeKind = iota
	badgeInProgress
	badgeSoon
	badgeEnded
	badgeDone
)

// formatClock renders an instant as HH:MM in loc
func formatClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(clockLayout)
}

// roundMinutes converts seconds to whole minutes, rounding half up
func roundMinutes(seconds int) int {
	return int(math.Round(float64(seconds) / 60))
}

func (c catalog) availability(kind messageKind, entry windowBounds, loc *time.Location) *string {
	var msg string
	switch kind {
	case messageLockedByCurrent:
		msg = c.lockedByCurrent
	case messageNotYetAvailable:
		if entry.start == nil {
			return nil
		}
		msg = fmt.Sprintf(c.notYetAvailable, formatClock(*entry.start, loc))
	case messageWindowPassed:
		if entry.end == nil {
			return nil
		}
		msg = fmt.Sprintf(c.windowPassed, formatClock(*entry.end, loc))
	default:
		return nil
	}
	return &msg
}

func (c catalog) badge(kind badgeKind, entry windowBounds, loc *time.Location) string {
	switch kind {
	case badgeInProgress:
		return c.badgeInProgress
	case badgeSoon:
		if entry.start == nil {
			return c.badgeSoon
		}
		return c.badgeSoon + " · " + formatClock(*entry.start, loc)
	case badgeEnded:
		if entry.end == nil {
			return c.badgeEnded
		}
		return c.badgeEnded + " · " + formatClock(*entry.end, loc)
	case badgeDone:
		return c.badgeDone
	default:
		return c.badgeActive
	}
}

// completionSummary joins the parts that have data; nil when neither does
func (c catalog) completionSummary(completedAt *time.Time, durationSeconds *int, loc *time.Location) *string {
	var parts []string
	if completedAt != nil {
		parts = append(parts, fmt.Sprintf(c.completedAt, formatClock(*completedAt, loc)))
	}
	if durationSeconds != nil {
		parts = append(parts, fmt.Sprintf(c.duration, roundMinutes(*durationSeconds)))
	}
	if len(parts) == 0 {
		return nil
	}
	summary := strings.Join(parts, " ")
	return &summary
}
