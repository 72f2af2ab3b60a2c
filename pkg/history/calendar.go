package history

import "time"

// dayLabels are the weekday labels shown above the mood calendar, Sunday
// first. Thursday and Saturday get two letters so every label is distinct.
var dayLabels = [7]string{"S", "M", "T", "W", "Th", "F", "Sa"}

// DayLabel returns the calendar label for t's weekday.
func DayLabel(t time.Time) string {
	return dayLabels[t.Weekday()]
}

// DayLog is one cell of the mood calendar. Mood and Entry are empty when
// nothing was logged that day.
type DayLog struct {
	Date  time.Time `json:"date"`
	Day   string    `json:"day"`
	Mood  string    `json:"mood,omitempty"`
	Entry *Entry    `json:"entry,omitempty"`
}

// BuildCalendarLog projects entries onto the daysBack calendar days ending
// with now's day, oldest first. Days are compared in now's location; when
// several entries share a day the first one wins.
func BuildCalendarLog(entries []Entry, daysBack int, now time.Time) []DayLog {
	if daysBack <= 0 {
		return []DayLog{}
	}
	today := startOfDay(now)
	out := make([]DayLog, 0, daysBack)
	for offset := daysBack - 1; offset >= 0; offset-- {
		out = append(out, dayLog(entries, today.AddDate(0, 0, -offset)))
	}
	return out
}

// BuildMonthLog projects entries onto every day of now's month.
func BuildMonthLog(entries []Entry, now time.Time) []DayLog {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var out []DayLog
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		out = append(out, dayLog(entries, d))
	}
	return out
}

func dayLog(entries []Entry, day time.Time) DayLog {
	dl := DayLog{Date: day, Day: DayLabel(day)}
	for i := range entries {
		if SameDay(entries[i].Date, day, day.Location()) {
			e := entries[i]
			dl.Mood = e.Mood
			dl.Entry = &e
			break
		}
	}
	return dl
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
