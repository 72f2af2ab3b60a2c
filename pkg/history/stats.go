package history

import (
	"sort"
	"time"
)

// MoodCount is the number of logged days for one mood.
type MoodCount struct {
	Mood  string `json:"mood"`
	Count int    `json:"count"`
}

// Stats summarizes the journal over a trailing window of days.
type Stats struct {
	Days          int         `json:"days"`
	LoggedDays    int         `json:"logged_days"`
	Moods         []MoodCount `json:"moods"`
	CurrentStreak int         `json:"current_streak"`
	LongestStreak int         `json:"longest_streak"`
}

// ComputeStats counts moods and streaks over the days calendar days ending
// with now's day. The current streak still counts when today has not been
// logged yet but yesterday was.
func ComputeStats(entries []Entry, days int, now time.Time) Stats {
	cal := BuildCalendarLog(entries, days, now)
	st := Stats{Days: days, Moods: []MoodCount{}}

	counts := map[string]int{}
	run := 0
	for _, dl := range cal {
		if dl.Entry == nil {
			run = 0
			continue
		}
		st.LoggedDays++
		counts[dl.Mood]++
		run++
		if run > st.LongestStreak {
			st.LongestStreak = run
		}
	}

	for i := len(cal) - 1; i >= 0; i-- {
		if cal[i].Entry == nil {
			if i == len(cal)-1 {
				continue
			}
			break
		}
		st.CurrentStreak++
	}

	for mood, n := range counts {
		st.Moods = append(st.Moods, MoodCount{Mood: mood, Count: n})
	}
	sort.Slice(st.Moods, func(i, j int) bool {
		if st.Moods[i].Count != st.Moods[j].Count {
			return st.Moods[i].Count > st.Moods[j].Count
		}
		return st.Moods[i].Mood < st.Moods[j].Mood
	})
	return st
}
