package music

import "strings"

// Mood is one of the fixed selections offered to the user. Label is used
// verbatim in prompts and journaled with each entry.
type Mood struct {
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

var (
	Happy   = Mood{Emoji: "😊", Label: "Happy"}
	Meh     = Mood{Emoji: "😐", Label: "Meh"}
	Sad     = Mood{Emoji: "😔", Label: "Sad"}
	Excited = Mood{Emoji: "🤩", Label: "Excited"}
	Tired   = Mood{Emoji: "🥱", Label: "Tired"}
	Anxious = Mood{Emoji: "😣", Label: "Anxious"}
)

// Moods lists every selection in display order.
func Moods() []Mood {
	return []Mood{Happy, Meh, Sad, Excited, Tired, Anxious}
}

// LookupMood finds a mood by emoji or by case-insensitive label.
func LookupMood(s string) (Mood, bool) {
	s = strings.TrimSpace(s)
	for _, m := range Moods() {
		if s == m.Emoji || strings.EqualFold(s, m.Label) {
			return m, true
		}
	}
	return Mood{}, false
}
