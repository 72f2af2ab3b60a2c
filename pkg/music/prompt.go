package music

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SystemPrompt is sent as the system message for every suggestion request.
const SystemPrompt = "You are a music recommendation assistant."

const jsonShape = `Return only a JSON object in this format, with no markdown and no explanation:
{
  "title": "Song Title",
  "artist": "Artist Name"
}`

// SuggestionPrompt builds the user message for a daily pick.
func SuggestionPrompt(moodLabel string) string {
	return fmt.Sprintf("Give me a fun and underrated '%s' mood song recommendation. "+
		"Try not to repeat popular choices. %s", moodLabel, jsonShape)
}

// AlternativePrompt builds the user message for a bonus pick that must differ
// from primary.
func AlternativePrompt(moodLabel string, primary Suggestion) string {
	return fmt.Sprintf("Today's '%s' mood pick is \"%s\" by %s. "+
		"Suggest a different bonus song that shares the same vibe. "+
		"It must not be that song, a remix of it, or a cover of it. %s",
		moodLabel, primary.Title, primary.Artist, jsonShape)
}

var errNoObject = errors.New("no JSON object found in content")

// ParseSuggestion decodes the model's content field. Text around the
// outermost JSON object, such as markdown fences, is ignored.
func ParseSuggestion(content string) (Suggestion, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return Suggestion{}, Fail(ParseError, "parse suggestion", errNoObject)
	}
	var s Suggestion
	if err := json.Unmarshal([]byte(content[start:end+1]), &s); err != nil {
		return Suggestion{}, Fail(ParseError, "parse suggestion", err)
	}
	s.Title = strings.TrimSpace(s.Title)
	s.Artist = strings.TrimSpace(s.Artist)
	if s.Title == "" || s.Artist == "" {
		return Suggestion{}, Fail(NoResults, "parse suggestion", errors.New("empty title or artist"))
	}
	return s, nil
}
