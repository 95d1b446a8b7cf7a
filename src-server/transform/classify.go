package transform

import (
	"strings"

	"eventsync/src-server/model"
)

// TypeRule classifies an event when any keyword is a substring of its text.
type TypeRule struct {
	Type     model.EventType
	Keywords []string
}

// TagRule adds Tag when Keyword is a substring of the event text.
type TagRule struct {
	Keyword string
	Tag     string
}

// Rules are evaluated in order; the first matching type rule wins.
var TypeRules = []TypeRule{
	{Type: model.EventTypeTournament, Keywords: []string{"tournament", "cup", "bracket", "championship", "showmatch"}},
	{Type: model.EventTypeCoaching, Keywords: []string{"coaching", "coach", "lesson", "replay review", "vod review", "class", "workshop"}},
	{Type: model.EventTypeArcade, Keywords: []string{"arcade", "custom game", "direct strike", "nexus wars", "fun night"}},
}

var TagRules = []TagRule{
	{Keyword: "zerg", Tag: "zerg"},
	{Keyword: "protoss", Tag: "protoss"},
	{Keyword: "terran", Tag: "terran"},
	{Keyword: "zvz", Tag: "zerg"},
	{Keyword: "pvp", Tag: "protoss"},
	{Keyword: "tvt", Tag: "terran"},
	{Keyword: "beginner", Tag: "beginner"},
	{Keyword: "bronze", Tag: "beginner"},
	{Keyword: "silver", Tag: "beginner"},
	{Keyword: "gold", Tag: "intermediate"},
	{Keyword: "platinum", Tag: "intermediate"},
	{Keyword: "diamond", Tag: "advanced"},
	{Keyword: "master", Tag: "advanced"},
	{Keyword: "macro", Tag: "macro"},
	{Keyword: "build order", Tag: "build-order"},
	{Keyword: "micro", Tag: "micro"},
	{Keyword: "ladder", Tag: "ladder"},
	{Keyword: "team", Tag: "team-games"},
	{Keyword: "2v2", Tag: "team-games"},
}

// CoachHandles are matched in order against the event text.
var CoachHandles = []string{"groovy", "hino", "nico", "gamerrichy", "battleb", "drakk"}

func eventText(title, description string) string {
	return strings.ToLower(title + " " + description)
}

// ClassifyType returns the type of the first rule with a matching keyword,
// other when nothing matches.
func ClassifyType(text string) model.EventType {
	for _, rule := range TypeRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				return rule.Type
			}
		}
	}
	return model.EventTypeOther
}

// ClassifyTags returns every tag whose keyword appears in text, deduplicated.
func ClassifyTags(text string) []string {
	tags := make([]string, 0)
	seen := make(map[string]struct{})
	for _, rule := range TagRules {
		if _, ok := seen[rule.Tag]; ok {
			continue
		}
		if strings.Contains(text, rule.Keyword) {
			seen[rule.Tag] = struct{}{}
			tags = append(tags, rule.Tag)
		}
	}
	return tags
}

// ClassifyCoach returns the first known coach handle found in text.
func ClassifyCoach(text string) string {
	for _, handle := range CoachHandles {
		if strings.Contains(text, handle) {
			return handle
		}
	}
	return ""
}

// Classify fills Type, Tags and Coach from the title and description.
// Coach is only filled when empty.
func Classify(e *model.LocalEvent) {
	text := eventText(e.Title, e.Description)
	e.Type = ClassifyType(text)
	e.SetTags(ClassifyTags(text)...)
	if e.Coach == "" {
		e.Coach = ClassifyCoach(text)
	}
}
