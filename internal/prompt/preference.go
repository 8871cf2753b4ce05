package prompt

import "strings"

// PreferencePromptVars holds the inputs of the preference parser prompt.
type PreferencePromptVars struct {
	Genres            []string
	TheatricalRatings []string
	TelevisionRatings []string
	UserQuery         string
}

type preferenceTemplateData struct {
	GenreList         string
	TheatricalRatings string
	TelevisionRatings string
	UserQuery         string
}

// BuildPreferencePrompt renders the prompt that maps a free-text request to a
// domain.PreferenceQuery JSON object.
func (pb *PromptBuilder) BuildPreferencePrompt(vars PreferencePromptVars) (string, error) {
	return pb.Render(TemplatePreferenceParser, preferenceTemplateData{
		GenreList:         strings.Join(vars.Genres, ", "),
		TheatricalRatings: strings.Join(vars.TheatricalRatings, " < "),
		TelevisionRatings: strings.Join(vars.TelevisionRatings, " < "),
		UserQuery:         strings.ReplaceAll(vars.UserQuery, `"`, `'`),
	})
}
