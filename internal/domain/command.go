package domain

type CommandType string

const (
	CommandRecommend  CommandType = "recommend"
	CommandMore       CommandType = "more"
	CommandSearch     CommandType = "search"
	CommandAdd        CommandType = "add"
	CommandList       CommandType = "list"
	CommandGenres     CommandType = "genres"
	CommandInfo       CommandType = "info"
	CommandTrailer    CommandType = "trailer"
	CommandSetKey     CommandType = "set_key"
	CommandClearCache CommandType = "clear_cache"
	CommandAsk        CommandType = "ask"
	CommandHelp       CommandType = "help"
	CommandUnknown    CommandType = "unknown"
)

func (c CommandType) String() string {
	return string(c)
}

func (c CommandType) IsValid() bool {
	switch c {
	case CommandRecommend, CommandMore, CommandSearch, CommandAdd, CommandList,
		CommandGenres, CommandInfo, CommandTrailer, CommandSetKey, CommandClearCache,
		CommandAsk, CommandHelp, CommandUnknown:
		return true
	default:
		return false
	}
}

// PreferenceQuery is the structured form of a natural-language request.
type PreferenceQuery struct {
	Genres     []string `json:"genres"`
	MinRating  float64  `json:"minRating"`
	AgeRating  string   `json:"ageRating"`
	MaxRuntime int      `json:"maxRuntime"`
	Reasoning  string   `json:"reasoning,omitempty"`
}
