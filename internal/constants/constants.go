package constants

import "time"

var StoreKeys = struct {
	APIKey        string
	UserIDsPrefix string
	DetailsCache  string
	Discovered    string
	PosterPrefix  string
}{
	APIKey:        "cinematch:api_key",
	UserIDsPrefix: "cinematch:user_ids:",
	DetailsCache:  "cinematch:cache_v1",
	Discovered:    "cinematch:discovered_v1",
	PosterPrefix:  "cinematch:poster:",
}

var DiscoveryConfig = struct {
	PoolCap       int
	MaxNewDetails int
	PagesPerTerm  int
}{
	PoolCap:       100, // 추천 1회당 후보 풀 최대 크기
	MaxNewDetails: 40,  // 탐색 1회당 상세 조회 예산
	PagesPerTerm:  2,   // 키워드당 검색 페이지 수
}

var PaginationConfig = struct {
	ItemsPerPage int
	SessionTTL   time.Duration
}{
	ItemsPerPage: 12,
	SessionTTL:   30 * time.Minute,
}

var APIConfig = struct {
	OMDbBaseURL       string
	OMDbTimeout       time.Duration
	OMDbPageSize      int
	RequestsPerSecond float64
	Burst             int
	IMDbTitleURL      string
}{
	OMDbBaseURL:       "https://www.omdbapi.com/",
	OMDbTimeout:       10 * time.Second,
	OMDbPageSize:      10,
	RequestsPerSecond: 5,
	Burst:             2,
	IMDbTitleURL:      "https://www.imdb.com/title/",
}

var WebSocketConfig = struct {
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
}{
	MaxReconnectAttempts: 5,
	ReconnectDelay:       5 * time.Second,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
}{
	FailureThreshold:    3,                // 3회 연속 실패 시 Circuit OPEN
	ResetTimeout:        30 * time.Second, // 기본 재시도 대기 시간
	RateLimitTimeout:    10 * time.Minute, // 429 전용 타임아웃
	HealthCheckInterval: 5 * time.Minute,
}

var AIInputLimits = struct {
	MaxQueryLength int
	ParseCacheTTL  time.Duration
}{
	MaxQueryLength: 500,
	ParseCacheTTL:  10 * time.Minute,
}

var StringLimits = struct {
	Title  int
	Actors int
	Plot   int
}{
	Title:  60,
	Actors: 60,
	Plot:   200,
}

// DefaultMaxRuntime applies when a preference leaves the runtime ceiling unset.
const DefaultMaxRuntime = 999

// StarterIDs seed the pool before any discovery has happened.
var StarterIDs = []string{
	"tt0111161", "tt0068646", "tt0468569", "tt0137523", "tt0109830",
	"tt0120737", "tt1375666", "tt0167260", "tt0816692", "tt0133093",
	"tt0108052", "tt0080684", "tt0110912", "tt0120815", "tt0099685",
	"tt0076759", "tt0317248", "tt0114369", "tt0102926", "tt0047478",
	"tt0088763", "tt0050083", "tt0120689", "tt0172495", "tt0209144",
	"tt0245429", "tt0118799", "tt0361748", "tt6751668", "tt0120586",
	"tt0407887", "tt0038650", "tt1345836", "tt0482571", "tt0082971",
	"tt4154796", "tt0110413", "tt1853728", "tt1675434", "tt0435761",
	"tt0848228", "tt3896198", "tt0903624", "tt1877830", "tt2380307",
	"tt7286456", "tt2582802", "tt4633694", "tt5074352", "tt1392190",
	"tt0266543", "tt0090605", "tt0110357", "tt0103064", "tt0095327",
	"tt0062622", "tt0087843", "tt0086190", "tt0167404",
}

// DefaultGenres is offered when nothing is cached yet.
var DefaultGenres = []string{
	"ACTION", "ADVENTURE", "ANIMATION", "BIOGRAPHY", "COMEDY", "CRIME", "DRAMA",
	"FAMILY", "FANTASY", "HISTORY", "HORROR", "MYSTERY", "ROMANCE", "SCI-FI",
	"THRILLER", "WAR", "WESTERN",
}

// GenreKeywords are search seeds for genres the catalog cannot browse directly.
// Genres missing here fall back to their lowercase name.
var GenreKeywords = map[string][]string{
	"ACTION":    {"mission", "fight", "agent", "chase"},
	"ADVENTURE": {"journey", "quest", "island", "treasure"},
	"ANIMATION": {"toy", "dragon", "princess", "robot"},
	"BIOGRAPHY": {"story of", "life", "king", "legend"},
	"COMEDY":    {"wedding", "party", "vacation", "buddy"},
	"CRIME":     {"heist", "mafia", "detective", "gangster"},
	"DRAMA":     {"family", "love", "life", "war"},
	"FAMILY":    {"dog", "christmas", "home", "kids"},
	"FANTASY":   {"magic", "kingdom", "wizard", "dragon"},
	"HISTORY":   {"empire", "revolution", "battle", "king"},
	"HORROR":    {"haunted", "dead", "evil", "curse"},
	"MYSTERY":   {"murder", "secret", "missing", "detective"},
	"ROMANCE":   {"love", "wedding", "heart", "kiss"},
	"SCI-FI":    {"space", "alien", "future", "star"},
	"THRILLER":  {"killer", "night", "escape", "hunt"},
	"WAR":       {"war", "soldier", "battle", "army"},
	"WESTERN":   {"west", "cowboy", "gun", "outlaw"},
}

var TheatricalRatings = []string{"G", "PG", "PG-13", "R", "NC-17"}

var TelevisionRatings = []string{"TV-Y", "TV-G", "TV-PG", "TV-14", "TV-MA"}
