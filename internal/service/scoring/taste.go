package scoring

import "github.com/kapu/cinematch-kakao-bot-go/internal/domain"

// BuildProfile counts each distinct genre, director and actor once per record.
// It returns nil when there are no records, which disables the taste boost.
func BuildProfile(records []*domain.MovieRecord) *domain.TasteProfile {
	profile := domain.NewTasteProfile()
	used := 0
	for _, record := range records {
		if record == nil {
			continue
		}
		used++
		for _, genre := range distinct(record.Genres()) {
			profile.Genres[genre]++
		}
		for _, director := range distinct(record.Directors()) {
			profile.Directors[director]++
		}
		for _, actor := range distinct(record.ActorNames()) {
			profile.Actors[actor]++
		}
	}

	if used == 0 {
		return nil
	}
	return profile
}
