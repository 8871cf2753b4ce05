package domain

// TasteProfile holds raw frequency counts built from a user's movie list.
// Only key presence is used for scoring.
type TasteProfile struct {
	Genres    map[string]int
	Directors map[string]int
	Actors    map[string]int
}

func NewTasteProfile() *TasteProfile {
	return &TasteProfile{
		Genres:    make(map[string]int),
		Directors: make(map[string]int),
		Actors:    make(map[string]int),
	}
}

func (t *TasteProfile) IsEmpty() bool {
	return t == nil || (len(t.Genres) == 0 && len(t.Directors) == 0 && len(t.Actors) == 0)
}
