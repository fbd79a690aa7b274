package profile

import (
	"math/rand"
)

type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

type Emotion string

const (
	EmotionNeutral Emotion = "neutral"
	EmotionGood    Emotion = "good"
	EmotionEvil    Emotion = "evil"
)

// Profile describes one SpeechKit voice. Name is the upstream voice id,
// DisplayName is the Russian name shown to the user.
type Profile struct {
	Name        string
	Gender      Gender
	DisplayName string
	Emotions    []Emotion
}

// SupportsEmotion reports whether the voice accepts the given emotion role.
func (p Profile) SupportsEmotion(e Emotion) bool {
	for _, have := range p.Emotions {
		if have == e {
			return true
		}
	}
	return false
}

var neutralOnly = []Emotion{EmotionNeutral}
var fullRange = []Emotion{EmotionNeutral, EmotionGood, EmotionEvil}

// Catalog lists the SpeechKit v1 voices the gateway selects from. Only jane,
// omazh and ermil accept an emotion role; the rest are neutral-only.
var Catalog = []Profile{
	{Name: "marina", Gender: GenderFemale, DisplayName: "Марина", Emotions: neutralOnly},
	{Name: "jane", Gender: GenderFemale, DisplayName: "Джейн", Emotions: fullRange},
	{Name: "oksana", Gender: GenderFemale, DisplayName: "Оксана", Emotions: neutralOnly},
	{Name: "omazh", Gender: GenderFemale, DisplayName: "Омаж", Emotions: fullRange},
	{Name: "alena", Gender: GenderFemale, DisplayName: "Алена", Emotions: neutralOnly},
	{Name: "filipp", Gender: GenderMale, DisplayName: "Филипп", Emotions: neutralOnly},
	{Name: "ermil", Gender: GenderMale, DisplayName: "Ермил", Emotions: fullRange},
	{Name: "madirus", Gender: GenderMale, DisplayName: "Мадирус", Emotions: neutralOnly},
	{Name: "anton", Gender: GenderMale, DisplayName: "Антон", Emotions: neutralOnly},
}

// Random picks a profile for a new session.
func Random() Profile {
	return Catalog[rand.Intn(len(Catalog))]
}

// RandomByGender picks a random profile of the given gender; false when the
// catalog has none.
func RandomByGender(g Gender) (Profile, bool) {
	var matching []Profile
	for _, p := range Catalog {
		if p.Gender == g {
			matching = append(matching, p)
		}
	}
	if len(matching) == 0 {
		return Profile{}, false
	}
	return matching[rand.Intn(len(matching))], true
}

// ByName looks a profile up by its upstream voice id.
func ByName(name string) (Profile, bool) {
	for _, p := range Catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}
