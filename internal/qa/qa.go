// Package qa answers a small fixed set of common questions.
package qa

import "strings"

// Fallback is returned for every question without a canned answer.
const Fallback = "I apologize, but I don't have specific information about that. Please consult with a knowledgeable Islamic scholar or refer to reliable Islamic sources for accurate guidance."

var questions = []string{
	"what are the five pillars of islam",
	"how do i perform wudu",
	"what is ramadan",
	"how many rakats in each prayer",
	"what breaks the fast",
}

var answers = map[string]string{
	"what are the five pillars of islam": "The Five Pillars of Islam are: 1) Shahada (Declaration of Faith), 2) Salah (Prayer), 3) Zakat (Charity), 4) Sawm (Fasting during Ramadan), and 5) Hajj (Pilgrimage to Mecca).",
	"how do i perform wudu":              "Wudu (ablution) steps: 1) Make intention 2) Wash hands 3) Rinse mouth and nose 4) Wash face 5) Wash arms to elbows 6) Wipe head 7) Wipe ears 8) Wash feet to ankles. Perform in order and ensure each part is washed three times.",
	"what is ramadan":                    "Ramadan is the ninth month of the Islamic calendar when Muslims fast from dawn to sunset. It's a time of spiritual reflection, increased charity and worship, and reading of the Quran.",
	"how many rakats in each prayer":     "Fajr: 2 rakats\nDhuhr: 4 rakats\nAsr: 4 rakats\nMaghrib: 3 rakats\nIsha: 4 rakats",
	"what breaks the fast":               "Things that break the fast include: eating, drinking, intimate relations, intentional vomiting, and the beginning of menstruation. Unintentional acts do not break the fast.",
}

// Lookup lowercases the question and matches it exactly against the known keys.
// No trimming or punctuation folding is applied.
func Lookup(question string) (string, bool) {
	answer, ok := answers[strings.ToLower(question)]
	return answer, ok
}

// Answer returns the canned answer for question or Fallback.
func Answer(question string) string {
	if answer, ok := Lookup(question); ok {
		return answer
	}
	return Fallback
}

// Questions lists the known question keys.
func Questions() []string {
	return append([]string(nil), questions...)
}
