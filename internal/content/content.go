// Package content holds the fixed texts shown by the assistant: supplications,
// reminders, activities, the selectable nights and the navigation tabs.
// Everything here is read-only; accessors return copies.
package content

import (
	"fmt"
	"strconv"
)

// Supplication is a duaa in its original script with transliteration and translation.
type Supplication struct {
	Arabic          string `json:"arabic"`
	Transliteration string `json:"transliteration"`
	Translation     string `json:"translation"`
}

// Tab identifies a content panel.
type Tab string

const (
	TabDuaas      Tab = "duaas"
	TabReminders  Tab = "reminders"
	TabActivities Tab = "activities"
	TabChat       Tab = "chat"
)

// DefaultTab is the panel shown to a new session.
const DefaultTab = TabDuaas

// Night is one of the odd nights of the last ten nights of Ramadan.
type Night int

// DefaultNight is the night shown to a new session.
const DefaultNight Night = 21

// Greeting opens every chat history.
const Greeting = "Assalamu alaikum! I'm here to help answer your questions about Islam. What would you like to know?"

// Title and ArabicTitle head the page.
const (
	Title       = "Ramadan Assistant"
	ArabicTitle = "رمضان كريم"
)

var tabs = []Tab{TabDuaas, TabReminders, TabActivities, TabChat}

var tabLabels = map[Tab]string{
	TabDuaas:      "Duaas",
	TabReminders:  "Reminders",
	TabActivities: "Activities",
	TabChat:       "Ask Questions",
}

var nights = []Night{21, 23, 25, 27, 29}

var supplications = []Supplication{
	{
		Arabic:          "اللَّهُمَّ إِنَّكَ عَفُوٌّ تُحِبُّ الْعَفْوَ فَاعْفُ عَنِّي",
		Translation:     "O Allah, You are Most Forgiving, and You love forgiveness; so forgive me",
		Transliteration: "Allahumma innaka 'afuwwun tuhibbul 'afwa fa'fu 'anni",
	},
	{
		Arabic:          "رَبَّنَا آتِنَا فِي الدُّنْيَا حَسَنَةً وَفِي الآخِرَةِ حَسَنَةً وَقِنَا عَذَابَ النَّارِ",
		Translation:     "Our Lord, grant us good in this world and good in the Hereafter, and protect us from the torment of the Fire",
		Transliteration: "Rabbana atina fid-dunya hasanatan wa fil-akhirati hasanatan waqina 'adhaban-nar",
	},
	{
		Arabic:          "رَبِّ اغْفِرْ لِي وَلِوَالِدَيَّ وَلِلْمُؤْمِنِينَ يَوْمَ يَقُومُ الْحِسَابُ",
		Translation:     "My Lord, forgive me and my parents and the believers on the Day when the account will be established",
		Transliteration: "Rabbigh-fir lee wa li-walidayya wa lil-mu'mineena yawma yaqoomul hisaab",
	},
	{
		Arabic:          "اللَّهُمَّ إِنِّي أَسْأَلُكَ الْهُدَى وَالتُّقَى وَالْعَفَافَ وَالْغِنَى",
		Translation:     "O Allah, I ask You for guidance, piety, chastity and contentment",
		Transliteration: "Allahumma inni as'alukal-huda wat-tuqa wal-'afafa wal-ghina",
	},
	{
		Arabic:          "رَبِّ زِدْنِي عِلْماً",
		Translation:     "My Lord, increase me in knowledge",
		Transliteration: "Rabbi zidni 'ilma",
	},
}

var reminders = []string{
	"Pray Tahajjud in the last third of the night",
	"Recite Quran with understanding",
	"Give charity",
	"Make abundant dua",
	"Perform I'tikaf if possible",
}

var activities = []string{
	"Complete Quran recitation",
	"Extra prayers (Nafl)",
	"Dhikr sessions",
	"Help prepare Iftar",
	"Share Islamic knowledge",
}

var suggestedTopics = []string{
	"The Five Pillars of Islam",
	"How to perform Wudu",
	"What is Ramadan",
	"Prayer times and rakats",
	"What breaks the fast",
}

// Supplications returns the fixed list of duaas.
func Supplications() []Supplication {
	return append([]Supplication(nil), supplications...)
}

// Reminders returns the fixed list of reminders.
func Reminders() []string {
	return append([]string(nil), reminders...)
}

// Activities returns the fixed list of activities.
func Activities() []string {
	return append([]string(nil), activities...)
}

// SuggestedTopics returns the hints listed under the chat box.
func SuggestedTopics() []string {
	return append([]string(nil), suggestedTopics...)
}

// Tabs returns every tab in navigation order.
func Tabs() []Tab {
	return append([]Tab(nil), tabs...)
}

// Nights returns every selectable night in ascending order.
func Nights() []Night {
	return append([]Night(nil), nights...)
}

// Label is the navigation caption of the tab.
func (t Tab) Label() string {
	return tabLabels[t]
}

// Valid reports whether t is one of the known tabs.
func (t Tab) Valid() bool {
	_, ok := tabLabels[t]
	return ok
}

// ParseTab validates a tab name.
func ParseTab(s string) (Tab, error) {
	t := Tab(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tab %q", s)
	}
	return t, nil
}

// Valid reports whether n is one of the selectable nights.
func (n Night) Valid() bool {
	for _, v := range nights {
		if v == n {
			return true
		}
	}
	return false
}

func (n Night) String() string {
	return strconv.Itoa(int(n))
}

// ParseNight validates a night number given as text.
func ParseNight(s string) (Night, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid night %q: %w", s, err)
	}
	n := Night(v)
	if !n.Valid() {
		return 0, fmt.Errorf("unknown night %d", v)
	}
	return n, nil
}
