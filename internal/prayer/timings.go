package prayer

// Names are the daily prayers shown to the user, in display order.
var Names = []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// Timings maps a prayer name to its time of day ("05:56").
// The upstream also returns Sunrise, Imsak, Midnight etc.; they are kept but not displayed.
type Timings map[string]string

// Prayer is one displayed entry.
type Prayer struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// Ordered returns the displayed prayers in order, skipping any the upstream omitted.
func (t Timings) Ordered() []Prayer {
	out := make([]Prayer, 0, len(Names))
	for _, name := range Names {
		if v, ok := t[name]; ok {
			out = append(out, Prayer{Name: name, Time: v})
		}
	}
	return out
}

// Clone returns an independent copy.
func (t Timings) Clone() Timings {
	if t == nil {
		return nil
	}
	out := make(Timings, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
