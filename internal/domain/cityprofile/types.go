package cityprofile

// Profile holds structured architectural facts about a city. Every field is
// populated in the value handed to callers; normalization substitutes the
// deterministic defaults below for anything absent or malformed.
type Profile struct {
	NativeName    string   `json:"native_name"`
	EnglishName   string   `json:"english_name"`
	Skyline       string   `json:"skyline"`
	Landmarks     []string `json:"landmarks"`
	Styles        []string `json:"styles"`
	Materials     []string `json:"materials"`
	Palette       []string `json:"palette"`
	StreetPattern string   `json:"street_pattern"`
	WeatherCues   []string `json:"weather_cues"`
	Avoid         []string `json:"avoid"`
}

// maxListItems caps every list field.
const maxListItems = 8

const (
	defaultSkyline       = "a compact downtown cluster surrounded by dense low-rise blocks"
	defaultStreetPattern = "an irregular grid radiating from a historic center"
)

var (
	defaultLandmarks = []string{"central square", "old town hall", "riverside promenade"}
	defaultStyles    = []string{"contemporary", "regional vernacular"}
	defaultMaterials = []string{"concrete", "glass", "brick"}
	defaultPalette   = []string{"soft gray", "warm beige", "muted blue"}
	defaultCues      = []string{"wet reflective streets when raining", "long soft shadows when clear"}
	defaultAvoid     = []string{"landmarks from other cities", "text artifacts in the scene"}
)

// FallbackProfile returns the deterministic profile used when analysis fails.
func FallbackProfile(city string) Profile {
	return Profile{
		NativeName:    city,
		EnglishName:   city,
		Skyline:       defaultSkyline,
		Landmarks:     cloneList(defaultLandmarks),
		Styles:        cloneList(defaultStyles),
		Materials:     cloneList(defaultMaterials),
		Palette:       cloneList(defaultPalette),
		StreetPattern: defaultStreetPattern,
		WeatherCues:   cloneList(defaultCues),
		Avoid:         cloneList(defaultAvoid),
	}
}

func cloneList(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}
