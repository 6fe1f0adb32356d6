package card

import (
	"fmt"
	"strings"

	"github.com/undownding/city-card/internal/domain/cityprofile"
)

const styleRules = `Image style:
Present a clear, 45-degree top-down view of an isometric miniature 3D scene, highlighting iconic landmarks centered in the composition to showcase precise and delicate modeling.
The scene features soft, refined textures with realistic PBR materials and gentle, lifelike lighting and shadow effects.
Weather elements are creatively integrated into the urban architecture, establishing a dynamic interaction between the city's landscape and atmospheric conditions, creating an immersive but restrained weather ambiance.
Use a clean, unified composition with minimalistic aesthetics and a soft, solid-colored background that highlights the main content.
The overall visual style should feel modern, calm, and semi-realistic, avoiding exaggerated cartoon proportions or playful styling.`

const headerRules = `Text header layout:
Text and weather information should be placed near the top center of the canvas, forming a clearly separated, well-balanced header area with sufficient vertical spacing from the 3D city scene below to prevent visual overlap.
The header is divided horizontally into two parts:
- Left part: a weather emoji, its total height matching the full height of the three-line text group on the right.
- Right part: a vertically stacked three-line text group: city name (largest), daily temperature range in Celsius (medium), date (smallest).
A very subtle, extremely light and thin vertical divider line may be placed between the emoji and the text group.
The entire header block should appear centered, aligned, and floating cleanly above the scene, with no background panel.
All text must be in the city's native language.`

const descriptorRules = `After generating the image, output ONLY the following JSON as text (no markdown fences, no extra text):
{"city_slug":"<lowercase-romanized-no-spaces>","resolved_name":"<city name on card>","condition":"<weather in native lang>","icon":"<emoji>","temp_min":<int>,"temp_max":<int>,"current_temp":<int>}`

// buildImagePrompt assembles the single-turn generation instruction. The
// profile section is only present when enrichment resolved (or fell back to)
// architectural facts for the city.
func buildImagePrompt(city string, profile *cityprofile.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You have access to Google Search. Search for today's real-time weather in %q, then generate a weather card image.\n\n", city)

	if profile != nil {
		b.WriteString("City reference (ground the scene in these facts):\n")
		fmt.Fprintf(&b, "- Native name: %s (English: %s)\n", profile.NativeName, profile.EnglishName)
		fmt.Fprintf(&b, "- Skyline: %s\n", profile.Skyline)
		fmt.Fprintf(&b, "- Landmarks: %s\n", strings.Join(profile.Landmarks, ", "))
		fmt.Fprintf(&b, "- Architectural styles: %s\n", strings.Join(profile.Styles, ", "))
		fmt.Fprintf(&b, "- Materials: %s\n", strings.Join(profile.Materials, ", "))
		fmt.Fprintf(&b, "- Palette: %s\n", strings.Join(profile.Palette, ", "))
		fmt.Fprintf(&b, "- Street pattern: %s\n", profile.StreetPattern)
		fmt.Fprintf(&b, "- Weather visual cues: %s\n", strings.Join(profile.WeatherCues, ", "))
		fmt.Fprintf(&b, "- Avoid: %s\n", strings.Join(profile.Avoid, ", "))
		b.WriteString("\n")
	}

	b.WriteString(styleRules)
	b.WriteString("\n\n")
	b.WriteString(headerRules)
	b.WriteString("\n\n")
	b.WriteString(descriptorRules)
	return b.String()
}
