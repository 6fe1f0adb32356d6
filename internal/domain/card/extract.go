package card

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/undownding/city-card/internal/domain/cityprofile"
	"github.com/undownding/city-card/internal/infra/gateway"
)

const defaultImageMime = "image/webp"

var (
	errNoCandidates = errors.New("response has no candidates")
	errNoParts      = errors.New("candidate has no content parts")
	errNoInlineData = errors.New("no part carries inline image data")
	errEmptyImage   = errors.New("inline image data is empty")
)

// extractImage locates the inline image payload in a generation response and
// decodes it. The declared mime type wins; absent one the stored default
// applies.
func extractImage(resp gateway.GenerateContentResponse) ([]byte, string, error) {
	if len(resp.Candidates) == 0 {
		return nil, "", errNoCandidates
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return nil, "", errNoParts
	}

	var inline *gateway.InlineData
	for i := range parts {
		if parts[i].InlineData != nil {
			inline = parts[i].InlineData
			break
		}
	}
	if inline == nil {
		return nil, "", errNoInlineData
	}
	if inline.Data == "" {
		return nil, "", errEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errEmptyImage
	}

	mime := inline.MimeType
	if mime == "" {
		mime = defaultImageMime
	}
	return data, mime, nil
}

// extractDescriptor scans the text parts of the first candidate for the
// trailing card descriptor JSON. The descriptor is best effort; a missing or
// malformed one is simply reported absent.
func extractDescriptor(resp gateway.GenerateContentResponse) (Descriptor, bool) {
	if len(resp.Candidates) == 0 {
		return Descriptor{}, false
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Thought || part.Text == "" {
			continue
		}
		text.WriteString(part.Text)
	}

	raw, ok := cityprofile.ExtractJSONObject(text.String())
	if !ok {
		return Descriptor{}, false
	}

	var desc Descriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return Descriptor{}, false
	}
	if desc.CitySlug == "" && desc.ResolvedName == "" && desc.Condition == "" {
		return Descriptor{}, false
	}
	return desc, true
}
