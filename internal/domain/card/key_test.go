package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPartitionForUsesUTC(t *testing.T) {
	// 2024-07-01 23:30 in UTC+8 is still June 30 in UTC... the other way around:
	// 2024-07-01 03:30 +08:00 is 2024-06-30 19:30 UTC.
	ts := time.Date(2024, 7, 1, 3, 30, 0, 0, time.FixedZone("SGT", 8*3600))
	p := PartitionFor(ts)
	require.Equal(t, "2024-06", p.YearMonth)
	require.Equal(t, "30", p.Day)
}

func TestObjectKeyVersioned(t *testing.T) {
	p := DatePartition{YearMonth: "2024-07", Day: "01"}
	require.Equal(t, "2024-07/01/v2/paris.webp", ObjectKey("paris", p, "v2"))
}

func TestObjectKeyUnversioned(t *testing.T) {
	p := DatePartition{YearMonth: "2024-07", Day: "01"}
	require.Equal(t, "2024-07/01/paris.webp", ObjectKey("paris", p, ""))
}

func TestObjectKeyStableAcrossCalls(t *testing.T) {
	ts := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	first := ObjectKey(Slugify("Paris"), PartitionFor(ts), "v2")
	second := ObjectKey(Slugify("Paris"), PartitionFor(ts.Add(2*time.Hour)), "v2")
	require.Equal(t, first, second)

	nextDay := ObjectKey(Slugify("Paris"), PartitionFor(ts.Add(24*time.Hour)), "v2")
	require.NotEqual(t, first, nextDay)

	otherVersion := ObjectKey(Slugify("Paris"), PartitionFor(ts), "v3")
	require.NotEqual(t, first, otherVersion)
}

func TestPublicURLEncodesSegments(t *testing.T) {
	url := PublicURL("https://cdn.example.com/", "2024-07/01/v2/paris.webp")
	require.Equal(t, "https://cdn.example.com/2024-07/01/v2/paris.webp", url)

	encoded := PublicURL("https://cdn.example.com", "2024-07/01/u-676d5dde.webp")
	require.Equal(t, "https://cdn.example.com/2024-07/01/u-676d5dde.webp", encoded)
}
