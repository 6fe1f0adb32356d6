package card

import (
	"net/url"
	"strings"
	"time"
)

// DatePartition identifies one UTC calendar day in the bucket layout.
type DatePartition struct {
	YearMonth string // "YYYY-MM"
	Day       string // "DD"
}

// PartitionFor resolves the UTC calendar date of ts into a partition.
// Boundaries are UTC-midnight aligned regardless of caller location.
func PartitionFor(ts time.Time) DatePartition {
	iso := ts.UTC().Format("2006-01-02")
	return DatePartition{
		YearMonth: iso[:7],
		Day:       iso[8:10],
	}
}

// ObjectKey composes the bucket key for one city, date and prompt version.
// An empty promptVersion yields the legacy unversioned layout.
func ObjectKey(slug string, p DatePartition, promptVersion string) string {
	segments := []string{p.YearMonth, p.Day}
	if promptVersion != "" {
		segments = append(segments, promptVersion)
	}
	segments = append(segments, slug+".webp")
	return strings.Join(segments, "/")
}

// PublicURL derives the CDN address of a stored object, percent-encoding
// each path segment independently.
func PublicURL(cdnBase, objectKey string) string {
	segments := strings.Split(objectKey, "/")
	encoded := make([]string, len(segments))
	for i, seg := range segments {
		encoded[i] = url.PathEscape(seg)
	}
	return strings.TrimRight(cdnBase, "/") + "/" + strings.Join(encoded, "/")
}
