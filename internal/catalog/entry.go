package catalog

import (
	"time"

	"github.com/dustin/go-humanize"
)

// ShortDigestLen is the digest prefix length shown in listings.
const ShortDigestLen = 12

// ShortDigest returns the leading characters of the BLAKE3 digest, enough
// to pass back to Get.
func (e *Entry) ShortDigest() string {
	if len(e.Digests.BLAKE3) <= ShortDigestLen {
		return e.Digests.BLAKE3
	}
	return e.Digests.BLAKE3[:ShortDigestLen]
}

// HumanSize returns the source size in SI units, e.g. "1.2 kB".
func (e *Entry) HumanSize() string {
	return humanize.Bytes(uint64(e.Size))
}

// Age describes when the entry was indexed relative to now, e.g. "3 hours ago".
func (e *Entry) Age(now time.Time) string {
	return humanize.RelTime(e.IndexedAt, now, "ago", "from now")
}

// Title returns the score's name attribute, or its path when unnamed.
func (e *Entry) Title() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Path
}
