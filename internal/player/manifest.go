package player

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// MediaURL resolves an entry id into something MPV can open.  Entry ids that already are URLs or local files are
// passed through untouched, everything else is turned into a playManifest URL of the media service.
func MediaURL(serviceURL, partnerID string, info MediaInfo) (string, error) {
	if info.EntryID == "" {
		return "", fmt.Errorf("empty entry id")
	}
	if strings.Contains(info.EntryID, "://") {
		return info.EntryID, nil
	}
	if _, err := os.Stat(info.EntryID); err == nil {
		return info.EntryID, nil
	}

	if serviceURL == "" || partnerID == "" {
		return "", fmt.Errorf("cannot resolve entry %q without a service url and partner id", info.EntryID)
	}

	base, err := url.Parse(serviceURL)
	if err != nil {
		return "", fmt.Errorf("invalid service url: %w", err)
	}

	manifest := base.JoinPath(
		"p", partnerID,
		"sp", partnerID+"00",
		"playManifest",
		"entryId", info.EntryID,
		"format", "url",
		"protocol", base.Scheme,
		"a.mp4",
	)
	if info.KS != "" {
		query := manifest.Query()
		query.Set("ks", info.KS)
		manifest.RawQuery = query.Encode()
	}
	return manifest.String(), nil
}
