// Package manifest decodes an update endpoint's HTTP response into a
// normalized ReleaseRecord, hiding the two wire shapes ("flat" and
// "per-platform") a server may use behind a single downstream type.
package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/flanksource/commons/logger"
	selferrors "github.com/flanksource/selfupdate/pkg/errors"
	"github.com/flanksource/selfupdate/pkg/platform"
)

// Format identifies which installer strategy an artifact needs.
type Format string

const (
	FormatApp      Format = "app"
	FormatAppImage Format = "appimage"
	FormatNsis     Format = "nsis"
	FormatWix      Format = "wix"
)

// expectedOS is what OS a given Format is expected to target, used
// to reject a manifest whose declared format can't belong to the
// platform it was resolved for.
func (f Format) expectedOS() string {
	switch f {
	case FormatApp:
		return "macos"
	case FormatAppImage:
		return "linux"
	case FormatNsis, FormatWix:
		return "windows"
	default:
		return ""
	}
}

// platformEntry is the per-platform block of a "per-platform" manifest.
type platformEntry struct {
	URL       string `json:"url"`
	Signature string `json:"signature"`
	Format    string `json:"format"`
}

// rawManifest accepts both wire shapes a manifest endpoint may return. Which
// shape is in play is detected by the presence of the Platforms map.
type rawManifest struct {
	Version   string                   `json:"version"`
	URL       string                   `json:"url,omitempty"`
	Signature string                   `json:"signature,omitempty"`
	Format    string                   `json:"format,omitempty"`
	Notes     string                   `json:"notes,omitempty"`
	PubDate   string                   `json:"pub_date,omitempty"`
	Platforms map[string]platformEntry `json:"platforms,omitempty"`
}

// ReleaseRecord is the normalized, platform-specific release the rest
// of the engine operates on — the single in-memory form for both wire
// dialects.
type ReleaseRecord struct {
	Version   *semver.Version
	URL       string
	Signature string
	Format    Format
	Notes     string
	PubDate   *time.Time
}

// Outcome distinguishes "no update" from "here's a release" without
// forcing callers to nil-check a *ReleaseRecord.
type Outcome struct {
	Record *ReleaseRecord // nil when NoUpdate is true
	NoUpdate bool
}

// Parse applies the update-check rules against an HTTP response already read
// into memory. currentVersion gates the result: a manifest version that
// is not strictly greater than currentVersion is reported as NoUpdate.
func Parse(status int, body []byte, plat platform.Platform, currentVersion *semver.Version) (Outcome, error) {
	if status == 204 {
		return Outcome{NoUpdate: true}, nil
	}
	if status != 200 {
		return Outcome{}, selferrors.WrapNetwork("update endpoint returned unexpected status", status, nil)
	}

	var raw rawManifest
	if err := json.Unmarshal(body, &raw); err != nil {
		return Outcome{}, selferrors.Wrap(selferrors.Manifest, "failed to decode manifest JSON", err)
	}

	var entry platformEntry
	if raw.Platforms != nil {
		pe, ok := raw.Platforms[plat.String()]
		if !ok {
			logger.V(3).Infof("manifest has no entry for platform %s", plat.String())
			return Outcome{NoUpdate: true}, nil
		}
		entry = pe
	} else {
		entry = platformEntry{URL: raw.URL, Signature: raw.Signature, Format: raw.Format}
	}

	if entry.Signature == "" {
		return Outcome{}, selferrors.New(selferrors.Manifest, "manifest is missing a signature")
	}
	if entry.URL == "" {
		return Outcome{}, selferrors.New(selferrors.Manifest, "manifest is missing a url")
	}

	format := Format(strings.ToLower(entry.Format))
	if format.expectedOS() == "" {
		return Outcome{}, selferrors.New(selferrors.Manifest, fmt.Sprintf("unknown artifact format %q", entry.Format))
	}
	if format.expectedOS() != plat.OS {
		return Outcome{}, selferrors.New(selferrors.Manifest, fmt.Sprintf("format %q does not match platform %q", format, plat.OS))
	}

	version, err := ParseVersion(raw.Version)
	if err != nil {
		return Outcome{}, selferrors.Wrap(selferrors.Version, fmt.Sprintf("failed to parse manifest version %q", raw.Version), err)
	}

	if currentVersion != nil && version.Compare(currentVersion) <= 0 {
		logger.V(3).Infof("manifest version %s is not newer than current version %s", version, currentVersion)
		return Outcome{NoUpdate: true}, nil
	}

	logger.Debugf("manifest resolved release %s (%s) for platform %s", version, format, plat.String())

	record := &ReleaseRecord{
		Version:   version,
		URL:       entry.URL,
		Signature: entry.Signature,
		Format:    format,
		Notes:     raw.Notes,
	}
	if raw.PubDate != "" {
		if t, err := time.Parse(time.RFC3339, raw.PubDate); err == nil {
			record.PubDate = &t
		}
	}

	return Outcome{Record: record}, nil
}

// ParseVersion strips a single leading 'v'/'V' before handing off to
// Masterminds/semver. It is also used to parse the caller's
// supplied current version, since the same tolerance applies there.
func ParseVersion(v string) (*semver.Version, error) {
	trimmed := v
	if strings.HasPrefix(trimmed, "v") || strings.HasPrefix(trimmed, "V") {
		trimmed = trimmed[1:]
	}
	return semver.NewVersion(trimmed)
}
