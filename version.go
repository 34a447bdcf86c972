package qbitapi

import (
	"strings"

	"github.com/blang/semver"
)

// appVersionAPIVersions maps each known qBittorrent release to the Web API
// version it ships. Membership in this map is what "supported" means for
// IsAppVersionSupported.
var appVersionAPIVersions = map[string]string{
	"v4.1.0":      "2.0",
	"v4.1.1":      "2.0.1",
	"v4.1.2":      "2.0.2",
	"v4.1.3":      "2.1",
	"v4.1.4":      "2.1.1",
	"v4.1.5":      "2.2",
	"v4.1.6":      "2.2",
	"v4.1.7":      "2.2",
	"v4.1.8":      "2.2",
	"v4.1.9":      "2.2.1",
	"v4.1.9.1":    "2.2.1",
	"v4.2.0":      "2.3",
	"v4.2.1":      "2.4",
	"v4.2.2":      "2.4.1",
	"v4.2.3":      "2.4.1",
	"v4.2.4":      "2.5",
	"v4.2.5":      "2.5.1",
	"v4.3.0":      "2.6",
	"v4.3.0.1":    "2.6",
	"v4.3.1":      "2.6.1",
	"v4.3.2":      "2.7",
	"v4.3.3":      "2.7",
	"v4.3.4.1":    "2.8.1",
	"v4.3.5":      "2.8.2",
	"v4.3.6":      "2.8.2",
	"v4.3.7":      "2.8.2",
	"v4.3.8":      "2.8.2",
	"v4.3.9":      "2.8.2",
	"v4.4.0":      "2.8.4",
	"v4.4.1":      "2.8.5",
	"v4.4.2":      "2.8.5",
	"v4.4.3":      "2.8.5",
	"v4.4.3.1":    "2.8.5",
	"v4.4.4":      "2.8.5",
	"v4.4.5":      "2.8.5",
	"v4.5.0beta1": "2.8.14",
	"v4.5.0":      "2.8.18",
	"v4.5.1":      "2.8.19",
	"v4.5.2":      "2.8.19",
	"v4.5.3":      "2.8.19",
	"v4.5.4":      "2.8.19",
	"v4.5.5":      "2.8.19",
	"v4.6.0":      "2.9.2",
	"v4.6.1":      "2.9.3",
	"v4.6.2":      "2.9.3",
	"v4.6.3":      "2.9.3",
	"v4.6.4":      "2.9.3",
	"v4.6.5":      "2.9.3",
	"v4.6.6":      "2.9.3",
}

// Most recent qBittorrent release this client is written against.
const (
	MostRecentSupportedAppVersion = "v4.6.6"
	MostRecentSupportedAPIVersion = "2.9.3"
)

// IsAppVersionSupported reports whether the given qBittorrent application
// version is in the known-supported registry. A missing "v" prefix is
// tolerated.
func IsAppVersionSupported(version string) bool {
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	_, ok := appVersionAPIVersions[version]
	return ok
}

// IsAPIVersionSupported reports whether the given Web API version is at most
// the most recent version this client fully supports.
func IsAPIVersionSupported(version string) bool {
	return compareVersions(version, MostRecentSupportedAPIVersion) <= 0
}

// APIVersionForApp returns the Web API version shipped by a given qBittorrent
// release, if the release is known.
func APIVersionForApp(appVersion string) (string, bool) {
	if !strings.HasPrefix(appVersion, "v") {
		appVersion = "v" + appVersion
	}
	api, ok := appVersionAPIVersions[appVersion]
	return api, ok
}

// compareVersions orders two dotted-numeric version strings, returning -1, 0,
// or 1. Short versions are tolerated ("2.8" == "2.8.0"). Versions that semver
// cannot parse at all (e.g. four-segment releases) fall back to plain string
// comparison; that ordering is known-fuzzy but never panics.
func compareVersions(a, b string) int {
	va, errA := semver.ParseTolerant(a)
	vb, errB := semver.ParseTolerant(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}

// endpointSupported implements the version gate: an endpoint is callable when
// the connected version is at least the version that introduced it and
// strictly below the version that removed it.
func endpointSupported(introduced, removed, current string) bool {
	if introduced != "" && compareVersions(current, introduced) < 0 {
		return false
	}
	if removed != "" && compareVersions(current, removed) >= 0 {
		return false
	}
	return true
}
