package model

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

const zoneinfoDir = "zoneinfo/"

// SystemLocation resolves the host timezone to a location with an IANA name,
// which time.Local never has. $TZ wins over the /etc/localtime link; UTC is
// used when neither names a zone.
func SystemLocation() *time.Location {
	return systemLocation(os.Getenv("TZ"), "/etc/localtime")
}

func systemLocation(tz, localtime string) *time.Location {
	if name := zoneName(strings.TrimPrefix(tz, ":")); name != "" {
		if loc, err := LoadZone(name); err == nil {
			return loc
		}
	}
	if target, err := os.Readlink(localtime); err == nil {
		if loc, err := LoadZone(zoneName(target)); err == nil {
			return loc
		}
	}
	slog.Warn("can't resolve the host timezone name, using UTC", "TZ", tz)
	return time.UTC
}

// zoneName strips a zoneinfo path down to the zone name,
// "/usr/share/zoneinfo/Europe/Paris" -> "Europe/Paris".
func zoneName(s string) string {
	if i := strings.LastIndex(s, zoneinfoDir); i >= 0 {
		return s[i+len(zoneinfoDir):]
	}
	return s
}

// LoadZone is time.LoadLocation restricted to names that mean the same zone
// on every host.
func LoadZone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, &ValidationError{Field: "timezone", Reason: fmt.Sprintf("must be an IANA zone name, got %q", name)}
	}
	return time.LoadLocation(name)
}
