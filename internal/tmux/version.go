package tmux

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinVersion is the oldest tmux with user options and set-option -u.
var MinVersion = Version{Major: 2, Minor: 6}

// Version is a tmux release as printed by `tmux -V`. Dev builds report
// "master" and are treated as newer than any release.
type Version struct {
	Major int
	Minor int
	Dev   bool
}

// Release tags look like "3.3a", "next-3.5" or "openbsd-7.4"; only the
// leading major.minor matters here.
var versionPattern = regexp.MustCompile(`^(?:[a-z]+-)?(\d+)(?:\.(\d+))?[a-z]*$`)

// ParseVersion parses `tmux -V` output such as "tmux 3.3a".
func ParseVersion(output string) (Version, error) {
	tag := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(output), "tmux"))
	if tag == "" {
		return Version{}, fmt.Errorf("empty tmux version")
	}
	if tag == "master" {
		return Version{Dev: true}, nil
	}

	m := versionPattern.FindStringSubmatch(tag)
	if m == nil {
		return Version{}, fmt.Errorf("unrecognized tmux version %q", tag)
	}
	v := Version{}
	v.Major, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		v.Minor, _ = strconv.Atoi(m[2])
	}
	return v, nil
}

// LessThan reports whether v is older than other.
func (v Version) LessThan(other Version) bool {
	if v.Dev || other.Dev {
		return !v.Dev && other.Dev
	}
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// Supported reports whether devtime can drive this tmux.
func (v Version) Supported() bool {
	return !v.LessThan(MinVersion)
}

func (v Version) String() string {
	if v.Dev {
		return "master"
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
