package control

import "strings"

var defaultProtected = []string{
	"init",
	"systemd",
	"kthreadd",
	"kswapd0",
	"launchd",
	"kernel_task",
	"WindowServer",
	"loginwindow",
	"csrss.exe",
	"wininit.exe",
	"winlogon.exe",
	"lsass.exe",
	"services.exe",
	"smss.exe",
}

// DefaultProtected returns the built-in list of process names that must never
// be signalled.
func DefaultProtected() []string {
	return append([]string(nil), defaultProtected...)
}

// IsProtected reports whether name matches an entry in list, ignoring case.
func IsProtected(list []string, name string) bool {
	if name == "" {
		return false
	}
	for _, entry := range list {
		if strings.EqualFold(strings.TrimSpace(entry), name) {
			return true
		}
	}
	return false
}
