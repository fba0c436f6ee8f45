package client

import (
	"fmt"
	"math/rand/v2"
	"regexp"
)

// UnknownDevice is the label used when nothing matches.
const UnknownDevice = "Unknown"

var deviceRules = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?i)android`), "Android"},
	{regexp.MustCompile(`(?i)iphone|ipad|ipod`), "iOS"},
	{regexp.MustCompile(`(?i)windows`), "Windows"},
	{regexp.MustCompile(`(?i)linux`), "Linux"},
	{regexp.MustCompile(`(?i)mac`), "Mac"},
}

// GenerateUserID returns a fresh participant id of the form User-<n>.
func GenerateUserID() string {
	return fmt.Sprintf("User-%d", rand.IntN(1_000_000))
}

// DeviceType classifies a user agent string. Rules are checked in order,
// so an Android agent that also mentions Linux is reported as Android.
func DeviceType(userAgent string) string {
	for _, rule := range deviceRules {
		if rule.re.MatchString(userAgent) {
			return rule.label
		}
	}
	return UnknownDevice
}

// DeviceTypeForOS maps a runtime.GOOS value to a device label.
func DeviceTypeForOS(goos string) string {
	switch goos {
	case "android":
		return "Android"
	case "ios":
		return "iOS"
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	case "darwin":
		return "Mac"
	default:
		return UnknownDevice
	}
}
