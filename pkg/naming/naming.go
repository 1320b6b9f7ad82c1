package naming

import (
	"regexp"
	"strings"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

func sanitizePart(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "_", "-")
	value = strings.ReplaceAll(value, " ", "-")
	value = nonAlnum.ReplaceAllString(value, "-")
	value = multiDash.ReplaceAllString(value, "-")
	value = strings.Trim(value, "-")
	return value
}

// ResourceName returns a deterministic <app>-<resource> name safe for cloud
// resource naming schemes.
func ResourceName(appName, resource string) string {
	parts := []string{sanitizePart(appName)}
	if r := sanitizePart(resource); r != "" {
		parts = append(parts, r)
	}
	return strings.Join(parts, "-")
}

// FamilyName returns the stable logical family for an application's
// deployable unit. It is derived from the application name only, never from
// the container image, so image swaps keep the unit's identity.
func FamilyName(appName string) string {
	return ResourceName(appName, "task")
}

// ConstructID turns name parts into the PascalCase identifier used for
// construct tree nodes.
func ConstructID(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		for _, segment := range strings.Split(sanitizePart(part), "-") {
			if segment == "" {
				continue
			}
			b.WriteString(strings.ToUpper(segment[:1]))
			b.WriteString(segment[1:])
		}
	}
	return b.String()
}
