package services

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// MaxSlugLen keeps slugs inside the unique index width.
const MaxSlugLen = 180

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify transliterates value to ASCII and collapses everything else into
// single dashes. It never returns an empty slug.
func Slugify(value string) string {
	s := slug.Make(strings.TrimSpace(value))
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLen {
		s = strings.TrimRight(s[:MaxSlugLen], "-")
	}
	if s == "" {
		return "item-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	}
	return s
}
