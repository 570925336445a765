package registration

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// PhotoObjectName builds the storage key for a submitter's photo:
// <unix millis>_<name>_<token>.<ext>. The name is reduced to
// [A-Za-z0-9_-]; the random token keeps two submissions with the same
// name in the same millisecond apart.
func PhotoObjectName(now time.Time, fullName, filename string) string {
	name := safeName(fullName)
	if name == "" {
		name = "anonymous"
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d_%s_%s.%s", now.UnixMilli(), name, token, photoExt(filename))
}

// safeName folds accents to their base letter, turns whitespace, slash and
// underscore runs into one "_" and drops every other character.
func safeName(s string) string {
	var b strings.Builder
	sep := false
	for _, r := range norm.NFD.String(s) {
		switch {
		case r < 0x80 && (isAlnum(r) || r == '-'):
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '_' || r == '/' || r == '\\':
			sep = true
		}
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// photoExt returns the lowercased alphanumeric text after the last dot of
// the uploaded file name, or "bin" when nothing usable remains.
func photoExt(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return "bin"
	}
	ext := strings.Map(func(r rune) rune {
		if r < 0x80 && isAlnum(r) {
			return r
		}
		return -1
	}, strings.ToLower(base[i+1:]))
	if ext == "" {
		return "bin"
	}
	return ext
}
