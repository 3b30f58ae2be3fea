package invoice

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// MaxNameLength bounds a sanitized path segment, in runes.
	MaxNameLength = 50
	// DocumentExt is the extension of rendered invoices.
	DocumentExt = ".pdf"
)

var unsafeName = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "?", "_",
	"<", "_", ">", "_", "|", "_", `"`, "_",
)

// SafeName makes s usable as a single path segment: path-unsafe characters
// become "_" and the result is cut to MaxNameLength runes.
func SafeName(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		s = fallback
	}
	s = unsafeName.Replace(s)
	if runes := []rune(s); len(runes) > MaxNameLength {
		s = string(runes[:MaxNameLength])
	}
	if s == "." || s == ".." {
		s = strings.Repeat("_", len(s))
	}
	return s
}

// OutputPath returns root/<date>/<customer>/<number>.pdf. An empty invoice
// date falls back to now.
func OutputPath(root string, inv Invoice, now time.Time) string {
	date := strings.TrimSpace(inv.Date)
	if date == "" {
		date = now.Format("2006-01-02")
	}
	return filepath.Join(
		root,
		SafeName(date, "undated"),
		SafeName(inv.CustomerName, "customer"),
		SafeName(inv.Number, "invoice")+DocumentExt,
	)
}
