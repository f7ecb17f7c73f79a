package amfi

import (
	"net/url"
	"strings"

	"github.com/bobmcallan/navsync/internal/date"
)

// DefaultDateLayout matches the ISO dates of the NAV history API.
const DefaultDateLayout = "2006-01-02"

// Endpoint maps a calendar date to the URL the upstream expects. It is the only
// place that knows how the upstream encodes dates: a query-string range
// (FromDate={from}&ToDate={to}), a path segment (/nav/{date}.txt), or a static
// full dump with no placeholder at all.
type Endpoint struct {
	Template   string
	DateLayout string
}

// Resolve substitutes day into the template.
func (e Endpoint) Resolve(day date.Date) string {
	layout := e.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	formatted := url.PathEscape(day.Format(layout))
	return strings.NewReplacer(
		"{date}", formatted,
		"{from}", formatted,
		"{to}", formatted,
	).Replace(e.Template)
}
