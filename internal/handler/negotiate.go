package handler

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/munnerz/goautoneg"
)

const (
	mimeHTML = "text/html"
	mimeJSON = "application/json"
)

// accepts reports whether the request's Accept header admits mime. A missing
// header accepts anything. The most specific matching range decides, so
// "text/html;q=0, */*" rejects HTML.
func accepts(c echo.Context, mime string) bool {
	header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAccept))
	if header == "" {
		return true
	}

	typ, sub, _ := strings.Cut(mime, "/")
	best := -1
	q := 0.0
	for _, a := range goautoneg.ParseAccept(header) {
		specificity := -1
		switch {
		case a.Type == typ && a.SubType == sub:
			specificity = 2
		case a.Type == typ && a.SubType == "*":
			specificity = 1
		case a.Type == "*" && a.SubType == "*":
			specificity = 0
		}
		if specificity > best {
			best = specificity
			q = a.Q
		}
	}
	return best >= 0 && q > 0
}
