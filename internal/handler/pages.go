package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PageHandler serves the public pages.
type PageHandler struct{}

// NewPageHandler constructs a PageHandler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Index renders the landing page.
func (h *PageHandler) Index(c echo.Context) error {
	return c.Render(http.StatusOK, "static/index", echo.Map{"title": "Home"})
}

// About renders the about page.
func (h *PageHandler) About(c echo.Context) error {
	return c.Render(http.StatusOK, "static/about", echo.Map{"title": "About"})
}
