package handler

import (
	"github.com/gofiber/fiber/v3"
)

// ProviderInfo describes one configured generation provider.
type ProviderInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// InfoHandler serves application metadata and the provider catalog.
type InfoHandler struct {
	appName         string
	version         string
	providers       []ProviderInfo
	defaultProvider string
}

// NewInfoHandler creates a new info handler.
func NewInfoHandler(appName, version string, providers []ProviderInfo, defaultProvider string) *InfoHandler {
	return &InfoHandler{
		appName:         appName,
		version:         version,
		providers:       providers,
		defaultProvider: defaultProvider,
	}
}

// Register sets up the root and provider routes.
func (h *InfoHandler) Register(app *fiber.App, api fiber.Router) {
	app.Get("/", h.Root)
	api.Get("/providers", h.Providers)
}

// Root returns basic application info.
func (h *InfoHandler) Root(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"app": h.appName, "version": h.version})
}

// Providers returns the configured generation providers.
func (h *InfoHandler) Providers(c fiber.Ctx) error {
	providers := h.providers
	if providers == nil {
		providers = []ProviderInfo{}
	}
	var def any
	if h.defaultProvider != "" {
		def = h.defaultProvider
	}
	return c.JSON(fiber.Map{"providers": providers, "default": def})
}
