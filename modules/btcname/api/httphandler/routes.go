package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/v1/btcname")

	r.Post("/names/batch", h.GetNamesBatch)
	r.Get("/names/:name", h.GetName)
	r.Get("/inscriptions/:id/collections", h.GetInscriptionCollections)
	r.Post("/parse", h.PostParse)
	r.Get("/block", h.GetCurrentBlock)
	return nil
}
