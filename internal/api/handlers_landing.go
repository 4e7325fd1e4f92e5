package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/detailsync/internal/services"
)

func (handler *Handler) ShowLanding(c *fiber.Ctx) error {
	messages := currentMessages(c)
	billing := services.ParseBillingPeriod(c.Query("billing"))
	flash := handler.popFlashCookie(c)

	return handler.render(c, "landing", fiber.Map{
		"Title":        localizedPageTitle(messages, "meta.title.landing", "DetailSync - AI-Powered Scheduling for Modern Detailers"),
		"Features":     handler.catalog.Features(),
		"Billing":      string(billing),
		"Annual":       billing == services.BillingAnnual,
		"Pricing":      handler.catalog.Pricing(billing),
		"SocialProof":  handler.socialProof.Snapshot(),
		"FlashSuccess": translateIfSet(messages, flash.Success),
		"FlashError":   translateIfSet(messages, flash.Error),
	})
}

func (handler *Handler) GetPricing(c *fiber.Ctx) error {
	billing := services.ParseBillingPeriod(c.Query("billing"))
	return c.JSON(fiber.Map{
		"billing": billing,
		"tiers":   handler.catalog.Pricing(billing),
	})
}

func (handler *Handler) GetSocialProof(c *fiber.Ctx) error {
	return c.JSON(handler.socialProof.Snapshot())
}

func translateIfSet(messages map[string]string, key string) string {
	if key == "" {
		return ""
	}
	return translateMessage(messages, key)
}
