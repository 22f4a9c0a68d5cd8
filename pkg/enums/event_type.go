package enums

// FlashSaleEventType names the one-way events broadcast to subscribers.
type FlashSaleEventType string

const (
	EventItemPublished FlashSaleEventType = "flash_sale.item_published"
	EventSaleEnded     FlashSaleEventType = "flash_sale.sale_ended"
)
