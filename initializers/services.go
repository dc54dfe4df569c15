package initializers

import (
	"context"
	"log"

	"github.com/Kariqs/megano-api/events"
	"github.com/Kariqs/megano-api/services"
	"github.com/Kariqs/megano-api/utils"
)

var (
	Events   events.Publisher = events.Nop{}
	Sessions services.SessionStore
	Catalog  *services.CatalogService
	Baskets  *services.BasketService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Uploader utils.Uploader
)

// ConnectToEvents picks Kafka, then the webhook, then nothing.
func ConnectToEvents() {
	switch {
	case Cfg.KafkaBrokers != "":
		Events = events.NewKafkaPublisher(events.ParseBrokers(Cfg.KafkaBrokers), Cfg.KafkaTopic)
		log.Printf("Publishing order events to Kafka topic %s.", Cfg.KafkaTopic)
	case Cfg.OrderWebhookURL != "":
		Events = events.NewWebhookPublisher(Cfg.OrderWebhookURL)
		log.Println("Publishing order events to webhook.")
	default:
		Events = events.Nop{}
	}
}

func ConnectToStorage() {
	uploader, err := utils.NewS3Uploader(context.Background(), Cfg.S3Bucket)
	if err != nil {
		log.Println("S3 uploads disabled:", err)
		return
	}
	Uploader = uploader
}

// InitServices wires the services onto DB, Redis and Events.
func InitServices() {
	var cache *services.ProductCache
	if Redis != nil {
		Sessions = services.NewRedisSessionStore(Redis, Cfg.SessionTTL)
		cache = services.NewProductCache(Redis, Cfg.CatalogCacheTTL)
	} else {
		Sessions = services.NewMemorySessionStore()
	}

	var receipts services.ReceiptSender
	if utils.MailConfigured() {
		receipts = utils.ReceiptMailer{}
	}

	Catalog = services.NewCatalogService(DB, cache)
	Baskets = services.NewBasketService(DB, Catalog, Sessions)
	Orders = services.NewOrderService(DB, Events)
	Payments = services.NewPaymentService(DB, Events, receipts)
}
