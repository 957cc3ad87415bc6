package routes

import (
	"cleaning-service-server/queue"
	"cleaning-service-server/services"
	ws "cleaning-service-server/websocket"
)

var (
	gateway   services.PaymentGateway
	publisher *queue.Publisher
	wsHub     *ws.Hub
)

// Init wires the shared route dependencies. Called once from main before
// route registration. The publisher may be nil when AMQP is disabled and
// the hub may be nil in tests; handlers treat both as best-effort.
func Init(g services.PaymentGateway, p *queue.Publisher, h *ws.Hub) {
	gateway = g
	publisher = p
	wsHub = h
}

// paymentGateway returns the configured gateway, falling back to the
// environment-driven default so tests can run handlers without Init.
func paymentGateway() services.PaymentGateway {
	if gateway == nil {
		gateway = services.NewPaymentGateway()
	}
	return gateway
}
