package jobs

import (
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"cleaning-service-server/queue"
	"cleaning-service-server/services"
)

// EmailWorker consumes booking lifecycle events from the notifications
// exchange and sends the customer email for each one.
type EmailWorker struct {
	consumer *queue.Consumer
	mailer   services.Mailer
	stopChan chan bool
}

// NewEmailWorker creates a worker bound to the given AMQP URL
func NewEmailWorker(amqpURL string) (*EmailWorker, error) {
	consumer, err := queue.NewConsumer(amqpURL)
	if err != nil {
		return nil, err
	}

	return &EmailWorker{
		consumer: consumer,
		mailer:   services.NewMailer(),
		stopChan: make(chan bool),
	}, nil
}

// Start begins consuming booking events
func (w *EmailWorker) Start() error {
	deliveries, err := w.consumer.Consume()
	if err != nil {
		return err
	}

	go w.run(deliveries)
	log.Println("🚀 Email worker started")
	return nil
}

// Stop stops the worker and closes the AMQP connection
func (w *EmailWorker) Stop() {
	w.stopChan <- true
	w.consumer.Close()
	log.Println("🛑 Email worker stopped")
}

func (w *EmailWorker) run(deliveries <-chan amqp.Delivery) {
	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				log.Println("⚠️ Email worker delivery channel closed")
				return
			}
			w.handle(delivery)
		case <-w.stopChan:
			return
		}
	}
}

// handle processes one event. A malformed body is dropped (nack without
// requeue would loop forever on bad JSON); a send failure is requeued once
// by the broker.
func (w *EmailWorker) handle(delivery amqp.Delivery) {
	var event queue.BookingEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		log.Printf("❌ Email worker could not decode event: %v", err)
		delivery.Nack(false, false)
		return
	}

	if event.CustomerEmail == "" {
		// Guest bookings have no email on file
		delivery.Ack(false)
		return
	}

	subject, body := renderBookingEmail(delivery.RoutingKey, &event)
	if err := w.mailer.Send(event.CustomerEmail, subject, body); err != nil {
		log.Printf("❌ Failed to send %s email for booking %d: %v",
			delivery.RoutingKey, event.BookingID, err)
		delivery.Nack(false, !delivery.Redelivered)
		return
	}

	log.Printf("📧 Sent %s email for booking %d", delivery.RoutingKey, event.BookingID)
	delivery.Ack(false)
}

func renderBookingEmail(routingKey string, event *queue.BookingEvent) (string, string) {
	name := event.CustomerName
	if name == "" {
		name = "there"
	}

	switch routingKey {
	case queue.KeyBookingPaid:
		subject := "Your cleaning is booked"
		if event.ShortID != "" {
			subject = fmt.Sprintf("Your cleaning is booked - %s", event.ShortID)
		}
		body := fmt.Sprintf(
			"Hi %s,\n\nYour payment of $%.2f has been received.\n\nBooking: %s\nDate: %s at %s\nAddress: %s\n\nThanks for booking with us!\n",
			name, event.TotalPrice, event.ShortID, event.BookingDate, event.StartTime, event.Address)
		return subject, body
	default:
		subject := "Your cleaning booking is confirmed"
		body := fmt.Sprintf(
			"Hi %s,\n\nYour booking for %s at %s is confirmed.\nAddress: %s\nTotal: $%.2f\n\nComplete payment to lock in your spot.\n",
			name, event.BookingDate, event.StartTime, event.Address, event.TotalPrice)
		return subject, body
	}
}
