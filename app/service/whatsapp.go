package service

import (
	"time"

	"github.com/vibast-solutions/ms-go-reports/app/dto"

	"github.com/sirupsen/logrus"
)

// WhatsAppNotifier simulates message delivery. A real deployment plugs a
// provider (Twilio, Z-API, Meta Business API) in here.
type WhatsAppNotifier struct{}

func NewWhatsAppNotifier() *WhatsAppNotifier {
	return &WhatsAppNotifier{}
}

func (n *WhatsAppNotifier) Send(phone, message, mediaURL string) dto.WhatsAppReceipt {
	logrus.WithFields(logrus.Fields{
		"phone": phone,
		"media": mediaURL,
	}).Info("WhatsApp delivery simulated")

	return dto.WhatsAppReceipt{
		Status:   "sent",
		Phone:    phone,
		Message:  message,
		MediaURL: mediaURL,
		SentAt:   time.Now().Format(time.RFC3339),
	}
}
