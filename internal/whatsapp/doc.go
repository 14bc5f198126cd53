// ABOUTME: Package documentation for the WhatsApp Cloud API integration
// ABOUTME: Covers the outbound client and the inbound webhook surface

// Package whatsapp integrates with the WhatsApp Business Cloud API.
//
// Client sends outbound messages (text, interactive reply buttons, read
// receipts) for one business phone number. Webhook receives inbound
// notification deliveries, verifies them, suppresses platform retries and
// dispatches conversation events to the engine.
package whatsapp
