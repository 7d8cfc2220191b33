package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

// Alert severity levels
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// AlertIngressDisconnected fires when the MQTT ingress stays down.
const AlertIngressDisconnected = "ingress_disconnected"

// AlertPayload is the JSON structure sent to the webhook.
type AlertPayload struct {
	Service   string                 `json:"service"`
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// AlertConfig holds alert configuration.
type AlertConfig struct {
	WebhookURL      string
	DisconnectDelay time.Duration // How long the ingress must be down before alerting
}

var (
	alertConfig = &AlertConfig{
		DisconnectDelay: 30 * time.Second,
	}
	alertMu sync.Mutex

	ingressDownSince time.Time
	ingressAlertSent bool
	lastIngressState = true
)

// InitAlerts initializes the alert system from environment variables.
func InitAlerts() {
	alertMu.Lock()
	defer alertMu.Unlock()

	alertConfig.WebhookURL = os.Getenv("FLOWBOARD_ALERT_WEBHOOK_URL")

	if delayStr := os.Getenv("FLOWBOARD_INGRESS_ALERT_DELAY"); delayStr != "" {
		if d, err := time.ParseDuration(delayStr); err == nil {
			alertConfig.DisconnectDelay = d
		}
	}

	if alertConfig.WebhookURL != "" {
		log.Printf("Alerts enabled: webhook URL configured (ingress_delay=%s)",
			alertConfig.DisconnectDelay)
	}
}

// SendAlert sends an alert to the configured webhook (best-effort, non-blocking).
func SendAlert(event, severity, message string, details map[string]interface{}) {
	alertMu.Lock()
	webhookURL := alertConfig.WebhookURL
	alertMu.Unlock()

	if webhookURL == "" {
		// No webhook configured, log instead
		log.Printf("[ALERT] %s severity=%s msg=%q details=%v", event, severity, message, details)
		return
	}

	payload := AlertPayload{
		Service:   "flowboard",
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Severity:  severity,
		Message:   message,
		Details:   details,
	}

	go sendWebhook(webhookURL, payload)
}

// sendWebhook performs the actual HTTP POST (runs in goroutine).
func sendWebhook(url string, payload AlertPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("alert: failed to marshal payload: %v", err)
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("alert: webhook POST failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("alert: webhook returned status %d", resp.StatusCode)
	}
}

// CheckAndAlertIngress tracks ingress connectivity and alerts when it
// has been down past the configured delay, with a recovery notice once
// it returns.
func CheckAndAlertIngress(connected bool) {
	alertMu.Lock()
	defer alertMu.Unlock()

	now := time.Now()

	if connected {
		if !lastIngressState && ingressAlertSent {
			go SendAlert(AlertIngressDisconnected, SeverityInfo, "MQTT ingress restored", map[string]interface{}{
				"recovered_at": now.UTC().Format(time.RFC3339),
			})
		}
		ingressDownSince = time.Time{}
		ingressAlertSent = false
		lastIngressState = true
		return
	}

	if lastIngressState {
		ingressDownSince = now
	}
	lastIngressState = false

	if !ingressAlertSent && !ingressDownSince.IsZero() {
		downFor := now.Sub(ingressDownSince)
		if downFor >= alertConfig.DisconnectDelay {
			ingressAlertSent = true
			go SendAlert(AlertIngressDisconnected, SeverityWarning,
				"MQTT ingress disconnected",
				map[string]interface{}{
					"disconnected_since":   ingressDownSince.UTC().Format(time.RFC3339),
					"disconnected_seconds": int(downFor.Seconds()),
				})
		}
	}
}

// StartAlertMonitor starts a background goroutine that periodically
// checks ingress connectivity via the given callback.
func StartAlertMonitor(checkInterval time.Duration, connected func() bool) {
	go func() {
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for range ticker.C {
			CheckAndAlertIngress(connected())
		}
	}()
}
