// Package main is a minimal HTTP health check for the notify stub, for use
// in distroless containers. It exits 0 when the health endpoint answers 200
// with status "healthy", and 1 otherwise. Compile with CGO_ENABLED=0 for a
// fully static binary.
package main

import (
	"encoding/json"
	"net/http"
	"notifier/internal/models"
	"os"
	"time"
)

func main() {
	url := os.Getenv("NOTIFIER_HEALTH_URL")
	if url == "" {
		url = "http://localhost:8080/health"
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}

	var health models.HealthCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil || health.Status != models.StatusHealthy {
		os.Exit(1)
	}
}
