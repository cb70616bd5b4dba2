package models

import "time"

const (
	StatusHealthy       = "healthy"
	StatusUnhealthy     = "unhealthy"
	StatusNotConfigured = "not configured"
)

type HealthCheck struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// NewHealthCheck is unhealthy as soon as one dependency reports anything
// other than healthy or not configured.
func NewHealthCheck(services map[string]string) HealthCheck {
	status := StatusHealthy
	for _, s := range services {
		if s != StatusHealthy && s != StatusNotConfigured {
			status = StatusUnhealthy
			break
		}
	}

	return HealthCheck{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
	}
}

func (h HealthCheck) Healthy() bool {
	return h.Status == StatusHealthy
}
