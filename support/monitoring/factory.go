package monitoring

import (
	"fmt"
	"log"

	"github.com/krakentools/krakentools/api"
)

type noopAlert struct{}

var _ api.Alert = &noopAlert{}

// Trigger only logs, it is the Alert used when no alerting service is configured
func (p *noopAlert) Trigger(description string, details interface{}) error {
	log.Printf("alert (not sent, no alert service configured): %s\n", description)
	return nil
}

// MakeAlert creates an Alert based on the type of the service (eg Pager Duty) and its corresponding API key.
// An empty type disables alerting.
func MakeAlert(alertType string, apiKey string) (api.Alert, error) {
	switch alertType {
	case "PagerDuty":
		return makePagerDuty(apiKey)
	case "":
		return &noopAlert{}, nil
	default:
		return nil, fmt.Errorf("unsupported alert type '%s', use PagerDuty or leave it empty", alertType)
	}
}
