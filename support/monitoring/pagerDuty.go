package monitoring

import (
	"fmt"
	"log"
	"os"

	"github.com/PagerDuty/go-pagerduty"

	"github.com/krakentools/krakentools/api"
)

const pagerDutyClient = "krakentools"

type pagerDuty struct {
	serviceKey string
	host       string
	send       func(event pagerduty.Event) (*pagerduty.EventResponse, error)
}

// ensure pagerDuty implements the api.Alert interface
var _ api.Alert = &pagerDuty{}

func makePagerDuty(serviceKey string) (api.Alert, error) {
	if serviceKey == "" {
		return nil, fmt.Errorf("PagerDuty alerts need a service key")
	}

	host, e := os.Hostname()
	if e != nil {
		host = "unknown"
	}
	return &pagerDuty{
		serviceKey: serviceKey,
		host:       host,
		send:       pagerduty.CreateEvent,
	}, nil
}

// Trigger creates a PagerDuty trigger. The description is required and cannot be empty, it is also the
// incident key so repeated failures of the same kind are grouped into one incident.
func (p *pagerDuty) Trigger(description string, details interface{}) error {
	if description == "" {
		return fmt.Errorf("cannot trigger a PagerDuty alert without a description")
	}

	event := pagerduty.Event{
		ServiceKey:  p.serviceKey,
		Type:        "trigger",
		IncidentKey: description,
		Description: fmt.Sprintf("%s (host %s)", description, p.host),
		Client:      pagerDutyClient,
		Details:     details,
	}
	response, e := p.send(event)
	if e != nil {
		return fmt.Errorf("encountered an error while sending a PagerDuty alert: %s", e)
	}
	log.Printf("Triggered PagerDuty alert. Incident key for reference: %s\n", response.IncidentKey)
	return nil
}
