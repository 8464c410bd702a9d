package watch

import (
	"context"

	"flood-geoservice/internal/models"
	"flood-geoservice/internal/ws"
)

// socketAlert is the JSON shape pushed to live map clients.
type socketAlert struct {
	Identifier  string `json:"identifier"`
	Event       string `json:"event"`
	Severity    string `json:"severity"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Effective   string `json:"effective"`
	Expires     string `json:"expires"`
	Sent        string `json:"sent"`
}

// SocketPublisher broadcasts new alerts to connected websocket clients.
type SocketPublisher struct {
	hub *ws.Hub
}

func NewSocketPublisher(hub *ws.Hub) *SocketPublisher {
	return &SocketPublisher{hub: hub}
}

func (p *SocketPublisher) Publish(_ context.Context, alert models.Alert) error {
	p.hub.Broadcast(socketAlert{
		Identifier:  alert.Identifier,
		Event:       alert.Info.Event,
		Severity:    alert.Info.Severity,
		Headline:    alert.Info.Headline,
		Description: alert.Info.Description,
		Effective:   alert.Info.Effective,
		Expires:     alert.Info.Expires,
		Sent:        alert.Sent,
	})
	return nil
}

func (p *SocketPublisher) Name() string { return "websocket" }
