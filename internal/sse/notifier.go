package sse

import "time"

// ReviewNotifier is the interface services use to emit review queue events.
type ReviewNotifier interface {
	NotifyReviewCreated(itemID int, itemName string, topScore int)
	NotifyReviewResolved(itemID int, status, actor string)
	NotifyReviewsExpired(count int64)
}

// HubNotifier implements ReviewNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyReviewCreated(itemID int, itemName string, topScore int) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&ReviewEvent{
		Event:          EventReviewCreated,
		SupplierItemID: itemID,
		ItemName:       itemName,
		TopScore:       &topScore,
		Timestamp:      time.Now().UTC(),
	})
}

func (n *HubNotifier) NotifyReviewResolved(itemID int, status, actor string) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&ReviewEvent{
		Event:          EventReviewResolved,
		SupplierItemID: itemID,
		Status:         status,
		Actor:          actor,
		Timestamp:      time.Now().UTC(),
	})
}

func (n *HubNotifier) NotifyReviewsExpired(count int64) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&ReviewEvent{
		Event:     EventReviewExpired,
		Expired:   count,
		Timestamp: time.Now().UTC(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyReviewCreated(itemID int, itemName string, topScore int) {}
func (n *NopNotifier) NotifyReviewResolved(itemID int, status, actor string)         {}
func (n *NopNotifier) NotifyReviewsExpired(count int64)                              {}
