package models

import "strconv"

// NoteAttribute is one free-form key/value pair carried on an order.
type NoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// WebhookCustomer is the subset of the customer record delivered on an
// orders/create notification.
type WebhookCustomer struct {
	ID int64 `json:"id"`
}

// OrderNotification is the payload of an orders/create webhook delivery.
// It is consumed once and never persisted.
type OrderNotification struct {
	ID             int64            `json:"id"`
	Customer       *WebhookCustomer `json:"customer,omitempty"`
	NoteAttributes []NoteAttribute  `json:"note_attributes"`
}

// Attribute returns the value of the first note attribute with the given
// name. The second return is false when no attribute matches.
func (n *OrderNotification) Attribute(name string) (string, bool) {
	for _, attr := range n.NoteAttributes {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// OrderID returns the order identifier in its string form.
func (n *OrderNotification) OrderID() string {
	return strconv.FormatInt(n.ID, 10)
}

// CustomerID returns the customer identifier and whether one was present on
// the notification. Orders without a customer are a valid case, not an error.
func (n *OrderNotification) CustomerID() (string, bool) {
	if n.Customer == nil || n.Customer.ID == 0 {
		return "", false
	}
	return strconv.FormatInt(n.Customer.ID, 10), true
}
