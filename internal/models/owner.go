package models

import "fmt"

// OwnerType names the kind of business record metadata can be attached to.
type OwnerType string

const (
	OwnerOrder    OwnerType = "Order"
	OwnerCustomer OwnerType = "Customer"
)

// OwnerRecord is a reference to a platform-owned business entity. The ID is
// opaque; it comes from the caller or from an inbound notification and is
// never minted locally.
type OwnerRecord struct {
	Type OwnerType `json:"type"`
	ID   string    `json:"id"`
}

// GID renders the owner as the platform's global identifier form.
func (o OwnerRecord) GID() string {
	return fmt.Sprintf("gid://shopify/%s/%s", o.Type, o.ID)
}
