package service

import (
	"context"
	"fmt"

	"github.com/orderdocs/orderdocs/internal/logging"
	"github.com/orderdocs/orderdocs/internal/models"
	"github.com/orderdocs/orderdocs/internal/platform"
)

// Platform is the slice of the remote client the orchestration needs.
type Platform interface {
	CreateFile(ctx context.Context, content []byte, filename, mimeType string) (models.AssetReference, error)
	ResolveLocator(ctx context.Context, id string) (string, error)
	SetMetafield(ctx context.Context, owner models.OwnerRecord, namespace, key, value string) error
}

// PartialLinkError reports that the order link succeeded but a subsequent
// required link failed. It is surfaced distinctly so a caller never sees
// total success when part of the work is missing; the completed order link
// is kept, not rolled back.
type PartialLinkError struct {
	Owner models.OwnerRecord
	Err   error
}

func (e *PartialLinkError) Error() string {
	return fmt.Sprintf("order linked but %s %s link failed: %v", e.Owner.Type, e.Owner.ID, e.Err)
}

func (e *PartialLinkError) Unwrap() error { return e.Err }

// DocumentService orchestrates upload, normalization, resolution, and
// metadata linking against the remote platform.
type DocumentService struct {
	platform  Platform
	namespace string
	key       string
	attribute string
	logger    *logging.Logger
}

// Config fixes the metafield slot and the order attribute the webhook path
// reads document locators from.
type Config struct {
	Namespace     string
	Key           string
	AttributeName string
}

func NewDocumentService(p Platform, cfg Config, logger *logging.Logger) *DocumentService {
	return &DocumentService{
		platform:  p,
		namespace: cfg.Namespace,
		key:       cfg.Key,
		attribute: cfg.AttributeName,
		logger:    logger,
	}
}

// UploadAndLink sends the document to the platform, resolves the locator if
// the asset is still processing, and links it to the order. It returns the
// final locator URL.
func (s *DocumentService) UploadAndLink(ctx context.Context, content []byte, filename, mimeType, orderID string) (string, error) {
	if orderID == "" {
		return "", fmt.Errorf("order id is required")
	}

	ref, err := s.platform.CreateFile(ctx, content, filename, mimeType)
	if err != nil {
		return "", err
	}

	locator, err := s.locator(ctx, ref)
	if err != nil {
		return "", err
	}

	order := models.OwnerRecord{Type: models.OwnerOrder, ID: orderID}
	if err := s.platform.SetMetafield(ctx, order, s.namespace, s.key, locator); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "document uploaded and linked",
		"order_id", orderID,
		"locator", locator)

	return locator, nil
}

// locator turns a normalized reference into a usable URL. A processing
// reference triggers the resolution step; a failed one never reaches the
// linker.
func (s *DocumentService) locator(ctx context.Context, ref models.AssetReference) (string, error) {
	switch ref.Status {
	case models.StatusReady:
		if ref.Locator == "" {
			return "", &platform.Error{
				Kind:    platform.ErrMalformedResponse,
				Op:      "upload",
				Message: "ready asset has no locator",
			}
		}
		return ref.Locator, nil
	case models.StatusProcessing:
		return s.platform.ResolveLocator(ctx, ref.ID)
	default:
		return "", &platform.Error{
			Kind:    platform.ErrRejected,
			Op:      "upload",
			Message: fmt.Sprintf("asset subtype %q is not usable", ref.RawType),
		}
	}
}

// ProcessOrderCreated handles a verified orders/create notification. When the
// configured note attribute carries a document locator it is linked to the
// order and, if a customer is present, to the customer. An order without the
// attribute is a valid no-op, not an error.
func (s *DocumentService) ProcessOrderCreated(ctx context.Context, n *models.OrderNotification) error {
	value, ok := n.Attribute(s.attribute)
	if !ok || value == "" {
		s.logger.DebugContext(ctx, "order has no document attribute", "order_id", n.OrderID())
		return nil
	}

	order := models.OwnerRecord{Type: models.OwnerOrder, ID: n.OrderID()}
	if err := s.platform.SetMetafield(ctx, order, s.namespace, s.key, value); err != nil {
		return err
	}

	customerID, ok := n.CustomerID()
	if !ok {
		// Orders without a customer are a valid skip.
		return nil
	}

	customer := models.OwnerRecord{Type: models.OwnerCustomer, ID: customerID}
	if err := s.platform.SetMetafield(ctx, customer, s.namespace, s.key, value); err != nil {
		return &PartialLinkError{Owner: customer, Err: err}
	}

	s.logger.InfoContext(ctx, "notification document linked",
		"order_id", n.OrderID(),
		"customer_id", customerID)

	return nil
}
