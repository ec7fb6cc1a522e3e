package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdocs/orderdocs/internal/logging"
	"github.com/orderdocs/orderdocs/internal/models"
	"github.com/orderdocs/orderdocs/internal/platform"
)

type linkCall struct {
	owner     models.OwnerRecord
	namespace string
	key       string
	value     string
}

// fakePlatform records every call and returns scripted results.
type fakePlatform struct {
	createRef    models.AssetReference
	createErr    error
	resolveURL   string
	resolveErr   error
	resolveCalls int
	linkErrFor   map[models.OwnerType]error
	links        []linkCall
}

func (f *fakePlatform) CreateFile(ctx context.Context, content []byte, filename, mimeType string) (models.AssetReference, error) {
	return f.createRef, f.createErr
}

func (f *fakePlatform) ResolveLocator(ctx context.Context, id string) (string, error) {
	f.resolveCalls++
	return f.resolveURL, f.resolveErr
}

func (f *fakePlatform) SetMetafield(ctx context.Context, owner models.OwnerRecord, namespace, key, value string) error {
	if err := f.linkErrFor[owner.Type]; err != nil {
		return err
	}
	f.links = append(f.links, linkCall{owner: owner, namespace: namespace, key: key, value: value})
	return nil
}

func newService(p Platform) *DocumentService {
	return NewDocumentService(p, Config{
		Namespace:     "custom",
		Key:           "lpo_file",
		AttributeName: "lpo_file",
	}, logging.New(slog.LevelError, "text"))
}

func TestUploadAndLink_ReadyAsset(t *testing.T) {
	fake := &fakePlatform{
		createRef: models.AssetReference{
			Locator: "https://cdn.example.com/a.pdf",
			Kind:    models.KindGenericFile,
			Status:  models.StatusReady,
		},
	}
	svc := newService(fake)

	url, err := svc.UploadAndLink(context.Background(), []byte("0123456789"), "a.pdf", "application/pdf", "123")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/a.pdf", url)
	assert.Zero(t, fake.resolveCalls, "ready asset must not trigger resolution")
	require.Len(t, fake.links, 1)
	assert.Equal(t, models.OwnerRecord{Type: models.OwnerOrder, ID: "123"}, fake.links[0].owner)
	assert.Equal(t, "custom", fake.links[0].namespace)
	assert.Equal(t, "lpo_file", fake.links[0].key)
	assert.Equal(t, "https://cdn.example.com/a.pdf", fake.links[0].value)
}

func TestUploadAndLink_ProcessingAssetResolves(t *testing.T) {
	fake := &fakePlatform{
		createRef: models.AssetReference{
			ID:     "gid://shopify/GenericFile/7",
			Kind:   models.KindGenericFile,
			Status: models.StatusProcessing,
		},
		resolveURL: "https://cdn.example.com/resolved.pdf",
	}
	svc := newService(fake)

	url, err := svc.UploadAndLink(context.Background(), []byte("x"), "a.pdf", "application/pdf", "123")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.resolveCalls)
	assert.Equal(t, "https://cdn.example.com/resolved.pdf", url)
	require.Len(t, fake.links, 1)
	assert.Equal(t, "https://cdn.example.com/resolved.pdf", fake.links[0].value)
}

func TestUploadAndLink_ResolutionTimeoutSurfaces(t *testing.T) {
	fake := &fakePlatform{
		createRef: models.AssetReference{
			ID:     "gid://shopify/GenericFile/8",
			Kind:   models.KindGenericFile,
			Status: models.StatusProcessing,
		},
		resolveErr: &platform.Error{Kind: platform.ErrResolutionTimeout, Op: "resolve", Message: "still processing"},
	}
	svc := newService(fake)

	_, err := svc.UploadAndLink(context.Background(), []byte("x"), "a.pdf", "application/pdf", "123")
	require.Error(t, err)

	// A timed-out resolution fails the upload; it never degrades into an
	// empty locator.
	assert.True(t, platform.IsKind(err, platform.ErrResolutionTimeout))
	assert.Empty(t, fake.links)
}

func TestUploadAndLink_FailedAssetNeverLinks(t *testing.T) {
	fake := &fakePlatform{
		createRef: models.AssetReference{
			Kind:    models.KindUnknown,
			Status:  models.StatusFailed,
			RawType: "Video",
		},
	}
	svc := newService(fake)

	_, err := svc.UploadAndLink(context.Background(), []byte("x"), "a.mp4", "video/mp4", "123")
	require.Error(t, err)

	assert.True(t, platform.IsKind(err, platform.ErrRejected))
	assert.Empty(t, fake.links)
	assert.Zero(t, fake.resolveCalls)
}

func TestUploadAndLink_ReadyWithoutLocatorIsError(t *testing.T) {
	fake := &fakePlatform{
		createRef: models.AssetReference{
			Kind:   models.KindGenericFile,
			Status: models.StatusReady,
		},
	}
	svc := newService(fake)

	_, err := svc.UploadAndLink(context.Background(), []byte("x"), "a.pdf", "application/pdf", "123")
	require.Error(t, err)
	assert.True(t, platform.IsKind(err, platform.ErrMalformedResponse))
	assert.Empty(t, fake.links)
}

func TestUploadAndLink_MissingOrderID(t *testing.T) {
	fake := &fakePlatform{}
	svc := newService(fake)

	_, err := svc.UploadAndLink(context.Background(), []byte("x"), "a.pdf", "application/pdf", "")
	require.Error(t, err)
	assert.Empty(t, fake.links)
}

func notification(attrs []models.NoteAttribute, customerID int64) *models.OrderNotification {
	n := &models.OrderNotification{ID: 123, NoteAttributes: attrs}
	if customerID != 0 {
		n.Customer = &models.WebhookCustomer{ID: customerID}
	}
	return n
}

func TestProcessOrderCreated_LinksOrderAndCustomer(t *testing.T) {
	fake := &fakePlatform{}
	svc := newService(fake)

	n := notification([]models.NoteAttribute{{Name: "lpo_file", Value: "https://x/y.pdf"}}, 456)
	require.NoError(t, svc.ProcessOrderCreated(context.Background(), n))

	require.Len(t, fake.links, 2)
	assert.Equal(t, models.OwnerRecord{Type: models.OwnerOrder, ID: "123"}, fake.links[0].owner)
	assert.Equal(t, models.OwnerRecord{Type: models.OwnerCustomer, ID: "456"}, fake.links[1].owner)
	for _, link := range fake.links {
		assert.Equal(t, "https://x/y.pdf", link.value)
	}
}

func TestProcessOrderCreated_NoCustomerIsValidSkip(t *testing.T) {
	fake := &fakePlatform{}
	svc := newService(fake)

	n := notification([]models.NoteAttribute{{Name: "lpo_file", Value: "https://x/y.pdf"}}, 0)
	require.NoError(t, svc.ProcessOrderCreated(context.Background(), n))

	require.Len(t, fake.links, 1)
	assert.Equal(t, models.OwnerOrder, fake.links[0].owner.Type)
}

func TestProcessOrderCreated_NoAttributeIsNoOp(t *testing.T) {
	fake := &fakePlatform{}
	svc := newService(fake)

	n := notification([]models.NoteAttribute{{Name: "gift_note", Value: "happy birthday"}}, 456)
	require.NoError(t, svc.ProcessOrderCreated(context.Background(), n))

	assert.Empty(t, fake.links, "no metadata calls may happen without the attribute")
}

func TestProcessOrderCreated_OrderLinkFailure(t *testing.T) {
	fake := &fakePlatform{
		linkErrFor: map[models.OwnerType]error{
			models.OwnerOrder: &platform.Error{Kind: platform.ErrRejected, Op: "metafields_set", Message: "owner missing"},
		},
	}
	svc := newService(fake)

	n := notification([]models.NoteAttribute{{Name: "lpo_file", Value: "https://x/y.pdf"}}, 456)
	err := svc.ProcessOrderCreated(context.Background(), n)
	require.Error(t, err)

	var partial *PartialLinkError
	assert.False(t, errors.As(err, &partial), "order failure is total, not partial")
	assert.Empty(t, fake.links, "customer link must not run after order link fails")
}

func TestProcessOrderCreated_CustomerLinkFailureIsPartial(t *testing.T) {
	fake := &fakePlatform{
		linkErrFor: map[models.OwnerType]error{
			models.OwnerCustomer: &platform.Error{Kind: platform.ErrTransport, Op: "metafields_set", Message: "connection reset"},
		},
	}
	svc := newService(fake)

	n := notification([]models.NoteAttribute{{Name: "lpo_file", Value: "https://x/y.pdf"}}, 456)
	err := svc.ProcessOrderCreated(context.Background(), n)
	require.Error(t, err)

	var partial *PartialLinkError
	require.True(t, errors.As(err, &partial), "customer failure after order success must surface as partial")
	assert.Equal(t, models.OwnerCustomer, partial.Owner.Type)

	// The order link is kept, not rolled back.
	require.Len(t, fake.links, 1)
	assert.Equal(t, models.OwnerOrder, fake.links[0].owner.Type)
}
