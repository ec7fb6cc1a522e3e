package models

// AssetKind identifies the platform-side subtype of a stored asset.
type AssetKind string

const (
	KindGenericFile AssetKind = "generic_file"
	KindMediaImage  AssetKind = "media_image"
	KindUnknown     AssetKind = "unknown"
)

// AssetStatus reports whether an asset is retrievable yet.
type AssetStatus string

const (
	StatusReady      AssetStatus = "ready"
	StatusProcessing AssetStatus = "processing"
	StatusFailed     AssetStatus = "failed"
)

// AssetReference is the normalized result of an asset upload. While the
// platform is still processing the asset, Locator is empty and ID carries the
// opaque identifier needed for a follow-up resolution call.
type AssetReference struct {
	Locator string      `json:"locator,omitempty"`
	ID      string      `json:"id,omitempty"`
	Kind    AssetKind   `json:"kind"`
	Status  AssetStatus `json:"status"`
	// RawType preserves the platform's discriminator for subtypes this
	// service does not recognize.
	RawType string `json:"raw_type,omitempty"`
}

// Linkable reports whether the reference can be attached to an owner record
// as-is, without a resolution step.
func (r AssetReference) Linkable() bool {
	return r.Status == StatusReady && r.Locator != ""
}
