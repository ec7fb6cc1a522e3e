package platform

import (
	"encoding/json"

	"github.com/orderdocs/orderdocs/internal/models"
)

// fileRecord mirrors the platform's file payload across the subtypes this
// service knows about. GenericFile carries its URL at the top level;
// MediaImage nests it one level deeper under an image sub-object. Both fields
// are declared so a single decode covers every variant.
type fileRecord struct {
	Typename   string `json:"__typename"`
	ID         string `json:"id"`
	FileStatus string `json:"fileStatus"`
	URL        string `json:"url"`
	Image      *struct {
		URL string `json:"url"`
	} `json:"image"`
}

// Normalize maps one raw file record from a platform response into a stable
// AssetReference. It is a pure function: no I/O, total over its input.
//
// Unknown subtypes normalize to a failed reference with the raw discriminator
// preserved, rather than an error; the platform has changed this shape across
// API versions and new subtypes must not crash the service.
func Normalize(raw json.RawMessage) (models.AssetReference, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return models.AssetReference{}, &Error{
			Kind:    ErrMalformedResponse,
			Op:      "normalize",
			Message: "empty file record",
		}
	}

	var rec fileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.AssetReference{}, &Error{
			Kind:    ErrMalformedResponse,
			Op:      "normalize",
			Message: "decode file record",
			Err:     err,
		}
	}

	if rec.FileStatus == "FAILED" {
		return models.AssetReference{
			ID:      rec.ID,
			Kind:    kindOf(rec.Typename),
			Status:  models.StatusFailed,
			RawType: rec.Typename,
		}, nil
	}

	switch rec.Typename {
	case "GenericFile":
		if rec.URL == "" {
			// Still processing on the platform side; the locator has to
			// be resolved by identifier later.
			return models.AssetReference{
				ID:     rec.ID,
				Kind:   models.KindGenericFile,
				Status: models.StatusProcessing,
			}, nil
		}
		return models.AssetReference{
			Locator: rec.URL,
			ID:      rec.ID,
			Kind:    models.KindGenericFile,
			Status:  models.StatusReady,
		}, nil

	case "MediaImage":
		if rec.Image == nil || rec.Image.URL == "" {
			return models.AssetReference{
				ID:     rec.ID,
				Kind:   models.KindMediaImage,
				Status: models.StatusProcessing,
			}, nil
		}
		return models.AssetReference{
			Locator: rec.Image.URL,
			ID:      rec.ID,
			Kind:    models.KindMediaImage,
			Status:  models.StatusReady,
		}, nil

	default:
		return models.AssetReference{
			ID:      rec.ID,
			Kind:    models.KindUnknown,
			Status:  models.StatusFailed,
			RawType: rec.Typename,
		}, nil
	}
}

func kindOf(typename string) models.AssetKind {
	switch typename {
	case "GenericFile":
		return models.KindGenericFile
	case "MediaImage":
		return models.KindMediaImage
	default:
		return models.KindUnknown
	}
}
