package platform

import (
	"context"

	"github.com/orderdocs/orderdocs/internal/metrics"
	"github.com/orderdocs/orderdocs/internal/models"
)

const metafieldsSetMutation = `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      id
      key
      value
    }
    userErrors {
      field
      message
    }
  }
}`

type metafieldRecord struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type metafieldsSetPayload struct {
	Metafields []metafieldRecord `json:"metafields"`
	UserErrors []UserError       `json:"userErrors"`
}

// SetMetafield attaches a value to an owner record under the given
// namespace/key slot. The platform call has upsert semantics: writing the
// same (owner, namespace, key) twice overwrites the value instead of
// creating a second entry.
func (c *Client) SetMetafield(ctx context.Context, owner models.OwnerRecord, namespace, key, value string) error {
	variables := map[string]any{
		"metafields": []map[string]any{{
			"ownerId":   owner.GID(),
			"namespace": namespace,
			"key":       key,
			"type":      "single_line_text_field",
			"value":     value,
		}},
	}

	var out struct {
		MetafieldsSet *metafieldsSetPayload `json:"metafieldsSet"`
	}
	if err := c.execute(ctx, "metafields_set", metafieldsSetMutation, variables, &out); err != nil {
		metrics.LinkFailures.WithLabelValues(string(owner.Type)).Inc()
		return err
	}

	if out.MetafieldsSet == nil {
		metrics.LinkFailures.WithLabelValues(string(owner.Type)).Inc()
		return &Error{Kind: ErrMalformedResponse, Op: "metafields_set", Message: "response missing metafieldsSet payload"}
	}
	if len(out.MetafieldsSet.UserErrors) > 0 {
		metrics.LinkFailures.WithLabelValues(string(owner.Type)).Inc()
		return &Error{Kind: ErrRejected, Op: "metafields_set", Details: out.MetafieldsSet.UserErrors}
	}
	if len(out.MetafieldsSet.Metafields) == 0 {
		metrics.LinkFailures.WithLabelValues(string(owner.Type)).Inc()
		return &Error{Kind: ErrMalformedResponse, Op: "metafields_set", Message: "response contains no written metafield"}
	}

	c.logger.InfoContext(ctx, "metafield linked",
		"owner", owner.GID(),
		"namespace", namespace,
		"key", key)

	return nil
}
