package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orderdocs/orderdocs/internal/models"
)

const fileByIDQuery = `
query fileByID($id: ID!) {
  node(id: $id) {
    __typename
    id
    ... on GenericFile {
      fileStatus
      url
    }
    ... on MediaImage {
      fileStatus
      image {
        url
      }
    }
  }
}`

// ResolveLocator looks up an asset by its opaque identifier until the
// platform reports it ready, retrying with exponential backoff. Asset
// processing is asynchronous on the remote side; an upload response with no
// URL only means "not yet". After the attempt budget is exhausted the caller
// gets ErrResolutionTimeout and may retry later.
func (c *Client) ResolveLocator(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", &Error{Kind: ErrRejected, Op: "resolve", Message: "asset identifier is required"}
	}

	backoff := c.resolveInitialBackoff
	throttled := false
	for attempt := 1; attempt <= c.resolveMaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, backoff); err != nil {
				return "", &Error{Kind: ErrTransport, Op: "resolve", Message: "cancelled while waiting", Err: err}
			}
			backoff *= 2
			if backoff > c.resolveMaxBackoff {
				backoff = c.resolveMaxBackoff
			}
		}

		ref, err := c.lookupFile(ctx, id)
		if err != nil {
			// Throttling counts against the same budget as "still
			// processing"; anything else is terminal.
			if IsKind(err, ErrRateLimited) {
				throttled = true
				continue
			}
			return "", err
		}
		throttled = false

		switch ref.Status {
		case models.StatusReady:
			return ref.Locator, nil
		case models.StatusFailed:
			return "", &Error{Kind: ErrRejected, Op: "resolve", Message: fmt.Sprintf("platform reports asset %s failed", id)}
		default:
			c.logger.DebugContext(ctx, "asset still processing", "asset_id", id, "attempt", attempt)
		}
	}

	msg := fmt.Sprintf("asset %s still processing after %d attempts", id, c.resolveMaxAttempts)
	if throttled {
		msg = fmt.Sprintf("asset %s unresolved after %d attempts, last lookup throttled", id, c.resolveMaxAttempts)
	}
	return "", &Error{Kind: ErrResolutionTimeout, Op: "resolve", Message: msg}
}

func (c *Client) lookupFile(ctx context.Context, id string) (models.AssetReference, error) {
	var out struct {
		Node json.RawMessage `json:"node"`
	}
	if err := c.execute(ctx, "resolve", fileByIDQuery, map[string]any{"id": id}, &out); err != nil {
		return models.AssetReference{}, err
	}

	if len(out.Node) == 0 || string(out.Node) == "null" {
		return models.AssetReference{}, &Error{Kind: ErrMalformedResponse, Op: "resolve", Message: fmt.Sprintf("asset %s not found", id)}
	}

	return Normalize(out.Node)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
