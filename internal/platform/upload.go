package platform

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/orderdocs/orderdocs/internal/models"
)

const (
	UploadModeBase64 = "base64"
	UploadModeStaged = "staged"

	defaultMimeType = "application/octet-stream"
)

const fileCreateMutation = `
mutation fileCreate($files: [FileCreateInput!]!) {
  fileCreate(files: $files) {
    files {
      __typename
      id
      fileStatus
      ... on GenericFile {
        url
      }
      ... on MediaImage {
        image {
          url
        }
      }
    }
    userErrors {
      field
      message
    }
  }
}`

const stagedUploadsMutation = `
mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters {
        name
        value
      }
    }
    userErrors {
      field
      message
    }
  }
}`

type fileCreatePayload struct {
	Files      []json.RawMessage `json:"files"`
	UserErrors []UserError       `json:"userErrors"`
}

type stagedTarget struct {
	URL         string `json:"url"`
	ResourceURL string `json:"resourceUrl"`
	Parameters  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"parameters"`
}

type stagedUploadsPayload struct {
	StagedTargets []stagedTarget `json:"stagedTargets"`
	UserErrors    []UserError    `json:"userErrors"`
}

// CreateFile uploads raw bytes to the platform's asset store and returns the
// normalized reference. The transport mode (inline base64 or staged
// multipart) is fixed at client construction; the platform has supported both
// across its API versions.
func (c *Client) CreateFile(ctx context.Context, content []byte, filename, mimeType string) (models.AssetReference, error) {
	if len(content) == 0 {
		return models.AssetReference{}, &Error{Kind: ErrRejected, Op: "file_create", Message: "file content is empty"}
	}
	if filename == "" {
		return models.AssetReference{}, &Error{Kind: ErrRejected, Op: "file_create", Message: "filename is required"}
	}
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	var originalSource string
	if c.uploadMode == UploadModeStaged {
		resourceURL, err := c.stageUpload(ctx, content, filename, mimeType)
		if err != nil {
			return models.AssetReference{}, err
		}
		originalSource = resourceURL
	} else {
		originalSource = fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(content))
	}

	variables := map[string]any{
		"files": []map[string]any{{
			"originalSource": originalSource,
			"alt":            c.alt,
			"contentType":    fileContentType(mimeType),
		}},
	}

	var out struct {
		FileCreate *fileCreatePayload `json:"fileCreate"`
	}
	if err := c.execute(ctx, "file_create", fileCreateMutation, variables, &out); err != nil {
		return models.AssetReference{}, err
	}

	if out.FileCreate == nil {
		return models.AssetReference{}, &Error{Kind: ErrMalformedResponse, Op: "file_create", Message: "response missing fileCreate payload"}
	}
	if len(out.FileCreate.UserErrors) > 0 {
		return models.AssetReference{}, &Error{Kind: ErrRejected, Op: "file_create", Details: out.FileCreate.UserErrors}
	}
	if len(out.FileCreate.Files) == 0 {
		return models.AssetReference{}, &Error{Kind: ErrMalformedResponse, Op: "file_create", Message: "response contains no file record"}
	}

	ref, err := Normalize(out.FileCreate.Files[0])
	if err != nil {
		return models.AssetReference{}, err
	}

	c.logger.InfoContext(ctx, "file created",
		"kind", string(ref.Kind),
		"status", string(ref.Status),
		"bytes", len(content))

	return ref, nil
}

// stageUpload reserves a staged target for the file and posts the raw bytes
// to it as a multipart form, returning the resource URL that fileCreate
// accepts as an original source.
func (c *Client) stageUpload(ctx context.Context, content []byte, filename, mimeType string) (string, error) {
	variables := map[string]any{
		"input": []map[string]any{{
			"filename":   filename,
			"mimeType":   mimeType,
			"resource":   "FILE",
			"httpMethod": "POST",
			"fileSize":   strconv.Itoa(len(content)),
		}},
	}

	var out struct {
		StagedUploadsCreate *stagedUploadsPayload `json:"stagedUploadsCreate"`
	}
	if err := c.execute(ctx, "staged_uploads_create", stagedUploadsMutation, variables, &out); err != nil {
		return "", err
	}

	if out.StagedUploadsCreate == nil {
		return "", &Error{Kind: ErrMalformedResponse, Op: "staged_uploads_create", Message: "response missing stagedUploadsCreate payload"}
	}
	if len(out.StagedUploadsCreate.UserErrors) > 0 {
		return "", &Error{Kind: ErrRejected, Op: "staged_uploads_create", Details: out.StagedUploadsCreate.UserErrors}
	}
	if len(out.StagedUploadsCreate.StagedTargets) == 0 {
		return "", &Error{Kind: ErrMalformedResponse, Op: "staged_uploads_create", Message: "response contains no staged target"}
	}

	target := out.StagedUploadsCreate.StagedTargets[0]
	if target.URL == "" || target.ResourceURL == "" {
		return "", &Error{Kind: ErrMalformedResponse, Op: "staged_uploads_create", Message: "staged target missing url"}
	}

	if err := c.postStaged(ctx, target, content, filename); err != nil {
		return "", err
	}

	return target.ResourceURL, nil
}

func (c *Client) postStaged(ctx context.Context, target stagedTarget, content []byte, filename string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// Staged targets require their parameters ahead of the file part.
	for _, p := range target.Parameters {
		if err := writer.WriteField(p.Name, p.Value); err != nil {
			return &Error{Kind: ErrTransport, Op: "staged_upload", Message: "write form field", Err: err}
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return &Error{Kind: ErrTransport, Op: "staged_upload", Message: "create form file", Err: err}
	}
	if _, err := part.Write(content); err != nil {
		return &Error{Kind: ErrTransport, Op: "staged_upload", Message: "write file content", Err: err}
	}
	if err := writer.Close(); err != nil {
		return &Error{Kind: ErrTransport, Op: "staged_upload", Message: "finalize form", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &body)
	if err != nil {
		return &Error{Kind: ErrTransport, Op: "staged_upload", Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: ErrTransport, Op: "staged_upload", Message: "send request", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Error{Kind: ErrRateLimited, Op: "staged_upload", Message: "throttled by staged target"}
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &Error{Kind: ErrRejected, Op: "staged_upload", Message: fmt.Sprintf("staged target refused upload with status %d", resp.StatusCode)}
	default:
		return &Error{Kind: ErrTransport, Op: "staged_upload", Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
}

func fileContentType(mimeType string) string {
	if strings.HasPrefix(mimeType, "image/") {
		return "IMAGE"
	}
	return "FILE"
}
