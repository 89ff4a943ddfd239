// internal/gateway/relay.go
package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"eduscribe-web/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Relay reconstructs an inbound request against the upstream base URL,
// forwards it with the same method, and normalizes the reply. It holds no
// per-request state; every invocation is independent.
type Relay struct {
	base   *url.URL
	client *http.Client
	logger *zap.Logger
}

func NewRelay(baseURL string, client *http.Client, logger *zap.Logger) (*Relay, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream base URL %q must be absolute", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{base: base, client: client, logger: logger}, nil
}

// Forward relays the request to <base>/<path> and writes the normalized
// response. Every failure along the way ends as a 500 envelope; nothing
// propagates to the caller.
func (r *Relay) Forward(c *gin.Context, path string) {
	if err := r.forward(c, path); err != nil {
		r.logger.Error("proxy relay failed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Error(err),
		)
		response.ServerError(c, err)
	}
}

func (r *Relay) forward(c *gin.Context, path string) error {
	target := strings.TrimRight(r.base.String(), "/") + "/" + strings.TrimLeft(path, "/")
	if raw := c.Request.URL.RawQuery; raw != "" {
		target += "?" + raw
	}

	method := c.Request.Method
	var body io.Reader
	var contentType string

	if method == http.MethodPost || method == http.MethodPut {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return fmt.Errorf("failed to read request body: %w", err)
		}

		inCT := c.GetHeader("Content-Type")
		switch {
		case strings.Contains(inCT, "application/json"):
			var parsed interface{}
			if err := json.Unmarshal(raw, &parsed); err != nil {
				return fmt.Errorf("invalid JSON body: %w", err)
			}
			out, err := json.Marshal(parsed)
			if err != nil {
				return fmt.Errorf("failed to re-serialize JSON body: %w", err)
			}
			body = bytes.NewReader(out)
			contentType = "application/json"

		case inCT == "" || strings.Contains(inCT, "multipart/form-data"):
			// File-upload case. Re-encode so the transport computes its own
			// boundary instead of trusting the inbound header; parse failures
			// fall back to the raw body.
			out, ct, err := rebuildMultipart(raw, inCT)
			if err != nil {
				body = bytes.NewReader(raw)
				contentType = inCT
			} else {
				body = bytes.NewReader(out)
				contentType = ct
			}

		default:
			body = bytes.NewReader(raw)
			contentType = inCT
		}
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build upstream request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth := c.GetHeader("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read upstream response: %w", err)
	}

	return r.writeNormalized(c, resp, respBody)
}

// writeNormalized echoes the upstream status. JSON replies pass straight
// through; anything else is first tried as JSON anyway (some upstreams
// mislabel their content-type) and only then wrapped in the envelope.
func (r *Relay) writeNormalized(c *gin.Context, resp *http.Response, body []byte) error {
	upCT := resp.Header.Get("Content-Type")

	var parsed interface{}
	if strings.Contains(upCT, "application/json") {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("upstream sent unparsable JSON: %w", err)
		}
		c.JSON(resp.StatusCode, parsed)
		return nil
	}

	if err := json.Unmarshal(body, &parsed); err == nil {
		c.JSON(resp.StatusCode, parsed)
		return nil
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	c.JSON(resp.StatusCode, response.Envelope{
		Status:  ok,
		Message: deriveMessage(resp.StatusCode),
		Data:    string(body),
	})
	return nil
}

func deriveMessage(status int) string {
	if status >= 200 && status < 300 {
		return "Success"
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Request failed"
}

// rebuildMultipart re-encodes a multipart body with a fresh boundary,
// preserving each part's headers and content.
func rebuildMultipart(raw []byte, contentType string) ([]byte, string, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, "", fmt.Errorf("unparsable content-type: %w", err)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, "", fmt.Errorf("multipart content-type without boundary")
	}

	mr := multipart.NewReader(bytes.NewReader(raw), boundary)
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read multipart part: %w", err)
		}

		pw, err := w.CreatePart(part.Header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create multipart part: %w", err)
		}
		if _, err := io.Copy(pw, part); err != nil {
			return nil, "", fmt.Errorf("failed to copy multipart part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
