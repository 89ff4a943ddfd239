// internal/clients/eduscribe/client.go
package eduscribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"eduscribe-web/internal/domain/lecture"
	"eduscribe-web/internal/session"
)

// caller is the authorized-request surface of the session store.
type caller interface {
	Do(ctx context.Context, endpoint string, opts session.CallOptions) (*session.CallResult, error)
}

// Client is a typed wrapper over the gateway's mirror of the EduScribe API.
// All calls go through the session store so bearer credentials and forced
// logouts are handled in one place.
type Client struct {
	caller caller
}

func NewClient(c caller) *Client {
	return &Client{caller: c}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Sessions lists every published lecture session.
func (c *Client) Sessions(ctx context.Context) ([]lecture.Session, error) {
	var out []lecture.Session
	if err := c.get(ctx, "/Session/GetAll", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserSessions lists the sessions owned by the current user.
func (c *Client) UserSessions(ctx context.Context) ([]lecture.Session, error) {
	var out []lecture.Session
	if err := c.get(ctx, "/Session/GetAllUserSessions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Session fetches a single session with its transcript.
func (c *Client) Session(ctx context.Context, id int) (*lecture.Session, error) {
	var out lecture.Session
	if err := c.get(ctx, "/Session/Get/"+strconv.Itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSession uploads a recording as a multipart form with its name and
// language; the upstream transcribes it asynchronously.
func (c *Client) CreateSession(ctx context.Context, name, language, filename string, file io.Reader) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("name", name); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.WriteField("language", language); err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return fmt.Errorf("failed to copy upload file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload form: %w", err)
	}

	res, err := c.caller.Do(ctx, "/Session/Create", session.CallOptions{
		Method:      http.MethodPost,
		Body:        &buf,
		ContentType: w.FormDataContentType(),
	})
	if err != nil {
		return err
	}
	return checkEnvelope(res.Body)
}

// DeleteSession removes a session the current user owns.
func (c *Client) DeleteSession(ctx context.Context, id int) error {
	res, err := c.caller.Do(ctx, "/Session/Delete/"+strconv.Itoa(id), session.CallOptions{
		Method: http.MethodDelete,
	})
	if err != nil {
		return err
	}
	return checkEnvelope(res.Body)
}

// Summary fetches the generated summary for a session.
func (c *Client) Summary(ctx context.Context, sessionID int) (*lecture.Summary, error) {
	var out lecture.Summary
	if err := c.get(ctx, "/Summary/Get/"+strconv.Itoa(sessionID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Translations lists a session's translations.
func (c *Client) Translations(ctx context.Context, sessionID int) ([]lecture.Translation, error) {
	var out []lecture.Translation
	if err := c.get(ctx, "/SessionTranslation/GetAll/"+strconv.Itoa(sessionID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Translation fetches one translation with its content.
func (c *Client) Translation(ctx context.Context, id int) (*lecture.Translation, error) {
	var out lecture.Translation
	if err := c.get(ctx, "/SessionTranslation/GetById/"+strconv.Itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTranslation requests a translation of a session's transcript into
// the target language and returns the created record.
func (c *Client) CreateTranslation(ctx context.Context, sessionID int, language string) (*lecture.Translation, error) {
	payload, err := json.Marshal(map[string]string{"language": language})
	if err != nil {
		return nil, err
	}

	res, err := c.caller.Do(ctx, "/SessionTranslation/Create/"+strconv.Itoa(sessionID), session.CallOptions{
		Method: http.MethodPost,
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(res.Body, &env); err != nil {
		return nil, fmt.Errorf("unexpected response shape: %w", err)
	}
	if !env.Status {
		return nil, upstreamError(env.Message)
	}

	var out lecture.Translation
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return nil, fmt.Errorf("unexpected translation payload: %w", err)
		}
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	res, err := c.caller.Do(ctx, endpoint, session.CallOptions{})
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(res.Body, &env); err != nil {
		return fmt.Errorf("unexpected response shape: %w", err)
	}
	if !env.Status {
		return upstreamError(env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("unexpected payload: %w", err)
		}
	}
	return nil
}

func checkEnvelope(body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unexpected response shape: %w", err)
	}
	if !env.Status {
		return upstreamError(env.Message)
	}
	return nil
}

func upstreamError(message string) error {
	if message == "" {
		message = "request failed"
	}
	return fmt.Errorf("upstream: %s", message)
}
