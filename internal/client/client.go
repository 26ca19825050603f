package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	filesdomain "github.com/kgellert/cloudclip/internal/files"
	messagesdomain "github.com/kgellert/cloudclip/internal/messages"
)

// Client is the HTTP API client used by the CLI and the pipeline
// helpers. It is safe for concurrent use once the token is set.
type Client struct {
	baseURL  string
	deviceID string
	token    atomic.Pointer[string]
	httpc    *http.Client
}

func New(baseURL, deviceID string) *Client {
	return &Client{
		baseURL:  baseURL,
		deviceID: deviceID,
		httpc:    &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *Client) SetToken(token string) {
	c.token.Store(&token)
}

func (c *Client) Token() string {
	if p := c.token.Load(); p != nil {
		return *p
	}
	return ""
}

type loginResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Login exchanges the shared password for an access token and stores it
// on the client. It returns the token lifetime.
func (c *Client) Login(ctx context.Context, password string) (time.Duration, error) {
	const op = "client.Login"

	body, err := json.Marshal(map[string]string{"password": password})
	if err != nil {
		return 0, fmt.Errorf("%s: marshal: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return 0, fmt.Errorf("%s: decode: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK || !lr.Success {
		if lr.Error != "" {
			return 0, fmt.Errorf("%s: %s", op, lr.Error)
		}
		return 0, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	c.SetToken(lr.Token)

	return time.Duration(lr.ExpiresIn) * time.Second, nil
}

func (c *Client) Messages(ctx context.Context, limit, offset int) (*messagesdomain.ListResponse, error) {
	const op = "client.Messages"

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var out messagesdomain.ListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/messages?"+q.Encode(), nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (c *Client) SendText(ctx context.Context, content string) (*messagesdomain.Message, error) {
	const op = "client.SendText"

	req := messagesdomain.SendMessageRequest{Content: content, DeviceID: c.deviceID}

	var out messagesdomain.SendResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/messages", req, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out.Data, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id int64) error {
	const op = "client.DeleteMessage"

	path := "/api/messages/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Client) DeleteFile(ctx context.Context, storageKey string) error {
	const op = "client.DeleteFile"

	path := "/api/files/" + url.PathEscape(storageKey)
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Client) ClearAll(ctx context.Context) (*messagesdomain.ClearAllResult, error) {
	const op = "client.ClearAll"

	var out messagesdomain.ClearAllResponse
	if err := c.doJSON(ctx, http.MethodDelete, "/api/messages", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out.Data, nil
}

// UploadFile streams one multipart upload. progress, when non-nil, is
// called with the cumulative byte count as the body is consumed.
func (c *Client) UploadFile(ctx context.Context, name string, size int64, r io.Reader, progress func(sent int64)) (*filesdomain.UploadResult, error) {
	const op = "client.UploadFile"

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("deviceId", c.deviceID); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	var body io.Reader = pr
	if progress != nil {
		body = &countingReader{r: pr, max: size, report: progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/files/upload", body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var out filesdomain.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !out.Success {
		return nil, fmt.Errorf("%s: upload rejected with status %d", op, resp.StatusCode)
	}

	return &out.Data, nil
}

// FetchPreview downloads preview bytes for a stored file. The primary
// attempt carries the token in the query string, matching how preview
// URLs are embedded in image tags; on failure one retry goes through the
// Authorization header.
func (c *Client) FetchPreview(ctx context.Context, storageKey string) ([]byte, error) {
	const op = "client.FetchPreview"

	path := "/api/files/preview/" + url.PathEscape(storageKey)

	data, err := c.fetch(ctx, path+"?token="+url.QueryEscape(c.Token()), false)
	if err == nil {
		return data, nil
	}

	data, err = c.fetch(ctx, path, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return data, nil
}

func (c *Client) fetch(ctx context.Context, path string, withHeader bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if withHeader {
		c.authorize(req)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if t := c.Token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
}

// countingReader reports cumulative bytes consumed, clamped to max. The
// wire stream includes the multipart envelope, so the raw count would
// otherwise overshoot the file size and break percent math downstream.
type countingReader struct {
	r      io.Reader
	total  int64
	max    int64
	report func(sent int64)
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.total += int64(n)
		sent := cr.total
		if cr.max > 0 && sent > cr.max {
			sent = cr.max
		}
		cr.report(sent)
	}
	return n, err
}
