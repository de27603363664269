package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// GotenbergClient converts HTML to PDF through a Gotenberg service.
type GotenbergClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGotenbergClient constructs a client for the service at baseURL.
func NewGotenbergClient(baseURL string) *GotenbergClient {
	return &GotenbergClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (c *GotenbergClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderPDF posts src.HTML to the Chromium HTML route.
func (c *GotenbergClient) RenderPDF(ctx context.Context, src Source) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, NewError(CodeRenderFailed, "build gotenberg form", err)
	}
	if _, err := io.WriteString(part, src.HTML); err != nil {
		return nil, NewError(CodeRenderFailed, "build gotenberg form", err)
	}
	fields := map[string]string{
		"paperWidth":      strconv.FormatFloat(a4WidthInches, 'f', 2, 64),
		"paperHeight":     strconv.FormatFloat(a4HeightInches, 'f', 2, 64),
		"printBackground": "true",
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, NewError(CodeRenderFailed, "build gotenberg form", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, NewError(CodeRenderFailed, "build gotenberg form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, NewError(CodeRenderFailed, "build gotenberg request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewError(CodeRenderTimeout, "gotenberg request cancelled", err)
		}
		return nil, NewError(CodeRenderFailed, "gotenberg request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewError(CodeRenderFailed,
			fmt.Sprintf("gotenberg returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), nil)
	}
	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(CodeRenderFailed, "read gotenberg response", err)
	}
	return pdf, nil
}

var _ PDFEngine = (*GotenbergClient)(nil)
