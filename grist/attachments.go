package grist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/s0up4200/grister/apicall"
)

// ListAttachments lists the attachments of a document
func (c *Client) ListAttachments(ctx context.Context, q AttachmentQuery, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)

	values := url.Values{}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(q.Filter) > 0 {
		filter, err := json.Marshal(q.Filter)
		if err != nil {
			return apicall.Outcome{}, fmt.Errorf("failed to encode filter: %w", err)
		}
		values.Set("filter", string(filter))
	}

	target := c.docURL(s, "attachments")
	if len(values) > 0 {
		target += "?" + encodeQuery(values)
	}
	return c.read(ctx, apicall.Call{URL: target}, "records")
}

// UploadAttachment uploads one attachment read from r. The reader is not
// closed.
func (c *Client) UploadAttachment(ctx context.Context, name string, r io.Reader, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.write(ctx, apicall.Call{
		URL:     c.docURL(s, "attachments"),
		Method:  http.MethodPost,
		Headers: map[string]string{},
		Uploads: []apicall.Upload{{Name: name, Reader: r}},
	})
}

// UploadAttachmentFile uploads a local file as an attachment
func (c *Client) UploadAttachmentFile(ctx context.Context, path string, opts ...ScopeOption) (apicall.Outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return apicall.Outcome{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return c.UploadAttachment(ctx, filepath.Base(path), f, opts...)
}

// GetAttachment describes one attachment
func (c *Client) GetAttachment(ctx context.Context, id int64, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{URL: c.docURL(s, "attachments", strconv.FormatInt(id, 10))}, "")
}

// DownloadAttachment saves the content of one attachment
func (c *Client) DownloadAttachment(ctx context.Context, path string, id int64, opts ...ScopeOption) (apicall.Outcome, error) {
	s := c.scope(opts)
	return c.read(ctx, apicall.Call{
		URL:        c.docURL(s, "attachments", strconv.FormatInt(id, 10), "download"),
		Headers:    map[string]string{"Accept": "*/*"},
		OutputPath: path,
	}, "")
}
