// Package recognize calls the remote answer-sheet recognition service and
// normalizes its loosely-typed JSON responses.
package recognize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pavelanni/mcqgrader/internal/model"
)

// ErrBadResponse is returned when the service response violates the protocol
// (not JSON, or missing the answers mapping).
var ErrBadResponse = errors.New("recognition response missing answers")

// Client talks to the recognition service over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
	}
}

type base64Request struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// GradeBase64 submits an image as base64 JSON to the /grade_base64 endpoint.
func (c *Client) GradeBase64(ctx context.Context, filename string, image []byte) (*model.RecognitionResult, error) {
	payload, err := json.Marshal(base64Request{
		Filename: filename,
		Content:  base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/grade_base64", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

// GradeFile submits an image as a multipart upload to the /grade endpoint.
func (c *Client) GradeFile(ctx context.Context, filename string, image io.Reader) (*model.RecognitionResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/grade", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*model.RecognitionResult, error) {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognition request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recognition service returned %s", resp.Status)
	}

	return parseResponse(body)
}

// parseResponse normalizes a service response. Only the answers mapping is
// required; reg_number and debug_image are optional. Keys that are not
// 0-based question indexes are skipped.
func parseResponse(body []byte) (*model.RecognitionResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrBadResponse)
	}
	answers := gjson.GetBytes(body, "answers")
	if !answers.Exists() || !answers.IsObject() {
		return nil, ErrBadResponse
	}

	marks := make(map[int]string)
	answers.ForEach(func(key, value gjson.Result) bool {
		idx, err := strconv.Atoi(key.String())
		if err != nil || idx < 0 {
			slog.Warn("skipping non-index answer key", "key", key.String())
			return true
		}
		marks[idx] = value.String()
		return true
	})

	return &model.RecognitionResult{
		RegNumber:  gjson.GetBytes(body, "reg_number").String(),
		Marks:      marks,
		DebugImage: gjson.GetBytes(body, "debug_image").String(),
	}, nil
}
