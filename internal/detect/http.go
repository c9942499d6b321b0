package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
)

// HTTPDetector calls an external inference service. The tile is posted as a
// PNG in a multipart form together with the confidence threshold; the
// service answers with tile-local detections.
type HTTPDetector struct {
	url    string
	client *http.Client
}

// NewHTTPDetector returns a detector backed by the inference service at url.
func NewHTTPDetector(url string) *HTTPDetector {
	return &HTTPDetector{
		url:    url,
		client: &http.Client{},
	}
}

type wireDetection struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class"`
}

// Detect posts one tile to the inference service and decodes the response.
func (d *HTTPDetector) Detect(ctx context.Context, tile image.Image, confidence float64) ([]Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "tile.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := png.Encode(part, tile); err != nil {
		return nil, fmt.Errorf("encode tile: %w", err)
	}
	if err := writer.WriteField("confidence", strconv.FormatFloat(confidence, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("write confidence field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var result struct {
		Detections []wireDetection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	dets := make([]Detection, 0, len(result.Detections))
	for _, wd := range result.Detections {
		dets = append(dets, Detection{
			Box:        Box{X1: wd.X1, Y1: wd.Y1, X2: wd.X2, Y2: wd.Y2},
			Confidence: wd.Confidence,
			Class:      wd.Class,
		})
	}
	return dets, nil
}

// CheckHealth verifies the inference service is reachable.
func (d *HTTPDetector) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
