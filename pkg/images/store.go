// Package images uploads raw image payloads to the external image
// store and hands back stable public URLs.
package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/reshoe/pkg/config"
)

// Store is the collaborator contract: raw payloads in, URLs out.
// Any single failed upload fails the whole batch.
type Store interface {
	UploadAll(ctx context.Context, payloads []string) ([]string, error)
}

type HTTPStore struct {
	uploadURL  string
	apiKey     string
	folder     string
	httpClient *http.Client
}

func NewHTTPStore(cfg *config.ImagesConfig) *HTTPStore {
	return &HTTPStore{
		uploadURL: cfg.UploadURL,
		apiKey:    cfg.APIKey,
		folder:    cfg.Folder,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *HTTPStore) UploadAll(ctx context.Context, payloads []string) ([]string, error) {
	urls := make([]string, 0, len(payloads))
	for i, payload := range payloads {
		url, err := s.upload(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("upload image %d: %w", i, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *HTTPStore) upload(ctx context.Context, payload string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"file":   payload,
		"folder": s.folder,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("image store returned %d: %s", resp.StatusCode, data)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("image store returned empty url")
	}
	return out.URL, nil
}
