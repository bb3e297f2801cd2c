package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
)

// HTTPFetcher talks to a travel time backend over a small JSON GET API.
type HTTPFetcher struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPFetcher(name, baseURL, apiKey string, httpClient *http.Client) *HTTPFetcher {
	return &HTTPFetcher{
		name:       name,
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (f *HTTPFetcher) Name() string {
	return f.name
}

type fetchResponse struct {
	DurationSeconds int32 `json:"duration_seconds"`
	DistanceMetres  int32 `json:"distance_metres"`
	Rerouted        bool  `json:"rerouted"`
}

func (f *HTTPFetcher) Fetch(ctx context.Context, origin, destination string) (Result, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Result{}, &Failure{Code: CodeUnknown, Err: err}
	}
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Result{}, &Failure{Code: classifyError(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, &Failure{Code: classifyError(err), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, &Failure{
			Code: CodeBadResponse,
			Err:  fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var parsed fetchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, &Failure{Code: CodeBadResponse, Err: err}
	}
	if parsed.DurationSeconds <= 0 {
		return Result{}, &Failure{
			Code: CodeBadResponse,
			Err:  errors.New("non-positive travel duration"),
		}
	}

	return Result{
		DurationSec: parsed.DurationSeconds,
		DistanceM:   parsed.DistanceMetres,
		Rerouted:    parsed.Rerouted,
		Raw:         body,
	}, nil
}

func classifyError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CodeTimeout
		}
		return CodeNetworkError
	}

	return CodeUnknown
}
