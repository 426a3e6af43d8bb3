package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"grocery-dispatch/internal/models"
)

// API talks to the dispatch service over HTTP and maps its error
// envelope back into the typed errors the coordinators branch on.
type API struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewAPI creates an API client. authToken may be empty for the public
// estimate endpoint.
func NewAPI(baseURL, authToken string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &API{
		baseURL:    baseURL,
		authToken:  authToken,
		httpClient: httpClient,
	}
}

// NearestEstimate implements EstimateFetcherInterface against
// POST /eta/estimate.
func (a *API) NearestEstimate(ctx context.Context, point models.GeoPoint) (*models.BranchEstimate, error) {
	body := models.EstimateRequest{Latitude: point.Latitude, Longitude: point.Longitude}

	var estimate models.BranchEstimate
	if err := a.post(ctx, "/eta/estimate", body, &estimate); err != nil {
		return nil, err
	}
	return &estimate, nil
}

// FetchQuote implements QuoteFetcherInterface against POST /orders/quote.
func (a *API) FetchQuote(ctx context.Context, req models.QuoteRequest) (*models.DeliveryQuote, error) {
	var quote models.DeliveryQuote
	if err := a.post(ctx, "/orders/quote", req, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

func (a *API) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.authToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// decodeAPIError turns the server's error envelope back into the typed
// errors coverage and checkout rendering depend on.
func decodeAPIError(status int, raw []byte) error {
	var envelope models.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("request failed with status %d", status)
	}

	switch envelope.Code {
	case models.CodeDistanceExceeded:
		e := &models.DistanceExceededError{}
		if envelope.MaxDistance != nil {
			e.MaxDistanceKm = *envelope.MaxDistance
		}
		if envelope.DistanceKm != nil {
			e.DistanceKm = *envelope.DistanceKm
		}
		return e
	case models.CodeOutOfCoverage:
		return models.ErrOutOfCoverage
	case models.CodeBranchNotFound:
		return models.ErrBranchNotFound
	case models.CodeInvalidLocation:
		return models.ErrInvalidLocation
	}

	if envelope.Message != "" {
		return fmt.Errorf("%s", envelope.Message)
	}
	return fmt.Errorf("request failed with status %d", status)
}
