// Package mapbox is a thin client for the Mapbox Directions API.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/osavchenko/ecoroute/internal/logger"
	"github.com/osavchenko/ecoroute/internal/models"
)

const (
	CodeNoRoute    = "no-route"
	CodeRetryAfter = "retry-after"
	CodeUnknown    = "unknown"
)

const defaultBaseURL = "https://api.mapbox.com"

// driving profile, alternatives give us routes to compare emissions across
const directionsProfile = "mapbox/driving-traffic"

type DirectionsError struct {
	Code string

	RetryAfter time.Duration
	Err        error
}

func (de *DirectionsError) Error() string {
	return fmt.Sprintf("code: %s, retry_after: %d, error: %v", de.Code, de.RetryAfter, de.Err)
}

func (de *DirectionsError) Unwrap() error {
	return de.Err
}

func NewDirectionsError(code string, retryAfter int, err error) *DirectionsError {
	return &DirectionsError{
		Code:       code,
		RetryAfter: time.Duration(retryAfter) * time.Second,
		Err:        err,
	}
}

// Route is one alternative as Mapbox returns it, meters and seconds.
type Route struct {
	DistanceMeters  float64         `json:"distance"`
	DurationSeconds float64         `json:"duration"`
	Geometry        models.Geometry `json:"geometry"`
}

type directionsResponse struct {
	Code   string  `json:"code"`
	Routes []Route `json:"routes"`
}

type Client struct {
	BaseURL string

	token  string
	client *http.Client
	logger logger.Logger
}

type Config struct {
	// BaseURL overrides the public API host, used in tests
	BaseURL string
	Logger  logger.Logger
}

func NewClient(token string, cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOp()
	}

	return &Client{
		BaseURL: baseURL,
		token:   token,
		client:  &http.Client{},
		logger:  log,
	}
}

// Directions fetches the route alternatives between two points.
// Coordinates are GeoJSON order: [longitude, latitude].
func (c *Client) Directions(ctx context.Context, origin []float64, destination []float64) ([]Route, error) {
	if len(origin) != 2 || len(destination) != 2 {
		return nil, NewDirectionsError(CodeUnknown, 0, fmt.Errorf("coordinates must be [lon, lat] pairs"))
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// The coordinates segment is "lon,lat;lon,lat" with literal separators,
	// the way the Directions API documents it. Nothing in it needs escaping.
	coords := fmt.Sprintf("%f,%f;%f,%f", origin[0], origin[1], destination[0], destination[1])

	query := url.Values{}
	query.Set("alternatives", "true")
	query.Set("geometries", "geojson")
	query.Set("overview", "full")
	query.Set("access_token", c.token)

	reqURL := c.BaseURL + "/directions/v5/" + directionsProfile + "/" + coords + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, NewDirectionsError(CodeUnknown, 0, fmt.Errorf("failed to create request: %w", err))
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewDirectionsError(CodeUnknown, 0, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		return c.processSuccess(resp)
	case http.StatusTooManyRequests:
		return nil, c.processTooManyRequests(resp)
	default:
		c.logger.Warn("Failed to get directions", "status_code", resp.StatusCode)
		return nil, NewDirectionsError(CodeUnknown, 0, fmt.Errorf("unknown status code %d", resp.StatusCode))
	}
}

func (c *Client) processSuccess(resp *http.Response) ([]Route, error) {
	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		c.logger.Warn("Failed to decode directions response", "error", err)
		return nil, NewDirectionsError(CodeUnknown, 0, fmt.Errorf("failed to decode response: %w", err))
	}

	// Mapbox reports routing failures inside a 200 body
	if dr.Code != "Ok" || len(dr.Routes) == 0 {
		return nil, NewDirectionsError(CodeNoRoute, 0, fmt.Errorf("no routes found, code %q", dr.Code))
	}

	c.logger.Debug("Directions response", "routes", len(dr.Routes))
	return dr.Routes, nil
}

func (c *Client) processTooManyRequests(resp *http.Response) error {
	header := resp.Header.Get("Retry-After")
	retryAfter, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil {
		retryAfter = 60
	}

	c.logger.Warn("Directions API throttled", "retry_after", retryAfter)
	return NewDirectionsError(CodeRetryAfter, retryAfter, fmt.Errorf("retry after %d seconds", retryAfter))
}
