package routing

import (
	"bytes"
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/obs"
	"delivery-tracking-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// ORSDurationProvider implements DurationProvider using the
// OpenRouteService matrix API. Inputs are coordinates, not
// addresses: geocoding happens upstream at checkout.
//
// The provider is safe for concurrent use. All failures are wrapped
// in ports.ProviderError so callers can degrade to the linear
// estimate instead of failing the operation.
type ORSDurationProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	log     *logrus.Logger
}

func NewORSDurationProvider(apiKey, baseURL string, log *logrus.Logger) (*ORSDurationProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if baseURL == "" {
		baseURL = "https://api.openrouteservice.org"
	}

	return &ORSDurationProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: baseURL,
		profile: "driving-car",
		log:     log,
	}, nil
}

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Sources      []int       `json:"sources"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
}

type matrixResponse struct {
	Durations [][]*float64 `json:"durations"`
}

// DriveMinutes fetches a single origin->destination duration.
func (o *ORSDurationProvider) DriveMinutes(ctx context.Context, from, to domain.Coordinates) (_ float64, err error) {
	defer obs.Time(ctx, o.log, "ors.DriveMinutes")(&err)

	if !from.Valid() || !to.Valid() {
		return 0, &ports.ProviderError{Op: "ors drive minutes", Err: errors.New("coordinates out of range")}
	}

	// ORS wants [lng, lat] pairs.
	body := matrixRequest{
		Locations:    [][]float64{{from.Lng, from.Lat}, {to.Lng, to.Lat}},
		Sources:      []int{0},
		Destinations: []int{1},
		Metrics:      []string{"duration"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, &ports.ProviderError{Op: "ors drive minutes: encode request", Err: err}
	}

	url := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)
	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, url, bytes.NewReader(payload))
	})
	if err != nil {
		return 0, &ports.ProviderError{Op: "ors drive minutes", Err: err}
	}
	defer resp.Body.Close()

	var out matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, &ports.ProviderError{Op: "ors drive minutes: decode response", Err: err}
	}

	if len(out.Durations) == 0 || len(out.Durations[0]) == 0 || out.Durations[0][0] == nil {
		return 0, &ports.ProviderError{
			Op:  "ors drive minutes",
			Err: errors.New("matrix service returned no duration for the requested pair"),
		}
	}

	return *out.Durations[0][0] / 60, nil
}
