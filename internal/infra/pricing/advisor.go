package pricing

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/infra/httpclient"
)

// Advisor asks the external price scoring service whether a listing price is
// plausible for the vehicle.
type Advisor struct {
	url  string
	http *http.Client
}

type checkResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func New(baseURL string, timeout time.Duration) (*Advisor, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("pricing advisor url is required")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Advisor{
		url:  baseURL + "/v1/price-check",
		http: httpclient.New(timeout),
	}, nil
}

func (a *Advisor) Accept(ctx context.Context, q model.PriceQuery) (bool, error) {
	var out checkResponse
	if _, err := httpclient.PostJSON(ctx, a.http, a.url, nil, q, &out); err != nil {
		return false, fmt.Errorf("price advisor: %w", err)
	}
	return out.Accepted, nil
}
