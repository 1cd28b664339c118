package externaldata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const fetchTimeout = 10 * time.Second

// bounded retry on 429 instead of retrying forever - a pathologically
// rate-limiting source must not stall the whole batch
const maxRateLimitRetries = 5

var rateLimitRetryDelay = 3 * time.Second

// getJSON performs a GET request and decodes the JSON body into out.
// A 404 resolves to (false, nil). A 429 is retried after a fixed delay up to
// maxRateLimitRetries times, then surfaces as a transport error. Any other
// non-200 status is a transport error.
func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) (bool, error) {
	for attempt := 1; ; attempt++ {
		found, retry, err := doGetJSON(ctx, client, rawURL, out)
		if err == nil {
			return found, nil
		}
		if !retry || attempt >= maxRateLimitRetries {
			return false, err
		}

		slog.Info("rate limited, retrying", "url", rawURL, "try", attempt)
		select {
		case <-time.After(rateLimitRetryDelay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

func doGetJSON(ctx context.Context, client *http.Client, rawURL string, out any) (found bool, retry bool, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, false, errors.Wrap(err, "could not create request")
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return false, false, errors.Wrapf(err, "could not fetch %s", rawURL)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return false, false, nil
	case res.StatusCode == http.StatusTooManyRequests:
		return false, true, fmt.Errorf("rate limited by %s", rawURL)
	case res.StatusCode != http.StatusOK:
		return false, false, fmt.Errorf("could not fetch %s. Status code: %d", rawURL, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return false, false, errors.Wrapf(err, "could not decode response from %s", rawURL)
	}

	return true, false, nil
}
