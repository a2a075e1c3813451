package gazette

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type gazetteClient struct {
	http    *http.Client
	limiter <-chan time.Time
}

func newGazetteClient() *gazetteClient {
	rateLimitPerMin := int64(30)
	if v := strings.TrimSpace(os.Getenv("RPI_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	timeout := 120 * time.Second
	if v := strings.TrimSpace(os.Getenv("RPI_HTTP_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}

	return &gazetteClient{
		http:    &http.Client{Timeout: timeout},
		limiter: time.Tick(interval),
	}
}

// get downloads a URL. Gazette documents run to tens of megabytes, so the
// body is read fully into memory and discarded by the caller after parsing.
func (c *gazetteClient) get(ctx context.Context, url string) ([]byte, error) {
	<-c.limiter
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview := body
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return nil, fmt.Errorf("%w: http %d: %s", ErrSourceUnavailable, resp.StatusCode, strings.TrimSpace(string(bytes.ToValidUTF8(preview, nil))))
	}
	return body, nil
}
