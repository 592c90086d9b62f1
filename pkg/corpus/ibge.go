package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/CTAG07/bznames/pkg/ngram"
)

const (
	// DefaultIBGEBaseURL is the root of the IBGE public data service.
	DefaultIBGEBaseURL = "https://servicodados.ibge.gov.br"
	// DefaultIBGELimit asks the ranking endpoint for every name it has.
	DefaultIBGELimit = 1_000_000

	rankingPath = "/api/v1/censos/nomes/ranking"
)

// IBGEClient fetches the first-name frequency ranking of the Brazilian
// census from the IBGE names API.
type IBGEClient struct {
	BaseURL    string       // Defaults to DefaultIBGEBaseURL.
	Limit      int          // Number of ranked names to request. Defaults to DefaultIBGELimit.
	HTTPClient *http.Client // Defaults to a client with a one minute timeout.
	Logger     *slog.Logger // Defaults to discarding all logs.
}

// ibgeEntry is one element of the ranking response.
type ibgeEntry struct {
	Nome    string `json:"nome"`
	Freq    int    `json:"freq"`
	Ranking int    `json:"ranking"`
}

// Load requests the ranking and returns it as records, in ranking order.
// Names are returned exactly as the service spells them; use Clean to
// normalize them.
func (c *IBGEClient) Load(ctx context.Context) ([]ngram.Record, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build ibge request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	logger := c.logger()
	start := time.Now()
	logger.InfoContext(ctx, "Fetching name ranking", slog.String("url", endpoint))

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("ibge request failed: %w", err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ibge request failed: unexpected status %s", resp.Status)
	}

	var entries []ibgeEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: could not decode ibge response: %v", ngram.ErrInvalidInput, err)
	}

	records := make([]ngram.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, ngram.Record{Name: e.Nome, Freq: e.Freq})
	}

	logger.InfoContext(ctx, "Name ranking fetched",
		slog.Int("records", len(records)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}

func (c *IBGEClient) endpoint() (string, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultIBGEBaseURL
	}
	limit := c.Limit
	if limit <= 0 {
		limit = DefaultIBGELimit
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ibge base url %q: %v", ngram.ErrConfiguration, base, err)
	}
	u = u.JoinPath(rankingPath)
	q := u.Query()
	q.Set("qtd", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *IBGEClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: time.Minute}
}

func (c *IBGEClient) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
