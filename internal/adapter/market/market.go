// Package market provides the preset role catalog: a remote JSON source, the
// embedded built-in list and a fallback that combines them.
package market

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/metrics"
	portmarket "github.com/alanyang/role-master/internal/port/market"
	portnotifier "github.com/alanyang/role-master/internal/port/notifier"
)

// DefaultURL is the catalog location used when none is configured.
const DefaultURL = "https://raw.githubusercontent.com/your-org/ai-role-market/main/roles.json"

const (
	defaultTimeout = 10 * time.Second
	maxCatalogSize = 4 << 20
)

//go:embed builtin.json
var builtinCatalog []byte

// DecodeCatalog parses a JSON array of market roles. Entries that fail
// validation are dropped and logged; a malformed array is an error.
func DecodeCatalog(ctx context.Context, data []byte) ([]domainrole.MarketRole, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	out := make([]domainrole.MarketRole, 0, len(items))
	for i, item := range items {
		r, err := domainrole.DecodeMarketRole(item)
		if err != nil {
			slog.WarnContext(ctx, "dropping invalid market role", "index", i, "error", err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ── Builtin ───────────────────────────────────────────────────────────────────

// Builtin serves the fixed catalog compiled into the binary.
type Builtin struct{}

func (Builtin) Fetch(ctx context.Context) ([]domainrole.MarketRole, error) {
	return DecodeCatalog(ctx, builtinCatalog)
}

// ── HTTPSource ────────────────────────────────────────────────────────────────

type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource fetches the catalog from url with the given timeout
// (10s when zero).
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPSource{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]domainrole.MarketRole, error) {
	if s.url == "" {
		return nil, errors.New("market url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building market request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching market catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching market catalog: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, fmt.Errorf("reading market catalog: %w", err)
	}
	return DecodeCatalog(ctx, data)
}

// ── FallbackSource ────────────────────────────────────────────────────────────

// FallbackSource serves the primary catalog and falls back to the secondary
// one on any fetch or parse failure, telling the user it did so.
type FallbackSource struct {
	primary  portmarket.Source
	fallback portmarket.Source
	notifier portnotifier.Notifier
}

func NewFallbackSource(primary, fallback portmarket.Source, notifier portnotifier.Notifier) *FallbackSource {
	return &FallbackSource{primary: primary, fallback: fallback, notifier: notifier}
}

func (s *FallbackSource) Fetch(ctx context.Context) ([]domainrole.MarketRole, error) {
	roles, err := s.primary.Fetch(ctx)
	if err == nil {
		metrics.MarketFetchesTotal.WithLabelValues("remote").Inc()
		return roles, nil
	}
	slog.WarnContext(ctx, "market fetch failed, using built-in catalog", "error", err)
	s.notifier.Error(ctx, fmt.Sprintf("无法连接到角色市场: %v", err))
	metrics.MarketFetchesTotal.WithLabelValues("builtin").Inc()
	return s.fallback.Fetch(ctx)
}
