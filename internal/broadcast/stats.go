// SPDX-License-Identifier: MIT

package broadcast

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aitalkmaster/aitalkmaster/internal/config"
)

const defaultMountPrefix = "/stream/"

// Stats reads mounts and listener counts from the streaming server's admin
// API.
type Stats struct {
	baseURL string
	user    string
	pass    string
	prefix  string
	hc      *http.Client
}

// NewStats builds an admin stats client.
func NewStats(cfg config.AdminStatsConfig) *Stats {
	prefix := cfg.StreamEndpointPrefix
	if prefix == "" {
		prefix = defaultMountPrefix
	}
	return &Stats{
		baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		user:    cfg.AdminUser,
		pass:    cfg.AdminPassword,
		prefix:  prefix,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

// MountFor returns the mount path of a session's stream.
func (s *Stats) MountFor(joinKey string) string {
	return s.prefix + joinKey
}

// JoinKeyFor extracts the join key from a mount path. The second return is
// false for mounts outside the session prefix.
func (s *Stats) JoinKeyFor(mount string) (string, bool) {
	if !strings.HasPrefix(mount, s.prefix) {
		return "", false
	}
	return strings.TrimPrefix(mount, s.prefix), true
}

// adminSources is the shape of both /admin/listmounts and /admin/stats
// responses; only the fields we read are declared.
type adminSources struct {
	Sources []struct {
		Mount     string `xml:"mount,attr"`
		Listeners int    `xml:"listeners"`
	} `xml:"source"`
}

func (s *Stats) fetch(ctx context.Context, endpoint string) (*adminSources, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build admin request: %w", err)
	}
	req.SetBasicAuth(s.user, s.pass)

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("admin request %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("admin request %s: status %d", endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("admin request %s: read body: %w", endpoint, err)
	}
	var parsed adminSources
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("admin request %s: parse xml: %w", endpoint, err)
	}
	return &parsed, nil
}

// Mounts lists the currently active mount paths.
func (s *Stats) Mounts(ctx context.Context) ([]string, error) {
	parsed, err := s.fetch(ctx, "/admin/listmounts")
	if err != nil {
		return nil, err
	}
	mounts := make([]string, 0, len(parsed.Sources))
	for _, src := range parsed.Sources {
		if src.Mount != "" {
			mounts = append(mounts, src.Mount)
		}
	}
	return mounts, nil
}

// Listeners returns the listener count for a mount path, zero when the mount
// does not exist.
func (s *Stats) Listeners(ctx context.Context, mount string) (int, error) {
	parsed, err := s.fetch(ctx, "/admin/stats")
	if err != nil {
		return 0, err
	}
	for _, src := range parsed.Sources {
		if src.Mount == mount {
			return src.Listeners, nil
		}
	}
	return 0, nil
}
