package reconciler

import (
	"context"
	"fmt"
	"log/slog"

	"gitlab.bluewillows.net/root/linesync/pkg/dnsname"
	"gitlab.bluewillows.net/root/linesync/pkg/provider"
)

// Session is the per-pass context shared by every line: the provider handle,
// the resolved zone and the managed domain. It is read-only once built.
type Session struct {
	Provider provider.Provider
	Zone     provider.Zone
	Domain   string
}

// LocateZone resolves zoneName to a provider zone by exact name match after
// trailing-dot normalization. It returns provider.ErrZoneNotFound when no
// zone matches.
func LocateZone(ctx context.Context, p provider.Provider, zoneName string, logger *slog.Logger) (provider.Zone, error) {
	want := dnsname.Normalize(zoneName)

	zones, err := p.ListZones(ctx)
	if err != nil {
		return provider.Zone{}, fmt.Errorf("resolving zone %s: %w", want, err)
	}

	for _, z := range zones {
		if dnsname.Normalize(z.Name) == want {
			if logger != nil {
				logger.Debug("resolved zone",
					slog.String("zone", want),
					slog.String("zone_id", z.ID),
				)
			}
			return z, nil
		}
	}

	return provider.Zone{}, fmt.Errorf("%w: %s (searched %d zones)", provider.ErrZoneNotFound, want, len(zones))
}
