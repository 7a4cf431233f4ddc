package snmp

import (
	"context"
	"log/slog"
	"time"

	"github.com/gosnmp/gosnmp"

	"topomap/internal/config"
)

// sysObjectID is cheap to fetch and present on anything that speaks SNMP,
// which makes it the probe of choice for credential validation.
const oidSysObjectID = "1.3.6.1.2.1.1.2.0"

// Validator resolves a working credential group for a host by probing the
// configured groups in order.
type Validator struct {
	timeout time.Duration
}

// NewValidator returns a Validator with the given per-probe timeout.
func NewValidator(timeout time.Duration) *Validator {
	return &Validator{timeout: timeout}
}

// Validate tries each enabled group against hostname, in configuration
// order, and returns the first one that answers an SNMP Get of
// sysObjectID. A nil result with a nil error means no group worked; the
// caller treats that as a host-scoped condition, not a failure of the
// sweep. Disabled groups are skipped.
func (v *Validator) Validate(ctx context.Context, hostname string, groups []config.SNMPGroup) (*config.SNMPGroup, error) {
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !group.Enabled {
			continue
		}
		if v.probe(hostname, group) {
			return &group, nil
		}
	}
	return nil, nil
}

// probe reports whether the group can complete a single Get against the
// host. Probe failures are expected during credential discovery and are
// only logged at debug level.
func (v *Validator) probe(hostname string, group config.SNMPGroup) bool {
	client, err := newClient(hostname, group, v.timeout)
	if err != nil {
		slog.Debug("skipping malformed credential group",
			slog.String("host", hostname),
			slog.String("group", group.GroupName),
			slog.String("error", err.Error()))
		return false
	}
	if err := client.Connect(); err != nil {
		return false
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{oidSysObjectID})
	if err != nil || len(result.Variables) == 0 {
		return false
	}
	return result.Error == gosnmp.NoError
}
