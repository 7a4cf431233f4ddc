package snmp

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"topomap/internal/config"
	"topomap/internal/topology"
)

// System group OIDs.
const (
	oidSysDescr    = "1.3.6.1.2.1.1.1.0"
	oidSysUpTime   = "1.3.6.1.2.1.1.3.0"
	oidSysContact  = "1.3.6.1.2.1.1.4.0"
	oidSysName     = "1.3.6.1.2.1.1.5.0"
	oidSysLocation = "1.3.6.1.2.1.1.6.0"
)

// Interface table OIDs, walked per column.
const (
	oidIfDescr       = "1.3.6.1.2.1.2.2.1.2"
	oidIfPhysAddress = "1.3.6.1.2.1.2.2.1.6"
	oidIfAdminStatus = "1.3.6.1.2.1.2.2.1.7"
	oidIfOperStatus  = "1.3.6.1.2.1.2.2.1.8"
	oidIfName        = "1.3.6.1.2.1.31.1.1.1.1"
	oidIfHighSpeed   = "1.3.6.1.2.1.31.1.1.1.15"
	oidIfAlias       = "1.3.6.1.2.1.31.1.1.1.18"
)

// Collector walks a validated host and assembles a topology snapshot.
type Collector struct {
	timeout time.Duration
}

// NewCollector returns a Collector with the given walk timeout.
func NewCollector(timeout time.Duration) *Collector {
	return &Collector{timeout: timeout}
}

// Collect queries the system group and the full interface table of
// hostname using the validated credential group. Any connect or walk
// failure makes the whole collection fail; the caller treats the host as
// unreachable for this cycle.
func (c *Collector) Collect(ctx context.Context, hostname string, group config.SNMPGroup) (*topology.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := newClient(hostname, group, c.timeout)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", hostname, err)
	}
	defer client.Conn.Close()

	dev := &topology.Device{
		Hostname: hostname,
		PolledAt: time.Now().UTC(),
	}

	if err := c.collectSystem(client, dev); err != nil {
		return nil, fmt.Errorf("system group on %s: %w", hostname, err)
	}
	if err := c.collectInterfaces(client, dev); err != nil {
		return nil, fmt.Errorf("interface table on %s: %w", hostname, err)
	}

	dev.SortInterfaces()
	return dev, nil
}

func (c *Collector) collectSystem(client *gosnmp.GoSNMP, dev *topology.Device) error {
	oids := []string{
		oidSysDescr, oidSysObjectID, oidSysUpTime,
		oidSysContact, oidSysName, oidSysLocation,
	}
	result, err := client.Get(oids)
	if err != nil {
		return err
	}

	for _, pdu := range result.Variables {
		switch strings.TrimPrefix(pdu.Name, ".") {
		case oidSysDescr:
			dev.System.Descr = pduString(pdu)
		case oidSysObjectID:
			dev.System.ObjectID = pduString(pdu)
		case oidSysUpTime:
			dev.System.UpTime = gosnmp.ToBigInt(pdu.Value).Uint64()
		case oidSysContact:
			dev.System.Contact = pduString(pdu)
		case oidSysName:
			dev.System.Name = pduString(pdu)
		case oidSysLocation:
			dev.System.Location = pduString(pdu)
		}
	}
	return nil
}

func (c *Collector) collectInterfaces(client *gosnmp.GoSNMP, dev *topology.Device) error {
	byIndex := make(map[int]*topology.Interface)
	iface := func(idx int) *topology.Interface {
		if _, ok := byIndex[idx]; !ok {
			byIndex[idx] = &topology.Interface{IfIndex: idx}
		}
		return byIndex[idx]
	}

	walks := []struct {
		oid     string
		handler func(idx int, pdu gosnmp.SnmpPDU)
	}{
		{oidIfDescr, func(idx int, pdu gosnmp.SnmpPDU) {
			iface(idx).Descr = pduString(pdu)
		}},
		{oidIfName, func(idx int, pdu gosnmp.SnmpPDU) {
			iface(idx).Name = pduString(pdu)
		}},
		{oidIfAlias, func(idx int, pdu gosnmp.SnmpPDU) {
			iface(idx).Alias = pduString(pdu)
		}},
		{oidIfHighSpeed, func(idx int, pdu gosnmp.SnmpPDU) {
			iface(idx).SpeedMbps = gosnmp.ToBigInt(pdu.Value).Uint64()
		}},
		{oidIfPhysAddress, func(idx int, pdu gosnmp.SnmpPDU) {
			if raw, ok := pdu.Value.([]byte); ok && len(raw) > 0 {
				iface(idx).MAC = net.HardwareAddr(raw).String()
			}
		}},
		{oidIfAdminStatus, func(idx int, pdu gosnmp.SnmpPDU) {
			iface(idx).AdminStatus = statusString(gosnmp.ToBigInt(pdu.Value).Int64())
		}},
		{oidIfOperStatus, func(idx int, pdu gosnmp.SnmpPDU) {
			iface(idx).OperStatus = statusString(gosnmp.ToBigInt(pdu.Value).Int64())
		}},
	}

	for _, w := range walks {
		if err := walkColumn(client, w.oid, w.handler); err != nil {
			return err
		}
	}

	dev.Interfaces = make([]topology.Interface, 0, len(byIndex))
	for _, i := range byIndex {
		dev.Interfaces = append(dev.Interfaces, *i)
	}
	return nil
}

// walkColumn performs a BulkWalk of one interface-table column and hands
// each row to handler with the ifIndex extracted from the last OID
// component.
func walkColumn(client *gosnmp.GoSNMP, oid string, handler func(int, gosnmp.SnmpPDU)) error {
	return client.BulkWalk(oid, func(pdu gosnmp.SnmpPDU) error {
		parts := strings.Split(pdu.Name, ".")
		if len(parts) == 0 {
			return nil
		}
		idx, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			return nil
		}
		handler(idx, pdu)
		return nil
	})
}

func pduString(pdu gosnmp.SnmpPDU) string {
	switch v := pdu.Value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%d", gosnmp.ToBigInt(pdu.Value))
	}
}

func statusString(v int64) string {
	switch v {
	case 1:
		return "up"
	case 2:
		return "down"
	case 3:
		return "testing"
	default:
		return "unknown"
	}
}
