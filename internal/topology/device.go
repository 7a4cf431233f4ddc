package topology

import (
	"sort"
	"strings"
	"time"
)

// Device is a point-in-time capture of everything discovered about one
// polled host. It is the unit of cache persistence: one Device per
// hostname, serialized as YAML.
type Device struct {
	Hostname   string      `yaml:"hostname" json:"hostname"`
	PolledAt   time.Time   `yaml:"polled_at" json:"polled_at"`
	System     System      `yaml:"system" json:"system"`
	Interfaces []Interface `yaml:"interfaces" json:"interfaces"`
}

// System holds the device-level SNMP system group values.
type System struct {
	Name     string `yaml:"sys_name" json:"sys_name"`
	Descr    string `yaml:"sys_descr" json:"sys_descr"`
	ObjectID string `yaml:"sys_objectid" json:"sys_objectid"`
	UpTime   uint64 `yaml:"sys_uptime" json:"sys_uptime"`
	Contact  string `yaml:"sys_contact" json:"sys_contact"`
	Location string `yaml:"sys_location" json:"sys_location"`
}

// Interface describes one port on a device, keyed by ifIndex.
type Interface struct {
	IfIndex     int    `yaml:"ifindex" json:"ifindex"`
	Name        string `yaml:"ifname" json:"ifname"`
	Descr       string `yaml:"ifdescr" json:"ifdescr"`
	Alias       string `yaml:"ifalias" json:"ifalias"`
	SpeedMbps   uint64 `yaml:"ifhighspeed" json:"ifhighspeed"`
	OperStatus  string `yaml:"ifoperstatus" json:"ifoperstatus"`
	AdminStatus string `yaml:"ifadminstatus" json:"ifadminstatus"`
	MAC         string `yaml:"ifphysaddress" json:"ifphysaddress"`
}

// SortInterfaces orders the interface list by ifIndex. Collection walks
// populate interfaces from an unordered map, so callers normalize before
// persisting.
func (d *Device) SortInterfaces() {
	sort.Slice(d.Interfaces, func(i, j int) bool {
		return d.Interfaces[i].IfIndex < d.Interfaces[j].IfIndex
	})
}

// Matches returns the ifIndex of every interface whose name, description,
// alias, or MAC address contains term, case-insensitively. The result is
// ordered by position in the interface list and duplicate-free. An empty
// term matches nothing.
func (d *Device) Matches(term string) []int {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	var out []int
	seen := make(map[int]bool)
	for _, iface := range d.Interfaces {
		if seen[iface.IfIndex] {
			continue
		}
		if iface.contains(term) {
			seen[iface.IfIndex] = true
			out = append(out, iface.IfIndex)
		}
	}
	return out
}

func (i Interface) contains(term string) bool {
	for _, field := range []string{i.Name, i.Descr, i.Alias, i.MAC} {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
