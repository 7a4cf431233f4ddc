// Package snmp implements the device-facing collaborators of the poll
// engine: credential validation against a host and collection of a full
// topology snapshot over a validated session.
package snmp

import (
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"

	"topomap/internal/config"
)

const (
	defaultPort    = 161
	defaultRetries = 2
)

// newClient builds a gosnmp client for one credential group. The group's
// snmp_version selects v1, v2c, or v3; for v3 the message flags follow
// from which secrets are populated.
func newClient(host string, group config.SNMPGroup, timeout time.Duration) (*gosnmp.GoSNMP, error) {
	port := group.Port
	if port == 0 {
		port = defaultPort
	}
	client := &gosnmp.GoSNMP{
		Target:  host,
		Port:    uint16(port),
		Timeout: timeout,
		Retries: defaultRetries,
	}

	switch group.Version {
	case 1:
		client.Version = gosnmp.Version1
		client.Community = group.Community
	case 2:
		client.Version = gosnmp.Version2c
		client.Community = group.Community
	case 3:
		client.Version = gosnmp.Version3
		client.SecurityModel = gosnmp.UserSecurityModel
		client.MsgFlags = v3MsgFlags(group)
		client.SecurityParameters = &gosnmp.UsmSecurityParameters{
			UserName:                 group.SecName,
			AuthenticationProtocol:   v3AuthProto(group.AuthProtocol),
			AuthenticationPassphrase: group.AuthPassword,
			PrivacyProtocol:          v3PrivProto(group.PrivProtocol),
			PrivacyPassphrase:        group.PrivPassword,
		}
	default:
		return nil, fmt.Errorf("group %s: unsupported SNMP version %d", group.GroupName, group.Version)
	}
	return client, nil
}

func v3MsgFlags(group config.SNMPGroup) gosnmp.SnmpV3MsgFlags {
	if group.PrivProtocol != "" && group.PrivPassword != "" {
		return gosnmp.AuthPriv
	}
	if group.AuthProtocol != "" && group.AuthPassword != "" {
		return gosnmp.AuthNoPriv
	}
	return gosnmp.NoAuthNoPriv
}

func v3AuthProto(proto string) gosnmp.SnmpV3AuthProtocol {
	switch proto {
	case "MD5":
		return gosnmp.MD5
	case "SHA":
		return gosnmp.SHA
	case "SHA256":
		return gosnmp.SHA256
	case "SHA512":
		return gosnmp.SHA512
	default:
		return gosnmp.NoAuth
	}
}

func v3PrivProto(proto string) gosnmp.SnmpV3PrivProtocol {
	switch proto {
	case "DES":
		return gosnmp.DES
	case "AES", "AES128":
		return gosnmp.AES
	case "AES192":
		return gosnmp.AES192
	case "AES256":
		return gosnmp.AES256
	default:
		return gosnmp.NoPriv
	}
}
