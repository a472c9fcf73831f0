// Package schematest provides YANG fixtures and sample configurations for tests.
package schematest

import (
	"embed"
	"io/fs"
	"path"

	"github.com/rzbill/gcu/pkg/types"
)

//go:embed yang/*.yang
var yangFS embed.FS

// Sources returns the embedded YANG modules keyed by file name.
func Sources() map[string]string {
	out := map[string]string{}
	entries, err := fs.ReadDir(yangFS, "yang")
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		data, err := yangFS.ReadFile(path.Join("yang", e.Name()))
		if err != nil {
			panic(err)
		}
		out[e.Name()] = string(data)
	}
	return out
}

// Config returns a schema-valid configuration covering every fixture table.
func Config() types.Document {
	return types.Document{
		"DEVICE_METADATA": {
			"localhost": {
				"hostname":                 "sonic",
				"mac":                      "52:54:00:12:34:56",
				"bgp_asn":                  "65100",
				"bgp_adv_lo_prefix_as_128": "true",
			},
		},
		"PORT": {
			"Ethernet0": {"alias": "etp1", "lanes": "0,1,2,3", "mtu": "9100", "admin_status": "up", "speed": "100000"},
			"Ethernet4": {"alias": "etp2", "lanes": "4,5,6,7", "mtu": "9100", "admin_status": "up", "speed": "100000"},
			"Ethernet8": {"alias": "etp3", "lanes": "8,9,10,11", "mtu": "9100", "admin_status": "down"},
		},
		"VLAN": {
			"Vlan100": {"vlanid": "100", "dhcp_servers": []string{"192.0.2.1", "192.0.2.2"}},
			"Vlan200": {"vlanid": "200"},
		},
		"VLAN_MEMBER": {
			"Vlan100|Ethernet0": {"tagging_mode": "untagged"},
			"Vlan100|Ethernet4": {"tagging_mode": "tagged"},
		},
		"ACL_TABLE": {
			"DATAACL": {"type": "L3", "stage": "INGRESS", "policy_desc": "data acl", "ports": []string{"Ethernet4", "Vlan200"}},
		},
	}
}

// ConfigWithNonSchemaTables returns Config plus tables no YANG module describes.
func ConfigWithNonSchemaTables() types.Document {
	doc := Config()
	doc["TABLE_WITHOUT_YANG"] = types.Table{
		"Item1": {"key11": "value11", "key12": "value12"},
	}
	return doc
}
