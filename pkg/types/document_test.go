package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestDocumentFromJSON(t *testing.T) {
	v := decodeJSON(t, `{
		"PORT": {"Ethernet0": {"mtu": 9100, "lanes": "0,1", "admin_status": "up"}},
		"VLAN": {"Vlan100": {"vlanid": "100", "dhcp_servers": ["192.0.2.1", "192.0.2.2"]}},
		"EMPTY": {}
	}`)

	doc, err := DocumentFromJSON(v)
	require.NoError(t, err)

	assert.Equal(t, []string{"PORT", "VLAN"}, doc.Tables())
	port, ok := doc.Get("PORT", "Ethernet0")
	require.True(t, ok)
	assert.Equal(t, "9100", port["mtu"])
	assert.Equal(t, []string{"192.0.2.1", "192.0.2.2"}, doc["VLAN"]["Vlan100"]["dhcp_servers"])
	_, exists := doc["EMPTY"]
	assert.False(t, exists)
}

func TestDocumentFromJSONRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"root array", `[1, 2]`},
		{"table scalar", `{"PORT": "x"}`},
		{"entry scalar", `{"PORT": {"Ethernet0": 5}}`},
		{"nested object field", `{"PORT": {"Ethernet0": {"mtu": {"value": 1}}}}`},
		{"null field", `{"PORT": {"Ethernet0": {"mtu": null}}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DocumentFromJSON(decodeJSON(t, tc.input))
			require.Error(t, err)
			assert.True(t, IsKind(err, KindFormatConversion), "got %v", err)
		})
	}
}

func TestDocumentEqualIgnoresEmptyTables(t *testing.T) {
	a := Document{"PORT": {"Ethernet0": {"mtu": "9100"}}, "VLAN": {}}
	b := Document{"PORT": {"Ethernet0": {"mtu": "9100"}}}
	assert.True(t, a.Equal(b))

	b.Set("PORT", "Ethernet0", Entry{"mtu": "1500"})
	assert.False(t, a.Equal(b))
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := Document{"VLAN": {"Vlan100": {"dhcp_servers": []string{"192.0.2.1"}}}}
	clone := doc.Clone()
	clone["VLAN"]["Vlan100"]["dhcp_servers"].([]string)[0] = "changed"
	clone.Delete("VLAN", "Vlan100")

	assert.Equal(t, "192.0.2.1", doc["VLAN"]["Vlan100"]["dhcp_servers"].([]string)[0])
	_, ok := clone["VLAN"]
	assert.False(t, ok)
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	doc := Document{
		"PORT":        {"Ethernet0": {"mtu": "9100"}},
		"VLAN_MEMBER": {"Vlan100|Ethernet0": {"tagging_mode": "untagged"}},
		"VLAN":        {"Vlan100": {"dhcp_servers": []string{"192.0.2.1"}}},
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	back, err := DocumentFromJSON(decodeJSON(t, string(data)))
	require.NoError(t, err)
	assert.True(t, doc.Equal(back))
}

func TestChangePathEscapesTokens(t *testing.T) {
	c := Change{Op: OpAdd, Table: "ROUTE", Key: "10.0.0.0/24"}
	assert.Equal(t, "/ROUTE/10.0.0.0~124", c.Path())
	assert.Equal(t, "add /ROUTE/10.0.0.0~124", c.String())
	assert.Equal(t, "ROUTE|10.0.0.0/24", c.Ref().String())
}

func TestCompositeKeys(t *testing.T) {
	key := JoinKey("Vlan100", "Ethernet0")
	assert.Equal(t, "Vlan100|Ethernet0", key)
	assert.Equal(t, []string{"Vlan100", "Ethernet0"}, SplitKey(key))
}

func TestParseConfigFormat(t *testing.T) {
	for in, want := range map[string]ConfigFormat{
		"":           FormatConfigDB,
		"configdb":   FormatConfigDB,
		"CONFIGDB":   FormatConfigDB,
		"sonic-yang": FormatSonicYang,
		"SonicYang":  FormatSonicYang,
	} {
		got, err := ParseConfigFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseConfigFormat("xml")
	assert.Error(t, err)
}
