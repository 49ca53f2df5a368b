package domain

import "fmt"

// AssetType represents the kind of network element a node describes
type AssetType int

const (
	AssetPC AssetType = iota
	AssetRouter
	AssetSwitch
	AssetServer
	AssetFirewall
	AssetInternet
)

// assetCodes maps each asset type to its canonical descriptor code.
// Indexed by AssetType, so the order must follow the constants above.
var assetCodes = [...]string{
	AssetPC:       "pc",
	AssetRouter:   "router",
	AssetSwitch:   "switch",
	AssetServer:   "server",
	AssetFirewall: "firewall",
	AssetInternet: "internet",
}

var assetsByCode = func() map[string]AssetType {
	m := make(map[string]AssetType, len(assetCodes))
	for t, code := range assetCodes {
		m[code] = AssetType(t)
	}
	return m
}()

// AssetTypes returns every recognized asset type in declaration order
func AssetTypes() []AssetType {
	types := make([]AssetType, len(assetCodes))
	for i := range assetCodes {
		types[i] = AssetType(i)
	}
	return types
}

// String returns the canonical lowercase code used in descriptor files
func (t AssetType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("AssetType(%d)", int(t))
	}
	return assetCodes[t]
}

// Valid reports whether t is one of the recognized asset types
func (t AssetType) Valid() bool {
	return t >= 0 && int(t) < len(assetCodes)
}

// ParseAssetType resolves a descriptor code to its asset type.
//
// Matching is exact and case-sensitive. params holds the trailing fields of a
// type declaration; no asset type interprets them yet, but they are accepted so
// newer descriptor files keep loading.
func ParseAssetType(code string, params []string) (AssetType, error) {
	t, ok := assetsByCode[code]
	if !ok {
		return 0, fmt.Errorf("unknown asset type %q", code)
	}
	return t, nil
}

// MarshalText implements encoding.TextMarshaler
func (t AssetType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid asset type %d", int(t))
	}
	return []byte(assetCodes[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *AssetType) UnmarshalText(text []byte) error {
	parsed, err := ParseAssetType(string(text), nil)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
