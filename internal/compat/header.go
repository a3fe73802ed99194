// Package compat identifies the theme script talking to the sync API.
// Clients announce themselves through the Quick-Order-Client header, an
// RFC 8941 Dictionary carrying the script version, the customer, and
// whether this is the tab's first page load.
package compat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
)

// ClientHeader is the header the theme script sends on every request.
const ClientHeader = "Quick-Order-Client"

// ClientInfo is the parsed Quick-Order-Client header.
type ClientInfo struct {
	// Version is the theme script's semantic version, without "v" prefix.
	Version string

	// CustomerID is empty for anonymous visitors.
	CustomerID string

	// Fresh reports whether this is the tab's first page load.
	Fresh bool
}

// ParseClientHeader extracts client identity from a Quick-Order-Client
// header value.
// Format: v="1.4.2", customer="82461", fresh (RFC 8941 Dictionary).
//
// The v key is required; customer and fresh are optional.
func ParseClientHeader(header string) (*ClientInfo, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, errors.New("empty Quick-Order-Client header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return nil, fmt.Errorf("invalid Quick-Order-Client header: %w", err)
	}

	version, err := stringMember(dict, "v")
	if err != nil {
		return nil, err
	}
	if version == "" {
		return nil, errors.New("v key not found in Quick-Order-Client header")
	}

	info := &ClientInfo{Version: version}

	if customer, err := stringMember(dict, "customer"); err != nil {
		return nil, err
	} else {
		info.CustomerID = customer
	}

	if member, ok := dict.Get("fresh"); ok {
		item, ok := member.(httpsfv.Item)
		if !ok {
			return nil, errors.New("fresh value must be an item")
		}
		fresh, ok := item.Value.(bool)
		if !ok {
			return nil, errors.New("fresh value must be a boolean")
		}
		info.Fresh = fresh
	}

	return info, nil
}

func stringMember(dict *httpsfv.Dictionary, key string) (string, error) {
	member, ok := dict.Get(key)
	if !ok {
		return "", nil
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", fmt.Errorf("%s value must be an item", key)
	}
	value, ok := item.Value.(string)
	if !ok {
		return "", fmt.Errorf("%s value must be a string", key)
	}
	return value, nil
}
