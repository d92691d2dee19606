/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"
	"regexp"
	"strings"
)

// didPattern is the generic DID syntax: https://w3c.github.io/did-core/#did-syntax.
var didPattern = regexp.MustCompile(`^did:[a-z0-9]+:(:+|[:a-zA-Z0-9-_.]+)*[a-zA-Z0-9-_.]+$`)

// DID is parsed according to the generic syntax.
type DID struct {
	Scheme           string // Scheme is always "did"
	Method           string // Method is the specific DID method
	MethodSpecificID string // MethodSpecificID is the unique ID computed or assigned by the DID method
}

// String returns the string representation of this DID.
func (d *DID) String() string {
	return fmt.Sprintf("%s:%s:%s", d.Scheme, d.Method, d.MethodSpecificID)
}

// Parse parses the string according to the generic DID syntax.
func Parse(did string) (*DID, error) {
	if !didPattern.MatchString(did) {
		return nil, fmt.Errorf("invalid did: %s", did)
	}

	parts := strings.SplitN(did, ":", 3)

	return &DID{
		Scheme:           "did",
		Method:           parts[1],
		MethodSpecificID: parts[2],
	}, nil
}
