/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

const docSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id"],
  "properties": {
    "@context": {
      "type": "array",
      "items": { "type": "string" }
    },
    "id": { "type": "string", "pattern": "^did:[a-z0-9]+:.+$" },
    "controller": { "type": "string" },
    "verificationMethod": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "controller"],
        "properties": {
          "id": { "type": "string" },
          "type": { "type": "string" },
          "controller": { "type": "string" },
          "publicKeyMultibase": { "type": "string" }
        }
      }
    },
    "authentication": {
      "type": "array",
      "items": { "type": "string" }
    },
    "assertionMethod": {
      "type": "array",
      "items": { "type": "string" }
    },
    "service": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "serviceEndpoint"],
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "type": { "type": "string", "minLength": 1 },
          "serviceEndpoint": { "type": "string", "minLength": 1 }
        }
      }
    },
    "created": { "type": "string" },
    "updated": { "type": "string" }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(docSchema) //nolint:gochecknoglobals

// ValidateDocument validates an externally supplied DID document against the
// document schema before it is accepted by the store.
func ValidateDocument(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validation of DID doc failed: %w", err)
	}

	if !result.Valid() {
		errMsg := "did document not valid:"
		for _, desc := range result.Errors() {
			errMsg += fmt.Sprintf(" %s", desc)
		}

		return fmt.Errorf(errMsg)
	}

	return nil
}
