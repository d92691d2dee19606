/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/codemtn/did-registry/pkg/controller/command"
)

var logger = log.New("did-registry/controller/rest")

// genericErrorBody is the JSON error body written for failed requests.
type genericErrorBody struct {
	Code    command.Code `json:"code"`
	Message string       `json:"message"`
}

// Execute runs the given command and writes its error, if any, as an HTTP
// error response.
func Execute(exec command.Exec, rw http.ResponseWriter, req io.Reader) {
	if err := exec(rw, req); err != nil {
		SendError(rw, err)
	}
}

// SendError writes a command error to the response. The status comes from
// the error's own recommendation when it carries one; otherwise validation
// errors map to 400 and execution errors to 500.
func SendError(rw http.ResponseWriter, err command.Error) {
	status := err.StatusCode()

	if status == 0 {
		switch err.Type() {
		case command.ValidationError:
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
	}

	SendHTTPStatusError(rw, status, err.Code(), err)
}

// SendHTTPStatusError sends an error response with the given HTTP status.
func SendHTTPStatusError(rw http.ResponseWriter, status int, code command.Code, err error) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	if encErr := json.NewEncoder(rw).Encode(genericErrorBody{Code: code, Message: err.Error()}); encErr != nil {
		logger.Errorf("Unable to send error response, %s", encErr)
	}
}
