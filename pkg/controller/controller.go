/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package controller aggregates the command and REST handlers exposed by the
// DID registry and the credential engine.
package controller

import (
	"fmt"

	"github.com/codemtn/did-registry/pkg/controller/command"
	didregistrycmd "github.com/codemtn/did-registry/pkg/controller/command/didregistry"
	vccmd "github.com/codemtn/did-registry/pkg/controller/command/vc"
	"github.com/codemtn/did-registry/pkg/controller/rest"
	didregistryrest "github.com/codemtn/did-registry/pkg/controller/rest/didregistry"
	vcrest "github.com/codemtn/did-registry/pkg/controller/rest/vc"
	"github.com/codemtn/did-registry/pkg/framework/context"
)

// GetRESTHandlers returns all REST handlers provided by controller.
func GetRESTHandlers(ctx *context.Provider) ([]rest.Handler, error) {
	// DID registry REST operation
	didOp := didregistryrest.New(ctx)

	// VC REST operation
	vcOp, err := vcrest.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create vc rest operation : %w", err)
	}

	var allHandlers []rest.Handler
	allHandlers = append(allHandlers, didOp.GetRESTHandlers()...)
	allHandlers = append(allHandlers, vcOp.GetRESTHandlers()...)

	return allHandlers, nil
}

// GetCommandHandlers returns all command handlers provided by controller.
func GetCommandHandlers(ctx *context.Provider) ([]command.Handler, error) {
	didCmd := didregistrycmd.New(ctx)

	vcCommand, err := vccmd.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create vc command : %w", err)
	}

	var allHandlers []command.Handler
	allHandlers = append(allHandlers, didCmd.GetHandlers()...)
	allHandlers = append(allHandlers, vcCommand.GetHandlers()...)

	return allHandlers, nil
}
