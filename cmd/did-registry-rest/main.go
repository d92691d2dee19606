/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package main (DID Registry REST Server).
//
//
// Terms Of Service:
//
//
//     Schemes: https
//     Version: 0.1.0
//     License: SPDX-License-Identifier: Apache-2.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
// swagger:meta
package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/codemtn/did-registry/cmd/did-registry-rest/startcmd"
)

var logger = log.New("did-registry/did-registry-rest")

// This is an application which starts the DID registry controller API on given port.
func main() {
	rootCmd := &cobra.Command{
		Use: "did-registry-rest",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	startCmd, err := startcmd.Cmd(&startcmd.HTTPServer{})
	if err != nil {
		logger.Fatalf(err.Error())
	}

	rootCmd.AddCommand(startCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("failed to run did-registry-rest: %s", err)
	}
}
