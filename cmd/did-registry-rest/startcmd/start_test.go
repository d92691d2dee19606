/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"net/http"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

type mockServer struct{}

func (s *mockServer) ListenAndServe(host string, handler http.Handler, certFile, keyFile string) error {
	return nil
}

func TestStartCmdContents(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	require.Equal(t, "start", startCmd.Use)
	require.Equal(t, "Start DID registry rest server", startCmd.Short)
	require.Equal(t, "Start DID registry rest server", startCmd.Long)

	checkFlagPropertiesCorrect(t, startCmd, hostFlagName, hostFlagShorthand, hostFlagUsage)
	checkFlagPropertiesCorrect(t, startCmd, ledgerURLFlagName, ledgerURLFlagShorthand, ledgerURLFlagUsage)
}

func TestStartCmdWithMissingHostArg(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	startCmd.SetArgs([]string{})

	err = startCmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "api-host")
}

func TestStartCmdValidArgs(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	startCmd.SetArgs([]string{"--" + hostFlagName, "localhost:8080"})

	err = startCmd.Execute()
	require.NoError(t, err)
}

func TestStartCmdValidArgsEnvVariable(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	t.Setenv(hostEnvKey, "localhost:8080")
	t.Setenv(didNetworkEnvKey, "testnet")

	err = startCmd.Execute()
	require.NoError(t, err)
}

func TestStartCmdWithBlankHost(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	startCmd.SetArgs([]string{"--" + hostFlagName, ""})

	err = startCmd.Execute()
	require.Equal(t, errMissingHost, err)
}

func TestStartCmdWithLedgerURL(t *testing.T) {
	startCmd, err := Cmd(&mockServer{})
	require.NoError(t, err)

	startCmd.SetArgs([]string{
		"--" + hostFlagName, "localhost:8080",
		"--" + ledgerURLFlagName, "http://localhost:9090",
		"--" + ledgerTokenFlagName, "sample-token",
	})

	err = startCmd.Execute()
	require.NoError(t, err)
}

func TestStartCmdLogLevel(t *testing.T) {
	t.Run("valid log level", func(t *testing.T) {
		startCmd, err := Cmd(&mockServer{})
		require.NoError(t, err)

		startCmd.SetArgs([]string{
			"--" + hostFlagName, "localhost:8080",
			"--" + logLevelFlagName, "DEBUG",
		})

		err = startCmd.Execute()
		require.NoError(t, err)
	})

	t.Run("invalid log level", func(t *testing.T) {
		startCmd, err := Cmd(&mockServer{})
		require.NoError(t, err)

		startCmd.SetArgs([]string{
			"--" + hostFlagName, "localhost:8080",
			"--" + logLevelFlagName, "INVALID",
		})

		err = startCmd.Execute()
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to parse log level")
	})
}

func checkFlagPropertiesCorrect(t *testing.T, cmd *cobra.Command, flagName, flagShorthand, flagUsage string) {
	t.Helper()

	flag := cmd.Flag(flagName)

	require.NotNil(t, flag)
	require.Equal(t, flagName, flag.Name)
	require.Equal(t, flagShorthand, flag.Shorthand)
	require.Equal(t, flagUsage, flag.Usage)

	flagAnnotations := flag.Annotations
	require.Nil(t, flagAnnotations)
}
