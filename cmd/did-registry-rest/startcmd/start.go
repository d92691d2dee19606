/*
Copyright Codemtn Technologies. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/codemtn/did-registry/pkg/controller"
	"github.com/codemtn/did-registry/pkg/framework/context"
	"github.com/codemtn/did-registry/pkg/ledger"
	"github.com/codemtn/did-registry/pkg/ledger/httpbinding"
	"github.com/codemtn/did-registry/pkg/ledger/memledger"
	"github.com/codemtn/did-registry/pkg/registry"
)

const (
	// api host flag.
	hostFlagName      = "api-host"
	hostEnvKey        = "DID_REGISTRY_HOST"
	hostFlagShorthand = "a"
	hostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + hostEnvKey

	// api token flag.
	tokenFlagName      = "api-token"
	tokenEnvKey        = "DID_REGISTRY_API_TOKEN" // nolint:gosec
	tokenFlagShorthand = "t"
	tokenFlagUsage     = "Check for bearer token in the authorization header (optional)." +
		" Alternatively, this can be set with the following environment variable: " + tokenEnvKey

	// ledger url flag.
	ledgerURLFlagName      = "ledger-url"
	ledgerURLEnvKey        = "DID_REGISTRY_LEDGER_URL"
	ledgerURLFlagShorthand = "l"
	ledgerURLFlagUsage     = "URL of the ledger node. An in-process ledger is used if not set." +
		" Alternatively, this can be set with the following environment variable: " + ledgerURLEnvKey

	// ledger token flag.
	ledgerTokenFlagName  = "ledger-token"
	ledgerTokenEnvKey    = "DID_REGISTRY_LEDGER_TOKEN" // nolint:gosec
	ledgerTokenFlagUsage = "Bearer token sent to the ledger node (optional)." +
		" Alternatively, this can be set with the following environment variable: " + ledgerTokenEnvKey

	// did method flag.
	didMethodFlagName  = "did-method"
	didMethodEnvKey    = "DID_REGISTRY_DID_METHOD"
	didMethodFlagUsage = "DID method of created DIDs. Defaults to ethr if not set." +
		" Alternatively, this can be set with the following environment variable: " + didMethodEnvKey

	// did network flag.
	didNetworkFlagName  = "did-network"
	didNetworkEnvKey    = "DID_REGISTRY_DID_NETWORK"
	didNetworkFlagUsage = "Network segment of created DIDs. Defaults to codemtn if not set." +
		" Alternatively, this can be set with the following environment variable: " + didNetworkEnvKey

	// log level.
	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "DID_REGISTRY_LOG_LEVEL"
	logLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	// tls cert file flag.
	tlsCertFileFlagName      = "tls-cert-file"
	tlsCertFileEnvKey        = "DID_REGISTRY_TLS_CERT_FILE"
	tlsCertFileFlagShorthand = "c"
	tlsCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: " + tlsCertFileEnvKey

	// tls key file flag.
	tlsKeyFileFlagName      = "tls-key-file"
	tlsKeyFileEnvKey        = "DID_REGISTRY_TLS_KEY_FILE"
	tlsKeyFileFlagShorthand = "k"
	tlsKeyFileFlagUsage     = "tls key file." +
		" Alternatively, this can be set with the following environment variable: " + tlsKeyFileEnvKey
)

var errMissingHost = errors.New("host not provided")

var logger = log.New("did-registry/did-registry-rest")

type serverParameters struct {
	server      server
	host        string
	token       string
	ledgerURL   string
	ledgerToken string
	didMethod   string
	didNetwork  string
	tlsCertFile string
	tlsKeyFile  string
}

// server is an interface for starting the rest server.
type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router)
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start DID registry rest server",
		Long:  "Start DID registry rest server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
			if err != nil {
				return err
			}

			if err := setLogLevel(logLevel); err != nil {
				return err
			}

			host, err := getUserSetVar(cmd, hostFlagName, hostEnvKey, false)
			if err != nil {
				return err
			}

			token, err := getUserSetVar(cmd, tokenFlagName, tokenEnvKey, true)
			if err != nil {
				return err
			}

			ledgerURL, err := getUserSetVar(cmd, ledgerURLFlagName, ledgerURLEnvKey, true)
			if err != nil {
				return err
			}

			ledgerToken, err := getUserSetVar(cmd, ledgerTokenFlagName, ledgerTokenEnvKey, true)
			if err != nil {
				return err
			}

			didMethod, err := getUserSetVar(cmd, didMethodFlagName, didMethodEnvKey, true)
			if err != nil {
				return err
			}

			didNetwork, err := getUserSetVar(cmd, didNetworkFlagName, didNetworkEnvKey, true)
			if err != nil {
				return err
			}

			tlsCertFile, err := getUserSetVar(cmd, tlsCertFileFlagName, tlsCertFileEnvKey, true)
			if err != nil {
				return err
			}

			tlsKeyFile, err := getUserSetVar(cmd, tlsKeyFileFlagName, tlsKeyFileEnvKey, true)
			if err != nil {
				return err
			}

			parameters := &serverParameters{
				server:      server,
				host:        host,
				token:       token,
				ledgerURL:   ledgerURL,
				ledgerToken: ledgerToken,
				didMethod:   didMethod,
				didNetwork:  didNetwork,
				tlsCertFile: tlsCertFile,
				tlsKeyFile:  tlsKeyFile,
			}

			return startServer(parameters)
		},
	}
}

func createFlags(startCmd *cobra.Command) {
	startCmd.Flags().StringP(hostFlagName, hostFlagShorthand, "", hostFlagUsage)
	startCmd.Flags().StringP(tokenFlagName, tokenFlagShorthand, "", tokenFlagUsage)
	startCmd.Flags().StringP(ledgerURLFlagName, ledgerURLFlagShorthand, "", ledgerURLFlagUsage)
	startCmd.Flags().StringP(ledgerTokenFlagName, "", "", ledgerTokenFlagUsage)
	startCmd.Flags().StringP(didMethodFlagName, "", "", didMethodFlagUsage)
	startCmd.Flags().StringP(didNetworkFlagName, "", "", didNetworkFlagUsage)
	startCmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)
	startCmd.Flags().StringP(tlsCertFileFlagName, tlsCertFileFlagShorthand, "", tlsCertFileFlagUsage)
	startCmd.Flags().StringP(tlsKeyFileFlagName, tlsKeyFileFlagShorthand, "", tlsKeyFileFlagUsage)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func createLedgerClient(parameters *serverParameters) (ledger.Client, error) {
	if parameters.ledgerURL == "" {
		return memledger.New(), nil
	}

	var opts []httpbinding.Option

	if parameters.ledgerToken != "" {
		opts = append(opts, httpbinding.WithAuthToken(parameters.ledgerToken))
	}

	return httpbinding.New(parameters.ledgerURL, opts...)
}

func createFrameworkContext(parameters *serverParameters) (*context.Provider, error) {
	ledgerClient, err := createLedgerClient(parameters)
	if err != nil {
		return nil, fmt.Errorf("create ledger client : %w", err)
	}

	var registryOpts []registry.Option

	if parameters.didMethod != "" {
		registryOpts = append(registryOpts, registry.WithMethod(parameters.didMethod))
	}

	if parameters.didNetwork != "" {
		registryOpts = append(registryOpts, registry.WithNetwork(parameters.didNetwork))
	}

	return context.New(
		context.WithLedgerClient(ledgerClient),
		context.WithRegistryOptions(registryOpts...))
}

func validateAuthorizationBearerToken(w http.ResponseWriter, r *http.Request, token string) bool {
	actHdr := r.Header.Get("Authorization")
	expHdr := "Bearer " + token

	if subtle.ConstantTimeCompare([]byte(actHdr), []byte(expHdr)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorised.\n")) // nolint:gosec,errcheck

		return false
	}

	return true
}

func authorizationMiddleware(token string) mux.MiddlewareFunc {
	middleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validateAuthorizationBearerToken(w, r, token) {
				next.ServeHTTP(w, r)
			}
		})
	}

	return middleware
}

func startServer(parameters *serverParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	ctx, err := createFrameworkContext(parameters)
	if err != nil {
		return err
	}

	// get all HTTP REST API handlers available for controller API
	handlers, err := controller.GetRESTHandlers(ctx)
	if err != nil {
		return fmt.Errorf("failed to start did registry rest on port [%s], failed to get rest service api :  %w",
			parameters.host, err)
	}

	router := mux.NewRouter()

	if parameters.token != "" {
		router.Use(authorizationMiddleware(parameters.token))
	}

	for _, handler := range handlers {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	logger.Infof("Starting did registry rest on host [%s]", parameters.host)

	// start server on given port and serve using given handlers
	handler := cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start did registry rest on port [%s], cause:  %w", parameters.host, err)
	}

	return nil
}
