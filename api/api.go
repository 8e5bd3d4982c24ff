// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api exposes the staking engine and the token ledger over REST.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/ERFANEKHADEMI/EvolvableSlumber/api/staking"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/api/tokens"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/ledger"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/log"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableReqLogger bool
	EnableMetrics   bool
}

// New return api router
func New(engine *stake.Engine, tokenLedger *ledger.Ledger, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	tokens.New(tokenLedger, engine).
		Mount(router, "/tokens")
	staking.New(engine).
		Mount(router, "/staking")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP
}
