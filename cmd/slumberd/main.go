// Copyright (c) 2025 The EvolvableSlumber developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/ERFANEKHADEMI/EvolvableSlumber/api"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/evolution"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/kv"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/ledger"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/log"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/lvldb"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/metrics"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/slumber"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stake"
	"github.com/ERFANEKHADEMI/EvolvableSlumber/stakedb"
)

var version = "dev"

var logger = log.WithContext("pkg", "main")

func main() {
	app := cli.App{
		Version:   version,
		Name:      "slumberd",
		Usage:     "time-based NFT staking service",
		Copyright: "2025 The EvolvableSlumber developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			persistFlag,
			beneficiaryFlag,
			apiAddrFlag,
			apiCorsFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			evolutionFlag,
			evolutionParamsFlag,
			evolutionPolicyFlag,
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	initLogger(ctx)

	cfg, err := loadStakingConfig(ctx)
	if err != nil {
		return err
	}

	var (
		ledgerStore kv.GetPutter
		recordStore stake.Store
	)
	if ctx.Bool(persistFlag.Name) {
		dataDir := ctx.String(dataDirFlag.Name)
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return errors.Wrap(err, "create data dir")
		}
		db, err := lvldb.New(filepath.Join(dataDir, "ledger.db"), lvldb.Options{})
		if err != nil {
			return err
		}
		defer db.Close()
		ledgerStore = db

		sdb, err := stakedb.New(filepath.Join(dataDir, "stake.db"))
		if err != nil {
			return err
		}
		defer sdb.Close()
		recordStore = sdb
		logger.Info("persistent stores opened", "dir", dataDir)
	} else {
		recordStore = stake.NewMemStore()
		logger.Info("using in-memory stores")
	}

	var beneficiary slumber.Address
	if v := ctx.String(beneficiaryFlag.Name); v != "" {
		addr, err := slumber.ParseAddress(v)
		if err != nil {
			return errors.WithMessage(err, "beneficiary")
		}
		beneficiary = *addr
	}

	clock := stake.ClockFunc(slumber.UnixNow)
	tokenLedger, err := ledger.New(clock, ledger.Options{
		MintPrice:       cfg.MintPrice,
		AutoStakeOnMint: cfg.AutomaticStakeOnMint > 0,
		Beneficiary:     beneficiary,
	}, ledgerStore)
	if err != nil {
		return err
	}

	engine := stake.New(recordStore, tokenLedger, clock)
	if err := engine.Init(*cfg); err != nil {
		return err
	}
	tokenLedger.SetTransferGuard(engine)

	strategy, policy, err := selectEvolution(ctx)
	if err != nil {
		return err
	}
	engine.SetEvolutionStrategy(strategy, policy)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		stop, err := serveMetrics(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer stop()
	}

	handler := api.New(engine, tokenLedger, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})
	srv := &http.Server{Handler: handler}
	listener, err := net.Listen("tcp", ctx.String(apiAddrFlag.Name))
	if err != nil {
		return errors.Wrap(err, "listen API addr")
	}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			logger.Error("API server stopped", "err", err)
		}
	}()
	logger.Info("API server started", "addr", listener.Addr(), "version", version)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	return srv.Close()
}

func initLogger(ctx *cli.Context) {
	level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	var lvl slog.LevelVar
	lvl.Set(level)

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, &lvl)
	} else {
		useColor := isatty.IsTerminal(os.Stderr.Fd())
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, &lvl, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
}

func loadStakingConfig(ctx *cli.Context) (*stake.Config, error) {
	if path := ctx.String(configFlag.Name); path != "" {
		return stake.LoadConfig(path)
	}
	return &stake.Config{}, nil
}

func selectEvolution(ctx *cli.Context) (evolution.Strategy, stake.Policy, error) {
	var params []uint64
	if raw := ctx.String(evolutionParamsFlag.Name); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			v, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
			if err != nil {
				return nil, 0, errors.WithMessage(err, "evolution-params")
			}
			params = append(params, v)
		}
	}
	strategy, err := evolution.New(ctx.String(evolutionFlag.Name), params)
	if err != nil {
		return nil, 0, err
	}
	policy, err := stake.ParsePolicy(ctx.String(evolutionPolicyFlag.Name))
	if err != nil {
		return nil, 0, err
	}
	return strategy, policy, nil
}

func serveMetrics(addr string) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "listen metrics addr")
	}
	router := http.NewServeMux()
	router.Handle("/metrics", metrics.HTTPHandler())
	srv := &http.Server{Handler: router}
	go func() {
		srv.Serve(listener)
	}()
	logger.Info("metrics server started", "addr", listener.Addr())
	return func() { srv.Close() }, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".slumberd")
}
