// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// lsd runs a staking pool node and serves its read-only API.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/lsdcore/lsd/api"
	"github.com/lsdcore/lsd/builtin/accounting"
	"github.com/lsdcore/lsd/builtin/committee"
	"github.com/lsdcore/lsd/builtin/ledger"
	"github.com/lsdcore/lsd/builtin/policy"
	"github.com/lsdcore/lsd/builtin/pool"
	"github.com/lsdcore/lsd/builtin/ratelimit"
	"github.com/lsdcore/lsd/config"
	"github.com/lsdcore/lsd/eventdb"
	"github.com/lsdcore/lsd/log"
	"github.com/lsdcore/lsd/node"
)

var (
	version   string
	gitCommit string
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s", version, gitCommit)
	app.Name = "lsd"
	app.Usage = "Liquid staking pool node"
	app.Flags = []cli.Flag{
		configFlag,
		dataDirFlag,
		apiAddrFlag,
		verbosityFlag,
		jsonLogsFlag,
	}
	app.Action = run
	app.Commands = []cli.Command{
		{
			Name:   "inspect",
			Usage:  "print the committed pool state and exit",
			Flags:  []cli.Flag{configFlag, dataDirFlag},
			Action: inspect,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	if dir := ctx.String(dataDirFlag.Name); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

func initLogger(ctx *cli.Context, cfg *config.Config) error {
	levelName := cfg.LogLevel
	if ctx.IsSet(verbosityFlag.Name) {
		levelName = ctx.String(verbosityFlag.Name)
	}
	lvl, err := log.ParseLevel(levelName)
	if err != nil {
		return errors.WithMessage(err, "verbosity")
	}
	if ctx.Bool(jsonLogsFlag.Name) {
		log.SetDefault(log.NewLogger(log.NewJSONHandler(os.Stderr, lvl)))
	} else {
		useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		log.SetDefault(log.NewLogger(log.NewTerminalHandler(os.Stderr, lvl, useColor)))
	}
	// package loggers were derived from the previous root
	for name, set := range map[string]func(log.Logger){
		"policy":     policy.SetLogger,
		"ledger":     ledger.SetLogger,
		"ratelimit":  ratelimit.SetLogger,
		"committee":  committee.SetLogger,
		"accounting": accounting.SetLogger,
		"pool":       pool.SetLogger,
		"eventdb":    eventdb.SetLogger,
		"node":       node.SetLogger,
		"api":        api.SetLogger,
	} {
		set(log.WithContext("pkg", name))
	}
	return nil
}

func run(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := initLogger(ctx, cfg); err != nil {
		return err
	}

	n, err := node.Open(cfg, accounting.Collaborators{}, nil)
	if err != nil {
		return err
	}
	defer n.Close()

	url, stop, err := api.StartServer(ctx.String(apiAddrFlag.Name), api.New(n))
	if err != nil {
		return err
	}
	defer stop()
	log.Info("API server started", "url", url, "metrics", cfg.Metrics.Enabled)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	<-interrupt
	log.Info("exiting")
	return nil
}

type summary struct {
	SchemaVersion    uint64 `json:"schemaVersion"`
	TotalPooledValue string `json:"totalPooledValue"`
	TotalShares      string `json:"totalShares"`
	Buffered         string `json:"buffered"`
	Members          int    `json:"members"`
	Quorum           uint64 `json:"quorum"`
}

func inspect(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log.SetDefault(log.NewLogger(log.DiscardHandler()))

	n, err := node.Open(cfg, accounting.Collaborators{}, nil)
	if err != nil {
		return err
	}
	defer n.Close()

	var s summary
	err = n.View(func(p *pool.Pool) error {
		version, err := p.SchemaVersion()
		if err != nil {
			return err
		}
		pooled, err := p.TotalPooledValue()
		if err != nil {
			return err
		}
		shares, err := p.TotalShares()
		if err != nil {
			return err
		}
		buffered, err := p.Ledger().Buffered()
		if err != nil {
			return err
		}
		members, err := p.Committee().Members()
		if err != nil {
			return err
		}
		quorum, err := p.Committee().Quorum()
		if err != nil {
			return err
		}
		s = summary{version, pooled.Dec(), shares.Dec(), buffered.Dec(), len(members), quorum}
		return nil
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(&s)
}
