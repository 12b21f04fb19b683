// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:   "config",
		Value:  "lsd.yaml",
		Usage:  "path of the yaml configuration",
		EnvVar: "LSD_CONFIG",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "overrides dataDir of the configuration",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8680",
		Usage: "API service listening address",
	}
	verbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level (trace|debug|info|warn|error), overrides logLevel of the configuration",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
)
