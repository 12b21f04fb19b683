// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves a read-only http view of a node.
package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/lsdcore/lsd/log"
	"github.com/lsdcore/lsd/metrics"
	"github.com/lsdcore/lsd/node"
)

var logger = log.WithContext("pkg", "api")

func SetLogger(l log.Logger) {
	logger = l
}

// New returns the http handler of the api. Metrics are mounted on /metrics while enabled.
func New(n *node.Node) http.Handler {
	router := mux.NewRouter()

	p := &poolAPI{node: n}
	sub := router.PathPrefix("/pool").Subrouter()
	sub.Path("").Methods(http.MethodGet).HandlerFunc(handle("pool", p.handleGetPool))
	sub.Path("/holders/{address}").Methods(http.MethodGet).HandlerFunc(handle("holder", p.handleGetHolder))
	sub.Path("/committee").Methods(http.MethodGet).HandlerFunc(handle("committee", p.handleGetCommittee))

	e := &eventsAPI{db: n.EventDB(), limit: 1000}
	router.Path("/events").Methods(http.MethodGet).HandlerFunc(handle("events", e.handleFilter))

	if h := metrics.HTTPHandler(); h != nil {
		router.PathPrefix("/metrics").Handler(h)
	}

	return handlers.CompressHandler(router)
}
