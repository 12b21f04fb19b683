// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// StartServer serves handler on addr. It returns the base url and a func that stops the server.
func StartServer(addr string, handler http.Handler) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var wg sync.WaitGroup
	wg.Go(func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("api server stopped", "err", err)
		}
	})
	return "http://" + listener.Addr().String(), func() {
		srv.Close()
		wg.Wait()
	}, nil
}
