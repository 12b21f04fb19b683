// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// requestError is an error caused by the request, answered with its status
// instead of 500.
type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func invalidRequest(err error) error {
	return &requestError{http.StatusBadRequest, err}
}

// handlerFunc serves a read and returns an error instead of writing it.
type handlerFunc func(w http.ResponseWriter, req *http.Request) error

// handle adapts f to http, answering errors as json and counting requests per route and status.
func handle(route string, f handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		status := http.StatusOK
		if err := f(w, req); err != nil {
			status = http.StatusInternalServerError
			if re, ok := err.(*requestError); ok {
				status = re.status
			} else {
				logger.Warn("request failed", "route", route, "err", err)
			}
			writeJSON(w, status, &ErrorResponse{Error: err.Error()})
		}
		metricRequests().AddWithLabel(1, map[string]string{"route": route, "status": strconv.Itoa(status)})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, body any) error {
	return writeJSON(w, http.StatusOK, body)
}
