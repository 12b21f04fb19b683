// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import "github.com/lsdcore/lsd/metrics"

var metricRequests = metrics.LazyLoadCounterVec("api_requests_count", []string{"route", "status"})
