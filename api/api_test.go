// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsdcore/lsd/api"
	"github.com/lsdcore/lsd/builtin"
	"github.com/lsdcore/lsd/builtin/accounting"
	"github.com/lsdcore/lsd/builtin/ledger"
	"github.com/lsdcore/lsd/builtin/pool"
	"github.com/lsdcore/lsd/config"
	"github.com/lsdcore/lsd/lsd"
	"github.com/lsdcore/lsd/node"
)

var (
	admin  = lsd.BytesToAddress([]byte("admin"))
	alice  = lsd.BytesToAddress([]byte("alice"))
	member = lsd.BytesToAddress([]byte("member"))
)

func newServer(t *testing.T) *httptest.Server {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Admin = admin
	cfg.Fees.Treasury = lsd.BytesToAddress([]byte("treasury"))
	cfg.Committee.Members = []lsd.Address{member}

	n, err := node.Open(cfg, accounting.Collaborators{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { n.Close() })

	require.NoError(t, n.Exec(func(p *pool.Pool) error {
		_, err := p.Submit(alice, 1, uint256.NewInt(100))
		return err
	}))
	require.NoError(t, n.Commit(1))

	ts := httptest.NewServer(api.New(n))
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string, out any) int {
	res, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if res.StatusCode == http.StatusOK && out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return res.StatusCode
}

func TestPool(t *testing.T) {
	ts := newServer(t)

	var p api.Pool
	require.Equal(t, http.StatusOK, get(t, ts, "/pool", &p))
	assert.Equal(t, uint64(1), p.SchemaVersion)
	assert.Equal(t, uint256.NewInt(100), p.TotalPooledValue)
	assert.Equal(t, uint256.NewInt(100), p.TotalShares)
	assert.Equal(t, uint256.NewInt(100), p.Buffered)

	var h api.Holder
	require.Equal(t, http.StatusOK, get(t, ts, "/pool/holders/"+alice.String(), &h))
	assert.Equal(t, alice, h.Address)
	assert.Equal(t, uint256.NewInt(100), h.Shares)
	assert.Equal(t, uint256.NewInt(100), h.Balance)

	assert.Equal(t, http.StatusBadRequest, get(t, ts, "/pool/holders/0x01", nil))

	var c api.Committee
	require.Equal(t, http.StatusOK, get(t, ts, "/pool/committee", &c))
	assert.Equal(t, []lsd.Address{member}, c.Members)
	assert.Equal(t, uint64(1), c.Quorum)
	assert.Nil(t, c.Consensus)
}

func TestEvents(t *testing.T) {
	ts := newServer(t)

	var events []*api.Event
	path := "/events?address=" + builtin.Ledger.Address.String() + "&topic0=" + ledger.TransferSharesEvent.String()
	require.Equal(t, http.StatusOK, get(t, ts, path, &events))
	require.Len(t, events, 1)
	assert.Equal(t, uint32(1), events[0].BlockNumber)
	assert.Equal(t, builtin.Ledger.Address, events[0].Address)

	events = nil
	require.Equal(t, http.StatusOK, get(t, ts, "/events?from=1&to=1&order=desc&limit=2", &events))
	assert.Len(t, events, 2)

	assert.Equal(t, http.StatusBadRequest, get(t, ts, "/events?order=sideways", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, ts, "/events?limit=1001", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, ts, "/events?topic0=0x12", nil))
}

func TestErrorBody(t *testing.T) {
	ts := newServer(t)

	res, err := http.Get(ts.URL + "/events?order=sideways")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "application/json")
	var body api.ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Contains(t, body.Error, "order")
}
