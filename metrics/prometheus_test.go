// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// #nosec G404
package metrics

import (
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()
	require.True(t, Enabled())

	count1 := Counter("count1")
	countVec := CounterVec("countVec1", []string{"zeroOrOne"})
	hist := Histogram("hist1", BucketDurationMs)
	gauge1 := Gauge("gauge1")
	gaugeVec := GaugeVec("gaugeVec1", []string{"zeroOrOne"})

	count1.Add(1)
	randCount2 := rand.N(100) + 1
	for range randCount2 {
		Counter("count2").Add(1)
	}

	histTotal := 0
	for i := range rand.N(100) + 2 {
		hist.Observe(int64(i))
		histTotal += i
	}

	totalCountVec := 0
	for i := range rand.N(100) + 2 {
		zeroOrOne := i % 2
		countVec.AddWithLabel(int64(i), map[string]string{"zeroOrOne": strconv.Itoa(zeroOrOne)})
		totalCountVec += i
	}

	gauge1.Set(7)
	gauge1.Add(3)
	gaugeVec.SetWithLabel(5, map[string]string{"zeroOrOne": "0"})
	gaugeVec.AddWithLabel(2, map[string]string{"zeroOrOne": "0"})
	gaugeVec.AddWithLabel(-4, map[string]string{"zeroOrOne": "1"})

	// obtain all metrics from the default registry
	metrics, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	families := make(map[string]*dto.MetricFamily)
	for _, mf := range metrics {
		families[mf.GetName()] = mf
	}

	require.Equal(t, float64(1), families["lsd_count1"].GetMetric()[0].GetCounter().GetValue())
	require.Equal(t, float64(randCount2), families["lsd_count2"].GetMetric()[0].GetCounter().GetValue())

	h := families["lsd_hist1"].GetMetric()[0].GetHistogram()
	require.Equal(t, float64(histTotal), h.GetSampleSum())
	require.Len(t, h.GetBucket(), len(BucketDurationMs))

	sumCountVec := 0.0
	for _, m := range families["lsd_countVec1"].GetMetric() {
		sumCountVec += m.GetCounter().GetValue()
	}
	require.Equal(t, float64(totalCountVec), sumCountVec)

	require.Equal(t, float64(10), families["lsd_gauge1"].GetMetric()[0].GetGauge().GetValue())

	gauges := make(map[string]float64)
	for _, m := range families["lsd_gaugeVec1"].GetMetric() {
		gauges[m.GetLabel()[0].GetValue()] = m.GetGauge().GetValue()
	}
	require.Equal(t, map[string]float64{"0": 7, "1": -4}, gauges)

	// same name returns the same meter
	require.Same(t, Counter("count1"), count1)

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)
	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
