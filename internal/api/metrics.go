package api

import (
	"encoding/json"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/heysubinoy/pyazkv/internal/store"
)

// sizer is implemented by stores that can estimate their dataset size.
type sizer interface {
	UsedBytes() uint64
}

// MetricsHandler returns current store metrics as JSON.
// Only works if the server was initialized with an InstrumentedStore.
func MetricsHandler(instrumentedStore *store.InstrumentedStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		metrics := instrumentedStore.GetMetrics()

		operations := make(map[string]uint64, len(metrics))
		errorCounts := make(map[string]uint64, len(metrics))
		latencies := make(map[string]string, len(metrics))
		for op, m := range metrics {
			operations[op] = m.Count
			errorCounts[op] = m.Errors
			latencies[op] = m.AvgLatency.String()
		}

		response := map[string]interface{}{
			"operations":  operations,
			"errors":      errorCounts,
			"avg_latency": latencies,
		}

		inner := instrumentedStore.Unwrap()
		if n, err := inner.DBSize(); err == nil {
			response["keys"] = humanize.Comma(int64(n))
		}
		if sz, ok := inner.(sizer); ok {
			response["dataset_size"] = humanize.Bytes(sz.UsedBytes())
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
