package handlers

import "net/http"

// NewMux wires the HTTP endpoints. async and metrics may be nil.
func NewMux(convert *ConvertHandler, async *AsyncHandler, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", HandleHealth)
	mux.HandleFunc("/v1/convert", convert.HandleConvert)
	if async != nil {
		mux.HandleFunc("/v1/convert/async", async.HandleConvertAsync)
		mux.HandleFunc("/v1/runs/", async.HandleStatus)
	}
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	return mux
}
