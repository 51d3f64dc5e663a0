// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func streamHandler(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "error: no http.Flusher\n")
			return
		}

		w.WriteHeader(http.StatusOK)
		for i := 0; r.Context().Err() == nil; i++ {
			if _, err := fmt.Fprintf(w, format+"\n", i); err != nil {
				return
			}
			flusher.Flush()
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/hex", streamHandler("0x%x"))
	r.Get("/dec", streamHandler("%d"))
	r.Get("/oct", streamHandler("0%o"))
	return r
}

func startHTTPServer() (string, *http.Server, error) {
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{Handler: newRouter()}
	go srv.Serve(listener)
	return "http://" + listener.Addr().String(), srv, nil
}
