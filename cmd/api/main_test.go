package main

import (
	"net/http"
	"testing"
	"time"
)

func TestNewHTTPServer_WriteTimeout(t *testing.T) {
	h := http.NotFoundHandler()

	srv := newHTTPServer(":0", h, time.Minute)
	if srv.WriteTimeout != 70*time.Second {
		t.Errorf("WriteTimeout: got %v, want 70s", srv.WriteTimeout)
	}

	srv = newHTTPServer(":0", h, 0)
	if srv.WriteTimeout != 0 {
		t.Errorf("WriteTimeout with request timeout disabled: got %v, want 0", srv.WriteTimeout)
	}
	if srv.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout: got %v", srv.ReadTimeout)
	}
}
