package httpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"frames": 12}`))
		case "/bad":
			w.Write([]byte(`{`))
		default:
			http.Error(w, "no frames yet", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var out struct{ Frames int }
	if err := GetJSON(context.Background(), Client, srv.URL+"/ok", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Frames != 12 {
		t.Errorf("Frames = %d, want 12", out.Frames)
	}

	if err := GetJSON(context.Background(), Client, srv.URL+"/bad", &out); err == nil {
		t.Error("malformed body should fail")
	}

	err := GetJSON(context.Background(), Client, srv.URL+"/missing", &out)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Errorf("err = %v, want StatusError 404", err)
	}
}
