package common

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleError(t *testing.T) {
	if HandleError(nil) {
		t.Error("HandleError(nil) = true")
	}
	if !HandleError(errors.New("boom")) {
		t.Error("HandleError(err) = false")
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, map[string]int{"peers": 22}); err != nil {
		t.Fatal(err)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := rec.Body.String(); got != "{\n  \"peers\": 22\n}\n" {
		t.Errorf("body = %q", got)
	}
}
