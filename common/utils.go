package common

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime"
)

// HandleError logs err with the caller position and reports whether it was set.
func HandleError(err error) (b bool) {
	if err != nil {
		// 1 is the caller, 0 would be this function
		_, fn, line, _ := runtime.Caller(1)
		log.Printf("[error] %s:%d %v", fn, line, err)
		b = true
	}
	return
}

// WriteJSON encodes v as the whole response body.
func WriteJSON(w http.ResponseWriter, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
