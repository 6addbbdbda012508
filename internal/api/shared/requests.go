package shared

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxRequestBody bounds request payload size.
const maxRequestBody = 1 << 20 // 1 MiB

// DecodeJSON decodes the request body into v, rejecting oversized bodies.
func DecodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}
