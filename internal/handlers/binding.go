package handlers

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
)

// BindNestedOrFlat binds the request body to obj, accepting both a payload
// nested under the given key (e.g. {"payment": {...}}) and a flat payload
// ({...}). API clients ported from the previous management system send the
// nested form; everything newer sends flat JSON.
func BindNestedOrFlat(c *gin.Context, key string, obj interface{}) error {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
	}
	// Leave the body readable for any later middleware
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(body, &nested); err == nil {
		if raw, ok := nested[key]; ok {
			return json.Unmarshal(raw, obj)
		}
	}

	return json.Unmarshal(body, obj)
}
