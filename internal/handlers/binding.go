package handlers

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
)

// bindWrappedOrFlat binds the JSON request body to obj, accepting either a
// Rails-style wrapped payload {"loan": {...}} under the given key or the
// same fields at the top level. Clients migrated from the previous backend
// still send the wrapped form.
func bindWrappedOrFlat(c *gin.Context, key string, obj interface{}) error {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}
	// Leave the body readable for anything downstream
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var envelope map[string]json.RawMessage
	if json.Unmarshal(body, &envelope) == nil {
		if wrapped, ok := envelope[key]; ok {
			return json.Unmarshal(wrapped, obj)
		}
	}

	return json.Unmarshal(body, obj)
}
