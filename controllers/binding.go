package controllers

import (
	"encoding/json"
	"io"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// bindJSON binds the request body like ShouldBindJSON but also accepts
// camelCase keys ("partySize") for the snake_case fields the API answers
// with. When both spellings are sent the snake_case one wins.
func bindJSON(c *gin.Context, obj interface{}) error {
	var body []byte
	if c.Request.Body != nil {
		var err error
		if body, err = io.ReadAll(c.Request.Body); err != nil {
			return err
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		normalized := make(map[string]json.RawMessage, len(fields))
		for k, v := range fields {
			key := snakeCase(k)
			if key != k {
				if _, ok := fields[key]; ok {
					continue
				}
			}
			normalized[key] = v
		}
		if body, err = json.Marshal(normalized); err != nil {
			return err
		}
	}
	return binding.JSON.BindBody(body, obj)
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
