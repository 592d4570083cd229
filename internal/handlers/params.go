package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
)

// asOfParam reads the optional as_of query parameter. A missing value is the
// zero time, which services treat as today.
func asOfParam(c *gin.Context) (time.Time, bool) {
	raw := c.Query("as_of")
	if raw == "" {
		return time.Time{}, true
	}
	asOf, err := datemath.ParseISODate(raw)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Fecha as_of inválida, use AAAA-MM-DD"})
		return time.Time{}, false
	}
	return asOf, true
}

// multiQuery accepts both repeated (?status=a&status=b) and comma separated
// (?status=a,b) values
func multiQuery(c *gin.Context, key string) []string {
	var values []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}
