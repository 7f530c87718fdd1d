package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// respondCacheable writes payload as JSON tagged with a content hash.  A
// matching If-None-Match gets 304.  maxAge > 0 lets shared caches keep the
// response that long.
func respondCacheable(ctx *gin.Context, payload any, maxAge time.Duration) {
	body, err := json.Marshal(payload)
	if err != nil {
		RespondInternal(ctx, "Could not encode response")
		return
	}

	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`

	ctx.Header("ETag", etag)
	if maxAge > 0 {
		ctx.Header("Cache-Control", "public, max-age="+strconv.Itoa(int(maxAge.Seconds())))
	} else {
		ctx.Header("Cache-Control", "no-cache")
	}

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func etagMatches(header, current string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for _, part := range strings.Split(header, ",") {
		// weak comparison
		tag := strings.TrimPrefix(strings.TrimSpace(part), "W/")
		if tag == current {
			return true
		}
	}
	return false
}
