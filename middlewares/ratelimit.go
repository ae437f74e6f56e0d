package middlewares

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"

	"github.com/shoppingapp/usersapi/config"
	"github.com/shoppingapp/usersapi/utils"
)

// RateLimit limits each client IP to cfg.PerSecond requests with cfg.Burst
// burst. Forwarding headers are only read when cfg.TrustedProxy is set;
// otherwise the client could pick its own bucket.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	lmt := tollbooth.NewLimiter(cfg.PerSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	if cfg.TrustedProxy {
		lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
		// the proxy appends the address it saw, so read the last entry
		lmt.SetForwardedForIndexFromBehind(0)
	} else {
		lmt.SetIPLookups([]string{"RemoteAddr"})
	}
	if cfg.Burst > 0 {
		lmt.SetBurst(cfg.Burst)
	}
	message, _ := json.Marshal(utils.ErrorResponse{Code: utils.RATE_LIMITED, Message: utils.GENERIC_RATE_LIMIT_ERROR})
	lmt.SetMessage(string(message))
	lmt.SetMessageContentType("application/json")
	return func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(lmt, next)
	}
}
