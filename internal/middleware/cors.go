package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// CORS allows browser calls from the configured origins. A "*" entry allows
// any origin and an empty list allows none. Preflights from other origins are
// refused with 403.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	origins := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		// rs/cors treats an empty list as "*".
		return func(ctx *gin.Context) {
			if isPreflight(ctx) {
				ctx.AbortWithStatus(http.StatusForbidden)
				return
			}
			ctx.Next()
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:       []string{RequestIDHeader},
		OptionsSuccessStatus: http.StatusNoContent,
	})

	return func(ctx *gin.Context) {
		preflight := isPreflight(ctx)

		if preflight && !c.OriginAllowed(ctx.Request) {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		// Writes OptionsSuccessStatus for preflights.
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if preflight {
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func isPreflight(ctx *gin.Context) bool {
	return ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != ""
}
