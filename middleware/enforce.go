package middleware

import (
	"net/http"
	"strings"

	goMFA "github.com/MrEthical07/goMFA"
)

// PrincipalFunc reports the authenticated user for a request. Empty userID
// means the request is anonymous and the gate lets it through untouched.
type PrincipalFunc func(r *http.Request) (userID string)

// EnforceOptions defines a public type used by goMFA APIs.
//
// EnforceOptions instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EnforceOptions struct {
	// Principal resolves the current user. Required.
	Principal PrincipalFunc
	// ListURL is the key-management page keyless users are redirected to.
	// Empty means the engine's configured list URL.
	ListURL string
	// ExemptPaths are path prefixes the gate never redirects away from.
	// The list URL and the engine's auth prefix are always exempt, otherwise
	// the redirect target itself would loop.
	ExemptPaths []string
}

// EnforceMFA returns middleware that redirects authenticated users without a
// registered MFA key to the key-management page. Anonymous requests, exempt
// paths, and users holding at least one key pass through unchanged.
func EnforceMFA(engine *goMFA.Engine, opts EnforceOptions) func(http.Handler) http.Handler {
	listURL := opts.ListURL
	if listURL == "" {
		listURL = engine.ListURL()
	}
	exempt := make([]string, 0, len(opts.ExemptPaths)+2)
	exempt = append(exempt, listURL, engine.AuthURLPrefix())
	exempt = append(exempt, opts.ExemptPaths...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil || opts.Principal == nil {
				next.ServeHTTP(w, r)
				return
			}

			userID := opts.Principal(r)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			for _, prefix := range exempt {
				if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			list, err := engine.ListKeys(r.Context(), userID)
			if err != nil {
				// Fail open: an unavailable key store must not lock users out
				// of the whole site.
				next.ServeHTTP(w, r)
				return
			}
			if len(list.Keys) == 0 {
				http.Redirect(w, r, listURL, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
