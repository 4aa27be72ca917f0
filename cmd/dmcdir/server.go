package main

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v78"

	"dmcdir/internal/app/claims"
	"dmcdir/internal/app/listings"
	"dmcdir/internal/app/vendors"
	"dmcdir/internal/authz"
	"dmcdir/internal/billing"
	"dmcdir/internal/httpapi"
	"dmcdir/internal/importer"
	"dmcdir/internal/inquiries"
	"dmcdir/internal/logging"
	"dmcdir/internal/store"
)

func newHTTPHandler(cfg Config, dataStore *store.Store, logger zerolog.Logger) http.Handler {
	listingSvc := listings.New(dataStore)
	claimSvc := claims.New(dataStore)
	vendorSvc := vendors.New(dataStore)

	inquirySvc := inquiries.New(dataStore, cfg.MakeWebhookURL, logger)
	if cfg.MakeWebhookURL == "" {
		logger.Warn().Msg("MAKE_WEBHOOK_URL not set, inquiry forwarding disabled")
	}

	importEngine := importer.New(dataStore)

	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
	} else {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, billing requests will fail")
	}
	checkout := billing.NewCheckout(dataStore, cfg.StripePremiumPriceID, cfg.SiteURL, logger)
	reconciler := billing.NewReconciler(dataStore, cfg.StripeWebhookSecret, logger)

	policy := authz.NewPolicy(cfg.AdminUserIDs)

	api := httpapi.New(
		listingSvc, claimSvc, vendorSvc, inquirySvc,
		importEngine, checkout, reconciler,
		policy, logger,
	)

	handler := logging.RequestLogging(logger)(api.Routes())
	handler = logging.Recovery(logger)(handler)
	return withCORS(cfg.AllowedOrigins, handler)
}

func withCORS(allowedOrigins []string, next http.Handler) http.Handler {
	originAllowed := func(origin string) bool {
		if len(allowedOrigins) == 0 || origin == "" {
			return false
		}
		for _, o := range allowedOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization, Stripe-Signature")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
