package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/brieflyhq/briefly-backend/api/responses"
	pkgerrors "github.com/brieflyhq/briefly-backend/pkg/errors"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
	"github.com/brieflyhq/briefly-backend/pkg/types"
)

const signatureHeader = "X-Razorpay-Signature"

type razorpayWebhookService interface {
	ProcessWebhook(ctx context.Context, body []byte, signature string) error
}

// RazorpayWebhook authenticates and applies gateway-pushed payment events.
//
// The gateway retries anything that is not a 2xx, so the only failures
// surfaced are the ones a retry could fix nothing about: a missing webhook
// secret, a bad signature, or an unparseable payload. Those return 400;
// everything else acknowledges with 200 so redelivery stops.
func RazorpayWebhook(svc razorpayWebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if err := svc.ProcessWebhook(ctx, body, r.Header.Get(signatureHeader)); err != nil {
			writeRejection(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// writeRejection maps every service error to 400: the gateway treats 4xx
// as final, and none of the rejection causes are retry-fixable.
func writeRejection(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "webhook rejected")
	}

	if logg != nil {
		logg.Error(ctx, "webhook.rejected", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: typed.Message(),
		},
	})
}
