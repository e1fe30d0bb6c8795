package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/geocoder89/assethub/internal/domain/payment"
	"github.com/geocoder89/assethub/internal/http/middlewares"
	"github.com/geocoder89/assethub/internal/jobs"
	"github.com/geocoder89/assethub/internal/repo"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentsStore interface {
	Record(ctx context.Context, p payment.Payment) (repo.InsertResult, error)
	ListByEmail(ctx context.Context, f payment.ListFilter) ([]payment.Payment, error)
}

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, methods []string) (string, error)
}

const gatewayTimeout = 10 * time.Second

type PaymentsHandler struct {
	repo    PaymentsStore
	gateway PaymentGateway
	jobs    JobsEnqueuer
}

func NewPaymentsHandler(repo PaymentsStore, gateway PaymentGateway, jobs JobsEnqueuer) *PaymentsHandler {
	return &PaymentsHandler{repo: repo, gateway: gateway, jobs: jobs}
}

// CreateIntent registers a card payment intent for price (major units) and
// returns only the client secret.
func (h *PaymentsHandler) CreateIntent(ctx *gin.Context) {
	var req payment.IntentRequest
	if !BindJSON(ctx, &req) {
		return
	}

	amount, err := payment.ToMinorUnits(req.Price)
	if err != nil {
		fail(ctx, err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), gatewayTimeout)
	defer cancel()

	secret, err := h.gateway.CreatePaymentIntent(cctx, amount, payment.NormalizeCurrency(req.Currency), []string{payment.MethodCard})
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"clientSecret": secret})
}

// Record appends the submitted payload to the ledger as-is. There is no
// idempotency key; a resubmission is a second entry.
func (h *PaymentsHandler) Record(ctx *gin.Context) {
	var p payment.Payment
	if !BindJSON(ctx, &p) {
		return
	}
	if p == nil {
		RespondBadRequest(ctx, "Payment must be a JSON object", nil)
		return
	}

	caller, _ := middlewares.EmailFromContext(ctx)
	stamped := payment.Stamp(p, caller, now())

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Record(cctx, stamped)
	if err != nil {
		fail(ctx, apperr.Internal("Could not record payment", err))
		return
	}

	email := stamped.Email()
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		price, _ := stamped["price"].(float64)
		txID, _ := stamped["transactionId"].(string)

		enqueueBestEffort(ctx, h.jobs, jobs.JobPaymentRecorded, jobs.PaymentRecordedPayload{
			PaymentID:     id.Hex(),
			Email:         email,
			Price:         price,
			TransactionID: txID,
			RequestID:     requestIDFrom(ctx),
		})
	}

	ctx.JSON(http.StatusOK, res)
}

// List returns the caller's ledger entries, newest first.
func (h *PaymentsHandler) List(ctx *gin.Context) {
	page, ok := parsePage(ctx)
	if !ok {
		return
	}

	email, _ := middlewares.EmailFromContext(ctx)

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	items, err := h.repo.ListByEmail(cctx, payment.ListFilter{
		Email: email,
		Limit: page.fetchLimit(),
		After: page.After,
	})
	if err != nil {
		fail(ctx, apperr.Internal("Could not list payments", err))
		return
	}

	respondPage(ctx, items, page.Limit, func(p payment.Payment) (time.Time, primitive.ObjectID) {
		id, _ := payment.ID(p)
		return payment.RecordedAt(p), id
	})
}
