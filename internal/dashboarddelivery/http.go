// Package dashboarddelivery manages delivery layer of the dashboard.
package dashboarddelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/bankist/internal/domain"
	"github.com/go-petr/bankist/pkg/errorspkg"
	"github.com/go-petr/bankist/pkg/formatpkg"
	"github.com/go-petr/bankist/pkg/web"
)

// Service provides service layer interface needed by dashboard delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package dashboarddelivery
type Service interface {
	Login(ctx context.Context, username string, pin int) (domain.SessionState, error)
	Logout(ctx context.Context) error
	Transfer(ctx context.Context, toUsername string, amount decimal.Decimal) (domain.SessionState, error)
	RequestLoan(ctx context.Context, amount decimal.Decimal) (domain.SessionState, error)
	CloseAccount(ctx context.Context, username string, pin int) error
	ToggleSort(ctx context.Context) (domain.SessionState, error)
	State(ctx context.Context) domain.SessionState
}

// Clock provides the time the dashboard is rendered at.
type Clock interface {
	Now() time.Time
}

// Handler facilitates dashboard delivery layer logic.
type Handler struct {
	service   Service
	formatter formatpkg.Formatter
	clock     Clock
}

// NewHandler returns dashboard handler.
func NewHandler(s Service, f formatpkg.Formatter, c Clock) *Handler {
	return &Handler{
		service:   s,
		formatter: f,
		clock:     c,
	}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	PIN      int    `json:"pin" binding:"required,min=1000,max=9999"`
}

type transferRequest struct {
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required,amount"`
}

type loanRequest struct {
	Amount string `json:"amount" binding:"required,amount"`
}

// Login handles http request to log into an account.
func (h *Handler) Login(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req credentialsRequest
	if !bind(gctx, &req) {
		return
	}

	state, err := h.service.Login(ctx, req.Username, req.PIN)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: h.render(state)})
}

// Logout handles http request to end the session.
func (h *Handler) Logout(gctx *gin.Context) {
	if err := h.service.Logout(gctx.Request.Context()); err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: loggedOutView{Message: "Log in to get started"}})
}

// Dashboard handles http request to show the logged in account.
func (h *Handler) Dashboard(gctx *gin.Context) {
	state := h.service.State(gctx.Request.Context())
	if !state.LoggedIn {
		h.fail(gctx, domain.ErrNoActiveSession)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: h.render(state)})
}

// Transfer handles http request to send money to another account.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req transferRequest
	if !bind(gctx, &req) {
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)

	state, err := h.service.Transfer(ctx, req.To, amount)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: h.render(state)})
}

// RequestLoan handles http request to ask for a loan.
func (h *Handler) RequestLoan(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req loanRequest
	if !bind(gctx, &req) {
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)

	state, err := h.service.RequestLoan(ctx, amount)
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusAccepted, web.Response{Data: h.render(state)})
}

// Close handles http request to close the logged in account.
func (h *Handler) Close(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req credentialsRequest
	if !bind(gctx, &req) {
		return
	}

	if err := h.service.CloseAccount(ctx, req.Username, req.PIN); err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: loggedOutView{Message: "Account closed"}})
}

// ToggleSort handles http request to switch the movements order.
func (h *Handler) ToggleSort(gctx *gin.Context) {
	state, err := h.service.ToggleSort(gctx.Request.Context())
	if err != nil {
		h.fail(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: h.render(state)})
}

func (h *Handler) render(state domain.SessionState) dashboardView {
	return render(state, h.formatter, h.clock.Now())
}

func (h *Handler) fail(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())

	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		l.Error().Err(err).Send()
		gctx.JSON(status, web.Error(errorspkg.ErrInternal))

		return
	}

	l.Info().Err(err).Send()
	gctx.JSON(status, web.Error(err))
}

func errorStatus(err error) int {
	switch err {
	case domain.ErrInvalidCredentials,
		domain.ErrNoActiveSession,
		domain.ErrCredentialMismatch:
		return http.StatusUnauthorized
	case domain.ErrUnknownRecipient:
		return http.StatusNotFound
	case domain.ErrInvalidAmount,
		domain.ErrSelfTransfer,
		domain.ErrInsufficientBalance,
		domain.ErrLoanNotApproved:
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

func bind(gctx *gin.Context, req any) bool {
	err := gctx.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	zerolog.Ctx(gctx.Request.Context()).Info().Err(err).Send()

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.ValidationMsg(ve)})
		return false
	}

	gctx.JSON(http.StatusBadRequest, web.Error(err))

	return false
}
