package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/safar/lanchonete-orders/internal/auth"
	"github.com/safar/lanchonete-orders/internal/database"
	"github.com/safar/lanchonete-orders/internal/models"
	"github.com/safar/lanchonete-orders/internal/orders"
)

const maxBodyBytes = 1 << 20

type OrderService interface {
	SubmitOrder(ctx context.Context, sub orders.Submission) (int64, error)
	ListOrders(ctx context.Context) ([]models.OrderSummary, error)
	GetOrder(ctx context.Context, id int64) (*models.OrderDetail, error)
	UpdateStatus(ctx context.Context, id int64, raw string) error
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(ctx context.Context, cookieValue string) (string, error)
	Logout(ctx context.Context, cookieValue string) error
	TTL() time.Duration
}

// Pinger reports whether the database is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	orders       OrderService
	auth         Authenticator
	db           Pinger
	logger       *slog.Logger
	secureCookie bool
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(h *Handler) {
		h.secureCookie = secure
	}
}

func NewHandler(svc OrderService, authenticator Authenticator, db Pinger, opts ...Option) *Handler {
	h := &Handler{
		orders: svc,
		auth:   authenticator,
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type customerPayload struct {
	Name    string `json:"nome"`
	Phone   string `json:"telefone"`
	Email   string `json:"email"`
	Address string `json:"endereco"`
}

type itemPayload struct {
	ID       int64            `json:"id"`
	Quantity int              `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

type submitOrderRequest struct {
	Customer      *customerPayload `json:"cliente"`
	Items         []itemPayload    `json:"itens"`
	PaymentMethod string           `json:"forma_pagamento"`
	Type          string           `json:"tipo"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"senha"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.WarnContext(ctx, "health check failed", slog.String("error", err.Error()))
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login accepts JSON or form-encoded credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Usuário ou senha inválidos"})
		return
	}

	value, err := h.auth.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Usuário ou senha inválidos"})
			return
		}
		h.logger.ErrorContext(r.Context(), "login", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Erro interno")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(h.auth.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.InfoContext(r.Context(), "staff login", slog.String("username", creds.Username))
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Login realizado com sucesso!"})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.WarnContext(r.Context(), "delete session", slog.String("error", err.Error()))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.orders.ListProducts(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		respondError(w, http.StatusUnsupportedMediaType, "Content-Type deve ser application/json")
		return
	}

	var req submitOrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	id, err := h.orders.SubmitOrder(r.Context(), req.submission())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "Pedido finalizado", "pedido_id": id})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.ListOrders(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// GetOrder is reachable without a session so customers can follow their own
// order on the tracking page.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Pedido não encontrado")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Pedido não encontrado")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), id, req.Status); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "Status atualizado"})
}

// respondServiceError maps service and storage errors to HTTP responses.
// Storage failures are logged and answered with a generic message.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve orders.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, orders.ErrStatusRequired):
		respondError(w, http.StatusBadRequest, "Status não fornecido")
	case errors.Is(err, models.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "Status inválido")
	case errors.Is(err, database.ErrProductNotFound):
		respondError(w, http.StatusBadRequest, "Produto não encontrado")
	case errors.Is(err, database.ErrInvalidOrderData):
		respondError(w, http.StatusBadRequest, "Dados do pedido inválidos")
	case errors.Is(err, database.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "Pedido não encontrado")
	case errors.Is(err, models.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "Transição de status inválida")
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Erro ao processar a solicitação")
	}
}

func (req submitOrderRequest) submission() orders.Submission {
	sub := orders.Submission{
		PaymentMethod: req.PaymentMethod,
		DeliveryMode:  req.Type,
	}
	if req.Customer != nil {
		sub.Customer = &models.Customer{
			Name:    req.Customer.Name,
			Phone:   req.Customer.Phone,
			Email:   req.Customer.Email,
			Address: req.Customer.Address,
		}
	}
	sub.Items = make([]orders.Item, 0, len(req.Items))
	for _, item := range req.Items {
		sub.Items = append(sub.Items, orders.Item{
			ProductID: item.ID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return sub
}

func readCredentials(r *http.Request) (credentials, error) {
	var creds credentials
	if isJSON(r) {
		err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&creds)
		return creds, err
	}
	if err := r.ParseForm(); err != nil {
		return creds, err
	}
	creds.Username = r.PostForm.Get("username")
	creds.Password = r.PostForm.Get("senha")
	return creds, nil
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func orderID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}
