package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/fdwmarket/marketd"
	"github.com/fdwmarket/marketd/internal/domain"
	"github.com/fdwmarket/marketd/internal/present/rest/presenter"
	"github.com/fdwmarket/marketd/internal/service"
	"github.com/fdwmarket/marketd/internal/usecase"
)

type Handler struct {
	config  domain.Config
	account *usecase.AccountUsecase
	signal  *service.SignalService
}

func NewHandler(
	config domain.Config,
	account *usecase.AccountUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		config:  config,
		account: account,
		signal:  signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/.well-known/market", h.handleWellKnown)
	e.POST("/api/v1/register", h.handleRegister)
	e.POST("/api/v1/login", h.handleLogin)
	e.GET("/api/v1/profile/:username", h.handleGetProfile)
	e.PUT("/api/v1/profile/:username", h.handleUpdateProfile)
	e.POST("/api/v1/vendor/verify", h.handleVendorVerify)
	e.GET("/api/v1/escrows", h.handleEscrows)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	wellknown := marketd.WellKnownMarket{
		Version:      "1.0",
		Domain:       h.config.FQDN,
		Fingerprint:  h.config.Fingerprint,
		Registration: h.config.Registration,
		Endpoints: map[string]marketd.MarketEndpoint{
			"market.register": {
				Template: "/api/v1/register",
				Method:   "POST",
			},
			"market.login": {
				Template: "/api/v1/login",
				Method:   "POST",
			},
			"market.profile": {
				Template: "/api/v1/profile/{username}",
				Method:   "GET",
			},
			"market.vendor.verify": {
				Template: "/api/v1/vendor/verify",
				Method:   "POST",
			},
			"market.escrows": {
				Template: "/api/v1/escrows",
				Method:   "GET",
			},
			"market.realtime": {
				Template: "/realtime",
				Method:   "GET",
			},
		},
	}
	return presenter.OK(c, wellknown)
}

func (h *Handler) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.RegisterInput
	err := c.Bind(&input)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	account, result, err := h.account.Register(ctx, input)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrAlreadyExists) {
			return presenter.BadRequest(c, err)
		}
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return presenter.ServiceUnavailable(c, "identity authority is unreachable, try again later")
		}
		return presenter.InternalError(c, err)
	}

	if !result.Confirmed {
		return presenter.BadRequestMessage(c, result.PublicMessage())
	}

	return presenter.OK(c, account)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req loginRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	token, err := h.account.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.Unauthorized(c, err.Error())
		}
		if errors.Is(err, domain.ErrForbidden) {
			return presenter.Forbidden(c, err.Error())
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{"token": token})
}

func (h *Handler) handleGetProfile(c echo.Context) error {
	ctx := c.Request().Context()

	if requesterOf(c) == "" {
		return presenter.Unauthorized(c, "login required")
	}

	account, err := h.account.GetProfile(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "profile not found")
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, account)
}

func (h *Handler) handleUpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	requester := requesterOf(c)
	if requester == "" {
		return presenter.Unauthorized(c, "login required")
	}

	var update domain.ProfileUpdate
	err := c.Bind(&update)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	account, err := h.account.UpdateProfile(ctx, requester, c.Param("username"), update)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return presenter.Forbidden(c, err.Error())
		}
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "profile not found")
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, account)
}

type vendorVerifyRequest struct {
	SignedMessage string `json:"signedMessage"`
}

func (h *Handler) handleVendorVerify(c echo.Context) error {
	ctx := c.Request().Context()

	requester := requesterOf(c)
	if requester == "" {
		return presenter.Unauthorized(c, "login required")
	}

	var req vendorVerifyRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	result, err := h.account.GrantVendor(ctx, requester, req.SignedMessage)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "profile not found")
		}
		return presenter.InternalError(c, err)
	}

	if !result.Granted {
		return presenter.BadRequestMessage(c, result.PublicMessage())
	}

	return presenter.OK(c, echo.Map{"status": "granted"})
}

func (h *Handler) handleEscrows(c echo.Context) error {
	ctx := c.Request().Context()

	if requesterOf(c) == "" {
		return presenter.Unauthorized(c, "login required")
	}

	escrows, err := h.account.ListEscrows(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, escrows)
}

func requesterOf(c echo.Context) string {
	requester, _ := c.Request().Context().Value(domain.RequesterIdCtxKey).(string)
	return requester
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	// the relay owns the send side of both channels' traffic; teardown is
	// signaled by cancel only, never by closing a channel the sender still
	// writes to
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	input := make(chan []string)
	output := make(chan marketd.Event)

	go func() {
		h.signal.Realtime(ctx, input, output)
		cancel()
	}()

	go func() {
		defer cancel()
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				return
			}

			switch req.Type {
			case "listen":
				select {
				case input <- req.Channels:
				case <-ctx.Done():
					return
				}
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.Channels),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
