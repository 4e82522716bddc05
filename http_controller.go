package accounts

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AccountControllerRoutes are the mounted paths
type AccountControllerRoutes struct {
	Register      string
	Login         string
	Logout        string
	ConfirmEmail  string
	PasswordReset string
}

// AccountController exposes the lifecycle service as a JSON API:
// Register 201/400, Login 200/401, ConfirmEmail 200/400,
// RequestPasswordReset 202 always, ResetPassword 200/400, Logout 204.
type AccountController struct {
	Debug   bool
	Logger  Logger
	Service *AccountManager
	Session *SessionWriter
	Routes  *AccountControllerRoutes
}

type AccountControllerOption func(*AccountController) *AccountController

func NewAccountController(service *AccountManager, cfg Config, opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:  defLogger{},
		Service: service,
		Session: NewSessionWriter(cfg),
		Routes: &AccountControllerRoutes{
			Register:      "/register",
			Login:         "/login",
			Logout:        "/logout",
			ConfirmEmail:  "/confirm-email",
			PasswordReset: "/password-reset",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

// RegisterAccountRoutes mounts the lifecycle endpoints on the given router
func RegisterAccountRoutes[T any](app router.Router[T], controller *AccountController) {
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("accounts.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("accounts.login")

	app.Post(controller.Routes.Logout, controller.LogOut).
		SetName("accounts.logout")

	app.Get(controller.Routes.ConfirmEmail, controller.ConfirmEmailGet).
		SetName("accounts.confirm-email")

	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost).
		SetName("accounts.pwd-reset")

	app.Post(fmt.Sprintf("%s/confirm", controller.Routes.PasswordReset), controller.PasswordResetExecute).
		SetName("accounts.pwd-reset-do")
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(validateStringEquals(r.Password)),
		),
	)
}

func validateStringEquals(expected string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return fmt.Errorf("passwords do not match")
		}
		return nil
	}
}

func (a *AccountController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "Error parsing body"})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: ", "error", err)
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if a.Debug {
		fmt.Println("======= ACCOUNTS REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("================================")
	}

	draft := UserDraft{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Username:  payload.Username,
		Email:     payload.Email,
	}

	if err := a.Service.Register(ctx.Context(), draft, payload.Password); err != nil {
		return renderError(ctx, a.Logger, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"email": NormalizeEmail(payload.Email),
	})
}

// LoginRequest holds the login credentials
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "Error parsing body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	token, err := a.Service.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return renderError(ctx, a.Logger, err)
	}

	a.Session.SetSession(ctx, token)

	return ctx.JSON(http.StatusOK, map[string]any{
		"token": token,
	})
}

func (a *AccountController) LogOut(ctx router.Context) error {
	a.Service.Logout(ctx.Context())
	a.Session.ClearSession(ctx)
	return ctx.NoContent(http.StatusNoContent)
}

func (a *AccountController) ConfirmEmailGet(ctx router.Context) error {
	email := ctx.Query("email")
	token := ctx.Query("token")

	if email == "" || token == "" {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "email and token are required"})
	}

	if err := a.Service.ConfirmEmail(ctx.Context(), email, token); err != nil {
		return renderError(ctx, a.Logger, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"email":     NormalizeEmail(email),
		"confirmed": true,
	})
}

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `form:"email" json:"email"`
}

func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// PasswordResetPost accepts the request and always answers 202: the
// response must not reveal whether the email maps to an account
func (a *AccountController) PasswordResetPost(ctx router.Context) error {
	payload := new(PasswordResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "Error parsing body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := a.Service.RequestPasswordReset(ctx.Context(), payload.Email); err != nil {
		// internal failure; the uniform outcome still holds
		a.Logger.Error("password reset request failed", "error", err)
	}

	return ctx.JSON(http.StatusAccepted, map[string]any{
		"status": "accepted",
	})
}

// PasswordResetExecutePayload carries the token and replacement credential
type PasswordResetExecutePayload struct {
	Email           string `form:"email" json:"email"`
	Token           string `form:"token" json:"token"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

func (r PasswordResetExecutePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(validateStringEquals(r.Password)),
		),
	)
}

func (a *AccountController) PasswordResetExecute(ctx router.Context) error {
	payload := new(PasswordResetExecutePayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "Error parsing body"})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := a.Service.ResetPassword(ctx.Context(), payload.Email, payload.Token, payload.Password); err != nil {
		return renderError(ctx, a.Logger, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"status": "password_changed",
	})
}
