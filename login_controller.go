package adminauth

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AuthControllerRoutes names the paths the controller mounts.
type AuthControllerRoutes struct {
	Login       string
	Logout      string
	AdminStatus string
	AdminRepair string
}

// AuthControllerViews names the templates the controller renders.
type AuthControllerViews struct {
	Login string
}

// AuthController serves the sign-in flow and the operator diagnostics
// endpoints in front of a Lifecycle.
type AuthController struct {
	Debug            bool
	Logger           Logger
	Lifecycle        *Lifecycle
	Diagnostics      *Diagnostics
	Routes           *AuthControllerRoutes
	Views            *AuthControllerViews
	RejectedRouteKey string
}

// AuthControllerOption configures the controller.
type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLogger overrides the default logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerLifecycle wires the lifecycle. Required.
func WithControllerLifecycle(lifecycle *Lifecycle) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Lifecycle = lifecycle
		return c
	}
}

// WithControllerDiagnostics enables the admin-status and repair endpoints.
func WithControllerDiagnostics(diag *Diagnostics) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Diagnostics = diag
		return c
	}
}

// WithControllerDebug enables pretty-printed payload dumps.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// NewAuthController builds the controller with default routes and views.
func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:       "/login",
			Logout:      "/logout",
			AdminStatus: "/debug/admin-status",
			AdminRepair: "/debug/admin-repair",
		},
		Views: &AuthControllerViews{
			Login: "login",
		},
		RejectedRouteKey: "rejected_route",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Lifecycle == nil {
		panic("Missing Lifecycle in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the sign-in flow, and when diagnostics are
// configured, the operator endpoints.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.
		Get(controller.Routes.Login, controller.LoginShow).
		SetName("sign-in.get")

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).SetName("sign-out.get")

	if controller.Diagnostics != nil {
		app.Get(controller.Routes.AdminStatus, controller.AdminStatusShow).
			SetName("admin-status.get")
		app.Post(controller.Routes.AdminRepair, controller.AdminRepairPost).
			SetName("admin-repair.post")
	}
}

// LoginShow renders the sign-in form.
func (a *AuthController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

var _ LoginPayload = LoginRequest{}

// GetIdentifier returns the sign-in email
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// LoginPost signs the operator in and redirects to the originally requested
// route when one was preserved by the gate.
func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)
	errs := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login: bind failed: %v", err)
		return ctx.Status(router.StatusBadRequest).Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{"form": "Could not read the form"},
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": err.Error(),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	if err := a.SignIn(ctx, payload); err != nil {
		if IsInvalidCredentialsError(err) {
			errs["authentication"] = "Invalid email or password"
		} else {
			errs["authentication"] = "Authentication error, try again"
		}
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	redirect := a.getRedirect(ctx, "/")

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

// SignIn drives the lifecycle with any LoginPayload carrier. LoginRequest is
// the form-bound implementation; programmatic callers may pass their own.
func (a *AuthController) SignIn(ctx router.Context, payload LoginPayload) error {
	return a.Lifecycle.SignIn(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
}

// LogOut clears the session and returns to the sign-in form.
func (a *AuthController) LogOut(ctx router.Context) error {
	a.Lifecycle.SignOut(ctx.Context())
	return ctx.Redirect(a.Routes.Login, router.StatusTemporaryRedirect)
}

// AdminStatusShow returns the diagnostic report as JSON.
func (a *AuthController) AdminStatusShow(ctx router.Context) error {
	report := a.Diagnostics.InspectAdminStatus(ctx.Context())

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(report))
	}

	return ctx.JSON(router.StatusOK, report)
}

// AdminRepairRequest carries the optional operator key.
type AdminRepairRequest struct {
	OperatorKey string `form:"operator_key" json:"operator_key"`
}

// AdminRepairPost forces the current user's role back to admin.
func (a *AuthController) AdminRepairPost(ctx router.Context) error {
	payload := new(AdminRepairRequest)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{"error": "could not read payload"})
	}

	report := a.Diagnostics.RepairAdminRole(ctx.Context(), payload.OperatorKey)
	status := router.StatusOK
	if !report.Success {
		status = router.StatusBadRequest
	}

	return ctx.JSON(status, report)
}

// getRedirect pops the rejected-route cookie set by the gate.
func (a *AuthController) getRedirect(ctx router.Context, def string) string {
	r := ctx.Cookies(a.RejectedRouteKey)
	if r == "" {
		return def
	}

	ctx.Cookie(&router.Cookie{
		Name:     a.RejectedRouteKey,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
	return r
}
