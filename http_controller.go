package accounts

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// GetRouterSession extracts the session the jwt middleware stored in the
// request locals. The middleware stores structured claims; raw *jwt.Token
// values from other middlewares are handled too.
func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	raw := c.Locals(key)
	if raw == nil {
		return nil, ErrUnableToFindSession
	}

	switch v := raw.(type) {
	case *jwt.Token:
		if v == nil {
			return nil, ErrUnableToDecodeSession
		}
		claims, ok := v.Claims.(jwt.MapClaims)
		if claims == nil || !ok {
			return nil, ErrUnableToMapClaims
		}
		return sessionFromClaims(claims)
	case AuthClaims:
		return sessionFromAuthClaims(v)
	case interface {
		AccountID() string
		Role() string
	}:
		return &SessionObject{
			AccountID: v.AccountID(),
			Data:      map[string]any{"role": v.Role()},
		}, nil
	default:
		return nil, ErrUnableToDecodeSession
	}
}

// RegisterAuthRoutes mounts the JSON auth endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("register.post")

	app.Get(fmt.Sprintf("%s/:token", controller.Routes.Verify), controller.VerifyGet).
		SetName("verify.get")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("login.post")

	app.Get(controller.Routes.Logout, controller.LogoutGet).
		SetName("logout.get")

	app.Get(controller.Routes.Profile, controller.ProfileGet,
		controller.Auther.ProtectedRoute(controller.Config, controller.AuthErrorHandler)).
		SetName("profile.get")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("forgot-password.post")

	app.Post(fmt.Sprintf("%s/:token", controller.Routes.ResetPassword), controller.ResetPasswordPost).
		SetName("reset-password.post")
}

type AuthControllerRoutes struct {
	Register       string
	Verify         string
	Login          string
	Logout         string
	Profile        string
	ForgotPassword string
	ResetPassword  string
}

type AuthController struct {
	Debug            bool
	Logger           Logger
	Repo             RepositoryManager
	Routes           *AuthControllerRoutes
	Auther           HTTPAuthenticator
	Config           Config
	Notifier         Notifier
	ActivitySink     ActivitySink
	AuthErrorHandler func(router.Context, error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerNotifier(n Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = normalizeNotifier(n)
		return c
	}
}

func WithControllerActivitySink(s ActivitySink) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ActivitySink = normalizeActivitySink(s)
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		Notifier:     LogNotifier{},
		ActivitySink: noopActivitySink{},
		Routes: &AuthControllerRoutes{
			Register:       "/register",
			Verify:         "/verify",
			Login:          "/login",
			Logout:         "/logout",
			Profile:        "/profile",
			ForgotPassword: "/forgot-password",
			ResetPassword:  "/reset-password",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		c.Config = NewConfig("")
	}

	if c.AuthErrorHandler == nil {
		c.AuthErrorHandler = func(ctx router.Context, err error) error {
			return ctx.JSON(http.StatusUnauthorized, router.ViewContext{
				"success": false,
				"message": "Authentication failed",
			})
		}
	}

	return c
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account parse payload: %v", err)
		return ctx.JSON(http.StatusBadRequest, router.ViewContext{
			"success": false,
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register account validate payload: %v", err)
		return ctx.JSON(http.StatusBadRequest, router.ViewContext{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		a.Logger.Debug("register payload: %s", print.MaybePrettyJSON(payload))
	}

	var res *RegisterAccountResponse

	req := RegisterAccountMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(resp *RegisterAccountResponse) {
			res = resp
		},
	}

	register := NewRegisterAccountHandler(a.Repo,
		WithRegisterNotifier(a.Notifier),
		WithRegisterActivitySink(a.ActivitySink),
		WithRegisterLogger(a.Logger),
	)

	if err := register.Execute(ctx.Context(), req); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return ctx.JSON(http.StatusConflict, router.ViewContext{
				"success": false,
				"message": "An account with that email already exists",
			})
		}

		a.Logger.Error("register account error: %v", err)
		return a.jsonError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, router.ViewContext{
		"success": true,
		"message": "Registration successful, check your email to verify your account",
		"user":    res.Account.Profile(),
	})
}

func (a *AuthController) VerifyGet(ctx router.Context) error {
	token := ctx.Param("token", "")

	req := VerifyAccountMessage{Token: token}

	verify := NewVerifyAccountHandler(a.Repo,
		WithVerifyActivitySink(a.ActivitySink),
		WithVerifyLogger(a.Logger),
	)

	if err := verify.Execute(ctx.Context(), req); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return ctx.JSON(http.StatusBadRequest, router.ViewContext{
				"success": false,
				"message": "Invalid or already used verification token",
			})
		}

		a.Logger.Error("account verification error: %v", err)
		return a.jsonError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, router.ViewContext{
		"success": true,
		"message": "Account verified, you can now log in",
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetEmail returns the email
func (r LoginRequest) GetEmail() string {
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

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return ctx.JSON(http.StatusBadRequest, router.ViewContext{
			"success": false,
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, router.ViewContext{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.loginError(ctx, err)
	}

	session, err := a.sessionFromLoginToken(token)
	if err != nil {
		a.Logger.Error("login session decode error: %v", err)
		return a.jsonError(ctx, err)
	}

	account, err := a.Repo.Accounts().GetByIdentifier(ctx.Context(), session.GetAccountID())
	if err != nil {
		a.Logger.Error("login account lookup error: %v", err)
		return a.jsonError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, router.ViewContext{
		"success": true,
		"token":   token,
		"user": router.ViewContext{
			"id":   account.ID.String(),
			"name": account.Name,
			"role": account.Role,
		},
	})
}

func (a *AuthController) LogoutGet(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(http.StatusOK, router.ViewContext{
		"success": true,
		"message": "Logged out",
	})
}

func (a *AuthController) ProfileGet(ctx router.Context) error {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		a.Logger.Error("profile session error: %v", err)
		return a.AuthErrorHandler(ctx, ErrUnauthenticated)
	}

	account, err := a.Repo.Accounts().GetByIdentifier(ctx.Context(), session.GetAccountID())
	if err != nil {
		if errors.IsNotFound(err) {
			return ctx.JSON(http.StatusNotFound, router.ViewContext{
				"success": false,
				"message": "Account not found",
			})
		}
		a.Logger.Error("profile account lookup error: %v", err)
		return a.jsonError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, router.ViewContext{
		"success": true,
		"user":    account.Profile(),
	})
}

// ForgotPasswordPayload holds values for password reset initialization
type ForgotPasswordPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

// ForgotPasswordPost always answers 200 for well-formed requests so the
// endpoint cannot be used to enumerate registered emails.
func (a *AuthController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("forgot password parse payload: %v", err)
		return ctx.JSON(http.StatusBadRequest, router.ViewContext{
			"success": false,
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, router.ViewContext{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := InitializePasswordResetMessage{Email: payload.Email}

	initReset := NewInitializePasswordResetHandler(a.Repo,
		WithResetInitNotifier(a.Notifier),
		WithResetInitActivitySink(a.ActivitySink),
		WithResetInitLogger(a.Logger),
	)

	if err := initReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("forgot password error: %v", err)
		return a.jsonError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, router.ViewContext{
		"success": true,
		"message": "If that email is registered, a reset link is on its way",
	})
}

// ResetPasswordPayload holds values for password reset finalization
type ResetPasswordPayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(10, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	token := ctx.Param("token", "")
	payload := new(ResetPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload: %v", err)
		return ctx.JSON(http.StatusBadRequest, router.ViewContext{
			"success": false,
			"message": "Error parsing body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, router.ViewContext{
			"success":    false,
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := FinalizePasswordResetMessage{
		Token:    token,
		Password: payload.Password,
	}

	finalize := NewFinalizePasswordResetHandler(a.Repo,
		WithResetFinalizeActivitySink(a.ActivitySink),
		WithResetFinalizeLogger(a.Logger),
	)

	if err := finalize.Execute(ctx.Context(), req); err != nil {
		if errors.Is(err, ErrInvalidOrExpiredToken) {
			return ctx.JSON(http.StatusBadRequest, router.ViewContext{
				"success": false,
				"message": "Invalid or expired reset token",
			})
		}

		a.Logger.Error("reset password error: %v", err)
		return a.jsonError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, router.ViewContext{
		"success": true,
		"message": "Password updated, you can now log in",
	})
}

func (a *AuthController) loginError(ctx router.Context, err error) error {
	if errors.Is(err, ErrEmailNotVerified) {
		return ctx.JSON(http.StatusForbidden, router.ViewContext{
			"success": false,
			"message": "Verify your email before logging in",
		})
	}

	if errors.Is(err, ErrTooManyLoginAttempts) {
		return ctx.JSON(http.StatusTooManyRequests, router.ViewContext{
			"success": false,
			"message": "Too many login attempts, try again later",
		})
	}

	// unknown email and wrong password collapse to the same response
	return ctx.JSON(http.StatusUnauthorized, router.ViewContext{
		"success": false,
		"message": "User not found",
	})
}

func (a *AuthController) sessionFromLoginToken(token string) (Session, error) {
	auther, ok := a.Auther.(interface {
		SessionFromToken(string) (Session, error)
	})
	if ok {
		return auther.SessionFromToken(token)
	}

	service := NewTokenService(
		[]byte(a.Config.GetSigningKey()),
		a.Config.GetTokenExpiration(),
		a.Config.GetIssuer(),
		a.Config.GetAudience(),
		a.Logger,
	)

	claims, err := service.Validate(token)
	if err != nil {
		return nil, err
	}

	return sessionFromAuthClaims(claims)
}

func (a *AuthController) jsonError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		code = http.StatusInternalServerError
	}

	return ctx.JSON(code, router.ViewContext{
		"success": false,
		"message": richErr.Message,
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match", errors.CategoryValidation)
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field → message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
