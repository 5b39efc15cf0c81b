package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filedrive/internal/application/ports"
	"filedrive/internal/application/services"
	domain "filedrive/internal/domain/user"
	"filedrive/internal/interface/api/rest/dto/user"
	"filedrive/internal/interface/api/rest/middleware"
	"filedrive/internal/interface/api/rest/validator"
)

const (
	msgInvalidData        = "Invalid data"
	msgInvalidCredentials = "Invalid username or password"
	msgAlreadyTaken       = "Username or email already taken"
	msgInternal           = "Internal server error"
)

type AuthController struct {
	logger      *zap.Logger
	authService ports.Auth
	cookie      middleware.CookieOptions
}

func NewAuthController(
	r *gin.Engine,
	logger *zap.Logger,
	authService ports.Auth,
	cookie middleware.CookieOptions,
) *AuthController {
	ac := &AuthController{
		logger:      logger,
		authService: authService,
		cookie:      cookie,
	}

	r.GET(RouteUserRegister, ac.RegisterFormHandler)
	r.POST(RouteUserRegister, ac.RegisterHandler)
	r.GET(RouteUserLogin, ac.LoginFormHandler)
	r.POST(RouteUserLogin, ac.LoginHandler)
	r.GET(RouteUserLogout, ac.LogoutHandler)

	return ac
}

func (ac *AuthController) RegisterFormHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"form":   "register",
		"action": RouteUserRegister,
		"fields": []string{"username", "email", "password"},
	})
}

func (ac *AuthController) RegisterHandler(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidData})
		return
	}
	req.Normalize()

	if errs := validator.ValidateStruct(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": msgInvalidData,
			"errors":  errs,
		})
		return
	}

	u, err := ac.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"message": msgAlreadyTaken})
			return
		}
		ac.logger.Error("Register() error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}

	ac.logger.Info("user registered", zap.Stringer("user_uuid", u.UUID))

	c.Redirect(http.StatusFound, RouteUserLogin)
}

func (ac *AuthController) LoginFormHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"form":   "login",
		"action": RouteUserLogin,
		"fields": []string{"username", "password"},
	})
}

func (ac *AuthController) LoginHandler(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidData})
		return
	}
	req.Normalize()

	if errs := validator.ValidateStruct(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": msgInvalidData,
			"errors":  errs,
		})
		return
	}

	token, _, err := ac.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidCredentials})
			return
		}
		ac.logger.Error("Login() error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
		return
	}

	middleware.SetSessionCookie(c, token, ac.cookie)
	c.Redirect(http.StatusFound, RouteHome)
}

func (ac *AuthController) LogoutHandler(c *gin.Context) {
	middleware.ClearSessionCookie(c, ac.cookie)
	c.Redirect(http.StatusFound, RouteUserLogin)
}
