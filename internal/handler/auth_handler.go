package handler

import (
	"net/http"
	"time"

	"agentceo/internal/model"
	"agentceo/pkg/database"
	"agentceo/pkg/jwtutil"
	"agentceo/pkg/logger"
	"agentceo/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var jwtUtil *jwtutil.JWTUtil

// InitAuthHandler wires the JWT utility used for token issuance
func InitAuthHandler(j *jwtutil.JWTUtil) {
	jwtUtil = j
}

// Register creates a user along with a personal workspace
func Register(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Email         string `json:"email"`
		Password      string `json:"password"`
		Name          string `json:"name"`
		WorkspaceName string `json:"workspace_name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		log.Error("Invalid registration data",
			zap.String("email", req.Email),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&existingUser)
	if result.Error == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	workspaceName := req.WorkspaceName
	if workspaceName == "" {
		workspaceName = req.Email + "'s workspace"
	}

	workspace := model.Workspace{Name: workspaceName, Active: true}
	if result := database.GetDB().Create(&workspace); result.Error != nil {
		log.Error("Failed to create workspace", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Email:         req.Email,
		Password:      string(hashedPassword),
		Name:          req.Name,
		WorkspaceID:   workspace.ID,
		WorkspaceRole: "owner",
	}
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered",
		zap.String("email", user.Email),
		zap.Uint("workspace_id", workspace.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registration successful",
		"user": echo.Map{
			"id":           user.ID,
			"email":        user.Email,
			"name":         user.Name,
			"workspace_id": user.WorkspaceID,
		},
	})
}

// Login verifies credentials and issues a workspace-scoped JWT
func Login(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	var workspace model.Workspace
	if result := database.GetDB().First(&workspace, user.WorkspaceID); result.Error != nil {
		log.Error("Workspace not found for user",
			zap.Uint("user_id", user.ID),
			zap.Uint("workspace_id", user.WorkspaceID))
		prometheus.RecordAuthError("workspace_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no workspace found for user"})
	}

	token, err := jwtUtil.GenerateToken(user.Email, user.ID, workspace.ID, workspace.Name, user.WorkspaceRole)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("workspace_id", workspace.ID),
		zap.String("workspace_name", workspace.Name))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": echo.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
		"workspace": echo.Map{
			"id":   workspace.ID,
			"name": workspace.Name,
			"role": user.WorkspaceRole,
		},
	})
}

// Me returns the authenticated user's profile and workspace
func Me(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	var user model.User
	if result := database.GetDB().Preload("Workspace").First(&user, claims.UserID); result.Error != nil {
		log.Error("User not found", zap.Uint("user_id", claims.UserID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}
