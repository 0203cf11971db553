package handler

import (
	"net/http"
	"time"

	"agentceo/internal/model"
	"agentceo/pkg/database"
	"agentceo/pkg/logger"
	"agentceo/pkg/mailauth"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var mailAuthClient *mailauth.Client

// InitMailHandler wires the external mail auth collaborator
func InitMailHandler(client *mailauth.Client) {
	mailAuthClient = client
}

// ConnectMail exchanges an OAuth code through the collaborator and stores the
// resulting provider credentials for the caller
func ConnectMail(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	var req struct {
		Provider string `json:"provider"`
		Code     string `json:"code"`
	}
	if err := c.Bind(&req); err != nil || req.Provider == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provider and code are required"})
	}
	if req.Provider != "google" && req.Provider != "microsoft" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported provider"})
	}

	result, err := mailAuthClient.ExchangeCode(req.Provider, req.Code)
	if err != nil {
		log.Error("Mail auth service unreachable", zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "mail authentication service unavailable"})
	}
	if !result.Success {
		log.Warn("Mail connection rejected",
			zap.String("provider", req.Provider),
			zap.String("reason", result.Error))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": result.Error})
	}

	expiresAt := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	provider := model.EmailProvider{
		Provider:     result.Provider,
		Email:        result.Email,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    &expiresAt,
		UserID:       claims.UserID,
		WorkspaceID:  claims.WorkspaceID,
	}

	db := database.GetDB()

	// One provider row per user; reconnecting replaces the old one
	var existing model.EmailProvider
	if err := db.Where("user_id = ?", claims.UserID).First(&existing).Error; err == nil {
		provider.ID = existing.ID
		if err := db.Save(&provider).Error; err != nil {
			log.Error("Failed to replace email provider", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store connection"})
		}
	} else {
		if err := db.Create(&provider).Error; err != nil {
			log.Error("Failed to store email provider", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store connection"})
		}
	}

	log.Info("Email provider connected",
		zap.String("provider", provider.Provider),
		zap.Uint("user_id", claims.UserID))

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "email provider connected",
		"provider": provider.Provider,
		"email":    provider.Email,
	})
}

// MailStatus reports whether the caller has a connected provider, refreshing
// an expired access token through the collaborator on the way. It never
// returns an error status: any failure reads as disconnected or expired.
func MailStatus(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	db := database.GetDB()

	var provider model.EmailProvider
	if err := db.Where("user_id = ?", claims.UserID).First(&provider).Error; err != nil {
		return c.JSON(http.StatusOK, echo.Map{"connected": false})
	}

	if provider.IsExpired() && provider.RefreshToken != "" {
		result, err := mailAuthClient.RefreshToken(provider.Provider, provider.RefreshToken)
		if err != nil || !result.Success {
			log.Warn("Token refresh failed",
				zap.String("provider", provider.Provider),
				zap.Uint("user_id", claims.UserID),
				zap.Error(err))
		} else {
			expiresAt := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
			updates := map[string]interface{}{
				"access_token": result.AccessToken,
				"expires_at":   &expiresAt,
			}
			if result.RefreshToken != "" {
				updates["refresh_token"] = result.RefreshToken
			}
			if err := db.Model(&provider).Updates(updates).Error; err != nil {
				log.Error("Failed to store refreshed tokens", zap.Error(err))
			} else {
				provider.ExpiresAt = &expiresAt
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"connected": true,
		"provider":  provider.Provider,
		"email":     provider.Email,
		"expired":   provider.IsExpired(),
	})
}

// DisconnectMail revokes the stored tokens best-effort and removes the row
func DisconnectMail(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, err := currentUser(c)
	if claims == nil {
		return err
	}

	db := database.GetDB()

	var provider model.EmailProvider
	if err := db.Where("user_id = ?", claims.UserID).First(&provider).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no email provider connected"})
	}

	// Revocation failure must not block disconnect
	if _, err := mailAuthClient.Revoke(provider.Provider, provider.AccessToken); err != nil {
		log.Warn("Token revocation failed",
			zap.String("provider", provider.Provider),
			zap.Error(err))
	}

	if err := db.Unscoped().Delete(&provider).Error; err != nil {
		log.Error("Failed to delete email provider", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "disconnect failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "email provider disconnected"})
}
