package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cleaning-service-server/database"
	"cleaning-service-server/models"
)

// RegisterCatalogRoutes registers the public catalog routes
func RegisterCatalogRoutes(router *gin.RouterGroup) {
	router.GET("/services", listServices)
	router.GET("/services/:slug", getServiceBySlug)
	router.GET("/areas", listAreas)
	router.GET("/extras", listExtras)
}

func listServices(c *gin.Context) {
	var services []models.Service
	if err := database.DB.
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&services).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to fetch services",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"services": services,
		"count":    len(services),
	})
}

func getServiceBySlug(c *gin.Context) {
	var service models.Service
	if err := database.DB.
		Where("slug = ? AND is_active = ?", c.Param("slug"), true).
		First(&service).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "SERVICE_NOT_FOUND",
			"message": "Service not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"service": service,
	})
}

func listAreas(c *gin.Context) {
	var areas []models.Area
	query := database.DB.Where("is_active = ?", true).Order("state ASC, suburb ASC")

	if state := c.Query("state"); state != "" {
		query = query.Where("state = ?", state)
	}

	if err := query.Find(&areas).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to fetch areas",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"areas":   areas,
		"count":   len(areas),
	})
}

func listExtras(c *gin.Context) {
	var extras []models.ServiceExtra
	if err := database.DB.
		Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&extras).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to fetch extras",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"extras":  extras,
		"count":   len(extras),
	})
}
