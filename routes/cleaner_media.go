package routes

import (
	"context"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"

	"cleaning-service-server/config"
	"cleaning-service-server/database"
	"cleaning-service-server/middleware"
	"cleaning-service-server/models"
)

// validateImageFile validates mimetype and size (<= 5MB)
func validateImageFile(h *multipart.FileHeader) bool {
	if h == nil || h.Size <= 0 || h.Size > 5*1024*1024 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(h.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	default:
		return false
	}
}

// RegisterCleanerMediaRoutes adds the profile photo upload endpoint
func RegisterCleanerMediaRoutes(router *gin.RouterGroup) {
	router.POST("/cleaner/profile/photo",
		middleware.AuthMiddleware(),
		middleware.RequireRole(models.RoleCleaner),
		uploadCleanerPhoto)
}

func uploadCleanerPhoto(c *gin.Context) {
	userID := c.GetUint("user_id")

	if err := c.Request.ParseMultipartForm(10 << 20); err != nil { // 10MB
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid form data"})
		return
	}

	header, err := c.FormFile("photo")
	if err != nil || header == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No photo provided"})
		return
	}

	log.Printf("📸 Received photo: %s, size: %d", header.Filename, header.Size)

	if !validateImageFile(header) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid photo (jpg/png/webp up to 5MB)"})
		return
	}

	var profile models.CleanerProfile
	if err := database.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Cleaner profile not found"})
		return
	}

	cloudinaryURL := config.AppConfig.Media.CloudinaryURL
	if cloudinaryURL == "" {
		log.Printf("❌ CLOUDINARY_URL is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Media storage not configured"})
		return
	}

	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		log.Printf("❌ Failed to initialize Cloudinary: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Media storage initialization failed"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Could not read photo"})
		return
	}
	defer file.Close()

	overwrite := true
	uniqueFilename := true
	folder := "cleaners/profile_photos/" + strconv.Itoa(int(userID))

	up, err := cld.Upload.Upload(context.Background(), file, uploader.UploadParams{
		Folder:         folder,
		PublicID:       strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)),
		Overwrite:      &overwrite,
		UniqueFilename: &uniqueFilename,
		ResourceType:   "image",
	})
	if err != nil {
		log.Printf("❌ Photo upload failed for cleaner %d: %v", profile.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Photo upload failed"})
		return
	}

	if err := database.DB.Model(&profile).Update("photo_url", up.SecureURL).Error; err != nil {
		log.Printf("❌ Failed to save photo URL for cleaner %d: %v", profile.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save photo"})
		return
	}

	log.Printf("✅ Photo uploaded for cleaner %d: %s", profile.ID, up.SecureURL)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Photo uploaded",
		"photo_url": up.SecureURL,
	})
}
