package handler

import "github.com/gin-gonic/gin"

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Classes     *ClassHandler
	Enrollments *EnrollmentHandler
	Students    *StudentHandler
	Messages    *MessageHandler
	Uploads     *UploadHandler
	Profiles    *ProfileHandler
}

// Register mounts the API routes under r. Routes that act on behalf of a caller sit behind auth.
func Register(r gin.IRouter, auth gin.HandlerFunc, h Handlers) {
	r.GET("/classes", h.Classes.List)
	r.GET("/classes/search", h.Classes.Search)
	r.GET("/classes/:id", h.Classes.Get)

	protected := r.Group("", auth)
	protected.POST("/classes", h.Classes.Create)
	protected.DELETE("/classes/:id", h.Classes.Cancel)
	protected.GET("/classes/:id/roster", h.Classes.Roster)

	protected.POST("/classes/:id/enroll", h.Enrollments.Enroll)
	protected.DELETE("/classes/:id/enroll", h.Enrollments.Unenroll)

	protected.POST("/classes/:id/messages", h.Messages.Send)
	protected.GET("/classes/:id/messages", h.Messages.List)

	protected.GET("/students/me/classes", h.Students.MyClasses)
	protected.GET("/trainers/me/classes", h.Students.MyTrainerClasses)

	protected.POST("/profile/presigned-url", h.Uploads.Presign)
	protected.GET("/profile/me", h.Profiles.Get)
	protected.PUT("/profile/me", h.Profiles.Put)
	protected.DELETE("/profile/me", h.Profiles.Delete)
	protected.DELETE("/profile/images/:imageId", h.Profiles.DeleteImage)
}
