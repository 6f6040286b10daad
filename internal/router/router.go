// Package router mounts the handlers on an Echo instance, grouped by the
// access level they require.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/mutual-help-web/internal/handler"
	"github.com/iliyamo/mutual-help-web/internal/middleware"
)

// RegisterRoutes registers the probes and the metrics endpoint.  None of
// them touch the session.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Liveness)
	e.GET("/readyz", h.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers the pages anyone can see.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	e.GET("/", p.Landing)
	e.POST("/cookies/accept", p.AcceptCookies)
	e.GET("/ads", p.Ads)
	e.GET("/ads/:id", p.Ad)
	e.GET("/ads/images/:id", p.Images)
	e.GET("/error", p.Error)
}

// RegisterAccount registers sign in, sign up and sign out.  The profile
// and password pages need a signed-in user.
func RegisterAccount(e *echo.Echo, a *handler.AccountHandler) {
	e.GET("/login", a.LoginPage)
	e.POST("/login", a.Login)
	e.GET("/register", a.RegisterPage)
	e.POST("/register", a.Register)
	e.POST("/logout", a.Logout)

	self := e.Group("/self", middleware.RequireLogin())
	self.GET("/profile", a.ProfilePage)
	self.POST("/profile", a.UpdateProfile)
	self.GET("/password", a.PasswordPage)
	self.POST("/password", a.ChangePassword)
}

// RegisterStandard registers the pages of a signed-in user.  Path params
// named :id always come first; on the contact page accept and decline
// routes :id is the requesting user and :adID the ad.
func RegisterStandard(e *echo.Echo, s *handler.StandardHandler) {
	auth := middleware.RequireLogin()

	e.GET("/self/index", s.Index, auth)
	e.POST("/self/index", s.SoftDelete, auth)
	e.GET("/self/new", s.NewAdPage, auth)
	e.POST("/self/new", s.CreateAd, auth)
	e.GET("/self/edit", s.EditAdPage, auth)
	e.POST("/self/edit", s.EditAd, auth)
	e.GET("/self/:id/new/image", s.AddImagePage, auth)
	e.POST("/self/:id/request/accept", s.AcceptRequest, auth)
	e.POST("/self/:id/request/decline", s.DeclineRequest, auth)

	e.POST("/:id/image", s.UploadNewImage, auth)
	e.GET("/:id/edit/image", s.EditImagesPage, auth)
	e.POST("/:id/edit/image", s.DeleteImage, auth)
	e.POST("/:id/edit/image/post", s.UploadImage, auth)

	e.POST("/ads/:id", s.Heart, auth)
	e.POST("/ads/:id/contact", s.SendContactRequest, auth)
	e.GET("/:id/ads/contact", s.Contact, auth)
	e.POST("/:id/:adID/request/accept", s.AcceptAdRequest, auth)
	e.POST("/:id/:adID/request/decline", s.DeclineAdRequest, auth)
}

// RegisterAdmin registers the administration pages under /admin.  Every
// request is checked against the backend before reaching a handler.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, users middleware.AccessLookup) {
	admin := e.Group("/admin", middleware.RequireLogin(), middleware.RequireAdmin(users))

	admin.GET("/index", a.Index)
	admin.POST("/delete/:id", a.DeleteUser)

	admin.GET("/countries/all", a.Countries)
	admin.POST("/countries/delete/:id", a.DeleteCountry)
	admin.GET("/add/country", a.AddCountryPage)
	admin.POST("/add/country", a.AddCountry)
	admin.GET("/add/department", a.AddDepartmentPage)
	admin.POST("/add/department", a.AddDepartment)

	admin.GET("/departments/perimeter", a.PerimeterPage)
	admin.POST("/departments/perimeter", a.AddPerimeter)
	admin.GET("/departments/:id", a.Department)
	admin.POST("/departments/delete/:id", a.DeleteDepartment)
	admin.POST("/departments/delete/:id/:other", a.RemoveFromPerimeter)
}
