package router

import (
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/interfaces/http/handler"
	"github.com/assetflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers is the set of HTTP handlers the API mounts. A nil handler leaves
// its area unmounted.
type Handlers struct {
	Auth         *handler.AuthHandler
	Registration *handler.RegistrationHandler
	Department   *handler.DepartmentHandler
	User         *handler.UserHandler
	Request      *handler.RequestHandler
	Assignment   *handler.AssignmentHandler
	Product      *handler.ProductHandler
	Attachment   *handler.AttachmentHandler
	Report       *handler.ReportHandler
	Activity     *handler.ActivityHandler
	Assistant    *handler.AssistantHandler
	System       *handler.SystemHandler
	Feed         *handler.FeedHandler
}

// RegisterProbes mounts liveness and readiness outside the versioned API
func RegisterProbes(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Live)
	engine.GET("/healthz", system.Live)
	engine.GET("/ready", system.Ready)
}

// APIGroups builds the domain groups of the versioned API. Role guards sit in
// front of staff-only routes; services repeat the check for every caller.
func APIGroups(h Handlers, logger *zap.Logger) []*DomainGroup {
	permCfg := middleware.PermissionConfig{Logger: logger}
	adminOnly := middleware.RequireRoleWithConfig(permCfg, shared.RoleAdmin)
	staff := middleware.RequireRoleWithConfig(permCfg, shared.RoleMonitor, shared.RoleAdmin)

	var groups []*DomainGroup

	if h.System != nil {
		system := NewDomainGroup("system", "")
		system.GET("/health", h.System.Live)
		sys := system.Group("system", "/system")
		sys.GET("/info", h.System.GetSystemInfo)
		sys.GET("/ping", h.System.Ping)
		groups = append(groups, system)
	}

	if h.Auth != nil {
		auth := NewDomainGroup("auth", "/auth")
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", h.Auth.GetCurrentUser)
		auth.PUT("/password", h.Auth.ChangePassword)
		groups = append(groups, auth)
	}

	if h.Registration != nil {
		reg := NewDomainGroup("registrations", "/registrations")
		reg.POST("", h.Registration.Submit)
		reg.GET("", adminOnly, h.Registration.List)
		reg.POST("/:id/decision", adminOnly, h.Registration.Process)
		groups = append(groups, reg)
	}

	if h.Department != nil {
		dept := NewDomainGroup("departments", "/departments")
		dept.POST("", adminOnly, h.Department.Create)
		dept.GET("", h.Department.List)
		dept.DELETE("/:id/monitors/:monitor_id", adminOnly, h.Department.UnassignMonitor)

		links := NewDomainGroup("monitor-links", "/monitor-links").Use(adminOnly)
		links.POST("", h.Department.AssignMonitor)
		links.GET("", h.Department.ListMonitorLinks)
		groups = append(groups, dept, links)
	}

	if h.User != nil {
		users := NewDomainGroup("users", "/users")
		users.GET("", adminOnly, h.User.List)
		users.GET("/:id", h.User.GetByID)
		users.GET("/:id/clearance", h.User.Clearance)
		users.PUT("/:id/role", adminOnly, h.User.ChangeRole)
		users.POST("/:id/deactivate", adminOnly, h.User.Deactivate)
		users.POST("/:id/activate", adminOnly, h.User.Reactivate)
		groups = append(groups, users)
	}

	if h.Request != nil {
		requests := NewDomainGroup("requests", "/requests")
		requests.POST("", h.Request.Submit)
		requests.GET("", h.Request.List)
		requests.GET("/:id", h.Request.GetByID)
		requests.POST("/:id/decision", staff, h.Request.Process)
		requests.POST("/:id/reactivate", h.Request.Reactivate)
		groups = append(groups, requests)
	}

	if h.Assignment != nil {
		assignments := NewDomainGroup("assignments", "/assignments")
		assignments.POST("", staff, h.Assignment.Assign)
		assignments.GET("", h.Assignment.List)
		assignments.GET("/:id", h.Assignment.GetByID)
		assignments.POST("/:id/return", h.Assignment.RequestReturn)
		assignments.POST("/:id/return/decision", staff, h.Assignment.ProcessReturn)
		assignments.POST("/:id/extension", h.Assignment.RequestExtension)
		assignments.POST("/:id/extension/decision", staff, h.Assignment.ProcessExtension)
		groups = append(groups, assignments)
	}

	if h.Product != nil {
		products := NewDomainGroup("products", "/products")
		products.POST("", staff, h.Product.Create)
		products.GET("", h.Product.List)
		products.GET("/categories", h.Product.Categories)
		products.GET("/calibration-due", staff, h.Product.CalibrationDue)
		products.GET("/:id", h.Product.GetByID)
		products.PUT("/:id", staff, h.Product.Update)
		products.DELETE("/:id", staff, h.Product.Delete)
		products.POST("/:id/restock", staff, h.Product.Restock)
		products.POST("/:id/adjust", staff, h.Product.Adjust)
		products.POST("/:id/calibration", staff, h.Product.RecordCalibration)
		products.GET("/:id/history", staff, h.Product.StockHistory)

		if h.Attachment != nil {
			files := products.Group("attachments", "/:id/attachments")
			files.POST("", staff, h.Attachment.Upload)
			files.GET("", h.Attachment.List)
			files.GET("/:attachment_id/url", h.Attachment.DownloadURL)
			files.DELETE("/:attachment_id", staff, h.Attachment.Delete)
		}
		groups = append(groups, products)
	}

	if h.Report != nil {
		reports := NewDomainGroup("reports", "/reports").Use(staff)
		reports.GET("/dashboard", h.Report.Dashboard)
		reports.GET("/overdue", h.Report.Overdue)
		reports.GET("/holdings", h.Report.Holdings)
		reports.GET("/export/outstanding", h.Report.ExportOutstanding)
		reports.GET("/export/ledger", h.Report.ExportLedger)
		groups = append(groups, reports)
	}

	if h.Activity != nil {
		groups = append(groups, NewDomainGroup("activity", "/activity").Use(staff).GET("", h.Activity.List))
	}

	if h.Assistant != nil {
		groups = append(groups, NewDomainGroup("assistant", "/assistant").POST("/ask", h.Assistant.Ask))
	}

	if h.Feed != nil {
		feed := NewDomainGroup("feed", "/feed")
		feed.GET("/stream", h.Feed.Stream)
		feed.GET("/ws", h.Feed.WebSocket)
		groups = append(groups, feed)
	}

	return groups
}
