package api

import (
	"github.com/prevozkop/backend/config"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(cfg *config.Config, deps Dependencies) *routeHandlers {
	db := deps.Database
	return &routeHandlers{
		healthHandler:  newHealthHandler(cfg.Debug),
		authHandler:    newAuthHandler(db.AdminRepo(), deps.Sessions, cfg.BcryptCost, cfg.Debug),
		projectHandler: newProjectHandler(db.ProjectRepo(), db.ProjectMediaRepo(), deps.Projects, deps.Metrics, cfg.Debug),
		productHandler: newProductHandler(db.ProductRepo(), deps.Products, deps.Metrics, cfg.Debug),
		orderHandler:   newOrderHandler(db.OrderRepo(), deps.Notifier, deps.Metrics, cfg.Debug),
	}
}
