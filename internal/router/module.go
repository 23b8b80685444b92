package router

import "github.com/gin-gonic/gin"

// Module is a feature slice (auth, profile, admin...) that mounts its routes
// on the /api group. Name shows up in the startup log.
type Module interface {
	Name() string
	Register(rg *gin.RouterGroup)
}
