package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/societyhub/internal/app/auth"
	"github.com/yigit/societyhub/internal/middleware"
)

// actorFrom builds the service actor from values set by the auth middleware.
// Anonymous callers get the zero actor.
func actorFrom(ctx *gin.Context) auth.Actor {
	return auth.Actor{
		UserID:  ctx.GetInt64(middleware.ContextUserID),
		IsStaff: ctx.GetBool(middleware.ContextIsStaff),
	}
}
