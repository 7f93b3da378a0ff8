package middleware

import (
	"github.com/gin-gonic/gin"
)

// InitDataCtxParam holds the raw Telegram Mini App init data of a request.
const InitDataCtxParam = "init_data"

// CaptureInitData stores raw Mini App init data in the context. It is read
// from (in order):
//  1. Header: "X-Telegram-Init-Data"
//  2. Query:  "init_data"
//
// The value is not validated here; consumers validate it against the bot
// token and treat a bad signature as their own failure.
func CaptureInitData() gin.HandlerFunc {
	return func(c *gin.Context) {
		initData := c.GetHeader("X-Telegram-Init-Data")
		if initData == "" {
			initData = c.Query("init_data")
		}
		if initData != "" {
			c.Set(InitDataCtxParam, initData)
		}
		c.Next()
	}
}

// InitData returns the raw init data captured for the request.
func InitData(c *gin.Context) string {
	return c.GetString(InitDataCtxParam)
}
