package main

// @title           Contest Bot API
// @version         1.0
// @description     Telegram contest publishing, deep-link routing, membership checks and live participant counts.

// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Identity service access token, "Bearer <token>"

// @tag.name contests
// @tag.description Contest publishing, entry conditions and participant count sync

// @tag.name telegram
// @tag.description Telegram bot webhook

func main() {
	Execute()
}
