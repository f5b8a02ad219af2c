package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/chatroom/presence-api/cmd/app"
)

// @title          Chat room presence API
// @version        1.0
// @description    Participants register, chat publicly or privately, heartbeat their presence and are evicted when idle.
// @termsOfService http://swagger.io/terms/
//
// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @externalDocs.description  OpenAPI
// @externalDocs.url          https://swagger.io/resources/open-api/
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
