// @title ISTAS21-BR evaluation API
// @version 1.0
// @description Psychosocial risk evaluations: catalog, evaluation sessions, history and company reports.

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import "istas_backend/internal/cli"

func main() {
	cli.Execute()
}
