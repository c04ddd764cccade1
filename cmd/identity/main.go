// Command identity runs the identity service.
package main

import (
	"os"

	"github.com/iliyamo/project-tracker/internal/app"
	"github.com/iliyamo/project-tracker/internal/config"
)

func main() {
	os.Exit(app.Main(config.Identity, os.Args[1:]))
}
