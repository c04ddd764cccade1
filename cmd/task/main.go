// Command task runs the task service.
package main

import (
	"os"

	"github.com/iliyamo/project-tracker/internal/app"
	"github.com/iliyamo/project-tracker/internal/config"
)

func main() {
	os.Exit(app.Main(config.Task, os.Args[1:]))
}
