// Command project runs the project service.
package main

import (
	"os"

	"github.com/iliyamo/project-tracker/internal/app"
	"github.com/iliyamo/project-tracker/internal/config"
)

func main() {
	os.Exit(app.Main(config.Project, os.Args[1:]))
}
