// Package harnessup bootstraps the development workspace of the Zep evaluation
// harness: it syncs the harness dependencies, materializes the .env file from
// its template and prints onboarding instructions. It also carries the tooling
// used around the harness (parameter grid search, ontology definition, workspace
// checks).
package harnessup

import (
	"github.com/streamingfast/logging"
)

var zlog, _ = logging.PackageLogger("harnessup", "github.com/streamingfast/harnessup")
