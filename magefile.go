//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary      = "bin/labportal"
	coverFile   = "coverage.out"
	swagOutDir  = "./cmd/server/docs"
	swagSources = "./cmd/server,./internal/adapter/inbound/http/portal,./internal/domain,./internal/model,./internal/utils"
)

// Default target when running mage without arguments.
var Default = Build

// Build compiles the server into bin/.
func Build() error {
	mg.Deps(Generate)
	fmt.Println("==> build", binary)
	return sh.Run("go", "build", "-o", binary, "./cmd/server")
}

// Generate regenerates the wire injector and the swagger docs.
func Generate() {
	mg.Deps(Wire, Swagger)
}

// Wire regenerates internal/app/wire_gen.go.
func Wire() error {
	fmt.Println("==> wire")
	return sh.Run("wire", "gen", "./internal/app")
}

// Swagger regenerates the OpenAPI docs served under /swagger.
func Swagger() error {
	fmt.Println("==> swag")
	return sh.Run("swag", "init",
		"-g", "docs.go",
		"-d", swagSources,
		"-o", swagOutDir,
		"--parseInternal",
	)
}

// Test runs the unit tests. Postgres adapter tests run only when
// LABPORTAL_TEST_DATABASE_DSN is set.
func Test() error {
	fmt.Println("==> test")
	return sh.RunV("go", "test", "-race", "./...")
}

// Cover runs the tests and writes a coverage profile.
func Cover() error {
	fmt.Println("==> cover", coverFile)
	return sh.RunV("go", "test", "-race", "-covermode=atomic", "-coverprofile="+coverFile, "./...")
}

// Lint runs golangci-lint and go vet.
func Lint() error {
	fmt.Println("==> lint")
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Tidy syncs go.mod and go.sum.
func Tidy() error {
	return sh.Run("go", "mod", "tidy")
}

// Clean removes build and coverage output.
func Clean() error {
	fmt.Println("==> clean")
	_ = os.Remove(coverFile)
	return os.RemoveAll("bin")
}

// CI is what the pipeline runs.
func CI() {
	mg.SerialDeps(Tidy, Generate, Lint, Cover)
}

// Dev builds and starts the server against the in-memory store.
func Dev() error {
	mg.Deps(Build)
	cmd := exec.Command(binary)
	cmd.Env = append(os.Environ(), "LABPORTAL_STORE_BACKEND=memory")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Tools installs the code generators and linter.
func Tools() error {
	for _, tool := range []string{
		"github.com/google/wire/cmd/wire@latest",
		"github.com/swaggo/swag/cmd/swag@latest",
		"github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
	} {
		fmt.Println("==> install", tool)
		if err := sh.Run("go", "install", tool); err != nil {
			return fmt.Errorf("install %s: %w", tool, err)
		}
	}
	return nil
}
