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

// Default target when running mage without arguments.
var Default = Build

const wireDir = "./internal/app"

// Build builds the server binary.
func Build() error {
	mg.Deps(Wire)
	fmt.Println("Building server...")
	return sh.Run("go", "build", "-o", "bin/server", "./cmd/server")
}

// Wire regenerates the dependency injection code.
func Wire() error {
	fmt.Println("Running wire...")
	return sh.Run("wire", wireDir)
}

// Test runs the unit tests.
func Test() error {
	fmt.Println("Running tests...")
	return sh.Run("go", "test", "-race", "./...")
}

// TestCover runs the unit tests with coverage.
func TestCover() error {
	fmt.Println("Running tests with coverage...")
	return sh.Run("go", "test", "-cover", "-coverprofile=coverage.out", "./...")
}

// TestIntegration runs the tests that need Postgres and Redis. DATABASE_DSN
// and REDIS_ADDR select the servers.
func TestIntegration() error {
	fmt.Println("Running integration tests...")
	env := map[string]string{"INTEGRATION_TESTS": "1"}
	if os.Getenv("DATABASE_DSN") == "" {
		env["DATABASE_DSN"] = "host=localhost port=5432 user=postgres password=postgres dbname=orderledger_test sslmode=disable"
	}
	return sh.RunWithV(env, "go", "test", "-count=1",
		"./internal/adapter/outbound/postgres/...",
		"./internal/adapter/outbound/redis/...",
	)
}

// Lint runs golangci-lint.
func Lint() error {
	fmt.Println("Running linter...")
	return sh.Run("golangci-lint", "run", "./...")
}

// Vet runs go vet.
func Vet() error {
	fmt.Println("Running go vet...")
	return sh.Run("go", "vet", "./...")
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println("Running go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Clean removes build artifacts.
func Clean() error {
	fmt.Println("Cleaning...")
	if err := os.RemoveAll("bin"); err != nil {
		return err
	}
	_ = os.Remove("coverage.out")
	return nil
}

// CI runs tidy, wire, vet and tests with coverage.
func CI() error {
	mg.SerialDeps(Tidy, Wire, Vet, TestCover)
	return nil
}

// Run builds and starts the server.
func Run() error {
	mg.Deps(Build)
	fmt.Println("Starting server...")
	cmd := exec.Command("./bin/server")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Install installs development tools.
func Install() error {
	fmt.Println("Installing development tools...")
	for _, tool := range []string{
		"github.com/google/wire/cmd/wire@latest",
		"github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
	} {
		fmt.Printf("  Installing %s\n", tool)
		if err := sh.Run("go", "install", tool); err != nil {
			return fmt.Errorf("installing %s: %w", tool, err)
		}
	}
	return nil
}
