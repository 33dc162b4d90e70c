//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

// Build compiles roomexport into bin/.
func Build() error {
	fmt.Println("Building...")
	return sh.Run("go", "build", "-o", "./bin/roomexport", "./cmd/roomexport")
}

// Test runs all tests.
func Test() error {
	fmt.Println("Running Tests...")
	return sh.RunV("go", "test", "./...")
}

// Run builds and runs the pipeline on the given sources, e.g.
// mage run data/students.json data/rooms.json json
func Run(students, rooms, format string) error {
	mg.Deps(Build)
	return sh.RunV("./bin/roomexport", students, rooms, format)
}

// Clean removes build output and result files.
func Clean() error {
	fmt.Println("Cleaning...")
	for _, dir := range []string{"bin", "results"} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println("Running go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Check runs fmt and vet.
func Check() error {
	mg.Deps(Fmt, Vet)
	return nil
}

// Fmt runs go fmt ./...
func Fmt() error {
	fmt.Println("Running go fmt...")
	return sh.Run("go", "fmt", "./...")
}

// Vet runs go vet ./...
func Vet() error {
	fmt.Println("Running go vet...")
	return sh.Run("go", "vet", "./...")
}
