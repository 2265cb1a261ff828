//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	serverBin  = "./bin/blockcleaner"
	configPath = "configs/blockcleaner.toml"
)

const (
	toolsDir     = "tools/"
	toolsModfile = toolsDir + "go.mod"
	toolsBinDir  = toolsDir + "bin/"
	lintTool     = toolsBinDir + "golangci-lint"
)

func goModDownload() error {
	return sh.Run("go", "mod", "download")
}

// Build builds the blockcleaner binary
func Build() error {
	mg.Deps(goModDownload)
	return sh.Run("go", "build", "-o", serverBin, "./cmd")
}

// Run starts the web front end
func Run() error {
	mg.Deps(Build)
	return sh.Run(serverBin, "serve", "--config", configPath)
}

// Analyze runs one analysis pass and prints the summary
func Analyze() error {
	mg.Deps(Build)
	return sh.Run(serverBin, "analyze", "--config", configPath)
}

func Test() error {
	return sh.Run("go", "test", "-race", "./...")
}

func Lint() error {
	mg.Deps(buildLintTool)
	return sh.Run(lintTool, "run", "./...")
}

func buildLintTool() error {
	return sh.Run(
		"go", "build",
		"-modfile", toolsModfile,
		"-o", lintTool,
		"github.com/golangci/golangci-lint/cmd/golangci-lint",
	)
}
