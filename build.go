//go:build ignore

// build.go - consolidator build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: build, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	module     = "github.com/RenanMGX/60737-Consolidar-Dados-Multiplas-Planilhas-Tesouraria"
	sourcePath = "./cmd/consolidator"
)

var (
	rootDir string
	distDir string

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")
}

func main() {
	target := flag.String("target", "build", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	startTime := time.Now()

	switch *target {
	case "build":
		build(runtime.GOOS, runtime.GOARCH, *verbose)
	case "release":
		// the bank workstations run Windows
		build("windows", "amd64", *verbose)
	case "test":
		runTests(*verbose)
	case "clean":
		clean()
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Done in %s", time.Since(startTime).Round(time.Millisecond)))
}

func build(goos, goarch string, verbose bool) {
	exeName := "consolidator"
	if goos == "windows" {
		exeName += ".exe"
	}
	outputPath := filepath.Join(distDir, goos+"_"+goarch, exeName)
	printInfo(fmt.Sprintf("Building %s for %s/%s...", exeName, goos, goarch))

	ldflags := fmt.Sprintf("-s -w -X %[1]s/pkg/contracts.BuildTime=%[2]s -X %[1]s/pkg/contracts.GitCommit=%[3]s",
		module, time.Now().Format(time.RFC3339), gitCommit())

	args := []string{"build"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "-ldflags", ldflags, "-o", outputPath, sourcePath)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), "GOOS="+goos, "GOARCH="+goarch, "CGO_ENABLED=0")
	cmd.Stderr = os.Stderr
	if verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build: %v", err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", outputPath, float64(info.Size())/1024/1024))
	}
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
		return
	}
	printSuccess("Build artifacts cleaned")
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		printWarning("git commit unavailable, using 'unknown'")
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func printInfo(msg string)    { fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg) }
func printSuccess(msg string) { fmt.Printf("%s[OK]%s %s\n", colorGreen, colorReset, msg) }
func printWarning(msg string) { fmt.Printf("%s[WARN]%s %s\n", colorYellow, colorReset, msg) }
func printError(msg string)   { fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg) }

func showHelp() {
	fmt.Println(`Usage: go run build.go [-target=TARGET] [-v]

Targets:
  build    Build consolidator for the current platform (default)
  release  Build consolidator for windows/amd64
  test     Run go test -race ./...
  clean    Remove the dist directory`)
}
