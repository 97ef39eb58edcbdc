// File: cmd/version.go
package cmd

// Version is set at build time:
// go build -ldflags "-X github.com/xkilldash9x/formpilot-cli/cmd.Version=1.2.0"
var Version = "dev"
