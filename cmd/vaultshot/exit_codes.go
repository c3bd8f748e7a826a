package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	vaultshot "github.com/alnah/go-vaultshot"
	"github.com/alnah/go-vaultshot/internal/assets"
	"github.com/alnah/go-vaultshot/internal/config"
	"github.com/alnah/go-vaultshot/internal/hints"
	"github.com/alnah/go-vaultshot/internal/pipeline"
	"github.com/alnah/go-vaultshot/internal/vault"
)

// Exit codes for the vaultshot CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every capture stored
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, vault errors
	ExitBrowser = 4 // Browser/Chrome errors
)

// ErrUsage marks command line mistakes.
var ErrUsage = errors.New("invalid usage")

// usageError wraps a flag parse error. --help passes through untouched.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, vaultshot.ErrBrowserConnect) ||
		errors.Is(err, vaultshot.ErrPageCreate) ||
		errors.Is(err, vaultshot.ErrPageLoad) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadNote) ||
		errors.Is(err, ErrWriteDocument) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrOpenVault) ||
		errors.Is(err, vaultshot.ErrStoreIO) ||
		errors.Is(err, vaultshot.ErrResourceLoad) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, vaultshot.ErrEmptyDirectory) ||
		errors.Is(err, vaultshot.ErrInvalidFileName) ||
		errors.Is(err, vault.ErrInvalidPath) ||
		errors.Is(err, pipeline.ErrUnsupportedNote) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, assets.ErrPathTraversal) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns a remediation hint to print after err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, vaultshot.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, vaultshot.ErrPageLoad):
		return hints.ForTimeout()
	case errors.Is(err, ErrOpenVault), errors.Is(err, vaultshot.ErrStoreIO):
		return hints.ForVaultAccess()
	case errors.Is(err, assets.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.Styles())
	case errors.Is(err, pipeline.ErrUnsupportedNote):
		return hints.ForUnsupportedNote()
	}
	return ""
}
