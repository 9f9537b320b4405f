package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"
)

// credentialCommandTimeout bounds external helpers such as `op read`.
const credentialCommandTimeout = 10 * time.Second

// ResolveValue expands a credential value from the config file or the
// secret store:
//
//	op://vault/item/field  1Password secret via `op read`
//	$(command)             output of a shell command
//	${VAR} or $VAR         environment variable
//
// Anything else is returned trimmed and unchanged.
func ResolveValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "", nil
	case strings.HasPrefix(value, "op://"):
		return readOnePassword(value)
	case strings.HasPrefix(value, "$(") && strings.HasSuffix(value, ")"):
		return runCredentialCommand("sh", "-c", value[2:len(value)-1])
	case strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}"):
		return strings.TrimSpace(os.Getenv(value[2 : len(value)-1])), nil
	case strings.HasPrefix(value, "$"):
		return strings.TrimSpace(os.Getenv(value[1:])), nil
	default:
		return value, nil
	}
}

// readOnePassword accepts op://vault/item/field with an optional
// ?account=name query.
func readOnePassword(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("1password: invalid reference %s: %w", ref, err)
	}
	clean := "op://" + u.Host + u.Path
	args := []string{"read", clean}
	if account := u.Query().Get("account"); account != "" {
		args = append(args, "--account", account)
	}
	v, err := runCredentialCommand("op", args...)
	if err != nil {
		return "", fmt.Errorf("1password: %s: %w", clean, err)
	}
	return v, nil
}

func runCredentialCommand(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), credentialCommandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("credential command failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("credential command failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
