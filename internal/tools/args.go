package tools

import (
	"strings"

	"resort_concierge/internal/app"
)

func intArg(args map[string]any, key string) (int64, bool) {
	return app.AsInt(args[key])
}

func requiredID(args map[string]any, key string) (int64, error) {
	if _, ok := args[key]; !ok {
		return 0, missing(key)
	}
	n, ok := intArg(args, key)
	if !ok || n <= 0 {
		return 0, &ArgError{Arg: key, Reason: "must be a positive integer"}
	}
	return n, nil
}

func limitArg(args map[string]any) int {
	n, _ := intArg(args, "limit")
	return int(n)
}

func strArg(args map[string]any, key string) string {
	return app.ArgString(args[key])
}

// optStr returns nil for absent or blank values.
func optStr(args map[string]any, key string) *string {
	s := strings.TrimSpace(strArg(args, key))
	if s == "" {
		return nil
	}
	return &s
}
