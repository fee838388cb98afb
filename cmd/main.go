package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/voter-canvass-backend/internal/app"
)

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	// Recovery scan + worker pools (component G, D) start alongside the
	// HTTP server; both run in the same process, the way the teacher runs
	// its worker goroutines inside the API container rather than as a
	// separate binary.
	a.Start()

	port := envString("PORT", "8080")
	fmt.Printf("Server listening on :%s\n", port)
	if err := a.Run(":" + port); err != nil {
		a.Log.Warn("Server failed", "error", err)
	}
}
