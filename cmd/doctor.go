package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/healtfolio/healtfolio/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("healtfolio doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults + env)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  OpenAI:")
	checkItem("API key", cfg.OpenAI.APIKey != "")
	fmt.Printf("    %-12s %s\n", "Model:", cfg.OpenAI.Model)

	fmt.Println()
	fmt.Println("  WhatsApp:")
	fmt.Printf("    %-12s %s\n", "Provider:", cfg.WhatsApp.Provider)
	checkItem("Twilio", cfg.WhatsApp.Twilio.Configured())
	checkItem("Evolution", cfg.WhatsApp.Evolution.Configured())

	fmt.Println()
	fmt.Println("  Directory:")
	checkItem("Sheets key", cfg.Directory.APIKey != "")
	checkItem("Sheet ID", cfg.Directory.SheetID != "")
	fmt.Printf("    %-12s %s / %s\n", "Tabs:", cfg.Directory.Tab, cfg.Directory.AllowedUsersTab)

	fmt.Println()
	fmt.Println("  Memory:")
	if cfg.Memory.RedisURL == "" {
		fmt.Printf("    %-12s RAM (no redis url configured)\n", "Backend:")
	} else if err := pingRedis(cfg.Memory.RedisURL); err != nil {
		fmt.Printf("    %-12s redis CONNECT FAILED (%s)\n", "Backend:", err)
	} else {
		fmt.Printf("    %-12s redis (OK)\n", "Backend:")
	}

	fmt.Println()
	fmt.Println("  Batching:")
	fmt.Printf("    %-12s %ds idle window, %d fragment cap\n", "Scheduler:",
		cfg.Batch.IdleWindowSeconds, cfg.Batch.MaxBatch)
}

func checkItem(name string, ok bool) {
	status := "MISSING"
	if ok {
		status = "OK"
	}
	fmt.Printf("    %-12s %s\n", name+":", status)
}

func pingRedis(redisURL string) error {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}
