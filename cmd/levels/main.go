// cmd/levels/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"key-level-engine/application/bootstrap"
	"key-level-engine/internal/core/domain/analysis/key_levels"
	"key-level-engine/internal/infrastructure/config"
	"key-level-engine/pkg/logger"
	"key-level-engine/pkg/period"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

const appName = "levels"

var version = "dev"

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Детектор ключевых уровней поддержки и сопротивления",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Путь к .env файлу")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Периодический пересчёт уровней с публикацией в Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(envFile)
		},
	}

	var strengthOrder bool
	detectCmd := &cobra.Command{
		Use:   "detect",
		Short: "Один проход детекции и вывод уровней",
		RunE: func(cmd *cobra.Command, args []string) error {
			order := key_levels.OrderDetection
			if strengthOrder {
				order = key_levels.OrderStrength
			}
			return detectOnce(envFile, order)
		},
	}
	detectCmd.Flags().BoolVar(&strengthOrder, "by-strength", true, "Сортировать уровни по силе")

	var symbol, timeframe, input string
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Загрузка баров (JSON lines) в таблицу market_data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ingestBars(envFile, symbol, timeframe, input)
		},
	}
	ingestCmd.Flags().StringVar(&symbol, "symbol", "", "Символ")
	ingestCmd.Flags().StringVar(&timeframe, "timeframe", "1h", "Таймфрейм")
	ingestCmd.Flags().StringVar(&input, "file", "-", "Файл с барами, - для stdin")
	_ = ingestCmd.MarkFlagRequired("symbol")

	rootCmd.AddCommand(runCmd, detectCmd, ingestCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func setup(envFile string) (*config.Config, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := logger.InitGlobal(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Debug); err != nil {
		return nil, fmt.Errorf("не удалось инициализировать логгер: %w", err)
	}
	return cfg, nil
}

func runEngine(envFile string) error {
	cfg, err := setup(envFile)
	if err != nil {
		return err
	}
	cfg.PrintSummary()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrap.NewApplication(cfg)
	if err := app.Run(ctx); err != nil {
		app.Stop()
		return err
	}

	logger.Info("🚀 %s %s запущен, Ctrl+C для остановки", appName, version)
	<-ctx.Done()

	logger.Info("🛑 Получен сигнал остановки")
	app.Stop()
	return nil
}

func detectOnce(envFile string, order key_levels.Order) error {
	cfg, err := setup(envFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrap.NewApplication(cfg)
	defer app.Stop()

	passErr := app.RunOnce(ctx)
	if engine := app.Engine(); engine != nil {
		for _, reg := range engine.Registries() {
			printLevels(reg, order)
		}
	}
	return passErr
}

func ingestBars(envFile, symbol, timeframe, input string) error {
	if !period.IsValidPeriod(timeframe) {
		return fmt.Errorf("неизвестный таймфрейм %q", timeframe)
	}
	cfg, err := setup(envFile)
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	bars, err := decodeBars(r)
	if err != nil {
		return err
	}

	app := bootstrap.NewApplication(cfg)
	defer app.Stop()

	n, err := app.IngestBars(context.Background(), strings.ToUpper(symbol), timeframe, bars)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Загружено %d новых баров из %d\n", n, len(bars))
	return nil
}

// decodeBars читает поток JSON-объектов бара
func decodeBars(r io.Reader) ([]key_levels.Bar, error) {
	var bars []key_levels.Bar
	dec := json.NewDecoder(r)
	for {
		var bar key_levels.Bar
		err := dec.Decode(&bar)
		if errors.Is(err, io.EOF) {
			return bars, nil
		}
		if err != nil {
			return nil, fmt.Errorf("бар #%d: %w", len(bars)+1, err)
		}
		bars = append(bars, bar)
	}
}

func printLevels(reg *key_levels.Registry, order key_levels.Order) {
	cfg := reg.Config()
	pass := reg.LastPass()

	fmt.Printf("\n📐 %s %s", cfg.Symbol, cfg.Timeframe)
	if reg.State() == key_levels.StateEmpty {
		fmt.Printf(": нет данных\n")
		return
	}
	fmt.Printf(" (проход %s, кандидатов %d, зона %.6f)\n", pass.PassID, pass.Candidates, pass.TouchZone)

	for _, level := range reg.All(order) {
		side := "S"
		if level.IsResistance {
			side = "R"
		}
		volume := ""
		if level.VolumeConfirmed {
			volume = fmt.Sprintf(" vol×%.1f", level.VolumeRatio)
		}
		fmt.Printf("   %s %.5f  сила %.2f  касаний %d  последнее %s%s\n",
			side, level.Price, level.Strength, level.TouchCount,
			level.LastTouchTime.Format("2006-01-02 15:04"), volume)
	}
	for _, w := range pass.Warnings {
		fmt.Printf("   ⚠️ %s\n", w.Error())
	}
}
