package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/meowhiks/kbp-app/internal/bells"
	"github.com/meowhiks/kbp-app/internal/bot"
	"github.com/meowhiks/kbp-app/internal/config"
	"github.com/meowhiks/kbp-app/internal/db"
	"github.com/meowhiks/kbp-app/internal/ej"
	"github.com/meowhiks/kbp-app/internal/poller"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "kbp-bot.toml", "путь к файлу настроек")
	rootCmd.AddCommand(runCmd, pollCmd, updatesCmd, linkCmd)
	linkCmd.Flags().StringVar(&linkName, "name", "", "фамилия учащегося в журнале")
	linkCmd.Flags().StringVar(&linkGroup, "group", "", "id группы в журнале")
	linkCmd.Flags().StringVar(&linkBirthDay, "birthday", "", "дата рождения, как в форме входа")
	linkCmd.MarkFlagRequired("name")
	linkCmd.MarkFlagRequired("group")
	linkCmd.MarkFlagRequired("birthday")
}

var rootCmd = &cobra.Command{
	Use:   "kbpbot",
	Short: "Бот уведомлений об изменениях журнала и расписания КБП",
}

// app — собранные вместе зависимости команд.
type app struct {
	cfg     *config.Config
	api     *tgbotapi.BotAPI
	client  *ej.Client
	tracker *bot.Tracker
	orch    *poller.Orchestrator
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	db.InitDB(cfg.DBPath)
	store := db.Store{}

	api, err := bot.New(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("запуск бота: %w", err)
	}
	notifier := bot.NewNotifier(api)
	handler := bot.NewHandler(store, notifier)

	client := ej.NewClient(bells.Default())

	return &app{
		cfg:     cfg,
		api:     api,
		client:  client,
		tracker: bot.NewTracker(api, store, handler.HandleUpdate),
		orch: &poller.Orchestrator{
			Fetcher: client,
			Store:   store,
			Sender:  notifier,
			Delay:   time.Duration(cfg.PollDelayMs) * time.Millisecond,
		},
	}, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Запустить бота: привязки и опрос по расписанию звонков",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		trigger := poller.NewTrigger(
			bells.Default(),
			time.Duration(a.cfg.WindowMinutes)*time.Minute,
			func() {
				// Сначала свежие привязки, потом диффы.
				if _, _, err := a.tracker.Poll(); err != nil {
					log.Printf("Ошибка получения апдейтов: %v", err)
				}
				a.orch.RunBatch(ctx)
			},
		)
		trigger.Run(ctx, time.Duration(a.cfg.TickSeconds)*time.Second)
		return nil
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Выполнить один цикл опроса всех привязанных пользователей",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		results := a.orch.RunBatch(cmd.Context())
		for _, r := range results {
			if r.OK {
				fmt.Printf("%s: ok\n", r.Token)
			} else {
				fmt.Printf("%s: %s\n", r.Token, r.Detail)
			}
		}
		return nil
	},
}

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Забрать и обработать одну пачку апдейтов Telegram",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		received, newOffset, err := a.tracker.Poll()
		if err != nil {
			return err
		}
		fmt.Printf("Получено апдейтов: %d, курсор: %d\n", received, newOffset)
		return nil
	},
}

var (
	linkName     string
	linkGroup    string
	linkBirthDay string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Создать запись привязки и напечатать старт-ссылку",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		cookies, err := a.client.Login(cmd.Context(), linkName, linkGroup, linkBirthDay)
		if err != nil {
			return fmt.Errorf("вход в журнал: %w", err)
		}

		record, err := db.CreateLinkRecord(linkName, linkGroup, linkBirthDay, cookies)
		if err != nil {
			return err
		}

		fmt.Printf("Токен: %s\n", record.Token)
		fmt.Printf("Ссылка: https://t.me/%s?start=%s\n", a.cfg.BotUsername, record.Token)
		return nil
	},
}
