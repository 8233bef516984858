// Package bot implements the Telegram front-end: users send a T-Bank CSV
// statement as a document, pick a rules file from an inline keyboard and get
// the converted XLSX back.
package bot

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
	"github.com/spf13/cobra"

	"tbank-xlsx/cmd/root"
	"tbank-xlsx/internal/config"
	"tbank-xlsx/internal/logging"
	"tbank-xlsx/internal/pipeline"
	"tbank-xlsx/internal/rules"
)

// Cmd represents the bot command
var Cmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot front-end",
	Long: `Run a long-polling Telegram bot that converts T-Bank CSV statements sent
as documents. Access is restricted to the configured allow-list of user IDs.`,
	Run: botFunc,
}

func botFunc(cmd *cobra.Command, args []string) {
	logger := logging.NewLogrusAdapterFromLogger(root.Log)
	b, err := New(root.Cfg, logger)
	if err != nil {
		root.Log.Fatalf("Failed to start bot: %v", err)
	}
	b.Run()
}

// Bot wires the Telegram API to the conversion pipeline. Updates are handled
// sequentially from the polling channel; pendingFiles carries the per-chat
// state between the document upload and the rules selection.
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          *config.Config
	allowed      map[int64]struct{}
	rulesCache   *cache.Cache
	pendingFiles map[int64]string
	tempDir      string
	logger       logging.Logger
}

// New creates a Bot from the application configuration. The token comes from
// the BOT_TOKEN environment variable.
func New(cfg *config.Config, logger logging.Logger) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("error connecting to Telegram: %w", err)
	}

	tempDir := cfg.Bot.TempDir
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "tbank-xlsx-bot")
	}
	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("error creating temp directory: %w", err)
	}

	allowed := make(map[int64]struct{})
	for _, id := range cfg.AllowedUserIDs() {
		allowed[id] = struct{}{}
	}

	return &Bot{
		api:     api,
		cfg:     cfg,
		allowed: allowed,
		// Loaded rules configs are immutable, so sharing cached instances
		// between conversions is safe.
		rulesCache:   cache.New(30*time.Minute, 10*time.Minute),
		pendingFiles: make(map[int64]string),
		tempDir:      tempDir,
		logger:       logger,
	}, nil
}

// Run starts long polling and blocks until the process is stopped.
func (b *Bot) Run() {
	b.logger.WithField("account", b.api.Self.UserName).Info("Bot authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	for update := range b.api.GetUpdatesChan(u) {
		switch {
		case update.Message != nil:
			b.handleMessage(update.Message)
		case update.CallbackQuery != nil:
			b.handleCallback(update.CallbackQuery)
		}
	}
}

func (b *Bot) isAllowed(userID int64) bool {
	if len(b.allowed) == 0 {
		return true
	}
	_, ok := b.allowed[userID]
	return ok
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if !b.isAllowed(msg.From.ID) {
		b.logger.WithField("user_id", msg.From.ID).Warn("Rejected message from unauthorized user")
		if msg.IsCommand() {
			b.reply(msg.Chat.ID, fmt.Sprintf(
				"❌ <b>Доступ ограничен</b>\n\nВаш ID: <code>%d</code>\nПередайте этот ID администратору для добавления в список разрешенных.",
				msg.From.ID))
		}
		return
	}

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.reply(msg.Chat.ID,
			"👋 <b>Привет! Я конвертер выписок Т-Банка</b>\n\n"+
				"Я превращаю CSV-выписку в XLSX-файл с двойной записью для Google Таблиц.\n\n"+
				"📥 <b>Просто пришлите CSV-файл</b>, и мы начнем!")
	case msg.Document != nil:
		b.handleDocument(msg)
	}
}

func (b *Bot) handleDocument(msg *tgbotapi.Message) {
	if !strings.HasSuffix(strings.ToLower(msg.Document.FileName), ".csv") {
		b.reply(msg.Chat.ID, "⚠️ <b>Пожалуйста, пришлите файл в формате CSV</b>")
		return
	}

	localPath := filepath.Join(b.tempDir, fmt.Sprintf("%d_%s", msg.From.ID, filepath.Base(msg.Document.FileName)))
	if err := b.downloadDocument(msg.Document.FileID, localPath); err != nil {
		b.logger.WithError(err).Error("Failed to download document")
		b.reply(msg.Chat.ID, "❌ Не удалось скачать файл, попробуйте еще раз.")
		return
	}
	b.pendingFiles[msg.Chat.ID] = localPath

	keyboard, err := b.rulesKeyboard()
	if err != nil {
		b.logger.WithError(err).Error("Failed to list rules files")
		b.reply(msg.Chat.ID, "❌ Не найдено ни одного файла с правилами.")
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, "📋 <b>Файл получен!</b>\nВыберите конфигурацию правил:")
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyMarkup = keyboard
	if _, err := b.api.Send(out); err != nil {
		b.logger.WithError(err).Error("Failed to send rules keyboard")
	}
}

func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			b.logger.WithError(err).Warn("Failed to answer callback")
		}
	}()

	if cq.Message == nil || cq.From == nil || !b.isAllowed(cq.From.ID) {
		return
	}
	if !strings.HasPrefix(cq.Data, "rules:") {
		return
	}
	rulesName := strings.TrimPrefix(cq.Data, "rules:")
	chatID := cq.Message.Chat.ID

	inputPath, ok := b.pendingFiles[chatID]
	if !ok {
		b.reply(chatID, "❌ Ошибка: данные файла не найдены, пришлите CSV еще раз.")
		return
	}
	delete(b.pendingFiles, chatID)
	outputPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".xlsx"

	edit := tgbotapi.NewEditMessageText(chatID, cq.Message.MessageID,
		fmt.Sprintf("⏳ Обработка… (правила: %s)", rulesName))
	if _, err := b.api.Send(edit); err != nil {
		b.logger.WithError(err).Warn("Failed to edit status message")
	}

	defer func() {
		_ = os.Remove(inputPath)
		_ = os.Remove(outputPath)
	}()

	cfg, err := b.loadRules(filepath.Join(b.cfg.Rules.Dir, rulesName))
	if err != nil {
		b.logger.WithError(err).Error("Failed to load rules")
		b.reply(chatID, fmt.Sprintf("❌ <b>Ошибка в правилах:</b>\n<code>%v</code>", err))
		return
	}

	if _, err := pipeline.New(cfg, b.logger).Run(inputPath, outputPath, pipeline.FormatXLSX); err != nil {
		b.logger.WithError(err).Error("Conversion failed")
		b.reply(chatID, fmt.Sprintf("❌ <b>Ошибка при конвертации:</b>\n<code>%v</code>", err))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(outputPath))
	doc.Caption = fmt.Sprintf("✅ Готово! Правила: %s", rulesName)
	if _, err := b.api.Send(doc); err != nil {
		b.logger.WithError(err).Error("Failed to send result document")
	}
}

// loadRules loads a rules file through the cache.
func (b *Bot) loadRules(path string) (*rules.Config, error) {
	if cached, ok := b.rulesCache.Get(path); ok {
		return cached.(*rules.Config), nil
	}
	cfg, err := rules.Load(path)
	if err != nil {
		return nil, err
	}
	b.rulesCache.Set(path, cfg, cache.DefaultExpiration)
	return cfg, nil
}

// rulesKeyboard builds an inline keyboard with one button per rules file in
// the configured rules directory.
func (b *Bot) rulesKeyboard() (tgbotapi.InlineKeyboardMarkup, error) {
	matches, err := filepath.Glob(filepath.Join(b.cfg.Rules.Dir, "*.yaml"))
	if err != nil || len(matches) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("no rules files in %s", b.cfg.Rules.Dir)
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, match := range matches {
		name := filepath.Base(match)
		label := strings.TrimSuffix(name, filepath.Ext(name))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ "+label, "rules:"+name)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), nil
}

func (b *Bot) downloadDocument(fileID, localPath string) error {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return fmt.Errorf("error resolving file URL: %w", err)
	}

	resp, err := http.Get(url) // #nosec G107 -- URL comes from the Telegram API
	if err != nil {
		return fmt.Errorf("error downloading file: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			b.logger.WithError(err).Warn("Failed to close response body")
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status downloading file: %s", resp.Status)
	}

	out, err := os.Create(localPath) // #nosec G304 -- path is built from the user ID inside our temp dir
	if err != nil {
		return fmt.Errorf("error creating local file: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			b.logger.WithError(err).Warn("Failed to close local file")
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).Error("Failed to send message")
	}
}
