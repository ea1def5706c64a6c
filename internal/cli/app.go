package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"tts-synth/internal/config"
	"tts-synth/internal/metrics"
	"tts-synth/internal/synth"
	"tts-synth/internal/tts"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Коды завершения процесса
const (
	ExitOK          = 0
	ExitUsage       = 1
	ExitConfig      = 2
	ExitModelLoad   = 3
	ExitSynthesis   = 4
	ExitOutput      = 5
	ExitFailure     = 6
	ExitInterrupted = 130
)

// ConfigLoader загружает конфигурацию. Вызывается после проверки аргументов.
type ConfigLoader func() (*config.Config, error)

// App - синтезатор речи командной строки: один запуск, один файл
type App struct {
	program    string
	loadConfig ConfigLoader
	loadModel  tts.Loader
	logger     *zap.Logger
	level      zap.AtomicLevel
	stdout     io.Writer
}

// NewApp создает приложение. level - уровень логгера, который можно поменять флагом.
func NewApp(program string, loadConfig ConfigLoader, loadModel tts.Loader, logger *zap.Logger, level zap.AtomicLevel, stdout io.Writer) *App {
	return &App{
		program:    program,
		loadConfig: loadConfig,
		loadModel:  loadModel,
		logger:     logger,
		level:      level,
		stdout:     stdout,
	}
}

// overrides - значения флагов, перекрывающие конфигурацию
type overrides struct {
	backend    string
	model      string
	logLevel   string
	gpu        bool
	noMkdir    bool
	noValidate bool
	timeout    time.Duration
}

// Run выполняет команду и возвращает код завершения
func (a *App) Run(ctx context.Context, args []string) int {
	if args == nil {
		// cobra подставляет os.Args при nil
		args = []string{}
	}

	cmd := a.newCommand()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	code := ExitCode(err)

	switch {
	case err == nil:
	case code == ExitUsage:
		fmt.Fprintln(a.stdout, Usage(a.program))
		// Подробности (пустой текст, неизвестный флаг) уходят в лог, stdout - только подсказка
		if err != ErrUsage {
			a.logger.Warn("неверные аргументы", zap.Error(err))
		}
	default:
		a.logger.Error("синтез завершился с ошибкой",
			zap.Error(err),
			zap.Int("exit_code", code))
	}

	return code
}

// ExitCode сопоставляет ошибку с кодом завершения
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, config.ErrInvalid):
		return ExitConfig
	case errors.Is(err, tts.ErrModelLoad):
		return ExitModelLoad
	case errors.Is(err, synth.ErrSynthesis):
		return ExitSynthesis
	case errors.Is(err, synth.ErrOutput):
		return ExitOutput
	default:
		return ExitFailure
	}
}

func (a *App) newCommand() *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:   a.program + " <text> <output_wav>",
		Short: "Синтезирует речь из текста и записывает WAV файл",
		Example: fmt.Sprintf("  %s \"Hello world\" /tmp/out.wav\n  %s -b piper -m en_US-lessac-medium \"Hello\" out/hello.wav",
			a.program, a.program),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Флаги разбираются только перед <text> <output_wav>, иначе текст "-5 градусов"
		// принимается за флаг
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, options, err := ParseArgs(args)
			if err != nil {
				return err
			}
			if err := cmd.Flags().Parse(options); err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}
			if help, _ := cmd.Flags().GetBool("help"); help {
				_ = cmd.Help()
				return ErrUsage
			}
			if extra := cmd.Flags().Args(); len(extra) > 0 {
				a.logger.Warn("лишние аргументы игнорируются", zap.Strings("extra", extra))
			}

			cfg, err := a.loadConfig()
			if err != nil {
				if !errors.Is(err, config.ErrInvalid) {
					err = fmt.Errorf("%w: %w", config.ErrInvalid, err)
				}
				return err
			}
			if err := a.applyOverrides(cmd, cfg, &o); err != nil {
				return err
			}

			return a.synthesize(cmd.Context(), cfg, req)
		},
	}

	cmd.SetOut(a.stdout)

	flags := cmd.Flags()
	flags.StringVarP(&o.backend, "backend", "b", "", "TTS бэкенд: "+strings.Join(config.Backends(), "|")+" (TTS_BACKEND)")
	flags.StringVarP(&o.model, "model", "m", "", "идентификатор модели (TTS_MODEL)")
	flags.BoolVar(&o.gpu, "gpu", false, "использовать аппаратное ускорение (TTS_USE_ACCELERATION)")
	flags.BoolVar(&o.noMkdir, "no-mkdir", false, "не создавать родительские директории выходного файла")
	flags.BoolVar(&o.noValidate, "no-validate", false, "не проверять, что модель вернула WAV")
	flags.StringVar(&o.logLevel, "log-level", "", "уровень логирования: debug|info|warn|error (LOG_LEVEL)")
	flags.DurationVar(&o.timeout, "timeout", 0, "ограничение времени загрузки и синтеза, 0 - без ограничения (TTS_TIMEOUT)")

	return cmd
}

// applyOverrides применяет явно переданные флаги поверх конфигурации
func (a *App) applyOverrides(cmd *cobra.Command, cfg *config.Config, o *overrides) error {
	a.level.SetLevel(config.ParseLogLevel(cfg.App.LogLevel))

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.TTS.Backend = strings.ToLower(strings.TrimSpace(o.backend))
		// Модель из окружения относится к бэкенду из окружения
		if !flags.Changed("model") && cfg.TTS.Model != "" {
			a.logger.Debug("TTS_MODEL сброшен при смене бэкенда флагом", zap.String("model", cfg.TTS.Model))
			cfg.TTS.Model = ""
		}
	}
	if flags.Changed("model") {
		cfg.TTS.Model = o.model
	}
	if flags.Changed("gpu") {
		cfg.TTS.UseAcceleration = o.gpu
	}
	if flags.Changed("no-mkdir") {
		cfg.Output.EnsureParentDir = !o.noMkdir
	}
	if flags.Changed("no-validate") {
		cfg.Output.ValidateWAV = !o.noValidate
	}
	if flags.Changed("timeout") {
		cfg.TTS.Timeout = o.timeout
	}
	if flags.Changed("log-level") {
		cfg.App.LogLevel = o.logLevel
		a.level.SetLevel(config.ParseLogLevel(o.logLevel))
	}

	return config.Validate(cfg)
}

// synthesize загружает модель и синтезирует один файл
func (a *App) synthesize(ctx context.Context, cfg *config.Config, req Request) error {
	if cfg.TTS.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.TTS.Timeout)
		defer cancel()
	}

	m := metrics.New(a.logger, cfg.Metrics)
	defer a.exportMetrics(m)

	started := time.Now()
	model, err := a.loadModel(ctx, &cfg.TTS, a.logger)
	m.RecordModelLoad(cfg.TTS.Backend, err == nil, time.Since(started))
	if err != nil {
		if !errors.Is(err, tts.ErrModelLoad) {
			err = fmt.Errorf("%w: %w", tts.ErrModelLoad, err)
		}
		return err
	}
	if closer, ok := model.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				a.logger.Warn("ошибка закрытия TTS модели", zap.Error(err))
			}
		}()
	}

	s := synth.NewSynthesizer(model, synth.Options{
		EnsureParentDir: cfg.Output.EnsureParentDir,
		ValidateWAV:     cfg.Output.ValidateWAV,
	}, m, a.logger)

	_, err = s.SynthesizeToFile(ctx, req.Text, req.OutputPath)
	return err
}

// exportMetrics выгружает метрики, ошибка выгрузки не влияет на код завершения
func (a *App) exportMetrics(m *metrics.Metrics) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Export(ctx); err != nil {
		a.logger.Warn("метрики не отправлены", zap.Error(err))
	}
}
