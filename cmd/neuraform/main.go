package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/andreazorzetto/yh/highlight"
	"github.com/hokaccha/go-prettyjson"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gopkg.in/yaml.v3"

	"github.com/neuraform/neuraform/conf"
	"github.com/neuraform/neuraform/internal/app"
	"github.com/neuraform/neuraform/internal/build"
	"github.com/neuraform/neuraform/internal/log"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			handleConfigCommand()
			return
		case "version", "--version", "-v":
			showVersion()
			return
		case "help", "--help", "-h":
			showHelp()
			return
		case "build-info":
			showBuildInfo()
			return
		}
	}

	startShell()
}

func showBuildInfo() {
	fmt.Println(build.GetBuildInfo())
}

type logger struct{}

func (l *logger) LogEvent(event fxevent.Event) {
	log.Debug(context.Background(), "fx event", log.Any("event", event))
}

func startShell() {
	app.Run(
		fx.WithLogger(func() fxevent.Logger {
			return &logger{}
		}),
		fx.Provide(conf.Load),
		fx.Invoke(func(lc fx.Lifecycle, shutdowner fx.Shutdowner, shell *app.Shell) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						if err := shell.Run(); err != nil {
							log.Error(context.Background(), "shell run error:", log.Cause(err))
						}

						_ = shutdowner.Shutdown()
					}()

					return nil
				},
			})
		}),
	)
}

func handleConfigCommand() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: neuraform config <preview|validate|get>")
		os.Exit(1)
	}

	switch os.Args[2] {
	case "preview":
		configPreview()
	case "validate":
		configValidate()
	case "get":
		configGet()
	default:
		fmt.Println("Usage: neuraform config <preview|validate|get>")
		os.Exit(1)
	}
}

func configPreview() {
	format := "yml"

	for i := 3; i < len(os.Args); i++ {
		if os.Args[i] == "--format" || os.Args[i] == "-f" {
			if i+1 < len(os.Args) {
				format = os.Args[i+1]
			}
		}
	}

	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var output string

	switch format {
	case "json":
		b, err := prettyjson.Marshal(config)
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}

		output = string(b)
	case "yml", "yaml":
		b, err := yaml.Marshal(config)
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}

		output, err = highlight.Highlight(bytes.NewBuffer(b))
		if err != nil {
			fmt.Printf("Failed to preview config: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unsupported format: %s\n", format)
		os.Exit(1)
	}

	fmt.Println(output)
}

func configValidate() {
	config, err := conf.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	errors := validateConfig(config)

	if len(errors) == 0 {
		fmt.Println("Configuration is valid!")
		return
	}

	fmt.Println("Configuration validation failed:")

	for _, err := range errors {
		fmt.Printf("  - %s\n", err)
	}

	os.Exit(1)
}

func validateConfig(config conf.Config) []string {
	var errors []string

	if config.Name == "" {
		errors = append(errors, "name cannot be empty")
	}

	if config.Log.Name == "" {
		errors = append(errors, "log.name cannot be empty")
	}

	if config.Policy.File == "" {
		errors = append(errors, "policy.file cannot be empty")
	}

	if config.Audit.QueueSize <= 0 {
		errors = append(errors, "audit.queue_size must be positive")
	}

	if config.Router.ProbeTimeout <= 0 {
		errors = append(errors, "router.probe_timeout must be positive")
	}

	return errors
}

func configGet() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: neuraform config get <key>")
		fmt.Println("")
		fmt.Println("Available keys:")
		fmt.Println("  name                  Application name")
		fmt.Println("  log.level             Log level")
		fmt.Println("  policy.file           Policy file path")
		fmt.Println("  policy.watch          Policy file watching")
		fmt.Println("  router.probe_timeout  Backend probe timeout")
		fmt.Println("  audit.queue_size      Audit queue size")
		os.Exit(1)
	}

	key := os.Args[3]

	config, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var value interface{}

	switch key {
	case "name":
		value = config.Name
	case "log.level":
		value = config.Log.Level
	case "log.format":
		value = config.Log.Format
	case "policy.file":
		value = config.Policy.File
	case "policy.watch":
		value = config.Policy.Watch
	case "router.probe_timeout":
		value = config.Router.ProbeTimeout
	case "router.re_probe_cron":
		value = config.Router.ReProbeCron
	case "audit.queue_size":
		value = config.Audit.QueueSize
	default:
		fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
		os.Exit(1)
	}

	fmt.Println(value)
}

func showHelp() {
	fmt.Println("NeuraForm Query Gateway")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  neuraform                  Start the query shell (default)")
	fmt.Println("  neuraform config preview   Preview configuration")
	fmt.Println("  neuraform config validate  Validate configuration")
	fmt.Println("  neuraform config get <key> Get a specific config value")
	fmt.Println("  neuraform version          Show version")
	fmt.Println("  neuraform help             Show this help message")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -f, --format FORMAT       Output format for config preview (yml, json)")
}

func showVersion() {
	fmt.Println(build.Version)
}
