// Command zkdispatch-ping connects to a ZooKeeper ensemble, submits an
// EXISTS request for a path, and prints the result: config file
// discovery, a signal-aware context, and slog set up by level.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	zk "github.com/Shopify/zk"
	"github.com/ValerySidorin/zkdispatch/client"
	"github.com/ValerySidorin/zkdispatch/internal/wire"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) > 3 {
		log.Fatal("usage: zkdispatch-ping [config.yaml] <path>")
	}
	confPath := ""
	path := "/"
	switch len(os.Args) {
	case 2:
		path = os.Args[1]
	case 3:
		confPath = os.Args[1]
		path = os.Args[2]
	}

	var conf client.Config
	if err := loadConfig(confPath, &conf); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(conf.Log.Level),
	}))

	tracer, shutdownTracing := client.InitTracing(1.0)
	defer shutdownTracing(ctx)

	logger.Info("connecting", "addr", conf.Addr)
	conn, err := client.Connect(ctx, conf.Addr,
		client.WithLogger(logger),
		client.WithMetrics(conf.Metrics.Enabled),
		client.WithWatchDispatch(conf.WatchDispatch),
		client.WithTracer(tracer),
	)
	if err != nil {
		logger.Error("connect", "err", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	reply, err := conn.Submit(ctx, client.RequestPacket{
		Kind:   client.PacketProtocol,
		Opcode: wire.OpExists,
		Body:   wire.ExistsRequest{Path: path, Watch: false},
	})
	if errors.Is(err, zk.ErrNoNode) {
		fmt.Printf("%s does not exist\n", path)
		return
	}
	if err != nil {
		logger.Error("exists", "path", path, "err", err)
		os.Exit(1)
	}

	if resp, ok := reply.Body.(wire.ExistsResponse); ok && resp.Stat != nil {
		fmt.Printf("%s exists, version=%d\n", path, resp.Stat.Version)
		return
	}
	fmt.Printf("%s does not exist\n", path)
}

func parseLogLevel(name string) slog.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadConfig(filePath string, cfg *client.Config) error {
	paths := []string{}
	if filePath == "" {
		paths = append(paths, "./config.yaml", "conf/config.yaml", "config/config.yaml")
	} else {
		paths = append(paths, filePath)
	}

	for _, p := range paths {
		f, err := os.Open(p)
		if err == nil {
			defer f.Close()
			log.Printf("found config file in: %s\n", p)
			data, err := io.ReadAll(f)
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return fmt.Errorf("unmarshal config: %w", err)
			}
			cfg.SetDefaults()
			return nil
		}
	}

	cfg.SetDefaults()
	return nil
}
