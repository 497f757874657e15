package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/openfms/gps-relay/envconfig"
	"github.com/openfms/gps-relay/geo"
	"github.com/openfms/gps-relay/relay"
	"github.com/openfms/gps-relay/server"
	"github.com/openfms/gps-relay/simulator"
	"github.com/openfms/gps-relay/storage"
)

var (
	HostAddress       string
	PortNumber        uint
	BackendBaseURL    string
	NatsAddr          string
	HeartbeatInterval time.Duration
	PollInterval      time.Duration
	ReadTimeout       time.Duration
	KeepAliveIdle     time.Duration
	KeepAliveInterval time.Duration
	KeepAliveCount    int
	AngleFormatName   string

	SimulatorHostAddr string
	SimulatorInterval time.Duration
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("create new logger failed:%v\n", err)
	}
	app := &cli.App{
		Name:  "gpsrelay",
		Usage: "gps fix relay tcp server",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "starts the device relay server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "host",
						Usage:       "host address",
						Value:       "0.0.0.0",
						DefaultText: "0.0.0.0",
						Destination: &HostAddress,
						EnvVars:     []string{"HOST"},
					},
					&cli.UintFlag{
						Name:        "port",
						Usage:       "server port number",
						Value:       12345,
						DefaultText: "12345",
						Aliases:     []string{"p"},
						Destination: &PortNumber,
						EnvVars:     []string{"PORT"},
					},
					&cli.StringFlag{
						Name:        "backend",
						Usage:       "backend base url",
						Destination: &BackendBaseURL,
						EnvVars:     []string{"BACKEND_URL"},
						Required:    true,
					},
					&cli.StringFlag{
						Name:        "nats",
						Usage:       "nats address for fix publishes, empty disables",
						Destination: &NatsAddr,
						EnvVars:     []string{"NATS"},
					},
					&cli.DurationFlag{
						Name:        "heartbeat-interval",
						Usage:       "pulse cadence on the device link",
						Value:       60 * time.Second,
						Destination: &HeartbeatInterval,
						EnvVars:     []string{"HEARTBEAT_INTERVAL"},
					},
					&cli.DurationFlag{
						Name:        "poll-interval",
						Usage:       "backend buzz poll cadence",
						Value:       500 * time.Millisecond,
						Destination: &PollInterval,
						EnvVars:     []string{"POLL_INTERVAL"},
					},
					&cli.DurationFlag{
						Name:        "read-timeout",
						Usage:       "bounded device read timeout",
						Value:       500 * time.Millisecond,
						Destination: &ReadTimeout,
						EnvVars:     []string{"READ_TIMEOUT"},
					},
					&cli.DurationFlag{
						Name:        "keepalive-idle",
						Usage:       "idle time before keepalive probing",
						Value:       30 * time.Second,
						Destination: &KeepAliveIdle,
						EnvVars:     []string{"KEEPALIVE_IDLE"},
					},
					&cli.DurationFlag{
						Name:        "keepalive-interval",
						Usage:       "keepalive probe interval",
						Value:       10 * time.Second,
						Destination: &KeepAliveInterval,
						EnvVars:     []string{"KEEPALIVE_INTERVAL"},
					},
					&cli.IntFlag{
						Name:        "keepalive-count",
						Usage:       "failed keepalive probes before reset",
						Value:       3,
						Destination: &KeepAliveCount,
						EnvVars:     []string{"KEEPALIVE_COUNT"},
					},
					&cli.StringFlag{
						Name:        "angle-format",
						Usage:       "device angle encoding: dm or dms",
						Value:       "dm",
						DefaultText: "dm",
						Destination: &AngleFormatName,
						EnvVars:     []string{"ANGLE_FORMAT"},
					},
				},
				Action: func(ctx *cli.Context) error {
					format, err := geo.ParseFormat(AngleFormatName)
					if err != nil {
						return err
					}
					if HeartbeatInterval <= 0 || PollInterval < 0 || ReadTimeout <= 0 {
						return fmt.Errorf("intervals must be positive")
					}
					listenAddr := net.JoinHostPort(HostAddress, fmt.Sprintf("%d", PortNumber))

					var natsCon *nats.Conn
					if NatsAddr != "" {
						natsCon, err = nats.Connect(NatsAddr)
						if err != nil {
							return err
						}
					}
					backend := relay.NewClient(BackendBaseURL)
					cfg := server.Config{
						ReadTimeout:       ReadTimeout,
						HeartbeatInterval: HeartbeatInterval,
						PollInterval:      PollInterval,
						KeepAliveIdle:     KeepAliveIdle,
						KeepAliveInterval: KeepAliveInterval,
						KeepAliveCount:    KeepAliveCount,
						AngleFormat:       format,
					}

					s := server.NewServer(listenAddr, cfg, backend, natsCon, logger)
					go s.Start()

					sigs := make(chan os.Signal, 1)
					signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
					<-sigs
					s.Stop()
					return nil
				},
			},
			{
				Name:  "storage",
				Usage: "starts the file-backed companion api",
				Action: func(ctx *cli.Context) error {
					envCfg, err := envconfig.ReadStorageServiceEnv()
					if err != nil {
						return err
					}
					store, err := storage.NewFileStore(envCfg.DataDir)
					if err != nil {
						return err
					}
					srv := &http.Server{
						Addr:    net.JoinHostPort(envCfg.Host, envCfg.Port),
						Handler: storage.NewServer(store, logger).Handler(),
					}
					go func() {
						logger.Info("storage api started", zap.String("ListenAddress", srv.Addr))
						if e := srv.ListenAndServe(); e != nil && e != http.ErrServerClosed {
							logger.Error("storage api failed", zap.Error(e))
						}
					}()

					sigs := make(chan os.Signal, 1)
					signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
					<-sigs
					return srv.Close()
				},
			},
			{
				Name:  "simulator",
				Usage: "starts a gps device simulator",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "host",
						Usage:       "relay server address",
						Destination: &SimulatorHostAddr,
						Required:    true,
					},
					&cli.DurationFlag{
						Name:        "interval",
						Usage:       "delay between fixes",
						Value:       5 * time.Second,
						Destination: &SimulatorInterval,
					},
					&cli.StringFlag{
						Name:        "angle-format",
						Usage:       "device angle encoding: dm or dms",
						Value:       "dm",
						DefaultText: "dm",
						Destination: &AngleFormatName,
					},
				},
				Action: func(ctx *cli.Context) error {
					format, err := geo.ParseFormat(AngleFormatName)
					if err != nil {
						return err
					}
					device := simulator.NewGPSDevice(SimulatorHostAddr, format, SimulatorInterval, log.Default())
					if e := device.Connect(); e != nil {
						return e
					}
					go device.SendRandomPositions()
					go device.ListenTokens()

					sigs := make(chan os.Signal, 1)
					signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
					<-sigs
					device.Stop()
					return nil
				},
			},
		},
	}

	if e := app.Run(os.Args); e != nil {
		logger.Error("failed to run app", zap.Error(e))
	}
}
