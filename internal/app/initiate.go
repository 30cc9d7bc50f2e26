package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sethvargo/go-retry"
	"github.com/watarui/wauth/internal/pkg/clock"
	"github.com/watarui/wauth/internal/pkg/config"
	"github.com/watarui/wauth/internal/pkg/goroutine"
	"github.com/watarui/wauth/internal/pkg/idempotency"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/pkg/jwt"
	"github.com/watarui/wauth/internal/pkg/messaging"
	"github.com/watarui/wauth/internal/pkg/otp"
	"github.com/watarui/wauth/internal/pkg/router"
	"github.com/watarui/wauth/internal/pkg/uid"
	"github.com/watarui/wauth/internal/pkg/validator"
	"github.com/watarui/wauth/internal/vault/inbound"
	"github.com/watarui/wauth/internal/vault/outbound/store"
	"google.golang.org/api/option"
)

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, struct {
		name string
		fn   func(context.Context) error
	}{name: name, fn: fn})
}

// LoadConfig resolves configuration the same way New does.
func LoadConfig(opts Options) (*config.Viper, error) {
	cfg, err := config.Load(config.LoadOptions{
		Path:      opts.ConfigPath,
		Watch:     opts.Server,
		Overrides: opts.Overrides,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init config: %w", err)
	}
	return cfg, nil
}

func (a *App) initConfig() error {
	cfg, err := LoadConfig(a.opts)
	if err != nil {
		return err
	}

	a.config = cfg
	a.addCloser("Config", func(context.Context) error { return a.config.Close() })

	return nil
}

func (a *App) initInstrument() error {
	levelKey, out := "app.log_level", a.opts.LogOutput
	if a.opts.Server {
		levelKey = "server.log_level"
		if out == nil {
			out = os.Stdout
		}
	} else if out == nil {
		out = os.Stderr
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.config.GetString(levelKey))); err != nil {
		return fmt.Errorf("failed to parse %s: %w", levelKey, err)
	}

	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("app.name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("app.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         level,
		LogOutput:        out,
	})
	if err != nil {
		return fmt.Errorf("failed to init instrumentation: %w", err)
	}

	a.ins = ins
	a.addCloser("Instrument", a.ins.Shutdown)

	return nil
}

func (a *App) initLibraries() error {
	a.clock = a.opts.Clock
	if a.clock == nil {
		a.clock = clock.New()
	}
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.max_goroutine"))
	a.totp = otp.NewTOTP(a.config.GetString("vault.issuer"))

	v, err := validator.NewV10Validator()
	if err != nil {
		return fmt.Errorf("failed to init validation v10 validator: %w", err)
	}
	a.validator = v

	snow, err := uid.NewSnowflake()
	if err != nil {
		return fmt.Errorf("failed to init uid number snowflake: %w", err)
	}
	a.uid = snow

	return nil
}

func (a *App) initJWT() error {
	if !a.config.GetBool("auth.enabled") {
		return nil
	}

	signer, err := NewSigner(a.config, a.clock)
	if err != nil {
		return err
	}

	a.jwt = signer
	return nil
}

// NewSigner builds the HS512 token signer from the auth.* settings.
func NewSigner(cfg config.Config, clk clock.Clocker) (jwt.JWT, error) {
	if err := cfg.Require("auth.secret"); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(cfg.GetString("auth.secret")),
		Issuer:    cfg.GetString("auth.issuer"),
		Audiences: cfg.GetArray("auth.audience"),
		TTL:       cfg.GetMinute("auth.ttl"),
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init jwt token: %w", err)
	}

	return signer, nil
}

func (a *App) initStore() error {
	st, err := store.New(a.ctx, a.config, a.ins)
	if err != nil {
		return fmt.Errorf("failed to init store: %w", err)
	}
	a.store = st
	a.addCloser("Store", func(context.Context) error { return a.store.Close() })

	if a.opts.Server {
		if err := a.waitStore(); err != nil {
			return fmt.Errorf("failed to reach store: %w", err)
		}
	}

	if pg, ok := st.(*store.Postgres); ok && a.config.GetBool("store.postgres.migrate") {
		ctx, cancel := context.WithTimeout(a.ctx, a.config.GetSecond("store.timeout"))
		defer cancel()
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate postgres store: %w", err)
		}
	}

	return nil
}

// waitStore pings the store with a Fibonacci backoff so the server can start
// alongside its database.
func (a *App) waitStore() error {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	b = retry.WithMaxRetries(uint64(max(a.config.GetInt("store.ready_retries"), 0)), b)

	return retry.Do(a.ctx, b, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, a.config.GetSecond("store.timeout"))
		defer cancel()

		if err := a.store.Ping(ctx); err != nil {
			slog.Warn("store not ready", "driver", a.config.GetString("store.driver"), "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (a *App) initMessaging() error {
	driver := a.config.GetString("events.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("events.nsq.producer_addr"),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				if d := a.config.GetSecond("events.nsq.dial_timeout_seconds"); d > 0 {
					cfg.DialTimeout = d
				}
				if d := a.config.GetSecond("events.nsq.write_timeout_seconds"); d > 0 {
					cfg.WriteTimeout = d
				}
				return cfg
			}(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers:                a.config.GetArray("events.kafka.brokers"),
			WriteTimeout:           a.config.GetSecond("events.kafka.write_timeout_seconds"),
			AllowAutoTopicCreation: a.config.GetBool("events.kafka.allow_auto_topic_creation"),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("events.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("app.name")),
				nats.MaxReconnects(a.config.GetInt("events.nats.max_reconnects")),
				nats.Timeout(max(a.config.GetSecond("events.nats.timeout_seconds"), time.Second)),
				nats.RetryOnFailedConnect(a.config.GetBool("events.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID: a.config.GetString("events.pubsub.project_id"),
			ClientOptions: func() []option.ClientOption {
				var opts []option.ClientOption
				if v := strings.TrimSpace(a.config.GetString("events.pubsub.credentials_file")); v != "" {
					opts = append(opts, option.WithCredentialsFile(v))
				}
				if v := strings.TrimSpace(a.config.GetString("events.pubsub.endpoint")); v != "" {
					opts = append(opts, option.WithEndpoint(v), option.WithoutAuthentication())
				}
				return opts
			}(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to init messaging driver %q: %w", driver, err)
	}

	a.messaging = client
	a.addCloser("Messaging", func(context.Context) error { return a.messaging.Close() })

	return nil
}

// initIdempotency connects the Idempotency-Key state store. It is only
// used by the HTTP server and stays off without server.idempotency.redis_url.
func (a *App) initIdempotency() error {
	url := a.config.GetString("server.idempotency.redis_url")
	if !a.opts.Server || url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("failed to parse server.idempotency.redis_url: %w", err)
	}
	client := redis.NewClient(opt)
	a.addCloser("Idempotency", func(context.Context) error { return client.Close() })

	a.idempotency = idempotency.New(client, idempotency.Options{
		LockDuration: a.config.GetSecond("server.idempotency.lock_seconds"),
		StateTTL:     a.config.GetSecond("server.idempotency.ttl_seconds"),
	})

	return nil
}

func (a *App) initHTTPServer() error {
	if !a.opts.Server {
		return nil
	}

	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("server.cors.allowed_origins"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", router.HeaderCorrelationID, inbound.HeaderIdempotencyKey},
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("server.read_timeout"),
		ReadHeaderTimeout: a.config.GetSecond("server.read_timeout"),
		WriteTimeout:      a.config.GetSecond("server.write_timeout"),
		IdleTimeout:       a.config.GetSecond("server.idle_timeout"),
	}

	return nil
}
