// Package postgres provides PostgreSQL connection and catalog operations.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/Jumpi96/pana/internal/models"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog"
)

// DefaultPort is the port used when the connection target names none.
// It is the session pooler port, which is reachable over IPv4.
const DefaultPort = 6543

// Service defines the interface for PostgreSQL connection operations.
type Service interface {
	Connect(ctx context.Context, cfg models.DatabaseConfig) (*sql.DB, error)
}

// Resolver allows mocking DNS lookups in tests. *net.Resolver satisfies it.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// OpenFunc opens a database handle for a parsed connection config.
type OpenFunc func(cfg pgx.ConnConfig) *sql.DB

func openPgx(cfg pgx.ConnConfig) *sql.DB {
	return stdlib.OpenDB(cfg)
}

// Impl implements the PostgreSQL Service interface.
type Impl struct {
	resolver Resolver
	open     OpenFunc
	logger   zerolog.Logger
}

// New creates a new PostgreSQL service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		resolver: net.DefaultResolver,
		open:     openPgx,
		logger:   logger,
	}
}

// NewWithDeps creates a new PostgreSQL service with a custom resolver and opener (for testing).
func NewWithDeps(logger zerolog.Logger, resolver Resolver, open OpenFunc) *Impl {
	return &Impl{
		resolver: resolver,
		open:     open,
		logger:   logger,
	}
}

// Connect opens a database handle and verifies it with a ping.
func (s *Impl) Connect(ctx context.Context, cfg models.DatabaseConfig) (*sql.DB, error) {
	connConfig, err := s.ConnConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrConnection, err)
	}

	s.logger.Info().
		Str("host", connConfig.Host).
		Uint16("port", connConfig.Port).
		Str("database", connConfig.Database).
		Bool("prefer_ipv4", cfg.PreferIPv4).
		Msg("connecting to database")

	db := s.open(*connConfig)
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		s.logger.Debug().Err(err).Str("sqlstate", ErrorCode(err)).Msg("database ping failed")
		return nil, fmt.Errorf("%w: failed to reach %s: %w", models.ErrConnection, connConfig.Host, err)
	}

	s.logger.Info().Msg("connected to database successfully")
	return db, nil
}

// ConnConfig builds the pgx connection config for cfg.
func (s *Impl) ConnConfig(cfg models.DatabaseConfig) (*pgx.ConnConfig, error) {
	connString, err := ConnString(cfg)
	if err != nil {
		return nil, err
	}

	connConfig, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.ConnectTimeout > 0 {
		connConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.PreferIPv4 {
		connConfig.LookupFunc = s.lookupIPv4
	}

	return connConfig, nil
}

// ConnString returns a postgres URL for cfg, filling in DefaultPort when the
// target has no explicit port.
func ConnString(cfg models.DatabaseConfig) (string, error) {
	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return "", fmt.Errorf("invalid database url: %w", err)
		}
		if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			return "", fmt.Errorf("invalid database url: unsupported scheme %q", u.Scheme)
		}
		if u.Hostname() == "" {
			return "", fmt.Errorf("invalid database url: missing host")
		}
		if u.Port() == "" {
			u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(DefaultPort))
		}
		return u.String(), nil
	}

	if cfg.Host == "" {
		return "", fmt.Errorf("database host is required")
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:   "/" + cfg.Name,
	}
	if cfg.Username != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			u.User = url.User(cfg.Username)
		}
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{cfg.SSLMode}}.Encode()
	}

	return u.String(), nil
}

// lookupIPv4 resolves host to IPv4 addresses only, falling back to the
// regular lookup when none are found.
func (s *Impl) lookupIPv4(ctx context.Context, host string) ([]string, error) {
	if net.ParseIP(host) != nil {
		return []string{host}, nil
	}

	ips, err := s.resolver.LookupIP(ctx, "ip4", host)
	if err == nil && len(ips) > 0 {
		addrs := make([]string, len(ips))
		for i, ip := range ips {
			addrs[i] = ip.String()
		}
		s.logger.Info().Str("host", host).Str("ipv4", addrs[0]).Msg("resolved host to IPv4")
		return addrs, nil
	}

	s.logger.Warn().Err(err).Str("host", host).Msg("failed to resolve IPv4, using hostname directly")
	return s.resolver.LookupHost(ctx, host)
}
