// Package session wires configuration, the connection manager, both
// filesystem domains and the health monitor into one ownership point. GUI or
// CLI collaborators hold a Session and never reach for globals.
package session

import (
	"log/slog"
	"os"

	"github.com/ZanzyTHEbar/assert-lib"

	internal "github.com/ZanzyTHEbar/ftp4you/f4y"
	"github.com/ZanzyTHEbar/ftp4you/f4y/config"
	"github.com/ZanzyTHEbar/ftp4you/f4y/connection"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem"
	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/options"
)

// Session owns the shared connection and the filesystems bound to it.
type Session struct {
	cfg     *config.Config
	manager *connection.Manager
	conn    *connection.Connection
	monitor *connection.Monitor

	localFS  *filesystem.LocalFileSystem
	remoteFS *filesystem.RemoteFileSystem
	logger   *slog.Logger
}

// New builds a session from configuration. The onLoss callback fires once
// when the health monitor detects a dead connection; it may be nil.
func New(cfg *config.Config, onLoss func(connection.LossNotification)) (*Session, error) {
	logger := slog.Default()

	if err := os.MkdirAll(cfg.FTP4You.StagingDir, 0o755); err != nil {
		return nil, err
	}

	assertHandler := assert.NewAssertHandler()
	manager := connection.NewManager(assertHandler,
		connection.WithManagerDialTimeout(cfg.FTP4You.Endpoint.DialTimeout()),
		connection.WithManagerLogger(logger),
	)
	conn := manager.Shared(endpointDetails(cfg))

	fileOpts := options.FileOptions{
		FollowSymlinksForSize:        cfg.FTP4You.Transfer.FollowSymlinksForSize,
		FollowSymlinksForPermissions: cfg.FTP4You.Transfer.FollowSymlinksForPermissions,
	}
	scanOpts := options.DefaultScanOptions()
	scanOpts.IgnoreFile = internal.DefaultIgnoreFileName
	if cfg.FTP4You.Transfer.ScanWorkers > 0 {
		scanOpts.WorkerCount = cfg.FTP4You.Transfer.ScanWorkers
	}
	scanOpts.IgnorePatterns = cfg.FTP4You.Transfer.IgnorePatterns

	return &Session{
		cfg:     cfg,
		manager: manager,
		conn:    conn,
		monitor: connection.NewMonitor(conn, cfg.FTP4You.Monitor.PollInterval(), onLoss),
		localFS: filesystem.NewLocalFileSystem(
			filesystem.WithLocalFileOptions(fileOpts),
			filesystem.WithLocalLogger(logger),
		),
		remoteFS: filesystem.NewRemoteFileSystem(conn,
			filesystem.WithStagingDir(cfg.FTP4You.StagingDir),
			filesystem.WithRemoteFileOptions(fileOpts),
			filesystem.WithRemoteScanOptions(scanOpts),
			filesystem.WithRemoteLogger(logger),
		),
		logger: logger,
	}, nil
}

func endpointDetails(cfg *config.Config) connection.EndpointDetails {
	return connection.EndpointDetails{
		Host:     cfg.FTP4You.Endpoint.Host,
		Port:     cfg.FTP4You.Endpoint.Port,
		User:     cfg.FTP4You.Endpoint.User,
		Password: cfg.FTP4You.Endpoint.Password,
	}
}

// Connection returns the shared connection.
func (s *Session) Connection() *connection.Connection { return s.conn }

// LocalFS returns the local-domain filesystem.
func (s *Session) LocalFS() *filesystem.LocalFileSystem { return s.localFS }

// RemoteFS returns the remote-domain filesystem bound to the shared
// connection.
func (s *Session) RemoteFS() *filesystem.RemoteFileSystem { return s.remoteFS }

// Open connects and logs in the shared connection, then starts the health
// monitor.
func (s *Session) Open() error {
	if _, err := s.conn.Connect(); err != nil {
		return err
	}
	if _, err := s.conn.Login(); err != nil {
		return err
	}
	s.monitor.Start()
	return nil
}

// Close cancels the monitor deliberately (no loss notification) and
// disconnects.
func (s *Session) Close() error {
	s.monitor.Cancel()
	s.monitor.Wait()
	return s.manager.Close()
}

// Monitor returns the health monitor for state queries and restarts.
func (s *Session) Monitor() *connection.Monitor { return s.monitor }

// Temporary hands out a detached connection and a remote filesystem bound to
// it, for background or one-off work isolated from the shared session. The
// caller owns the connection's lifecycle.
func (s *Session) Temporary() (*connection.Connection, *filesystem.RemoteFileSystem) {
	conn := s.manager.Temporary(endpointDetails(s.cfg))
	fs := filesystem.NewRemoteFileSystem(conn,
		filesystem.WithStagingDir(s.cfg.FTP4You.StagingDir),
		filesystem.WithRemoteLogger(s.logger),
	)
	return conn, fs
}
