package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	gracefulEnvKey     = "AMA_GRACEFUL"
	gracefulEnvValue   = gracefulEnvKey + "=1"
	gracefulListenerFD = 3
)

// Server wraps http.Server with signal driven shutdown and SIGUSR2 hand-over to a new process.
type Server struct {
	*http.Server

	ShutdownTimeout time.Duration

	listener   net.Listener
	inherited  bool
	signalChan chan os.Signal
	done       chan struct{}
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       defaultReadTimeout,
			ReadHeaderTimeout: defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
		},
		ShutdownTimeout: defaultShutdownTimeout,
		inherited:       os.Getenv(gracefulEnvKey) != "",
		signalChan:      make(chan os.Signal, 1),
		done:            make(chan struct{}),
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then drains in-flight requests.
func (srv *Server) Run(ctx context.Context) error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := srv.listen(addr)
	if err != nil {
		return err
	}
	srv.listener = ln

	signal.Notify(srv.signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)
	defer signal.Stop(srv.signalChan)
	go srv.watch(ctx)

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-srv.done
	return nil
}

func (srv *Server) listen(addr string) (net.Listener, error) {
	if srv.inherited {
		ln, err := net.FileListener(os.NewFile(gracefulListenerFD, ""))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (srv *Server) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			Logger.Info("context cancelled, shutting down HTTP server")
			srv.shutdown()
			return
		case sig := <-srv.signalChan:
			switch sig {
			case syscall.SIGUSR2:
				pid, err := srv.startNewProcess()
				if err != nil {
					Logger.Error("restart failed, continue serving", zap.Error(err))
					continue
				}
				Logger.Info("new process started, closing old server", zap.Int("pid", pid))
			default:
				Logger.Info("received signal, shutting down HTTP server", zap.String("signal", sig.String()))
			}
			srv.shutdown()
			return
		}
	}
}

func (srv *Server) shutdown() {
	defer close(srv.done)
	ctx, cancel := context.WithTimeout(context.Background(), srv.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Logger.Error("HTTP server shutdown error", zap.Error(err))
		return
	}
	Logger.Info("HTTP server shutdown complete")
}

// startNewProcess re-executes the binary and passes the listening socket as fd 3.
func (srv *Server) startNewProcess() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, errors.New("listener is not *net.TCPListener")
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("get listener file: %w", err)
	}
	defer file.Close()

	envs := []string{}
	for _, e := range os.Environ() {
		if e != gracefulEnvValue {
			envs = append(envs, e)
		}
	}
	envs = append(envs, gracefulEnvValue)

	attr := &syscall.ProcAttr{
		Env:   envs,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	}
	pid, err := syscall.ForkExec(os.Args[0], os.Args, attr)
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return pid, nil
}

// GraceServer serves handler on addr until a shutdown signal arrives.
func GraceServer(ctx context.Context, addr string, handler http.Handler) error {
	return NewServer(addr, handler).Run(ctx)
}
