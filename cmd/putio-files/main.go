// putio-files - command line access to put.io files
//
// Sub-commands:
//
//	putio-files ls [flags] [parent-id]          List a folder (default: root)
//	putio-files info [flags] <id>               Show a file, its resume position and HLS URL
//	putio-files hls [flags] <id>                Print the HLS playlist URL
//	putio-files rename [flags] <id> <name>      Rename a file
//	putio-files mv [flags] <parent-id> <id>...  Move files into a folder
//	putio-files rm [flags] <id>...              Delete files
//	putio-files watch [flags] [parent-id]       Poll a folder and report changes
//	putio-files sandbox [flags]                 Serve an in-memory API for local testing
//
// The token is read from -token, PUTIO_TOKEN, or prompted for when stdin is
// a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/fruitsalade/putio/internal/config"
	"github.com/fruitsalade/putio/internal/logging"
	"github.com/fruitsalade/putio/internal/metrics"
	"github.com/fruitsalade/putio/pkg/client"
	"github.com/fruitsalade/putio/pkg/files"
	"github.com/fruitsalade/putio/pkg/mock"
	"github.com/fruitsalade/putio/pkg/models"
	"github.com/fruitsalade/putio/pkg/retry"
	"github.com/fruitsalade/putio/pkg/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	logging.Sync()
	os.Exit(code)
}

type command func(ctx context.Context, env *cliEnv, args []string) error

var commands = map[string]command{
	"ls":      cmdList,
	"info":    cmdInfo,
	"hls":     cmdHLS,
	"rename":  cmdRename,
	"mv":      cmdMove,
	"rm":      cmdDelete,
	"watch":   cmdWatch,
	"sandbox": cmdSandbox,
}

// errUsage marks argument errors; they exit with status 2.
var errUsage = errors.New("usage")

// cliEnv is the state shared by every sub-command.
type cliEnv struct {
	name   string
	cfg    *config.Config
	flags  *flag.FlagSet
	stdout io.Writer
	stderr io.Writer
	log    *zap.Logger
	svc    *files.Service
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Token, "token", cfg.Token, "put.io OAuth token (default $PUTIO_TOKEN)")
	fs.StringVar(&cfg.APIBase, "server", cfg.APIBase, "API base URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request timeout")
	fs.IntVar(&cfg.RetryAttempts, "retries", cfg.RetryAttempts, "Attempts for read requests")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Serve Prometheus metrics on this address (watch only)")

	env := &cliEnv{name: args[0], cfg: cfg, flags: fs, stdout: stdout, stderr: stderr}

	err = cmd(ctx, env, args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage: putio-files <command> [flags] [args]

Commands:
  ls [parent-id]          List a folder (default: root)
  info <id>               Show a file, its resume position and HLS URL
  hls <id>                Print the HLS playlist URL
  rename <id> <name>      Rename a file
  mv <parent-id> <id>...  Move files into a folder
  rm <id>...              Delete files
  watch [parent-id]       Poll a folder and report changes
  sandbox                 Serve an in-memory API for local testing`)
}

// parse parses flags and sets up logging and the files service. The
// returned context carries the command logger.
func (e *cliEnv) parse(ctx context.Context, args []string) (context.Context, error) {
	if err := e.flags.Parse(args); err != nil {
		return ctx, err
	}
	if err := e.cfg.Validate(); err != nil {
		return ctx, err
	}
	if err := logging.Init(logging.Config{Level: e.cfg.LogLevel, Format: e.cfg.LogFormat}); err != nil {
		return ctx, fmt.Errorf("init logging: %w", err)
	}
	ctx = logging.WithCommand(ctx, e.name)
	e.log = logging.WithContext(ctx)

	if e.cfg.Token == "" {
		e.cfg.Token = promptToken(e.stderr)
	}

	c := client.New(client.Config{
		BaseURL:     e.cfg.APIBase,
		Timeout:     e.cfg.Timeout,
		RetryConfig: retry.Backoff(e.cfg.RetryAttempts),
		Session:     session.Static(e.cfg.Token),
		Logger:      e.log,
	})
	e.svc = files.New(c, files.WithLogger(e.log))
	return ctx, nil
}

// promptToken asks for a token without echo when stdin is a terminal.
func promptToken(w io.Writer) string {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ""
	}
	fmt.Fprint(w, "put.io token: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func cmdList(ctx context.Context, env *cliEnv, args []string) error {
	ctx, err := env.parse(ctx, args)
	if err != nil {
		return err
	}
	parent, err := optionalID(env.flags.Args())
	if err != nil {
		return err
	}

	folder, err := env.svc.ListFolder(ctx, parent)
	if err != nil {
		return err
	}
	printFiles(env.stdout, folder.Files)
	return nil
}

func cmdInfo(ctx context.Context, env *cliEnv, args []string) error {
	ctx, err := env.parse(ctx, args)
	if err != nil {
		return err
	}
	id, err := requiredID(env.flags.Args(), "info <id>")
	if err != nil {
		return err
	}

	f, err := env.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	progress, err := env.svc.Progress(ctx, id)
	if err != nil {
		env.log.Warn("progress unavailable", logging.Int64("id", id), logging.Err(err))
	}

	tw := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", f.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", f.DisplayName())
	fmt.Fprintf(tw, "Type:\t%s\n", kind(f))
	fmt.Fprintf(tw, "Size:\t%d\n", f.Size)
	fmt.Fprintf(tw, "Parent:\t%d\n", f.ParentID)
	fmt.Fprintf(tw, "MP4:\t%t\n", f.HasMP4)
	fmt.Fprintf(tw, "Shared:\t%t\n", f.IsShared)
	fmt.Fprintf(tw, "Accessed:\t%t\n", f.Accessed)
	if f.CreatedAt != nil {
		fmt.Fprintf(tw, "Created:\t%s\n", *f.CreatedAt)
	}
	fmt.Fprintf(tw, "Resume at:\t%ds\n", progress)
	if url, ok := env.svc.HLSPlaylist(ctx, f); ok && !f.IsDirectory() {
		fmt.Fprintf(tw, "HLS:\t%s\n", url)
	}
	return tw.Flush()
}

func cmdHLS(ctx context.Context, env *cliEnv, args []string) error {
	ctx, err := env.parse(ctx, args)
	if err != nil {
		return err
	}
	id, err := requiredID(env.flags.Args(), "hls <id>")
	if err != nil {
		return err
	}
	url, ok := env.svc.HLSPlaylist(ctx, &models.File{ID: id})
	if !ok {
		return errors.New("no access token; use -token or PUTIO_TOKEN")
	}
	fmt.Fprintln(env.stdout, url)
	return nil
}

func cmdRename(ctx context.Context, env *cliEnv, args []string) error {
	ctx, err := env.parse(ctx, args)
	if err != nil {
		return err
	}
	rest := env.flags.Args()
	if len(rest) != 2 {
		return fmt.Errorf("%w: rename <id> <name>", errUsage)
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}
	if err := env.svc.Rename(ctx, id, rest[1]); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "Renamed %d to %s\n", id, rest[1])
	return nil
}

func cmdMove(ctx context.Context, env *cliEnv, args []string) error {
	ctx, err := env.parse(ctx, args)
	if err != nil {
		return err
	}
	rest := env.flags.Args()
	if len(rest) < 2 {
		return fmt.Errorf("%w: mv <parent-id> <id>...", errUsage)
	}
	to, err := parseID(rest[0])
	if err != nil {
		return err
	}
	targets, err := fileRefs(rest[1:])
	if err != nil {
		return err
	}
	if err := env.svc.Move(ctx, targets, to); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "Moved %d file(s) to %d\n", len(targets), to)
	return nil
}

func cmdDelete(ctx context.Context, env *cliEnv, args []string) error {
	ctx, err := env.parse(ctx, args)
	if err != nil {
		return err
	}
	rest := env.flags.Args()
	if len(rest) == 0 {
		return fmt.Errorf("%w: rm <id>...", errUsage)
	}
	targets, err := fileRefs(rest)
	if err != nil {
		return err
	}
	if err := env.svc.Delete(ctx, targets); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "Deleted %d file(s)\n", len(targets))
	return nil
}

func cmdWatch(ctx context.Context, env *cliEnv, args []string) error {
	interval := env.flags.Duration("interval", 30*time.Second, "Polling interval")
	ctx, err := env.parse(ctx, args)
	if err != nil {
		return err
	}
	parent, err := optionalID(env.flags.Args())
	if err != nil {
		return err
	}
	if *interval <= 0 {
		return fmt.Errorf("%w: -interval must be positive", errUsage)
	}

	if env.cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: env.cfg.MetricsAddr, Handler: metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				env.log.Error("metrics server failed", logging.Err(err))
			}
		}()
		defer srv.Close()
		env.log.Info("serving metrics", logging.String("addr", env.cfg.MetricsAddr))
	}

	log := logging.WithContext(ctx)
	known := map[int64]string{}
	first := true
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		list, err := env.svc.List(ctx, parent)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			log.Warn("listing failed", logging.Int64("parent_id", parent), logging.Err(err))
		default:
			added, removed := diff(known, list)
			if !first {
				for _, f := range added {
					fmt.Fprintf(env.stdout, "+ %d\t%s\n", f.ID, f.DisplayName())
				}
				for _, id := range removed {
					fmt.Fprintf(env.stdout, "- %d\t%s\n", id, known[id])
				}
			}
			known = make(map[int64]string, len(list))
			for _, f := range list {
				known[f.ID] = f.DisplayName()
			}
			first = false
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func cmdSandbox(ctx context.Context, env *cliEnv, args []string) error {
	listen := env.flags.String("listen", "127.0.0.1:8081", "Listen address")
	seed := env.flags.Bool("seed", true, "Seed demo files")
	if err := env.flags.Parse(args); err != nil {
		return err
	}
	if err := logging.Init(logging.Config{Level: env.cfg.LogLevel, Format: env.cfg.LogFormat}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := logging.L()

	api := mock.New(env.cfg.Token)
	if *seed {
		seedSandbox(api)
	}

	srv := &http.Server{Addr: *listen, Handler: api}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("sandbox API listening",
		logging.String("addr", *listen),
		logging.Bool("token_required", env.cfg.Token != ""),
		logging.Int("files", api.Len()),
	)
	fmt.Fprintf(env.stdout, "Try: PUTIO_API_BASE=http://%s putio-files ls\n", *listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func seedSandbox(api *mock.Server) {
	movies := api.AddFolder(0, "Movies")
	shows := api.AddFolder(0, "Shows")
	api.Add(mock.Entry{ParentID: movies, Name: "Big Buck Bunny.mp4", Size: 276134947, ContentType: "video/mp4", HasMP4: true, Accessed: true, StartFrom: 312, CreatedAt: "2016-06-22T10:00:00"})
	api.Add(mock.Entry{ParentID: movies, Name: "Sintel.mkv", Size: 1032948521, ContentType: "video/x-matroska", CreatedAt: "2016-06-23T18:30:00"})
	api.Add(mock.Entry{ParentID: shows, Name: "Pilot.mkv", Size: 734003200, ContentType: "video/x-matroska", IsShared: true})
	api.Add(mock.Entry{Name: "readme.txt", Size: 1200, ContentType: "text/plain"})
}

// diff compares a new listing against the previous one.
func diff(known map[int64]string, list []*models.File) (added []*models.File, removed []int64) {
	seen := make(map[int64]bool, len(list))
	for _, f := range list {
		seen[f.ID] = true
		if _, ok := known[f.ID]; !ok {
			added = append(added, f)
		}
	}
	for id := range known {
		if !seen[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

func printFiles(w io.Writer, list []*models.File) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSIZE\tNAME")
	for _, f := range list {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", f.ID, kind(f), f.Size, f.DisplayName())
	}
	tw.Flush()
}

func kind(f *models.File) string {
	if f.IsDirectory() {
		return "dir"
	}
	return "file"
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid file id %q", s)
	}
	return id, nil
}

func requiredID(args []string, use string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s", errUsage, use)
	}
	return parseID(args[0])
}

func optionalID(args []string) (int64, error) {
	switch len(args) {
	case 0:
		return 0, nil
	case 1:
		return parseID(args[0])
	default:
		return 0, fmt.Errorf("%w: too many arguments", errUsage)
	}
}

func fileRefs(args []string) ([]*models.File, error) {
	refs := make([]*models.File, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		refs = append(refs, &models.File{ID: id})
	}
	return refs, nil
}
