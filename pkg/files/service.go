// Package files implements the put.io file operations: listing, detail
// fetch, rename, move and delete.
package files

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fruitsalade/putio/internal/metrics"
	"github.com/fruitsalade/putio/pkg/client"
	"github.com/fruitsalade/putio/pkg/models"
	"github.com/fruitsalade/putio/pkg/router"
	"github.com/fruitsalade/putio/pkg/session"
)

// Doer sends an endpoint to the API. *client.Client implements it.
type Doer interface {
	Do(ctx context.Context, ep router.Endpoint) (*client.Response, error)
}

// ListPolicy decides what List does with entries that fail to decode.
type ListPolicy int

const (
	// DropMalformed skips bad entries and returns the rest in order.
	DropMalformed ListPolicy = iota
	// FailOnMalformed returns the first decode error.
	FailOnMalformed
)

// Service runs file operations through a Doer.
type Service struct {
	doer    Doer
	router  *router.Router
	session *session.Session
	policy  ListPolicy
	log     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRouter overrides the router. The router base is used for playlist URLs.
func WithRouter(r *router.Router) Option {
	return func(s *Service) {
		if r != nil {
			s.router = r
		}
	}
}

// WithSession overrides the session used for playlist URLs.
func WithSession(sess *session.Session) Option {
	return func(s *Service) {
		if sess != nil {
			s.session = sess
		}
	}
}

// WithListPolicy sets how malformed listing entries are handled.
func WithListPolicy(p ListPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a Service. When doer is a *client.Client its base URL and
// session become the defaults.
func New(doer Doer, opts ...Option) *Service {
	s := &Service{
		doer:    doer,
		router:  router.New(""),
		session: session.Anonymous(),
		policy:  DropMalformed,
		log:     zap.NewNop(),
	}
	if c, ok := doer.(*client.Client); ok {
		s.router = router.New(c.BaseURL())
		s.session = c.Session()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the router used to build requests.
func (s *Service) Router() *router.Router {
	return s.router
}

// HLSPlaylist returns the streaming playlist URL for f, or false when the
// session has no access token.
func (s *Service) HLSPlaylist(ctx context.Context, f *models.File) (string, bool) {
	token, ok := s.session.AccessToken(ctx)
	if !ok || f == nil {
		return "", false
	}
	return models.HLSPlaylist(s.router.Base(), f.ID, token), true
}

// Rename gives the file id a new name.
func (s *Service) Rename(ctx context.Context, id int64, name string) error {
	_, err := s.doer.Do(ctx, s.router.RenameFile(id, name))
	return err
}

// Progress returns the playback resume position of id in whole seconds.
// A file without a recorded position yields 0 and a nil error.
func (s *Service) Progress(ctx context.Context, id int64) (int, error) {
	ep := s.router.File(id)
	resp, err := s.doer.Do(ctx, ep)
	if err != nil {
		return 0, err
	}
	file, ok := resp.JSON["file"].(map[string]any)
	if !ok {
		return 0, decodeError(ep, resp, fmt.Errorf("missing file object"))
	}
	return models.ResumeSeconds(file), nil
}

// Get fetches a single file.
func (s *Service) Get(ctx context.Context, id int64) (*models.File, error) {
	ep := s.router.File(id)
	resp, err := s.doer.Do(ctx, ep)
	if err != nil {
		return nil, err
	}
	obj, ok := resp.JSON["file"].(map[string]any)
	if !ok {
		return nil, decodeError(ep, resp, fmt.Errorf("missing file object"))
	}
	f, err := models.FileFromJSON(obj)
	if err != nil {
		return nil, decodeError(ep, resp, err)
	}
	return f, nil
}

// List returns the children of parentID (0 is the root folder).
func (s *Service) List(ctx context.Context, parentID int64) ([]*models.File, error) {
	folder, err := s.list(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return folder.Files, nil
}

// Folder is a listing together with the folder it was taken from.
type Folder struct {
	Parent *models.File // nil when the response did not describe it
	Files  []*models.File
}

// ListFolder lists parentID and links every child's Parent to the folder.
func (s *Service) ListFolder(ctx context.Context, parentID int64) (*Folder, error) {
	folder, err := s.list(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if folder.Parent != nil {
		models.AttachParent(folder.Parent, folder.Files)
	}
	return folder, nil
}

func (s *Service) list(ctx context.Context, parentID int64) (*Folder, error) {
	ep := s.router.Files(parentID)
	resp, err := s.doer.Do(ctx, ep)
	if err != nil {
		return nil, err
	}
	entries, ok := resp.JSON["files"].([]any)
	if !ok {
		return nil, decodeError(ep, resp, fmt.Errorf("missing files array"))
	}

	folder := &Folder{Files: make([]*models.File, 0, len(entries))}
	if obj, ok := resp.JSON["parent"].(map[string]any); ok {
		if p, err := models.FileFromJSON(obj); err == nil {
			folder.Parent = p
		}
	}

	dropped := 0
	for i, entry := range entries {
		f, err := decodeEntry(entry)
		if err != nil {
			if s.policy == FailOnMalformed {
				return nil, decodeError(ep, resp, fmt.Errorf("files[%d]: %w", i, err))
			}
			dropped++
			s.log.Warn("dropping malformed listing entry",
				zap.Int64("parent_id", parentID),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		folder.Files = append(folder.Files, f)
	}
	metrics.RecordDropped(dropped)
	return folder, nil
}

func decodeEntry(entry any) (*models.File, error) {
	obj, ok := entry.(map[string]any)
	if !ok {
		return nil, &models.DecodeError{Field: "id", Reason: fmt.Sprintf("entry is %T, not an object", entry)}
	}
	return models.FileFromJSON(obj)
}

// Delete removes files in a single batch request. An empty batch is a no-op.
func (s *Service) Delete(ctx context.Context, files []*models.File) error {
	ids := models.IDs(files)
	if len(ids) == 0 {
		return nil
	}
	_, err := s.doer.Do(ctx, s.router.DeleteFiles(ids))
	return err
}

// Move places files under the folder to in a single batch request. An empty
// batch is a no-op.
func (s *Service) Move(ctx context.Context, files []*models.File, to int64) error {
	ids := models.IDs(files)
	if len(ids) == 0 {
		return nil
	}
	_, err := s.doer.Do(ctx, s.router.MoveFiles(ids, to))
	return err
}

func decodeError(ep router.Endpoint, resp *client.Response, err error) error {
	return &client.APIError{
		Kind:       client.ErrDecode,
		Route:      ep.Name,
		StatusCode: resp.StatusCode,
		Err:        err,
	}
}
